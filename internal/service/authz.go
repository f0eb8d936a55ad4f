package service

import "roomstay/internal/models"

// Each lifecycle operation has exactly one authorization predicate.

func canCancel(actor models.Actor, b *models.Booking) bool {
	return actor.UserID != "" && actor.UserID == b.UserID
}

func canModify(actor models.Actor, b *models.Booking) bool {
	return actor.UserID != "" && actor.UserID == b.UserID
}

func canConfirm(actor models.Actor, p *models.Property) bool {
	return actor.IsVendor() && ownsProperty(actor, p)
}

func canViewBooking(actor models.Actor, b *models.Booking, p *models.Property) bool {
	if actor.UserID == "" {
		return false
	}
	return actor.IsAdmin() || actor.UserID == b.UserID || (actor.IsVendor() && ownsProperty(actor, p))
}

func canBook(actor models.Actor) bool {
	return actor.UserID != ""
}

func canViewVendorData(actor models.Actor) bool {
	return actor.IsVendor() && actor.UserID != ""
}

func ownsProperty(actor models.Actor, p *models.Property) bool {
	return p != nil && p.OwnerID == actor.UserID
}
