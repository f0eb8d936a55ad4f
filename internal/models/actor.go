package models

// Actor is the caller identity issued by the user directory.
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (a Actor) IsVendor() bool {
	return a.Role == RoleVendor
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
