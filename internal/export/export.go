// Package export renders vendor booking reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"roomstay/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Bookings"
	summarySheet  = "Summary"
)

var bookingHeaders = []string{
	"Booking", "Room", "Guest", "Email", "Phone", "Check-in", "Check-out",
	"Nights", "Guests", "Status", "Total", "Created",
}

var statusColors = map[models.BookingStatus]string{
	models.StatusPending:   "#FFF2CC",
	models.StatusConfirmed: "#E2EFDA",
	models.StatusCompleted: "#DDEBF7",
	models.StatusCancelled: "#F8CBAD",
}

type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Exporter{dir: dir, logger: logger}
}

// WriteBookings streams an xlsx workbook with one row per booking and a
// per-status summary sheet.
func (e *Exporter) WriteBookings(w io.Writer, ownerID string, bookings []*models.Booking) error {
	f, err := build(ownerID, bookings)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// SaveBookings writes the workbook into the export directory and returns its path.
func (e *Exporter) SaveBookings(ownerID string, bookings []*models.Booking, at time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := build(ownerID, bookings)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_%s_%s.xlsx", sanitize(ownerID), at.UTC().Format("20060102_150405"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

func build(ownerID string, bookings []*models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if _, err := f.NewSheet(summarySheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	_ = f.DeleteSheet("Sheet1")

	if err := writeBookingRows(f, bookings); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSummary(f, ownerID, bookings); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func writeBookingRows(f *excelize.File, bookings []*models.Booking) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	for i, h := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.SetCellStyle(bookingsSheet, "A1", lastCol+"1", headerStyle)

	statusStyles := make(map[models.BookingStatus]int, len(statusColors))
	for status, color := range statusColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("error creating style: %w", err)
		}
		statusStyles[status] = id
	}

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.ID,
			b.RoomID,
			b.GuestName,
			b.GuestEmail,
			b.GuestPhone,
			b.CheckIn.Format(models.DateLayout),
			b.CheckOut.Format(models.DateLayout),
			b.TotalNights,
			b.Guests,
			string(b.Status),
			b.TotalAmount.String(),
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(bookingsSheet, start, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
		if style, ok := statusStyles[b.Status]; ok {
			cell, _ := excelize.CoordinatesToCellName(10, row)
			_ = f.SetCellStyle(bookingsSheet, cell, cell, style)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "B", 10)
	_ = f.SetColWidth(bookingsSheet, "C", "E", 24)
	_ = f.SetColWidth(bookingsSheet, "F", lastCol, 14)
	_ = f.SetPanes(bookingsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return nil
}

func writeSummary(f *excelize.File, ownerID string, bookings []*models.Booking) error {
	counts := make(map[models.BookingStatus]int)
	var revenue models.Money
	for _, b := range bookings {
		counts[b.Status]++
		if b.Status == models.StatusConfirmed || b.Status == models.StatusCompleted {
			revenue += b.TotalAmount
		}
	}

	rows := [][]interface{}{
		{"Vendor", ownerID},
		{"Bookings", len(bookings)},
		{"Pending", counts[models.StatusPending]},
		{"Confirmed", counts[models.StatusConfirmed]},
		{"Completed", counts[models.StatusCompleted]},
		{"Cancelled", counts[models.StatusCancelled]},
		{"Revenue", revenue.String()},
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("error writing summary: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold)
	}
	_ = f.SetColWidth(summarySheet, "A", "B", 18)
	return nil
}

func sanitize(s string) string {
	out := []rune(s)
	for i, r := range out {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			out[i] = '_'
		}
	}
	return string(out)
}
