package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bookingd/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	BookingsSheet = "Бронирования"
	ItemsSheet    = "Объекты"
)

var bookingHeaders = []string{
	"ID", "Пользователь", "Объект", "Начало", "Конец",
	"Сумма", "Статус", "Платеж", "Создано", "Обновлено",
}

var statusColors = map[models.BookingStatus]string{
	models.StatusPending:   "#FFF2CC",
	models.StatusConfirmed: "#E2EFDA",
	models.StatusCancelled: "#F8CBAD",
	models.StatusCompleted: "#DDEBF7",
}

// WriteBookingsXLSX saves a snapshot of bookings and items into dir and returns the file path.
func WriteBookingsXLSX(dir string, bookings []models.Booking, items []models.Item, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f, err := Build(bookings, items)
	if err != nil {
		return "", err
	}
	defer f.Close()

	filePath := filepath.Join(dir, fmt.Sprintf("bookings_%s.xlsx", now.Format("2006-01-02_150405")))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

// Build renders the workbook in memory. The caller closes it.
func Build(bookings []models.Booking, items []models.Item) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(BookingsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeBookings(f, bookings); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(ItemsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	if err := writeItems(f, items, bookings); err != nil {
		f.Close()
		return nil, err
	}

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func writeBookings(f *excelize.File, bookings []models.Booking) error {
	if err := writeHeader(f, BookingsSheet, bookingHeaders); err != nil {
		return err
	}

	styles := make(map[models.BookingStatus]int, len(statusColors))
	for status, color := range statusColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("create style: %w", err)
		}
		styles[status] = style
	}

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.ID,
			b.UserID,
			b.ItemID,
			b.StartDate.Format("02.01.2006"),
			b.EndDate.Format("02.01.2006"),
			b.TotalPrice,
			string(b.Status),
			b.PaymentID,
			b.CreatedAt.Format(time.RFC3339),
			b.UpdatedAt.Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(BookingsSheet, cell, &values); err != nil {
			return fmt.Errorf("write booking %s: %w", b.ID, err)
		}

		// Цвет строки по статусу
		if style, ok := styles[b.Status]; ok {
			last, _ := excelize.CoordinatesToCellName(len(bookingHeaders), row)
			_ = f.SetCellStyle(BookingsSheet, cell, last, style)
		}
	}

	_ = f.SetColWidth(BookingsSheet, "A", "A", 38)
	_ = f.SetColWidth(BookingsSheet, "B", "J", 18)
	return nil
}

func writeItems(f *excelize.File, items []models.Item, bookings []models.Booking) error {
	if err := writeHeader(f, ItemsSheet, []string{"ID", "Название", "Активен", "Активных броней"}); err != nil {
		return err
	}

	active := make(map[string]int)
	for _, b := range bookings {
		if b.Status.IsActive() {
			active[b.ItemID]++
		}
	}

	for i, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{item.ID, item.Name, item.IsActive, active[item.ID]}
		if err := f.SetSheetRow(ItemsSheet, cell, &values); err != nil {
			return fmt.Errorf("write item %s: %w", item.ID, err)
		}
	}

	_ = f.SetColWidth(ItemsSheet, "A", "D", 20)
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
