package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"peregovorka/internal/domain"
	"peregovorka/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Schedule"

// ScheduleExporter renders a date range of room schedules into an Excel
// workbook: one column per date, one row per room, bookings listed in cells.
type ScheduleExporter struct {
	store  domain.Store
	dir    string
	logger *zerolog.Logger
}

func NewScheduleExporter(store domain.Store, dir string, logger *zerolog.Logger) *ScheduleExporter {
	return &ScheduleExporter{store: store, dir: dir, logger: logger}
}

// ExportRange writes the workbook for [from, to] inclusive and returns the
// saved file path.
func (e *ScheduleExporter) ExportRange(ctx context.Context, from, to models.Date) (string, error) {
	if to.Before(from) {
		return "", fmt.Errorf("export range end %s precedes start %s", to.Key(), from.Key())
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	rooms, err := e.store.LoadRooms(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting rooms: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s", from.Key(), to.Key()))

	dateCols, err := e.writeDateHeaders(f, from, to)
	if err != nil {
		return "", err
	}
	e.writeRoomHeaders(f, rooms)

	for date := from; !date.After(to); date = date.AddDays(1) {
		bookings, err := e.store.LoadBookings(ctx, date)
		if err != nil {
			return "", fmt.Errorf("error getting bookings for %s: %v", date.Key(), err)
		}
		e.writeDayColumn(f, rooms, bookings, dateCols[date.Key()])
	}

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 24)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx", from.Key(), to.Key())
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("schedule workbook created")
	return filePath, nil
}

func (e *ScheduleExporter) writeDateHeaders(f *excelize.File, from, to models.Date) (map[string]int, error) {
	col := 2
	dateCols := make(map[string]int)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for date := from; !date.After(to); date = date.AddDays(1) {
		cell, err := excelize.CoordinatesToCellName(col, 2)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheetName, cell, date.Key())
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		dateCols[date.Key()] = col
		col++
	}
	return dateCols, nil
}

func (e *ScheduleExporter) writeRoomHeaders(f *excelize.File, rooms []models.Room) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	row := 3
	for _, room := range rooms {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s (%d)", room.Name, room.Capacity))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		row++
	}
}

func (e *ScheduleExporter) writeDayColumn(f *excelize.File, rooms []models.Room, bookings []models.Booking, col int) {
	if col == 0 {
		return
	}

	byRoom := make(map[string][]models.Booking)
	for _, b := range bookings {
		if !b.Active() {
			continue
		}
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}

	busyStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	freeStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})

	row := 3
	for _, room := range rooms {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		roomBookings := byRoom[room.ID]

		if len(roomBookings) == 0 {
			_ = f.SetCellValue(sheetName, cell, "Free")
			_ = f.SetCellStyle(sheetName, cell, cell, freeStyle)
			row++
			continue
		}

		var sb strings.Builder
		for _, b := range roomBookings {
			fmt.Fprintf(&sb, "%s %s\n", b.Slot().String(), b.BookedBy.Name)
			if b.Comment != "" {
				fmt.Fprintf(&sb, "   %s\n", b.Comment)
			}
		}
		_ = f.SetCellValue(sheetName, cell, strings.TrimRight(sb.String(), "\n"))
		_ = f.SetCellStyle(sheetName, cell, cell, busyStyle)
		row++
	}
}
