package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/blogem/diesel-log/models"
)

// SheetName is the worksheet holding the exported rows
const SheetName = "Diesel Logs"

// columnWidths per column, in characters
var columnWidths = []float64{24, 16, 10, 12, 22, 18, 16, 10}

// BuildXLSX builds a workbook with a styled header row followed by one row
// per record. Numbers are stored as numbers.
func BuildXLSX(logs []models.FuelLog, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: "#FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#1E3A8A"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	kmplStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}

	if err := writeHeader(f, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	for r, log := range logs {
		row := []interface{}{
			models.FormatExportDateTime(log.Timestamp, loc),
			log.VehicleNo,
			log.RouteNo,
			log.StaffNo,
			log.DriverName,
			log.KilometersDriven,
			log.DieselLitres,
			log.KMPL,
		}
		if err := writeRow(f, r+2, row, kmplStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze header row: %w", err)
	}

	return f, nil
}

// writeHeader writes the labels and column widths of row 1
func writeHeader(f *excelize.File, style int) error {
	for i, label := range Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header %q: %w", label, err)
		}
		if err := f.SetCellValue(SheetName, cell, label); err != nil {
			return fmt.Errorf("failed to write header %q: %w", label, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style header %q: %w", label, err)
		}

		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to address column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(SheetName, col, col, columnWidths[i]); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}
	return nil
}

// writeRow writes one record at the given 1-based row, KMPL as 0.00
func writeRow(f *excelize.File, rowNum int, values []interface{}, kmplStyle int) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}

	kmplCell, err := excelize.CoordinatesToCellName(len(values), rowNum)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", rowNum, err)
	}
	if err := f.SetCellStyle(SheetName, kmplCell, kmplCell, kmplStyle); err != nil {
		return fmt.Errorf("failed to style row %d: %w", rowNum, err)
	}
	return nil
}

// WriteXLSX builds the workbook and writes it to w
func WriteXLSX(w io.Writer, logs []models.FuelLog, loc *time.Location) error {
	f, err := BuildXLSX(logs, loc)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
