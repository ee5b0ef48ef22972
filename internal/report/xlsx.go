package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXRenderer writes a Workbook as an .xlsx document.
type XLSXRenderer struct{}

// ContentType is the MIME type of rendered workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Render returns the workbook bytes.
func (XLSXRenderer) Render(wb Workbook) ([]byte, error) {
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("render workbook: no sheets")
	}
	f := excelize.NewFile()
	defer f.Close()

	styles := make(map[Style]int)
	for i, sheet := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return nil, fmt.Errorf("render sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("render sheet %q: %w", sheet.Name, err)
		}
		if err := renderSheet(f, sheet, styles); err != nil {
			return nil, fmt.Errorf("render sheet %q: %w", sheet.Name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func renderSheet(f *excelize.File, sheet Sheet, styles map[Style]int) error {
	name := sheet.Name
	for i, w := range sheet.Widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, w); err != nil {
			return err
		}
	}

	for _, row := range sheet.Rows {
		if row.Height > 0 {
			if err := f.SetRowHeight(name, row.Number, row.Height); err != nil {
				return err
			}
		}
		for _, c := range row.Cells {
			cell, err := excelize.CoordinatesToCellName(c.Col, row.Number)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, c.Value); err != nil {
				return err
			}
			if c.Style == (Style{}) {
				continue
			}
			id, err := styleID(f, styles, c.Style)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(name, cell, cell, id); err != nil {
				return err
			}
		}
	}

	for _, m := range sheet.Merges {
		from, err := excelize.CoordinatesToCellName(m.From.Col, m.From.Row)
		if err != nil {
			return err
		}
		to, err := excelize.CoordinatesToCellName(m.To.Col, m.To.Row)
		if err != nil {
			return err
		}
		if err := f.MergeCell(name, from, to); err != nil {
			return err
		}
	}

	for _, img := range sheet.Images {
		cell, err := excelize.CoordinatesToCellName(img.At.Col, img.At.Row)
		if err != nil {
			return err
		}
		if err := f.AddPictureFromBytes(name, cell, &excelize.Picture{
			Extension: ".png",
			File:      img.PNG,
			Format:    &excelize.GraphicOptions{Positioning: "oneCell", OffsetX: 2, OffsetY: 2},
		}); err != nil {
			return err
		}
	}
	return nil
}

func styleID(f *excelize.File, cache map[Style]int, s Style) (int, error) {
	if id, ok := cache[s]; ok {
		return id, nil
	}
	xs := &excelize.Style{
		Font: &excelize.Font{
			Bold:   s.Bold,
			Italic: s.Italic,
			Family: s.Font,
			Size:   s.Size,
			Color:  s.Color,
		},
		Alignment: &excelize.Alignment{
			Horizontal: s.HAlign,
			Vertical:   s.VAlign,
			WrapText:   s.Wrap,
		},
	}
	if s.Fill != "" {
		xs.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.Fill}}
	}
	if s.Border {
		xs.Border = []excelize.Border{
			{Type: "left", Color: colorBlack, Style: 1},
			{Type: "top", Color: colorBlack, Style: 1},
			{Type: "right", Color: colorBlack, Style: 1},
			{Type: "bottom", Color: colorBlack, Style: 1},
		}
	}
	id, err := f.NewStyle(xs)
	if err != nil {
		return 0, err
	}
	cache[s] = id
	return id, nil
}
