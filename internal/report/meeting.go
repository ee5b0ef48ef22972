package report

import (
	"context"
	"strings"

	"lidercheck/internal/checklist"
)

const (
	meetingPhotoWidth  = 400
	meetingPhotoHeight = 250
	meetingTopicRows   = 6
)

// Meeting builds the minutes sheet for one meeting.
func (a *Assembler) Meeting(ctx context.Context, m checklist.Meeting) (Workbook, error) {
	title := m.Title
	if strings.TrimSpace(title) == "" {
		title = "Sem Título"
	}
	hours := m.StartTime
	if m.EndTime != "" {
		hours += " - " + m.EndTime
	}
	date := m.Date.In(a.Location).Format("02/01/2006")

	sheet := Sheet{
		Name:   "Ata de Reunião",
		Widths: []float64{20, 20, 20, 20, 20},
	}
	meetingTitle := titleStyle
	meetingTitle.Size = 16
	meetingTitle.Font = ""
	sheet.Rows = append(sheet.Rows,
		Row{Number: 1, Cells: []Cell{{Col: 1, Value: "ATA DE REUNIÃO: " + title, Style: meetingTitle}}},
		Row{Number: 2, Cells: []Cell{{Col: 1, Value: "DATA: " + date + " | HORÁRIO: " + hours, Style: Style{HAlign: "center"}}}},
		Row{Number: 3, Height: 10},
		Row{Number: 4, Cells: []Cell{{Col: 1, Value: "FOTO DA REUNIÃO", Style: Style{HAlign: "center", VAlign: "top", Border: true}}}},
		Row{Number: 16, Cells: []Cell{{Col: 1, Value: "PARTICIPANTES", Style: bandStyle}}},
	)
	sheet.Merges = append(sheet.Merges,
		Merge{From: Ref{1, 1}, To: Ref{5, 1}},
		Merge{From: Ref{1, 2}, To: Ref{5, 2}},
		Merge{From: Ref{1, 4}, To: Ref{5, 15}},
		Merge{From: Ref{1, 16}, To: Ref{5, 16}},
	)

	row := 17
	for _, p := range m.Participants {
		sheet.Rows = append(sheet.Rows, Row{Number: row, Cells: []Cell{{Col: 1, Value: "• " + p}}})
		sheet.Merges = append(sheet.Merges, Merge{From: Ref{1, row}, To: Ref{5, row}})
		row++
	}
	row++

	sheet.Rows = append(sheet.Rows, Row{Number: row, Cells: []Cell{{Col: 1, Value: "ASSUNTOS TRATADOS", Style: bandStyle}}})
	sheet.Merges = append(sheet.Merges, Merge{From: Ref{1, row}, To: Ref{5, row}})
	row++
	sheet.Rows = append(sheet.Rows, Row{Number: row, Cells: []Cell{{Col: 1, Value: m.Topics, Style: Style{VAlign: "top", Wrap: true}}}})
	sheet.Merges = append(sheet.Merges, Merge{From: Ref{1, row}, To: Ref{5, row + meetingTopicRows - 1}})

	var jobs []imageJob
	if m.PhotoURL != "" {
		jobs = append(jobs, imageJob{
			label:  "meeting " + m.ID + " photo",
			ref:    m.PhotoURL,
			at:     Ref{Col: 1, Row: 4},
			width:  meetingPhotoWidth,
			height: meetingPhotoHeight,
		})
	}
	images, err := a.prepareImages(ctx, jobs)
	if err != nil {
		return Workbook{}, err
	}
	sheet.Images = images

	return Workbook{
		FileName: "ATA_REUNIAO_" + m.Date.In(a.Location).Format("2006-01-02") + ".xlsx",
		Sheets:   []Sheet{sheet},
	}, nil
}
