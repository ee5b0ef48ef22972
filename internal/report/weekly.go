package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/goodsign/monday"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
	"lidercheck/internal/week"
)

// WeeklyInput selects one line and shift for one week.
type WeeklyInput struct {
	Line  string
	Shift string
	Week  week.Week
	Items []checklist.Item
	Logs  []checklist.Log
	Users []checklist.User
}

var dayLabels = [week.BusinessDays]string{"Seg", "Ter", "Qua", "Qui", "Sex", "Sab"}

const (
	weeklyFirstDataRow = 5
	itemImageSize      = 80
	itemImageRowHeight = 60
)

// Weekly builds the weekly checklist sheet: one row per item, one column
// per business day holding that day's answer, reference images in column D
// and a footer naming who filled each day.
func (a *Assembler) Weekly(ctx context.Context, in WeeklyInput) (Workbook, error) {
	if strings.TrimSpace(in.Line) == "" {
		return Workbook{}, apperr.Validation("line is required")
	}
	if in.Shift == "" || in.Shift == checklist.ShiftAll {
		return Workbook{}, apperr.Validation("a specific shift is required")
	}

	byDay := a.dayLogs(in)

	sheet := Sheet{
		Name:   "Checklist",
		Widths: []float64{6, 15, 50, 25, 12, 12, 12, 12, 12, 12},
	}
	month := strings.ToUpper(monday.Format(in.Week.Monday, "January", monday.LocalePtBR))
	sheet.Rows = append(sheet.Rows,
		Row{Number: 1, Cells: []Cell{{Col: 1, Value: "RELATÓRIO SEMANAL DE CHECKLIST - LIDERANÇA", Style: titleStyle}}},
		Row{Number: 2, Cells: []Cell{{Col: 1, Value: fmt.Sprintf("LINHA: %s | TURNO: %s | SEMANA: %d | MÊS: %s | ANO: %d",
			in.Line, in.Shift, in.Week.Number, month, in.Week.Year), Style: infoStyle}}},
		Row{Number: 3, Height: 10},
	)
	sheet.Merges = append(sheet.Merges,
		Merge{From: Ref{1, 1}, To: Ref{10, 1}},
		Merge{From: Ref{1, 2}, To: Ref{10, 2}},
	)

	header := Row{Number: 4, Height: 25}
	for i, h := range []string{"ID", "CATEGORIA", "ITEM DE VERIFICAÇÃO", "EVIDÊNCIA / FOTO", "SEG", "TER", "QUA", "QUI", "SEX", "SAB"} {
		header.Cells = append(header.Cells, Cell{Col: i + 1, Value: h, Style: headStyle})
	}
	sheet.Rows = append(sheet.Rows, header)

	var jobs []imageJob
	rowNum := weeklyFirstDataRow
	for i, item := range in.Items {
		text := item.Text
		if len(item.Evidence) > 3 {
			text += "\n(Ref: " + item.Evidence + ")"
		}
		row := Row{Number: rowNum, Cells: []Cell{
			{Col: 1, Value: i + 1, Style: indexStyle},
			{Col: 2, Value: item.Category, Style: textStyle},
			{Col: 3, Value: text, Style: textStyle},
			{Col: 4, Value: "", Style: blankStyle},
		}}
		for d := range in.Week.Days {
			var answer checklist.Response
			if l, ok := byDay[d]; ok {
				answer = l.Data[item.ID]
			}
			row.Cells = append(row.Cells, Cell{Col: 5 + d, Value: string(answer), Style: ResponseStyle(answer)})
		}
		if item.ImageURL != "" {
			row.Height = itemImageRowHeight
			jobs = append(jobs, imageJob{
				label:  "item " + item.ID,
				ref:    item.ImageURL,
				at:     Ref{Col: 4, Row: rowNum},
				width:  itemImageSize,
				height: itemImageSize,
			})
		}
		sheet.Rows = append(sheet.Rows, row)
		rowNum++
	}

	var responsibles []string
	for d := range in.Week.Days {
		if l, ok := byDay[d]; ok {
			responsibles = append(responsibles, dayLabels[d]+": "+l.UserName)
		}
	}
	if len(responsibles) > 0 {
		rowNum++
		sheet.Rows = append(sheet.Rows, Row{Number: rowNum, Cells: []Cell{
			{Col: 1, Value: "RESPONSÁVEIS: " + strings.Join(responsibles, " | "), Style: footStyle},
		}})
		sheet.Merges = append(sheet.Merges, Merge{From: Ref{1, rowNum}, To: Ref{10, rowNum}})
	}

	images, err := a.prepareImages(ctx, jobs)
	if err != nil {
		return Workbook{}, err
	}
	sheet.Images = images

	return Workbook{
		FileName: fmt.Sprintf("Checklist_%s_Turno%s_W%d.xlsx", in.Line, in.Shift, in.Week.Number),
		Sheets:   []Sheet{sheet},
	}, nil
}

// dayLogs picks one production log per business day for the line, written
// by an author of the shift.
func (a *Assembler) dayLogs(in WeeklyInput) map[int]checklist.Log {
	shiftOf := make(map[string]string, len(in.Users))
	for _, u := range in.Users {
		shiftOf[u.Matricula] = u.Shift
	}

	candidates := make(map[int][]checklist.Log)
	for _, l := range in.Logs {
		if l.Line != in.Line || l.Type.Normalize() == checklist.LogMaintenance {
			continue
		}
		if shiftOf[l.UserID] != in.Shift {
			continue
		}
		if d := in.Week.Index(l.Day(a.Location)); d >= 0 {
			candidates[d] = append(candidates[d], l)
		}
	}

	out := make(map[int]checklist.Log, len(candidates))
	for d, logs := range candidates {
		if l, ok := a.TieBreak.Pick(logs); ok {
			out[d] = l
		}
	}
	return out
}

// ResponseStyle is the day-cell style for an answer.
func ResponseStyle(r checklist.Response) Style {
	s := blankStyle
	switch r {
	case checklist.NG:
		s.Color, s.Bold = colorNG, true
	case checklist.OK:
		s.Color, s.Bold = colorOK, true
	case checklist.NA:
		s.Color, s.Bold = colorNA, true
	}
	return s
}

// BackupName is the file name of a stored weekly backup.
func BackupName(line, shift string, w week.Week) string {
	return fmt.Sprintf("BACKUP_%s_T%s_W%d_%d.xlsx", line, shift, w.Number, w.Year)
}
