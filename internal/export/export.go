// Package export renders generated plans as spreadsheets.
package export

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-planner/internal/holiday"
	"github.com/p-n-ai/pai-planner/internal/planner"
)

// Sheet names of the exported workbook.
const (
	ScheduleSheet = "Schedule"
	SummarySheet  = "Summary"
)

// ContentType is the MIME type of an exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var scheduleHeader = []any{
	"Date", "Day", "Main Subject", "Subject", "Topic", "Subtopics",
	"Subtopic Count", "Hours", "Sources", "Holiday", "Note",
}

var scheduleWidths = map[string]float64{
	"A": 12, "B": 11, "C": 22, "D": 28, "E": 32, "F": 60,
	"G": 10, "H": 8, "I": 50, "J": 20, "K": 22,
}

// SubjectTotal is the aggregate effort spent on one main subject.
type SubjectTotal struct {
	MainSubject  string
	Hours        float64
	Subtopics    int
	RevisionDays int
}

// Totals aggregates hours, subtopics and revision days per main subject,
// most hours first. Off-day entries are ignored.
func Totals(res *planner.Result) []SubjectTotal {
	byMain := map[string]*SubjectTotal{}
	var order []string
	for _, e := range res.Entries {
		if e.Kind == planner.KindOff {
			continue
		}
		t, ok := byMain[e.MainSubject]
		if !ok {
			t = &SubjectTotal{MainSubject: e.MainSubject}
			byMain[e.MainSubject] = t
			order = append(order, e.MainSubject)
		}
		t.Hours += e.Hours
		t.Subtopics += e.SubtopicCount
		if e.Kind == planner.KindRevision {
			t.RevisionDays++
		}
	}

	out := make([]SubjectTotal, 0, len(order))
	for _, main := range order {
		t := *byMain[main]
		t.Hours = math.Round(t.Hours*100) / 100
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b SubjectTotal) int {
		switch {
		case a.Hours > b.Hours:
			return -1
		case a.Hours < b.Hours:
			return 1
		}
		return 0
	})
	return out
}

// WriteXLSX writes the plan as a workbook with a Schedule sheet, one row
// per entry, and a Summary sheet of per-subject totals.
func WriteXLSX(w io.Writer, planID string, res *planner.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ScheduleSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSchedule(f, res, bold); err != nil {
		return err
	}
	if err := writeSummary(f, planID, res, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSchedule(f *excelize.File, res *planner.Result, headerStyle int) error {
	if err := f.SetSheetRow(ScheduleSheet, "A1", &scheduleHeader); err != nil {
		return fmt.Errorf("write schedule header: %w", err)
	}
	if err := f.SetCellStyle(ScheduleSheet, "A1", "K1", headerStyle); err != nil {
		return fmt.Errorf("style schedule header: %w", err)
	}

	for i, e := range res.Entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		subject := ""
		if e.Subject != nil {
			subject = *e.Subject
		}
		row := []any{
			e.Date.Format(holiday.DateLayout),
			e.Date.Weekday().String(),
			e.MainSubject,
			subject,
			e.Topic,
			e.Subtopics,
			e.SubtopicCount,
			e.Hours,
			e.Sources,
			e.Holiday,
			e.Note,
		}
		if err := f.SetSheetRow(ScheduleSheet, cell, &row); err != nil {
			return fmt.Errorf("write schedule row %d: %w", i+2, err)
		}
	}

	for col, width := range scheduleWidths {
		if err := f.SetColWidth(ScheduleSheet, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	err := f.SetPanes(ScheduleSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return fmt.Errorf("freeze schedule header: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, planID string, res *planner.Result, headerStyle int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	meta := [][]any{
		{"Plan", planID},
		{"Status", string(res.Status)},
		{"Start Date", res.StartDate.Format(holiday.DateLayout)},
		{"Exam Date", res.ExamDate.Format(holiday.DateLayout)},
		{"Days", res.Days},
	}
	row := 1
	for _, r := range meta {
		if err := setRow(f, SummarySheet, row, r); err != nil {
			return err
		}
		row++
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", row-1), headerStyle); err != nil {
		return fmt.Errorf("style summary labels: %w", err)
	}

	row++
	header := row
	if err := setRow(f, SummarySheet, row, []any{"Main Subject", "Hours", "Subtopics", "Revision Days"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("A%d", header), fmt.Sprintf("D%d", header), headerStyle); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	for _, t := range Totals(res) {
		row++
		if err := setRow(f, SummarySheet, row, []any{t.MainSubject, t.Hours, t.Subtopics, t.RevisionDays}); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SummarySheet, "A", "A", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
