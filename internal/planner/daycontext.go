package planner

import (
	"time"

	"github.com/p-n-ai/pai-planner/internal/holiday"
)

// Budget is the hours allotted to each activity on one day.
type Budget struct {
	Optional       float64 `json:"optional"`
	CurrentAffairs float64 `json:"current_affairs"`
	GS             float64 `json:"gs"`
	CSAT           float64 `json:"csat"`
	AnswerWriting  float64 `json:"answer_writing"`
}

// Total is the sum of all activity hours.
func (b Budget) Total() float64 {
	return b.Optional + b.CurrentAffairs + b.GS + b.CSAT + b.AnswerWriting
}

var baseBudgets = map[ProfileType]Budget{
	FullTime:            {Optional: 3, CurrentAffairs: 1, GS: 5},
	PartTime:            {Optional: 2, CurrentAffairs: 1, GS: 4},
	WorkingProfessional: {Optional: 1, CurrentAffairs: 1, GS: 1},
}

var workingSundayBudget = Budget{Optional: 1, CurrentAffairs: 1, GS: 6}

// baselineGS is the GS hours the catalog pace is calibrated against.
var baselineGS = map[ProfileType]float64{
	FullTime:            5,
	PartTime:            4,
	WorkingProfessional: 6,
}

// optionalWindowMonths is the optional-subject window length when the exam
// is less than two calendar years away.
var optionalWindowMonths = map[ProfileType]int{
	FullTime:            3,
	PartTime:            4,
	WorkingProfessional: 6,
}

const (
	csatHours          = 1
	answerWritingHours = 1
	csatLeadMonths     = 4
	mainsWindowStart   = time.October
)

// DayContext is everything the walker needs to know about one date.
type DayContext struct {
	Date        time.Time
	IsHoliday   bool
	HolidayName string
	IsSunday    bool
	// IsOffDay is a configured Monday–Friday off-day.
	IsOffDay bool
	// IsReviewSunday is a Sunday the profile takes off for weekly review.
	IsReviewSunday   bool
	InOptionalWindow bool
	InCSATWindow     bool
	InMainsWindow    bool
	Budget           Budget
	// PaceType selects the catalog pace column; holidays use full-time pace.
	PaceType ProfileType

	csatCarved bool
}

// releaseCSAT drops the CSAT block on days with no CSAT left to study. An
// hour carved from GS goes back to GS.
func (d *DayContext) releaseCSAT() {
	if d.csatCarved {
		d.Budget.GS += d.Budget.CSAT
	}
	d.Budget.CSAT = 0
	d.csatCarved = false
}

// Skipped reports whether no study happens on this date.
func (d DayContext) Skipped() bool {
	return d.IsOffDay || d.IsReviewSunday
}

// ResolveDay computes the calendar context and hour budgets for a date of
// a normalized profile.
func ResolveDay(p StudentProfile, date time.Time, holidays holiday.Set) DayContext {
	date = dateOnly(date)
	wd := date.Weekday()

	d := DayContext{
		Date:     date,
		IsSunday: wd == time.Sunday,
		PaceType: p.Type,
	}
	d.HolidayName, d.IsHoliday = holidays.Lookup(date)
	d.IsOffDay = wd >= time.Monday && wd <= time.Friday && p.isOff(wd)
	d.IsReviewSunday = d.IsSunday && p.Type != WorkingProfessional && p.isOff(time.Sunday)
	d.InOptionalWindow = inOptionalWindow(p, date)
	d.InCSATWindow = !date.Before(CSATOpens(p))
	d.InMainsWindow = date.Month() >= mainsWindowStart

	switch {
	case d.IsHoliday:
		d.Budget = baseBudgets[FullTime]
		d.PaceType = FullTime
	case p.Type == WorkingProfessional && d.IsSunday:
		d.Budget = workingSundayBudget
	default:
		d.Budget = baseBudgets[p.Type]
	}

	if !d.InOptionalWindow {
		d.Budget.Optional = 0
	}
	if d.InCSATWindow {
		d.Budget.CSAT = csatHours
		gs := d.Budget.GS
		d.Budget.GS = carve(gs, csatHours)
		d.csatCarved = d.Budget.GS != gs
	}
	if d.InMainsWindow {
		d.Budget.AnswerWriting = answerWritingHours
		d.Budget.GS = carve(d.Budget.GS, answerWritingHours)
	}
	return d
}

// carve takes h hours out of GS while GS stays positive. When GS is
// already at its one-hour floor the extra activity is added on top.
func carve(gs, h float64) float64 {
	if gs-h >= 1 {
		return gs - h
	}
	return gs
}

// CSATOpens is the first date CSAT is studied: four months before the exam.
func CSATOpens(p StudentProfile) time.Time {
	return p.ExamDate.AddDate(0, -csatLeadMonths, 0)
}

// OptionalWindowEnd is the first date after the optional-subject window.
// When the exam is two or more calendar years away the window closes at a
// fixed cutoff, the end of the start year; otherwise it lasts a
// profile-specific number of months from the start date.
func OptionalWindowEnd(p StudentProfile) time.Time {
	if p.ExamYear-p.StartDate.Year() >= 2 {
		return time.Date(p.StartDate.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return p.StartDate.AddDate(0, optionalWindowMonths[p.Type], 0)
}

func inOptionalWindow(p StudentProfile, date time.Time) bool {
	if !p.HasOptional() {
		return false
	}
	return !date.Before(p.StartDate) && date.Before(OptionalWindowEnd(p))
}
