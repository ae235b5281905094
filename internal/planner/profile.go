// Package planner generates a day-by-day study calendar for an exam
// aspirant from a static profile and reference syllabus.
//
// The engine is deterministic and single-threaded per run: all mutable
// state lives in a run value created by Generate, so independent runs can
// execute concurrently on one Planner.
package planner

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/p-n-ai/pai-planner/internal/reference"
)

// ProfileType is the aspirant category that drives hour budgets and pace.
type ProfileType string

const (
	FullTime            ProfileType = "full_time"
	PartTime            ProfileType = "part_time"
	WorkingProfessional ProfileType = "working_professional"
)

// Valid reports whether t is a known profile type.
func (t ProfileType) Valid() bool {
	switch t {
	case FullTime, PartTime, WorkingProfessional:
		return true
	}
	return false
}

// OptionalStatus is the preparation status of the optional subject.
type OptionalStatus string

const (
	OptionalNotStarted OptionalStatus = "not_started"
	OptionalInProgress OptionalStatus = "in_progress"
	OptionalCompleted  OptionalStatus = "completed"
)

// DefaultCountry is the holiday region used when a profile names none.
const DefaultCountry = "IN"

// StudentProfile is the validated input for one plan. The engine never
// mutates it; Normalize returns the copy the engine works from.
type StudentProfile struct {
	Type      ProfileType
	StartDate time.Time
	ExamYear  int
	// ExamDate overrides the date derived from ExamYear when set.
	ExamDate time.Time

	DifficultSubjects []string
	StartedSubjects   []string
	HalfDoneSubjects  []string
	ConfidentSubjects []string
	FinishedSubjects  []string

	OptionalSubject string
	OptionalStatus  OptionalStatus

	DailyHours     float64
	StartTime      string // "06:00"
	SleepTime      string // "23:00"
	WeeklyOffDays  []string
	SubjectsPerDay int // full-time only
	Country        string

	offDays []time.Weekday
}

var defaultDailyHours = map[ProfileType]float64{
	FullTime:            9,
	PartTime:            6,
	WorkingProfessional: 3,
}

// Normalize returns a copy with names keyed, dates truncated to UTC
// midnight and graceful defaults applied.
func (p StudentProfile) Normalize() StudentProfile {
	n := p

	if !n.Type.Valid() {
		slog.Warn("unknown profile type, using full_time", "type", string(p.Type))
		n.Type = FullTime
	}

	if n.StartDate.IsZero() {
		n.StartDate = time.Now()
	}
	n.StartDate = dateOnly(n.StartDate)
	if n.ExamYear == 0 {
		if !n.ExamDate.IsZero() {
			n.ExamYear = n.ExamDate.Year()
		} else {
			n.ExamYear = n.StartDate.Year() + 1
		}
	}
	if n.ExamDate.IsZero() {
		n.ExamDate = defaultExamDate(n.ExamYear)
	}
	n.ExamDate = dateOnly(n.ExamDate)

	n.DifficultSubjects = keys(p.DifficultSubjects)
	n.StartedSubjects = keys(p.StartedSubjects)
	n.HalfDoneSubjects = keys(p.HalfDoneSubjects)
	n.ConfidentSubjects = keys(p.ConfidentSubjects)
	n.FinishedSubjects = keys(p.FinishedSubjects)

	n.OptionalSubject = strings.TrimSpace(p.OptionalSubject)
	if n.OptionalStatus == "" {
		n.OptionalStatus = OptionalNotStarted
	}

	if n.DailyHours <= 0 {
		n.DailyHours = defaultDailyHours[n.Type]
	}

	if n.Type != FullTime || n.SubjectsPerDay < 1 {
		n.SubjectsPerDay = 1
	}
	if n.SubjectsPerDay > 2 {
		n.SubjectsPerDay = 2
	}

	n.Country = strings.ToUpper(strings.TrimSpace(p.Country))
	if n.Country == "" {
		n.Country = DefaultCountry
	}

	n.offDays = nil
	for _, name := range p.WeeklyOffDays {
		wd, ok := parseWeekday(name)
		if !ok {
			slog.Debug("ignoring unknown off-day name", "name", name)
			continue
		}
		if !slices.Contains(n.offDays, wd) {
			n.offDays = append(n.offDays, wd)
		}
	}
	slices.Sort(n.offDays)

	return n
}

// OffDays returns the parsed weekly off-days of a normalized profile.
func (p StudentProfile) OffDays() []time.Weekday {
	return append([]time.Weekday(nil), p.offDays...)
}

func (p StudentProfile) isOff(wd time.Weekday) bool {
	return slices.Contains(p.offDays, wd)
}

// HasOptional reports whether an optional subject still needs study.
func (p StudentProfile) HasOptional() bool {
	return p.OptionalSubject != "" && p.OptionalStatus != OptionalCompleted
}

// defaultExamDate is the last Sunday of May of the exam year, when the
// preliminary examination is usually held.
func defaultExamDate(year int) time.Time {
	d := time.Date(year, time.May, 31, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// keys normalizes and de-duplicates subject names, keeping first
// occurrence order.
func keys(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		k := reference.Key(name)
		if k == "" || slices.Contains(out, k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}
