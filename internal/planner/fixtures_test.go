package planner

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/p-n-ai/pai-planner/internal/holiday"
	"github.com/p-n-ai/pai-planner/internal/reference"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pace(n int) reference.Pace {
	return reference.Pace{FullTime: n, PartTime: n, WorkingProfessional: n}
}

// topics generates nTopics topics of perTopic subtopics each.
func topics(prefix string, nTopics, perTopic int) [][]string {
	out := make([][]string, nTopics)
	for i := range out {
		for j := range perTopic {
			out[i] = append(out[i], fmt.Sprintf("%s %d.%d", prefix, i+1, j+1))
		}
	}
	return out
}

// addSub appends a catalog row and its syllabus topics.
func addSub(d *reference.Data, main, sub string, hps, maxHours float64, p reference.Pace, topicList [][]string) {
	count := 0
	for i, st := range topicList {
		count += len(st)
		d.Syllabus = append(d.Syllabus, reference.SyllabusEntry{
			MainSubject: main,
			SubSubject:  sub,
			Topic:       fmt.Sprintf("%s Topic %d", sub, i+1),
			Subtopics:   st,
		})
	}
	d.Catalog = append(d.Catalog, reference.CatalogEntry{
		MainSubject:      main,
		SubSubject:       sub,
		HoursPerSubtopic: hps,
		SubtopicCount:    count,
		MaxHours:         maxHours,
		Pace:             p,
	})
}

// gsData is a small GS syllabus with the four big subjects, two others
// and CSAT.
func gsData() reference.Data {
	var d reference.Data
	addSub(&d, "HISTORY", "Ancient History", 1, 0, pace(3), topics("Ancient", 2, 3))
	addSub(&d, "HISTORY", "Modern History", 1, 0, pace(3), topics("Modern", 2, 3))
	addSub(&d, "POLITY", "Constitution", 1, 0, pace(3), topics("Constitution", 2, 4))
	addSub(&d, "GEOGRAPHY", "Physical Geography", 1, 0, pace(3), topics("Physical", 2, 4))
	addSub(&d, "ECONOMY", "Macroeconomics", 1, 0, pace(3), topics("Macro", 2, 4))
	addSub(&d, "ETHICS", "Ethics Basics", 1, 0, pace(3), topics("Ethics", 2, 3))
	addSub(&d, "ENVIRONMENT", "Ecology", 1, 0, pace(3), topics("Ecology", 2, 3))
	addSub(&d, "CSAT", "Quantitative Aptitude", 1, 0, pace(2), topics("Quant", 2, 5))
	return d
}

func newTestPlanner(t *testing.T, d reference.Data, hp holiday.Provider, maxDays int) *Planner {
	t.Helper()
	p, err := New(Config{Reference: d, Holidays: hp, MaxDays: maxDays})
	require.NoError(t, err)
	return p
}

func entriesOn(entries []Entry, date time.Time) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Date.Equal(date) {
			out = append(out, e)
		}
	}
	return out
}

func ofKind(entries []Entry, kinds ...EntryKind) []Entry {
	var out []Entry
	for _, e := range entries {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func subtopicsScheduled(entries []Entry) int {
	n := 0
	for _, e := range entries {
		n += e.SubtopicCount
	}
	return n
}
