package planner

import (
	"log/slog"

	"github.com/p-n-ai/pai-planner/internal/reference"
)

const csatSubject = "CSAT"

// bigSubjects are the four heavy GS subjects: at most one is studied per
// day and their completion earns the weekly revision sequence.
var bigSubjects = map[string]bool{
	"HISTORY":   true,
	"GEOGRAPHY": true,
	"ECONOMY":   true,
	"POLITY":    true,
}

func isBig(subject string) bool {
	return bigSubjects[subject]
}

type subtopic struct {
	topic string
	name  string
}

// subSubject is a catalog row joined with its syllabus subtopics.
type subSubject struct {
	name             string
	hoursPerSubtopic float64
	maxHours         float64
	pace             reference.Pace
	subtopics        []subtopic
}

func (s *subSubject) paceFor(t ProfileType) int {
	switch t {
	case PartTime:
		return s.pace.PartTime
	case WorkingProfessional:
		return s.pace.WorkingProfessional
	}
	return s.pace.FullTime
}

// index is the read-only join of catalog and syllabus shared by all runs.
type index struct {
	mains   []string
	subs    map[string][]*subSubject
	sources *sourceTable
}

type subKey struct {
	main string
	sub  string
}

// buildIndex joins catalog rows with syllabus topics. Sub-subjects present
// in only one of the two tables are skipped, and main subjects left with no
// sub-subject are omitted.
func buildIndex(d reference.Data) *index {
	syllabus := make(map[subKey][]subtopic)
	for _, e := range d.Syllabus {
		k := subKey{reference.Key(e.MainSubject), reference.Key(e.SubSubject)}
		for _, name := range e.Subtopics {
			syllabus[k] = append(syllabus[k], subtopic{topic: e.Topic, name: name})
		}
	}

	idx := &index{
		subs:    make(map[string][]*subSubject),
		sources: newSourceTable(d.Sources),
	}
	seen := make(map[subKey]bool)
	for _, e := range d.Catalog {
		main := reference.Key(e.MainSubject)
		k := subKey{main, reference.Key(e.SubSubject)}
		if seen[k] {
			continue
		}
		seen[k] = true

		subtopics := syllabus[k]
		if len(subtopics) == 0 {
			slog.Debug("catalog sub-subject has no syllabus, skipping", "main_subject", main, "sub_subject", e.SubSubject)
			continue
		}
		if e.SubtopicCount > 0 && e.SubtopicCount != len(subtopics) {
			slog.Debug("catalog subtopic count differs from syllabus",
				"main_subject", main,
				"sub_subject", e.SubSubject,
				"catalog", e.SubtopicCount,
				"syllabus", len(subtopics),
			)
		}

		hps := e.HoursPerSubtopic
		if hps <= 0 && e.MaxHours > 0 {
			hps = e.MaxHours / float64(len(subtopics))
		}
		if hps <= 0 {
			hps = 1
		}
		if e.MaxHours > 0 && hps*float64(len(subtopics)) > e.MaxHours {
			hps = e.MaxHours / float64(len(subtopics))
		}

		if _, ok := idx.subs[main]; !ok {
			idx.mains = append(idx.mains, main)
		}
		idx.subs[main] = append(idx.subs[main], &subSubject{
			name:             e.SubSubject,
			hoursPerSubtopic: hps,
			maxHours:         e.MaxHours,
			pace:             e.Pace,
			subtopics:        subtopics,
		})
	}

	for k := range syllabus {
		if !seen[k] {
			slog.Debug("syllabus sub-subject has no catalog row, skipping", "main_subject", k.main, "sub_subject", k.sub)
		}
	}
	return idx
}

// totalSubtopics is the number of schedulable subtopics of a main subject.
func (idx *index) totalSubtopics(main string) int {
	n := 0
	for _, s := range idx.subs[main] {
		n += len(s.subtopics)
	}
	return n
}
