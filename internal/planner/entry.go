package planner

import (
	"math"
	"time"
)

// EntryKind classifies an output entry by activity.
type EntryKind string

const (
	KindOptional       EntryKind = "optional"
	KindCurrentAffairs EntryKind = "current_affairs"
	KindAnswerWriting  EntryKind = "answer_writing"
	KindCSAT           EntryKind = "csat"
	KindStudy          EntryKind = "study"
	KindConsolidation  EntryKind = "consolidation"
	KindRevision       EntryKind = "revision"
	KindOff            EntryKind = "off"
)

// Main-subject labels of the fixed daily activities.
const (
	MainOptional       = "OPTIONAL"
	MainCurrentAffairs = "CURRENT AFFAIRS"
	MainAnswerWriting  = "MAINS ANSWER WRITING"
	MainGS             = "GS"
	MainOff            = "WEEKLY OFF"

	LabelWeeklyOff     = "Weekly Off"
	LabelWeeklyReview  = "Weekly Review"
	LabelConsolidation = "Consolidation Revision"
)

// Entry is one line of the generated calendar. Entries are append-only.
type Entry struct {
	Date          time.Time `json:"date"`
	Kind          EntryKind `json:"kind"`
	MainSubject   string    `json:"main_subject"`
	Subject       *string   `json:"subject,omitempty"`
	Topic         string    `json:"topic"`
	Subtopics     string    `json:"subtopics,omitempty"`
	SubtopicCount int       `json:"subtopic_count,omitempty"`
	Hours         float64   `json:"hours"`
	Sources       string    `json:"sources,omitempty"`
	Holiday       string    `json:"holiday,omitempty"`
	Note          string    `json:"note,omitempty"`
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

func strPtr(s string) *string {
	return &s
}
