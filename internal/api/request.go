package api

import (
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-planner/internal/holiday"
	"github.com/p-n-ai/pai-planner/internal/planner"
)

const profileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["profile_type", "start_date"],
  "additionalProperties": false,
  "definitions": {
    "date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
    "clock": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
    "subjects": {
      "type": "array",
      "maxItems": 50,
      "items": {"type": "string", "minLength": 1, "maxLength": 100}
    }
  },
  "properties": {
    "profile_type": {"enum": ["full_time", "part_time", "working_professional"]},
    "start_date": {"$ref": "#/definitions/date"},
    "exam_year": {"type": "integer", "minimum": 2000, "maximum": 2100},
    "exam_date": {"$ref": "#/definitions/date"},
    "difficult_subjects": {"$ref": "#/definitions/subjects"},
    "started_subjects": {"$ref": "#/definitions/subjects"},
    "half_done_subjects": {"$ref": "#/definitions/subjects"},
    "confident_subjects": {"$ref": "#/definitions/subjects"},
    "finished_subjects": {"$ref": "#/definitions/subjects"},
    "optional_subject": {"type": "string", "maxLength": 100},
    "optional_status": {"enum": ["not_started", "in_progress", "completed"]},
    "daily_hours": {"type": "number", "exclusiveMinimum": 0, "maximum": 24},
    "start_time": {"$ref": "#/definitions/clock"},
    "sleep_time": {"$ref": "#/definitions/clock"},
    "weekly_off_days": {
      "type": "array",
      "maxItems": 7,
      "items": {"type": "string", "pattern": "(?i)^(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun|monday|tuesday|wednesday|thursday|friday|saturday|sunday)$"}
    },
    "subjects_per_day": {"type": "integer", "minimum": 1, "maximum": 2},
    "country": {"type": "string", "pattern": "^[A-Za-z]{2}$"}
  }
}`

// ProfileRequest is the JSON body of a plan request.
type ProfileRequest struct {
	ProfileType       string   `json:"profile_type"`
	StartDate         string   `json:"start_date"`
	ExamYear          int      `json:"exam_year,omitempty"`
	ExamDate          string   `json:"exam_date,omitempty"`
	DifficultSubjects []string `json:"difficult_subjects,omitempty"`
	StartedSubjects   []string `json:"started_subjects,omitempty"`
	HalfDoneSubjects  []string `json:"half_done_subjects,omitempty"`
	ConfidentSubjects []string `json:"confident_subjects,omitempty"`
	FinishedSubjects  []string `json:"finished_subjects,omitempty"`
	OptionalSubject   string   `json:"optional_subject,omitempty"`
	OptionalStatus    string   `json:"optional_status,omitempty"`
	DailyHours        float64  `json:"daily_hours,omitempty"`
	StartTime         string   `json:"start_time,omitempty"`
	SleepTime         string   `json:"sleep_time,omitempty"`
	WeeklyOffDays     []string `json:"weekly_off_days,omitempty"`
	SubjectsPerDay    int      `json:"subjects_per_day,omitempty"`
	Country           string   `json:"country,omitempty"`
}

// Profile converts the request into an engine profile.
func (r ProfileRequest) Profile(defaultCountry string) (planner.StudentProfile, error) {
	start, err := time.Parse(holiday.DateLayout, r.StartDate)
	if err != nil {
		return planner.StudentProfile{}, fmt.Errorf("start_date: %w", err)
	}

	var exam time.Time
	if r.ExamDate != "" {
		exam, err = time.Parse(holiday.DateLayout, r.ExamDate)
		if err != nil {
			return planner.StudentProfile{}, fmt.Errorf("exam_date: %w", err)
		}
		if exam.Before(start) {
			return planner.StudentProfile{}, fmt.Errorf("exam_date %s is before start_date %s", r.ExamDate, r.StartDate)
		}
	}
	if r.ExamYear != 0 && r.ExamYear < start.Year() {
		return planner.StudentProfile{}, fmt.Errorf("exam_year %d is before start_date %s", r.ExamYear, r.StartDate)
	}

	country := r.Country
	if country == "" {
		country = defaultCountry
	}

	return planner.StudentProfile{
		Type:              planner.ProfileType(r.ProfileType),
		StartDate:         start,
		ExamYear:          r.ExamYear,
		ExamDate:          exam,
		DifficultSubjects: r.DifficultSubjects,
		StartedSubjects:   r.StartedSubjects,
		HalfDoneSubjects:  r.HalfDoneSubjects,
		ConfidentSubjects: r.ConfidentSubjects,
		FinishedSubjects:  r.FinishedSubjects,
		OptionalSubject:   r.OptionalSubject,
		OptionalStatus:    planner.OptionalStatus(r.OptionalStatus),
		DailyHours:        r.DailyHours,
		StartTime:         r.StartTime,
		SleepTime:         r.SleepTime,
		WeeklyOffDays:     r.WeeklyOffDays,
		SubjectsPerDay:    r.SubjectsPerDay,
		Country:           country,
	}, nil
}

// validator checks request bodies against the profile schema.
type validator struct {
	schema *gojsonschema.Schema
}

func newValidator() (*validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(profileSchema))
	if err != nil {
		return nil, fmt.Errorf("compile profile schema: %w", err)
	}
	return &validator{schema: schema}, nil
}

// validate returns one message per schema violation. A body that is not
// JSON at all yields an error.
func (v *validator) validate(body []byte) ([]string, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return details, nil
}
