package planner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/p-n-ai/pai-planner/internal/holiday"
	"github.com/p-n-ai/pai-planner/internal/reference"
)

// DefaultMaxDays is the safety ceiling on simulated days. Reaching it is a
// defect signal, not a normal outcome.
const DefaultMaxDays = 730

// Status is how a run terminated.
type Status string

const (
	// StatusCompleted means every subject, CSAT included, was covered and
	// revised.
	StatusCompleted Status = "completed"
	// StatusExamReached means the exam date passed first.
	StatusExamReached Status = "exam_reached"
	// StatusDayLimit means the safety ceiling forced termination.
	StatusDayLimit Status = "day_limit"
	// StatusEmptyPool means the profile left nothing to study.
	StatusEmptyPool Status = "empty_pool"
)

// Result is the outcome of one Generate call.
type Result struct {
	Status    Status            `json:"status"`
	StartDate time.Time         `json:"start_date"`
	ExamDate  time.Time         `json:"exam_date"`
	Days      int               `json:"days"`
	Entries   []Entry           `json:"entries"`
	Pool      []PoolEntry       `json:"pool"`
	Finished  []string          `json:"finished,omitempty"`
	Progress  []SubjectProgress `json:"progress"`
}

// Complete reports whether the whole syllabus was covered.
func (r *Result) Complete() bool {
	return r.Status == StatusCompleted
}

// Config holds dependencies for the planner.
type Config struct {
	Reference reference.Data
	Holidays  holiday.Provider
	MaxDays   int // safety ceiling (default 730)
}

// Planner generates study calendars. It is safe for concurrent use.
type Planner struct {
	idx      *index
	holidays holiday.Provider
	maxDays  int
}

// New validates the reference data and builds a planner.
func New(cfg Config) (*Planner, error) {
	if err := reference.Validate(cfg.Reference); err != nil {
		return nil, fmt.Errorf("invalid reference data: %w", err)
	}
	holidays := cfg.Holidays
	if holidays == nil {
		holidays = holiday.NopProvider{}
	}
	maxDays := cfg.MaxDays
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	return &Planner{
		idx:      buildIndex(cfg.Reference),
		holidays: holidays,
		maxDays:  maxDays,
	}, nil
}

// Generate walks the calendar from the profile's start date and returns
// the schedule. It performs one holiday lookup and no other I/O.
func (p *Planner) Generate(ctx context.Context, profile StudentProfile) *Result {
	prof := profile.Normalize()
	r := newRun(prof, p.idx)

	result := &Result{
		StartDate: prof.StartDate,
		ExamDate:  prof.ExamDate,
		Finished:  r.finished,
	}

	if len(r.pool) == 0 && !r.csatPending() {
		slog.Info("nothing to schedule", "profile_type", string(prof.Type))
		result.Status = StatusEmptyPool
		result.Entries = []Entry{}
		return result
	}

	limit := p.ceiling(prof)
	r.holidays = p.loadHolidays(ctx, prof, limit)

	day := 0
	for ; ; day++ {
		date := prof.StartDate.AddDate(0, 0, day)
		if r.done() {
			result.Status = StatusCompleted
			break
		}
		if date.After(prof.ExamDate) {
			result.Status = StatusExamReached
			break
		}
		if day >= limit {
			slog.Warn("day ceiling reached before syllabus completion",
				"max_days", limit,
				"profile_type", string(prof.Type),
			)
			result.Status = StatusDayLimit
			break
		}
		r.simulate(ResolveDay(prof, date, r.holidays))
	}

	result.Days = day
	result.Entries = r.entries
	result.Pool, result.Progress = r.snapshot()

	slog.Info("plan generated",
		"profile_type", string(prof.Type),
		"status", string(result.Status),
		"days", result.Days,
		"entries", len(result.Entries),
	)
	return result
}

// ceiling is the number of days a run may simulate: the configured limit,
// stretched so a distant exam date stays the real bound.
func (p *Planner) ceiling(prof StudentProfile) int {
	return max(p.maxDays, daysBetween(prof.StartDate, prof.ExamDate)+1)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func (p *Planner) loadHolidays(ctx context.Context, prof StudentProfile, limit int) holiday.Set {
	end := prof.StartDate.AddDate(0, 0, limit)
	if prof.ExamDate.Before(end) {
		end = prof.ExamDate
	}
	hs, err := p.holidays.Holidays(ctx, prof.Country, prof.StartDate, end)
	if err != nil {
		slog.Warn("holiday lookup failed, planning without holidays",
			"country", prof.Country,
			"error", err,
		)
		return holiday.Set{}
	}
	return holiday.NewSet(hs)
}

// run is the mutable state of one Generate call.
type run struct {
	profile  StudentProfile
	idx      *index
	holidays holiday.Set

	pool     []*PoolEntry
	finished []string
	csat     *PoolEntry
	progress map[string]*SubjectProgress
	revision RevisionScheduler

	// dailyCounts is subtopics scheduled today per main/sub-subject.
	dailyCounts  map[subKey]int
	budgetWarned bool

	entries []Entry
}

func newRun(prof StudentProfile, idx *index) *run {
	pool, finished := BuildPool(prof, idx.mains)
	r := &run{
		profile:     prof,
		idx:         idx,
		pool:        pool,
		finished:    finished,
		progress:    make(map[string]*SubjectProgress, len(pool)+1),
		dailyCounts: make(map[subKey]int),
		entries:     []Entry{},
	}
	for _, e := range pool {
		r.progress[e.Subject] = newProgress(e.Subject, idx.subs[e.Subject], e.Tier)
	}
	return r
}

// csatPending reports whether CSAT still has to be injected and studied.
func (r *run) csatPending() bool {
	if r.csat != nil {
		return !r.progress[csatSubject].Completed
	}
	if len(r.idx.subs[csatSubject]) == 0 {
		return false
	}
	return Classify(csatSubject, r.profile) != TierFinished
}

func (r *run) done() bool {
	for _, p := range r.progress {
		if !p.Completed {
			return false
		}
	}
	return !r.csatPending() && !r.revision.Pending()
}

// simulate resolves one calendar day.
func (r *run) simulate(dc DayContext) {
	clear(r.dailyCounts)

	revising := r.revision.State() == RevisionActive
	workingThrough := revising && r.profile.Type == WorkingProfessional && dc.IsOffDay
	if dc.Skipped() && !workingThrough {
		r.emitOff(dc)
		return
	}

	if dc.InCSATWindow {
		r.injectCSAT(dc.Date)
	}
	if r.csat == nil || r.progress[csatSubject].Completed {
		dc.releaseCSAT()
	}
	r.checkBudget(dc)
	r.emitFixed(dc)

	if revising {
		r.emitRevision(dc)
	} else {
		r.studyDay(dc)
	}

	r.revision.Promote(r.profile.Type)
}

func (r *run) checkBudget(dc DayContext) {
	if r.budgetWarned || dc.Budget.Total() <= r.profile.DailyHours {
		return
	}
	r.budgetWarned = true
	slog.Warn("daily budget exceeds available hours",
		"date", dc.Date.Format(holiday.DateLayout),
		"profile_type", string(r.profile.Type),
		"required_hours", dc.Budget.Total(),
		"daily_hours", r.profile.DailyHours,
	)
}

// injectCSAT adds CSAT to the pool with a boosted priority, once.
func (r *run) injectCSAT(date time.Time) {
	if r.csat != nil || !r.csatPending() {
		return
	}
	boosted := TierBoosted
	r.csat = &PoolEntry{
		Subject:  csatSubject,
		Tier:     Classify(csatSubject, r.profile),
		Override: &boosted,
	}
	r.progress[csatSubject] = newProgress(csatSubject, r.idx.subs[csatSubject], boosted)
	slog.Debug("csat unlocked", "date", date.Format(holiday.DateLayout))
}

func (r *run) emitOff(dc DayContext) {
	label := LabelWeeklyOff
	if dc.IsReviewSunday {
		label = LabelWeeklyReview
	}
	r.emit(dc, Entry{
		Kind:        KindOff,
		MainSubject: MainOff,
		Topic:       label,
	})
}

// emitFixed adds the optional, current-affairs and answer-writing blocks.
func (r *run) emitFixed(dc DayContext) {
	if dc.Budget.Optional > 0 {
		r.emit(dc, Entry{
			Kind:        KindOptional,
			MainSubject: MainOptional,
			Subject:     strPtr(r.profile.OptionalSubject),
			Topic:       "Optional Subject Preparation",
			Hours:       dc.Budget.Optional,
			Sources:     optionalSources,
		})
	}
	if dc.Budget.CurrentAffairs > 0 {
		r.emit(dc, Entry{
			Kind:        KindCurrentAffairs,
			MainSubject: MainCurrentAffairs,
			Topic:       "Newspaper Reading and Notes",
			Hours:       dc.Budget.CurrentAffairs,
			Sources:     currentAffairsSources,
		})
	}
	if dc.Budget.AnswerWriting > 0 {
		r.emit(dc, Entry{
			Kind:        KindAnswerWriting,
			MainSubject: MainAnswerWriting,
			Topic:       "Answer Writing Practice",
			Hours:       dc.Budget.AnswerWriting,
			Sources:     answerWritingSources,
		})
	}
}

func (r *run) emitRevision(dc DayContext) {
	subject, label, day, length := r.revision.Consume()

	var subs []string
	for _, s := range r.idx.subs[subject] {
		subs = append(subs, s.name)
	}
	r.emit(dc, Entry{
		Kind:        KindRevision,
		MainSubject: subject,
		Topic:       label,
		Subtopics:   strings.Join(subs, ", "),
		Hours:       dc.Budget.GS,
		Sources:     r.idx.sources.revision(subject),
		Note:        fmt.Sprintf("Revision day %d of %d", day, length),
	})
}

// studyDay schedules CSAT and the selected GS subjects.
func (r *run) studyDay(dc DayContext) {
	if r.csat != nil && dc.Budget.CSAT > 0 {
		r.studySubject(dc, r.progress[csatSubject], KindCSAT, dc.Budget.CSAT, csatHours)
	}

	selected := r.selectSubjects()
	if len(selected) == 0 {
		if dc.Budget.GS > 0 {
			r.emit(dc, Entry{
				Kind:        KindConsolidation,
				MainSubject: MainGS,
				Topic:       LabelConsolidation,
				Hours:       dc.Budget.GS,
				Sources:     defaultSources,
			})
		}
		return
	}

	share := dc.Budget.GS / float64(len(selected))
	for _, e := range selected {
		r.studySubject(dc, r.progress[e.Subject], KindStudy, share, baselineGS[dc.PaceType])
	}
}

// selectSubjects picks up to SubjectsPerDay incomplete GS subjects from the
// highest-priority non-empty tier, taking at most one big subject when
// more than one slot is open.
func (r *run) selectSubjects() []*PoolEntry {
	slots := r.profile.SubjectsPerDay
	var out []*PoolEntry
	top := Tier(-1)
	bigTaken := false
	for _, e := range r.pool {
		if r.progress[e.Subject].Completed {
			continue
		}
		if top < 0 {
			top = e.Effective()
		}
		if e.Effective() != top {
			break
		}
		if slots > 1 && isBig(e.Subject) {
			if bigTaken {
				continue
			}
			bigTaken = true
		}
		out = append(out, e)
		if len(out) == slots {
			break
		}
	}
	return out
}

// studySubject schedules subtopics of one main subject within budget
// hours. The first sub-subject follows the catalog pace scaled to the
// budget and capped by the hours it would take; later sub-subjects reached
// the same day are paced by the leftover time.
func (r *run) studySubject(dc DayContext, prog *SubjectProgress, kind EntryKind, budget, baseline float64) {
	if prog == nil || prog.Completed || budget <= 0 {
		return
	}

	leftover := budget
	first := true
	for !prog.Completed {
		sub := prog.current()

		var limit int
		if first {
			limit = scaledPace(sub.paceFor(dc.PaceType), budget, baseline)
			limit = min(limit, max(1, int(math.Floor(budget/sub.hoursPerSubtopic+1e-9))))
		} else {
			limit = int(math.Floor(leftover/sub.hoursPerSubtopic + 1e-9))
		}

		key := subKey{prog.Subject, sub.name}
		n := min(limit-r.dailyCounts[key], prog.remaining())
		if n <= 0 {
			return
		}

		taken := prog.take(n)
		r.dailyCounts[key] += len(taken)
		r.emitSubtopics(dc, kind, prog.Subject, sub, taken)
		leftover -= float64(len(taken)) * sub.hoursPerSubtopic
		first = false

		if prog.remaining() > 0 {
			return
		}
		if !prog.advance() {
			slog.Debug("subject completed",
				"subject", prog.Subject,
				"date", dc.Date.Format(holiday.DateLayout),
			)
			r.revision.Enqueue(prog.Subject)
			return
		}
		if leftover <= 0 {
			return
		}
	}
}

// scaledPace converts the catalog pace to today's limit. The pace assumes
// baseline hours; other budgets scale it linearly, never below one.
func scaledPace(pace int, budget, baseline float64) int {
	if pace < 1 {
		pace = 1
	}
	if baseline <= 0 || budget == baseline {
		return pace
	}
	return max(1, int(math.Floor(float64(pace)*budget/baseline+1e-9)))
}

// emitSubtopics writes one entry per run of subtopics sharing a topic.
func (r *run) emitSubtopics(dc DayContext, kind EntryKind, main string, sub *subSubject, taken []subtopic) {
	for i := 0; i < len(taken); {
		j := i
		names := []string{}
		for j < len(taken) && taken[j].topic == taken[i].topic {
			names = append(names, taken[j].name)
			j++
		}
		r.emit(dc, Entry{
			Kind:          kind,
			MainSubject:   main,
			Subject:       strPtr(sub.name),
			Topic:         taken[i].topic,
			Subtopics:     strings.Join(names, ", "),
			SubtopicCount: len(names),
			Hours:         float64(len(names)) * sub.hoursPerSubtopic,
			Sources:       r.idx.sources.study(main, sub.name),
		})
		i = j
	}
}

func (r *run) emit(dc DayContext, e Entry) {
	e.Date = dc.Date
	e.Hours = roundHours(e.Hours)
	if dc.IsHoliday {
		e.Holiday = dc.HolidayName
	}
	r.entries = append(r.entries, e)
}

// snapshot copies pool and progress state in pool order, CSAT first.
func (r *run) snapshot() ([]PoolEntry, []SubjectProgress) {
	entries := r.pool
	if r.csat != nil {
		entries = append([]*PoolEntry{r.csat}, r.pool...)
	}
	pool := make([]PoolEntry, 0, len(entries))
	progress := make([]SubjectProgress, 0, len(entries))
	for _, e := range entries {
		pool = append(pool, *e)
		p := *r.progress[e.Subject]
		p.subs = nil
		progress = append(progress, p)
	}
	return pool, progress
}
