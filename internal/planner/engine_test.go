package planner

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-n-ai/pai-planner/internal/holiday"
	"github.com/p-n-ai/pai-planner/internal/reference"
)

type failingProvider struct{}

func (failingProvider) Holidays(context.Context, string, time.Time, time.Time) ([]holiday.Holiday, error) {
	return nil, errors.New("upstream unavailable")
}

var kindRank = map[EntryKind]int{
	KindOptional:       0,
	KindCurrentAffairs: 1,
	KindAnswerWriting:  2,
	KindCSAT:           3,
	KindStudy:          4,
	KindConsolidation:  4,
	KindRevision:       5,
	KindOff:            6,
}

func fullTimeProfile() StudentProfile {
	return StudentProfile{
		Type:              FullTime,
		StartDate:         day(2025, 1, 1),
		ExamDate:          day(2025, 5, 1),
		DifficultSubjects: []string{"History", "Ethics"},
		OptionalSubject:   "Sociology",
		SubjectsPerDay:    2,
	}
}

func TestNew_InvalidReference(t *testing.T) {
	d := reference.Data{Catalog: []reference.CatalogEntry{{MainSubject: "Polity", Pace: reference.Pace{FullTime: -1}}}}
	_, err := New(Config{Reference: d})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sub_subject is required")
	assert.Contains(t, err.Error(), "pace must be non-negative")
}

func TestGenerate_FirstDayOfFullTimePlan(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)

	res := p.Generate(t.Context(), fullTimeProfile())
	require.Equal(t, StatusCompleted, res.Status)

	first := entriesOn(res.Entries, day(2025, 1, 1))
	require.NotEmpty(t, first)

	assert.Equal(t, KindOptional, first[0].Kind)
	require.NotNil(t, first[0].Subject)
	assert.Equal(t, "Sociology", *first[0].Subject)
	assert.Equal(t, 3.0, first[0].Hours)

	assert.Equal(t, KindCurrentAffairs, first[1].Kind)
	assert.Equal(t, 1.0, first[1].Hours)

	csat := ofKind(first, KindCSAT)
	require.Len(t, csat, 1)
	assert.Equal(t, "CSAT", csat[0].MainSubject)

	mains := map[string]bool{}
	for _, e := range ofKind(first, KindStudy) {
		mains[e.MainSubject] = true
	}
	assert.Equal(t, map[string]bool{"HISTORY": true, "ETHICS": true}, mains)
}

func TestGenerate_CSATLockedUntilWindow(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)
	prof := fullTimeProfile()
	prof.ExamDate = day(2025, 8, 1)

	res := p.Generate(t.Context(), prof)
	require.Equal(t, StatusCompleted, res.Status)

	opens := day(2025, 4, 1)
	csat := ofKind(res.Entries, KindCSAT)
	require.NotEmpty(t, csat)
	for _, e := range csat {
		assert.False(t, e.Date.Before(opens), "csat scheduled on %s", e.Date.Format(holiday.DateLayout))
	}

	// GS finishes long before CSAT unlocks; the gap is consolidation.
	cons := ofKind(res.Entries, KindConsolidation)
	require.NotEmpty(t, cons)
	assert.True(t, cons[0].Date.Before(opens))
	for _, e := range cons {
		assert.Equal(t, LabelConsolidation, e.Topic)
		assert.Equal(t, MainGS, e.MainSubject)
	}

	require.NotEmpty(t, res.Pool)
	assert.Equal(t, "CSAT", res.Pool[0].Subject)
	assert.Equal(t, TierUncategorized, res.Pool[0].Tier)
	assert.Equal(t, TierBoosted, res.Pool[0].Effective())
}

func TestGenerate_SingleSubjectCompletion(t *testing.T) {
	var d reference.Data
	addSub(&d, "Ethics", "Ethics Basics", 0, 10, pace(2), topics("Ethics", 1, 5))
	p := newTestPlanner(t, d, nil, 0)

	res := p.Generate(t.Context(), StudentProfile{
		Type:      FullTime,
		StartDate: day(2025, 1, 6),
		ExamYear:  2026,
	})
	require.Equal(t, StatusCompleted, res.Status)
	assert.True(t, res.Complete())
	assert.Equal(t, 5, res.Days)

	counts := []int{2, 2, 1}
	for i, want := range counts {
		study := ofKind(entriesOn(res.Entries, day(2025, 1, 6+i)), KindStudy)
		assert.Equal(t, want, subtopicsScheduled(study), "day %d", i+1)
		for _, e := range study {
			assert.Equal(t, float64(e.SubtopicCount)*2, e.Hours)
		}
	}

	rev := ofKind(res.Entries, KindRevision)
	require.Len(t, rev, 2)
	assert.Equal(t, day(2025, 1, 9), rev[0].Date)
	assert.Equal(t, LabelSubjectRevision, rev[0].Topic)
	assert.Equal(t, day(2025, 1, 10), rev[1].Date)
	assert.Equal(t, LabelNCERTMCQTest, rev[1].Topic)
	assert.Equal(t, "ETHICS", rev[1].MainSubject)
	assert.Equal(t, 5.0, rev[1].Hours)

	require.Len(t, res.Progress, 1)
	assert.True(t, res.Progress[0].Completed)
}

func TestGenerate_WeeklyRevisionForBigSubject(t *testing.T) {
	var d reference.Data
	addSub(&d, "History", "Modern History", 1, 0, pace(3), topics("Modern", 1, 3))
	p := newTestPlanner(t, d, nil, 0)

	res := p.Generate(t.Context(), StudentProfile{Type: FullTime, StartDate: day(2025, 1, 6), ExamYear: 2026})
	require.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 8, res.Days)

	var labels []string
	for _, e := range ofKind(res.Entries, KindRevision) {
		labels = append(labels, e.Topic)
	}
	assert.Equal(t, []string{
		LabelSubjectRevision, LabelSubjectRevision, LabelSubjectRevision, LabelSubjectRevision, LabelSubjectRevision,
		LabelSectionalTest, LabelMCQTest,
	}, labels)
}

func TestGenerate_RevisionAcrossOffDay(t *testing.T) {
	var d reference.Data
	addSub(&d, "Ethics", "Ethics Basics", 1, 0, pace(1), topics("Ethics", 1, 1))
	p := newTestPlanner(t, d, nil, 0)

	tests := []struct {
		name     string
		typ      ProfileType
		wantDays int
		wantWed  EntryKind
	}{
		{"full time pauses", FullTime, 4, KindOff},
		{"working professional studies through", WorkingProfessional, 3, KindRevision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Generate(t.Context(), StudentProfile{
				Type:          tt.typ,
				StartDate:     day(2025, 1, 7),
				ExamYear:      2026,
				WeeklyOffDays: []string{"Wednesday"},
			})
			require.Equal(t, StatusCompleted, res.Status)
			assert.Equal(t, tt.wantDays, res.Days)

			wed := entriesOn(res.Entries, day(2025, 1, 8))
			require.NotEmpty(t, wed)
			assert.Equal(t, tt.wantWed, wed[len(wed)-1].Kind)

			rev := ofKind(res.Entries, KindRevision)
			require.Len(t, rev, 2)
			assert.Equal(t, LabelNCERTMCQTest, rev[1].Topic)
		})
	}
}

func TestGenerate_WorkingProfessionalSunday(t *testing.T) {
	var d reference.Data
	addSub(&d, "Ethics", "Ethics Basics", 1, 0, pace(4), topics("Ethics", 4, 10))
	p := newTestPlanner(t, d, nil, 0)

	prof := StudentProfile{
		Type:          WorkingProfessional,
		StartDate:     day(2025, 1, 6),
		ExamYear:      2026,
		WeeklyOffDays: []string{"Sunday"},
	}
	res := p.Generate(t.Context(), prof)

	sunday := day(2025, 1, 12)
	assert.Equal(t, 6.0, ResolveDay(prof.Normalize(), sunday, nil).Budget.GS)

	sun := ofKind(entriesOn(res.Entries, sunday), KindStudy)
	require.NotEmpty(t, sun)
	assert.Equal(t, 4, subtopicsScheduled(sun))
	assert.Equal(t, 1, subtopicsScheduled(ofKind(entriesOn(res.Entries, day(2025, 1, 8)), KindStudy)))
}

func TestGenerate_SecondSubSubjectUsesLeftoverHours(t *testing.T) {
	var d reference.Data
	addSub(&d, "Ethics", "Basics", 1, 0, pace(5), topics("Basics", 1, 2))
	addSub(&d, "Ethics", "Applied", 1, 0, pace(1), topics("Applied", 1, 10))
	p := newTestPlanner(t, d, nil, 0)

	res := p.Generate(t.Context(), StudentProfile{Type: FullTime, StartDate: day(2025, 1, 6), ExamYear: 2026})

	first := ofKind(entriesOn(res.Entries, day(2025, 1, 6)), KindStudy)
	require.Len(t, first, 2)
	assert.Equal(t, "Basics", *first[0].Subject)
	assert.Equal(t, 2, first[0].SubtopicCount)
	assert.Equal(t, "Applied", *first[1].Subject)
	assert.Equal(t, 3, first[1].SubtopicCount)

	second := ofKind(entriesOn(res.Entries, day(2025, 1, 7)), KindStudy)
	require.Len(t, second, 1)
	assert.Equal(t, 1, second[0].SubtopicCount)
}

func TestGenerate_GroupsByTopic(t *testing.T) {
	var d reference.Data
	addSub(&d, "Ethics", "Basics", 1.5, 0, pace(3), [][]string{{"Integrity", "Probity"}, {"Empathy"}})
	p := newTestPlanner(t, d, nil, 0)

	res := p.Generate(t.Context(), StudentProfile{Type: FullTime, StartDate: day(2025, 1, 6), ExamYear: 2026})

	study := ofKind(entriesOn(res.Entries, day(2025, 1, 6)), KindStudy)
	require.Len(t, study, 2)
	assert.Equal(t, "Basics Topic 1", study[0].Topic)
	assert.Equal(t, "Integrity, Probity", study[0].Subtopics)
	assert.Equal(t, 3.0, study[0].Hours)
	assert.Equal(t, "Basics Topic 2", study[1].Topic)
	assert.Equal(t, 1.5, study[1].Hours)
	assert.Equal(t, builtinSubjectSources["ETHICS"], study[1].Sources)
}

func TestGenerate_SplitsHoursBetweenSubjects(t *testing.T) {
	var d reference.Data
	addSub(&d, "Ethics", "Basics", 1, 0, pace(4), topics("Ethics", 2, 10))
	addSub(&d, "Environment", "Ecology", 1, 0, pace(4), topics("Ecology", 2, 10))
	p := newTestPlanner(t, d, nil, 0)

	res := p.Generate(t.Context(), StudentProfile{
		Type:           FullTime,
		StartDate:      day(2025, 1, 6),
		ExamYear:       2026,
		SubjectsPerDay: 2,
	})

	study := ofKind(entriesOn(res.Entries, day(2025, 1, 6)), KindStudy)
	require.Len(t, study, 2)
	assert.Equal(t, "ETHICS", study[0].MainSubject)
	assert.Equal(t, 2, study[0].SubtopicCount)
	assert.Equal(t, "ENVIRONMENT", study[1].MainSubject)
	assert.Equal(t, 2, study[1].SubtopicCount)
}

func TestGenerate_OneBigSubjectPerDay(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)

	res := p.Generate(t.Context(), StudentProfile{
		Type:              FullTime,
		StartDate:         day(2025, 1, 6),
		ExamYear:          2026,
		DifficultSubjects: []string{"History", "Polity"},
		SubjectsPerDay:    2,
	})

	mains := map[string]bool{}
	for _, e := range ofKind(entriesOn(res.Entries, day(2025, 1, 6)), KindStudy) {
		mains[e.MainSubject] = true
	}
	assert.Equal(t, map[string]bool{"HISTORY": true}, mains)
}

func TestGenerate_HolidayUsesFullTimeBudget(t *testing.T) {
	var d reference.Data
	addSub(&d, "Ethics", "Basics", 1, 0, reference.Pace{FullTime: 5, PartTime: 2, WorkingProfessional: 1}, topics("Ethics", 4, 5))
	hp := holiday.NewStaticProvider(holiday.Holiday{Date: day(2025, 1, 7), Name: "Test Holiday"})
	p := newTestPlanner(t, d, hp, 0)

	res := p.Generate(t.Context(), StudentProfile{Type: PartTime, StartDate: day(2025, 1, 6), ExamYear: 2026})

	assert.Equal(t, 2, subtopicsScheduled(ofKind(entriesOn(res.Entries, day(2025, 1, 6)), KindStudy)))

	hol := entriesOn(res.Entries, day(2025, 1, 7))
	require.NotEmpty(t, hol)
	assert.Equal(t, 5, subtopicsScheduled(ofKind(hol, KindStudy)))
	for _, e := range hol {
		assert.Equal(t, "Test Holiday", e.Holiday)
	}
	for _, e := range entriesOn(res.Entries, day(2025, 1, 8)) {
		assert.Empty(t, e.Holiday)
	}
}

func TestGenerate_HolidayFailureTolerated(t *testing.T) {
	with := newTestPlanner(t, gsData(), failingProvider{}, 0)
	without := newTestPlanner(t, gsData(), nil, 0)

	got := with.Generate(t.Context(), fullTimeProfile())
	want := without.Generate(t.Context(), fullTimeProfile())
	assert.Equal(t, want, got)
}

func TestGenerate_Termination(t *testing.T) {
	t.Run("exam reached", func(t *testing.T) {
		p := newTestPlanner(t, gsData(), nil, 0)
		res := p.Generate(t.Context(), StudentProfile{Type: FullTime, StartDate: day(2025, 1, 6), ExamDate: day(2025, 1, 7)})
		assert.Equal(t, StatusExamReached, res.Status)
		assert.False(t, res.Complete())
		assert.Equal(t, 2, res.Days)
		for _, e := range res.Entries {
			assert.False(t, e.Date.After(day(2025, 1, 7)))
		}
	})

	t.Run("configured limit below exam distance", func(t *testing.T) {
		p := newTestPlanner(t, gsData(), nil, 3)
		res := p.Generate(t.Context(), StudentProfile{Type: FullTime, StartDate: day(2025, 1, 6), ExamDate: day(2025, 1, 20)})
		assert.Equal(t, StatusExamReached, res.Status)
		assert.Equal(t, 15, res.Days)
	})

	t.Run("empty pool", func(t *testing.T) {
		p := newTestPlanner(t, gsData(), nil, 0)
		res := p.Generate(t.Context(), StudentProfile{
			Type:      FullTime,
			StartDate: day(2025, 1, 6),
			FinishedSubjects: []string{
				"History", "Polity", "Geography", "Economy", "Ethics", "Environment", "CSAT",
			},
		})
		assert.Equal(t, StatusEmptyPool, res.Status)
		assert.Empty(t, res.Entries)
		assert.Zero(t, res.Days)
		assert.Len(t, res.Finished, 7)
	})
}

func TestPlanner_Ceiling(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)

	near := StudentProfile{Type: FullTime, StartDate: day(2025, 1, 6), ExamYear: 2026}.Normalize()
	assert.Equal(t, DefaultMaxDays, p.ceiling(near))

	far := StudentProfile{Type: FullTime, StartDate: day(2025, 1, 6), ExamYear: 2027}.Normalize()
	assert.Equal(t, daysBetween(far.StartDate, far.ExamDate)+1, p.ceiling(far))
	assert.Greater(t, p.ceiling(far), DefaultMaxDays)
}

func TestGenerate_ExamTwoYearsAway(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)

	for _, typ := range []ProfileType{FullTime, PartTime, WorkingProfessional} {
		t.Run(string(typ), func(t *testing.T) {
			prof := StudentProfile{Type: typ, StartDate: day(2025, 1, 6), ExamYear: 2027}
			res := p.Generate(t.Context(), prof)

			assert.Equal(t, StatusCompleted, res.Status)
			assert.Greater(t, res.Days, DefaultMaxDays)

			csat := ofKind(res.Entries, KindCSAT)
			require.NotEmpty(t, csat)
			assert.False(t, csat[0].Date.Before(CSATOpens(prof.Normalize())))
		})
	}
}

func TestGenerate_FinishedCSATLeavesGSHours(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)

	res := p.Generate(t.Context(), StudentProfile{
		Type:      FullTime,
		StartDate: day(2025, 1, 6),
		ExamDate:  day(2025, 3, 1),
		FinishedSubjects: []string{
			"History", "Polity", "Geography", "Economy", "Environment", "CSAT",
		},
	})
	require.Equal(t, StatusCompleted, res.Status)
	assert.Empty(t, ofKind(res.Entries, KindCSAT))

	rev := ofKind(res.Entries, KindRevision)
	require.Len(t, rev, 2)
	assert.Equal(t, day(2025, 1, 8), rev[0].Date)
	for _, e := range rev {
		assert.Equal(t, 5.0, e.Hours)
	}
}

func TestGenerate_Properties(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)
	prof := fullTimeProfile()
	prof.WeeklyOffDays = []string{"Wednesday", "Saturday", "Sunday"}

	res := p.Generate(t.Context(), prof)
	require.Equal(t, StatusCompleted, res.Status)

	t.Run("bounded progress", func(t *testing.T) {
		per := map[string]int{}
		for _, e := range ofKind(res.Entries, KindStudy, KindCSAT) {
			per[e.MainSubject] += e.SubtopicCount
		}
		for _, main := range p.idx.mains {
			assert.Equal(t, p.idx.totalSubtopics(main), per[main], main)
		}
		for _, pr := range res.Progress {
			assert.True(t, pr.Completed, pr.Subject)
		}
	})

	t.Run("off days are pure", func(t *testing.T) {
		saturdays := 0
		for _, e := range res.Entries {
			switch e.Date.Weekday() {
			case time.Wednesday, time.Sunday:
				assert.Len(t, entriesOn(res.Entries, e.Date), 1)
				assert.Equal(t, KindOff, e.Kind)
				assert.Zero(t, e.Hours)
			case time.Saturday:
				assert.NotEqual(t, KindOff, e.Kind)
				saturdays++
			}
			if e.Kind == KindOff && e.Date.Weekday() == time.Sunday {
				assert.Equal(t, LabelWeeklyReview, e.Topic)
			}
		}
		assert.Positive(t, saturdays)
	})

	t.Run("activity order", func(t *testing.T) {
		for i := 1; i < len(res.Entries); i++ {
			prev, cur := res.Entries[i-1], res.Entries[i]
			require.False(t, cur.Date.Before(prev.Date))
			if cur.Date.Equal(prev.Date) {
				assert.LessOrEqual(t, kindRank[prev.Kind], kindRank[cur.Kind], cur.Date.Format(holiday.DateLayout))
			}
		}
	})

	t.Run("revision suspends study", func(t *testing.T) {
		dates := map[time.Time]bool{}
		for _, e := range ofKind(res.Entries, KindRevision) {
			dates[e.Date] = true
		}
		require.NotEmpty(t, dates)
		for d := range dates {
			assert.Empty(t, ofKind(entriesOn(res.Entries, d), KindStudy, KindCSAT))
		}
	})

	t.Run("revision follows completion", func(t *testing.T) {
		last := map[string]time.Time{}
		for _, e := range ofKind(res.Entries, KindStudy, KindCSAT) {
			last[e.MainSubject] = e.Date
		}
		for subject, done := range last {
			next := nextStudyDate(res.Entries, done)
			require.False(t, next.IsZero(), subject)
			assert.NotEmpty(t, ofKind(entriesOn(res.Entries, next), KindRevision), subject)
		}
	})
}

// nextStudyDate returns the first date after d with a non-off entry.
func nextStudyDate(entries []Entry, d time.Time) time.Time {
	for _, e := range entries {
		if e.Date.After(d) && e.Kind != KindOff {
			return e.Date
		}
	}
	return time.Time{}
}

func TestGenerate_Deterministic(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)

	first := p.Generate(t.Context(), fullTimeProfile())
	second := newTestPlanner(t, gsData(), nil, 0).Generate(t.Context(), fullTimeProfile())

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestGenerate_ConcurrentRuns(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)

	profiles := []StudentProfile{
		fullTimeProfile(),
		{Type: PartTime, StartDate: day(2025, 2, 3), ExamYear: 2026, StartedSubjects: []string{"Polity"}},
		{Type: WorkingProfessional, StartDate: day(2025, 3, 3), ExamYear: 2026, WeeklyOffDays: []string{"Friday"}},
	}
	want := make([]*Result, len(profiles))
	for i, prof := range profiles {
		want[i] = p.Generate(t.Context(), prof)
	}

	got := make([]*Result, len(profiles))
	var wg sync.WaitGroup
	for i, prof := range profiles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = p.Generate(context.Background(), prof)
		}()
	}
	wg.Wait()

	for i := range profiles {
		assert.Equal(t, want[i], got[i])
	}
}

func TestGenerate_DoesNotMutateProfile(t *testing.T) {
	p := newTestPlanner(t, gsData(), nil, 0)
	prof := fullTimeProfile()
	prof.DifficultSubjects = []string{"history", "ethics"}

	p.Generate(t.Context(), prof)
	assert.Equal(t, []string{"history", "ethics"}, prof.DifficultSubjects)
}
