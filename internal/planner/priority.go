package planner

import (
	"log/slog"
	"slices"
	"sort"
)

// Tier is a subject's study priority; lower studies first.
type Tier int

const (
	TierBoosted       Tier = 0 // priority override for CSAT once unlocked
	TierDifficult     Tier = 1
	TierStarted       Tier = 2
	TierHalfDone      Tier = 3
	TierConfident     Tier = 4
	TierFinished      Tier = 5 // never pooled
	TierUncategorized Tier = 6
)

func (t Tier) String() string {
	switch t {
	case TierBoosted:
		return "boosted"
	case TierDifficult:
		return "difficult"
	case TierStarted:
		return "started"
	case TierHalfDone:
		return "half_done"
	case TierConfident:
		return "confident"
	case TierFinished:
		return "finished"
	case TierUncategorized:
		return "uncategorized"
	}
	return "unknown"
}

// Classify returns the tier of a keyed subject name. The profile lists are
// checked in priority order and the first match wins.
func Classify(subject string, p StudentProfile) Tier {
	t, _ := classify(subject, p)
	return t
}

// classify also returns the subject's position in the matching list, used
// to order subjects within a tier.
func classify(subject string, p StudentProfile) (Tier, int) {
	lists := []struct {
		tier  Tier
		names []string
	}{
		{TierDifficult, p.DifficultSubjects},
		{TierStarted, p.StartedSubjects},
		{TierHalfDone, p.HalfDoneSubjects},
		{TierConfident, p.ConfidentSubjects},
		{TierFinished, p.FinishedSubjects},
	}
	for _, l := range lists {
		if i := slices.Index(l.names, subject); i >= 0 {
			return l.tier, i
		}
	}
	return TierUncategorized, -1
}

// PoolEntry is one subject eligible for study with its priority.
type PoolEntry struct {
	Subject string `json:"subject"`
	Tier    Tier   `json:"tier"`
	// Override replaces Tier for selection when set. Tier keeps the
	// original classification.
	Override *Tier `json:"override,omitempty"`
}

// Effective returns the priority used for scheduling.
func (e PoolEntry) Effective() Tier {
	if e.Override != nil {
		return *e.Override
	}
	return e.Tier
}

// BuildPool classifies every catalog main subject. Finished subjects are
// returned separately and never pooled; CSAT is left out so it can be
// injected once its window opens. Profile subjects that the catalog does
// not know are dropped.
func BuildPool(p StudentProfile, catalogSubjects []string) (pool []*PoolEntry, finished []string) {
	type ranked struct {
		entry *PoolEntry
		rank  int
	}
	var rs []ranked

	for i, subject := range catalogSubjects {
		tier, pos := classify(subject, p)
		if tier == TierFinished {
			finished = append(finished, subject)
			continue
		}
		if subject == csatSubject {
			continue
		}
		rank := pos
		if tier == TierUncategorized {
			rank = i
		}
		rs = append(rs, ranked{entry: &PoolEntry{Subject: subject, Tier: tier}, rank: rank})
	}

	for _, list := range [][]string{p.DifficultSubjects, p.StartedSubjects, p.HalfDoneSubjects, p.ConfidentSubjects, p.FinishedSubjects} {
		for _, name := range list {
			if !slices.Contains(catalogSubjects, name) {
				slog.Debug("profile subject not in catalog, skipping", "subject", name)
			}
		}
	}

	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].entry.Tier != rs[j].entry.Tier {
			return rs[i].entry.Tier < rs[j].entry.Tier
		}
		return rs[i].rank < rs[j].rank
	})

	pool = make([]*PoolEntry, len(rs))
	for i, r := range rs {
		pool[i] = r.entry
	}
	return pool, finished
}
