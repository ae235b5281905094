// Package plan persists generated study plans and their lifecycle events.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-planner/internal/planner"
)

// ErrNotFound is returned when a plan id is unknown.
var ErrNotFound = errors.New("plan not found")

// Plan is one generated schedule together with the request it answered.
type Plan struct {
	ID        string          `json:"id"`
	Profile   json.RawMessage `json:"profile"`
	Result    *planner.Result `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// Summary is the list view of a stored plan.
type Summary struct {
	ID        string         `json:"id"`
	Status    planner.Status `json:"status"`
	Days      int            `json:"days"`
	Entries   int            `json:"entries"`
	StartDate time.Time      `json:"start_date"`
	ExamDate  time.Time      `json:"exam_date"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store persists generated plans.
type Store interface {
	CreatePlan(p Plan) (string, error)
	GetPlan(id string) (*Plan, error)
	ListPlans(limit int) ([]Summary, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	plans map[string]*Plan
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory plan store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans: make(map[string]*Plan),
	}
}

func (s *MemoryStore) CreatePlan(p Plan) (string, error) {
	if p.Result == nil {
		return "", fmt.Errorf("plan result is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.plans[p.ID] = &p
	return p.ID, nil
}

func (s *MemoryStore) GetPlan(id string) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

// ListPlans returns the most recent plans first.
func (s *MemoryStore) ListPlans(limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, summarize(p))
	}
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func summarize(p *Plan) Summary {
	return Summary{
		ID:        p.ID,
		Status:    p.Result.Status,
		Days:      p.Result.Days,
		Entries:   len(p.Result.Entries),
		StartDate: p.Result.StartDate,
		ExamDate:  p.Result.ExamDate,
		CreatedAt: p.CreatedAt,
	}
}
