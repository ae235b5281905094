package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Plan lifecycle event types.
const (
	EventPlanGenerated = "plan_generated"
	EventPlanExported  = "plan_exported"
	EventPlanStreamed  = "plan_streamed"
)

// Event is one step in a plan's history: generated, exported or streamed.
type Event struct {
	PlanID    string         `json:"plan_id"`
	EventType string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (e Event) validate() error {
	if e.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if e.PlanID == "" {
		return fmt.Errorf("plan_id is required")
	}
	return nil
}

// EventLogger records plan history and reads it back per plan, oldest
// first.
type EventLogger interface {
	LogEvent(event Event) error
	PlanEvents(planID string) ([]Event, error)
}

// NopEventLogger discards events and reports no history.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(Event) error {
	return nil
}

func (NopEventLogger) PlanEvents(string) ([]Event, error) {
	return []Event{}, nil
}

// MemoryEventLogger keeps plan history in process, paired with MemoryStore.
type MemoryEventLogger struct {
	mu     sync.Mutex
	byPlan map[string][]Event
	order  []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		byPlan: make(map[string][]Event),
	}
}

func (l *MemoryEventLogger) LogEvent(event Event) error {
	if err := event.validate(); err != nil {
		return err
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.byPlan[event.PlanID] = append(l.byPlan[event.PlanID], event)
	l.order = append(l.order, event)
	return nil
}

func (l *MemoryEventLogger) PlanEvents(planID string) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.byPlan[planID]...), nil
}

// Events returns every recorded event in logging order.
func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.order...)
}

// PostgresEventLogger records plan history in the plan_events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

func (l *PostgresEventLogger) LogEvent(event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if err := event.validate(); err != nil {
		return err
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	// Events for unknown plans insert nothing.
	cmd, err := l.pool.Exec(ctx,
		`INSERT INTO plan_events (plan_id, event_type, data, created_at)
		 SELECT p.id, $2, $3::jsonb, $4
		 FROM plans p
		 WHERE p.id = $1::uuid`,
		event.PlanID,
		event.EventType,
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan event: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, event.PlanID)
	}

	slog.Debug("plan event logged",
		"type", event.EventType,
		"plan_id", event.PlanID,
	)
	return nil
}

func (l *PostgresEventLogger) PlanEvents(planID string) ([]Event, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("event logger pool is nil")
	}
	if _, err := uuid.Parse(planID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, planID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT event_type, data, created_at
		 FROM plan_events
		 WHERE plan_id = $1::uuid
		 ORDER BY created_at, id`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("query plan events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		e := Event{PlanID: planID}
		var data []byte
		if err := rows.Scan(&e.EventType, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan event: %w", err)
		}
		if err := json.Unmarshal(data, &e.Data); err != nil {
			return nil, fmt.Errorf("decode plan event %s: %w", e.EventType, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read plan events: %w", err)
	}
	return events, nil
}
