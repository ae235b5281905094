package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-planner/internal/planner"
)

const dbTimeout = 5 * time.Second

// schema is applied by Migrate. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS plans (
	id          uuid PRIMARY KEY,
	profile     jsonb NOT NULL,
	status      text NOT NULL,
	start_date  date NOT NULL,
	exam_date   date NOT NULL,
	days        integer NOT NULL,
	state       jsonb NOT NULL,
	created_at  timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS plan_entries (
	plan_id        uuid NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
	seq            integer NOT NULL,
	date           date NOT NULL,
	kind           text NOT NULL,
	main_subject   text NOT NULL,
	subject        text,
	topic          text NOT NULL,
	subtopics      text NOT NULL DEFAULT '',
	subtopic_count integer NOT NULL DEFAULT 0,
	hours          double precision NOT NULL,
	sources        text NOT NULL DEFAULT '',
	holiday        text NOT NULL DEFAULT '',
	note           text NOT NULL DEFAULT '',
	PRIMARY KEY (plan_id, seq)
);

CREATE TABLE IF NOT EXISTS plan_events (
	id         bigserial PRIMARY KEY,
	plan_id    uuid REFERENCES plans(id) ON DELETE CASCADE,
	event_type text NOT NULL,
	data       jsonb NOT NULL DEFAULT '{}'::jsonb,
	created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS plans_created_at_idx ON plans (created_at DESC);
`

// Migrate creates the plan tables when they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate plan schema: %w", err)
	}
	return nil
}

// planState is the non-tabular part of a result kept as jsonb.
type planState struct {
	Pool     []planner.PoolEntry       `json:"pool"`
	Finished []string                  `json:"finished,omitempty"`
	Progress []planner.SubjectProgress `json:"progress"`
}

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed plan store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreatePlan(p Plan) (string, error) {
	if p.Result == nil {
		return "", fmt.Errorf("plan result is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	profile := p.Profile
	if len(profile) == 0 {
		profile = json.RawMessage(`{}`)
	}
	state, err := json.Marshal(planState{
		Pool:     p.Result.Pool,
		Finished: p.Result.Finished,
		Progress: p.Result.Progress,
	})
	if err != nil {
		return "", fmt.Errorf("marshal plan state: %w", err)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	id := uuid.NewString()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO plans (id, profile, status, start_date, exam_date, days, state, created_at)
		 VALUES ($1::uuid, $2::jsonb, $3, $4, $5, $6, $7::jsonb, $8)`,
		id,
		string(profile),
		string(p.Result.Status),
		p.Result.StartDate,
		p.Result.ExamDate,
		p.Result.Days,
		string(state),
		createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert plan: %w", err)
	}

	entries := p.Result.Entries
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"plan_entries"},
		[]string{"plan_id", "seq", "date", "kind", "main_subject", "subject", "topic", "subtopics", "subtopic_count", "hours", "sources", "holiday", "note"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{
				id, i, e.Date, string(e.Kind), e.MainSubject, e.Subject, e.Topic,
				e.Subtopics, e.SubtopicCount, e.Hours, e.Sources, e.Holiday, e.Note,
			}, nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("copy plan entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetPlan(id string) (*Plan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	p := &Plan{ID: id, Result: &planner.Result{}}
	var status string
	var profile, state []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profile, status, start_date, exam_date, days, state, created_at
		 FROM plans
		 WHERE id = $1::uuid`,
		id,
	).Scan(&profile, &status, &p.Result.StartDate, &p.Result.ExamDate, &p.Result.Days, &state, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	p.Profile = profile
	p.Result.Status = planner.Status(status)

	var ps planState
	if err := json.Unmarshal(state, &ps); err != nil {
		return nil, fmt.Errorf("decode plan state: %w", err)
	}
	p.Result.Pool = ps.Pool
	p.Result.Finished = ps.Finished
	p.Result.Progress = ps.Progress

	rows, err := s.pool.Query(ctx,
		`SELECT date, kind, main_subject, subject, topic, subtopics, subtopic_count, hours, sources, holiday, note
		 FROM plan_entries
		 WHERE plan_id = $1::uuid
		 ORDER BY seq ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query plan entries: %w", err)
	}
	defer rows.Close()

	p.Result.Entries = []planner.Entry{}
	for rows.Next() {
		var e planner.Entry
		var kind string
		if err := rows.Scan(
			&e.Date,
			&kind,
			&e.MainSubject,
			&e.Subject,
			&e.Topic,
			&e.Subtopics,
			&e.SubtopicCount,
			&e.Hours,
			&e.Sources,
			&e.Holiday,
			&e.Note,
		); err != nil {
			return nil, fmt.Errorf("scan plan entry: %w", err)
		}
		e.Kind = planner.EntryKind(kind)
		p.Result.Entries = append(p.Result.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan entries: %w", err)
	}

	return p, nil
}

// ListPlans returns the most recent plans first.
func (s *PostgresStore) ListPlans(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT p.id::text, p.status, p.days, p.start_date, p.exam_date, p.created_at,
		        (SELECT COUNT(*) FROM plan_entries e WHERE e.plan_id = p.id)
		 FROM plans p
		 ORDER BY p.created_at DESC, p.id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var status string
		if err := rows.Scan(&sm.ID, &status, &sm.Days, &sm.StartDate, &sm.ExamDate, &sm.CreatedAt, &sm.Entries); err != nil {
			return nil, fmt.Errorf("scan plan summary: %w", err)
		}
		sm.Status = planner.Status(status)
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return out, nil
}
