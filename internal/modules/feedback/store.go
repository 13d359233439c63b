// README: Failure-report store backed by PostgreSQL, plus an in-memory store for local runs.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flybot/internal/types"
)

type Repository interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, id types.ID) (*Report, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Report) error {
	var history []byte
	if r.WithHistory {
		b, err := json.Marshal(r.History)
		if err != nil {
			return err
		}
		history = b
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO failure_reports (id, conversation_id, reason, with_history, history, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(r.ID), string(r.ConversationID), r.Reason, r.WithHistory, history, r.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Report, error) {
	var r Report
	var history []byte
	err := s.db.QueryRow(ctx, `
		SELECT id, conversation_id, reason, with_history, history, created_at
		FROM failure_reports WHERE id = $1`, string(id),
	).Scan(&r.ID, &r.ConversationID, &r.Reason, &r.WithHistory, &history, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &r.History); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

type MemoryStore struct {
	mu      sync.Mutex
	reports map[types.ID]Report
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[types.ID]Report)}
}

func (m *MemoryStore) Create(_ context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	cp.History = append([]string(nil), r.History...)
	m.reports[r.ID] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}
