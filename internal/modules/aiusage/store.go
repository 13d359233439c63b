// README: AI-usage store backed by PostgreSQL, plus an in-memory store for local runs.
package aiusage

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the persistence the Service needs.
type Repository interface {
	UseToken(ctx context.Context, uid, month string, allowance int) error
	EnsureUser(ctx context.Context, uid, month string, allowance int) error
}

// Store handles ai_usage persistence.
type Store struct {
	db *pgxpool.Pool
}

// NewStore returns a Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// UseToken atomically checks the monthly quota and deducts one call.
// It resets the counter to allowance when last_reset_month is behind month.
// Returns ErrInsufficientTokens when 0 rows are updated (quota exhausted or owner absent).
func (s *Store) UseToken(ctx context.Context, uid, month string, allowance int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE ai_usage SET
			tokens_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_month = $1
		WHERE uid = $3 AND (last_reset_month < $1 OR tokens_remaining > 0)
	`, month, allowance, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientTokens
	}
	return nil
}

// EnsureUser inserts a row for uid with the full allowance; an existing row is left alone.
func (s *Store) EnsureUser(ctx context.Context, uid, month string, allowance int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_usage (uid, tokens_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, allowance, month)
	return err
}

type usage struct {
	remaining int
	month     string
}

// MemoryStore mirrors Store semantics in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]*usage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*usage)}
}

func (m *MemoryStore) UseToken(_ context.Context, uid, month string, allowance int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[uid]
	if !ok {
		return ErrInsufficientTokens
	}
	switch {
	case u.month < month:
		u.remaining = allowance - 1
		u.month = month
	case u.remaining > 0:
		u.remaining--
	default:
		return ErrInsufficientTokens
	}
	return nil
}

func (m *MemoryStore) EnsureUser(_ context.Context, uid, month string, allowance int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[uid]; !ok {
		m.rows[uid] = &usage{remaining: allowance, month: month}
	}
	return nil
}
