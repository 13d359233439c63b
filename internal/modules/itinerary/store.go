// README: Itinerary store backed by PostgreSQL, plus an in-memory store for local runs.
package itinerary

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flybot/internal/types"
)

// Repository is what the service needs from persistence.
type Repository interface {
	Create(ctx context.Context, it *Itinerary) error
	Get(ctx context.Context, id types.ID) (*Itinerary, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	ListByConversation(ctx context.Context, conversationID types.ID) ([]*Itinerary, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, it *Itinerary) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO itineraries (
			id, conversation_id, status, status_version,
			origin, destination, outbound_date, return_date,
			budget_amount, budget_currency, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11
		)`,
		string(it.ID),
		string(it.ConversationID),
		string(it.Status),
		it.StatusVersion,
		it.Origin, it.Destination,
		it.OutboundDate, it.ReturnDate,
		it.Budget.Amount, it.Budget.Currency,
		it.CreatedAt,
	)
	return err
}

const selectColumns = `
	SELECT id, conversation_id, status, status_version,
	       origin, destination, outbound_date, return_date,
	       budget_amount, budget_currency, created_at, cancelled_at, cancel_reason
	FROM itineraries`

func (s *Store) Get(ctx context.Context, id types.ID) (*Itinerary, error) {
	row := s.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, string(id))
	it, err := scanItinerary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

func (s *Store) ListByConversation(ctx context.Context, conversationID types.ID) ([]*Itinerary, error) {
	rows, err := s.db.Query(ctx, selectColumns+` WHERE conversation_id = $1 ORDER BY created_at`, string(conversationID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Itinerary
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE itineraries
		SET status = $1,
		    status_version = status_version + 1,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    cancel_reason = COALESCE($2, cancel_reason)
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO itinerary_state_events (
			itinerary_id, from_status, to_status, actor_type, created_at
		) VALUES ($1, $2, $3, $4, $5)`,
		string(e.ItineraryID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		e.CreatedAt,
	)
	return err
}

func scanItinerary(row pgx.Row) (*Itinerary, error) {
	var it Itinerary
	var status string
	err := row.Scan(
		&it.ID, &it.ConversationID, &status, &it.StatusVersion,
		&it.Origin, &it.Destination, &it.OutboundDate, &it.ReturnDate,
		&it.Budget.Amount, &it.Budget.Currency, &it.CreatedAt, &it.CancelledAt, &it.CancelReason,
	)
	if err != nil {
		return nil, err
	}
	it.Status = Status(status)
	return &it, nil
}

// MemoryStore keeps itineraries in process memory. Used when no database is configured.
type MemoryStore struct {
	mu     sync.Mutex
	items  map[types.ID]*Itinerary
	events []*Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[types.ID]*Itinerary)}
}

func (m *MemoryStore) Create(_ context.Context, it *Itinerary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; ok {
		return ErrConflict
	}
	cp := *it
	m.items[it.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Itinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *MemoryStore) ListByConversation(_ context.Context, conversationID types.ID) ([]*Itinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Itinerary
	for _, it := range m.items {
		if it.ConversationID == conversationID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.Status != from || it.StatusVersion != version {
		return false, nil
	}
	it.Status = to
	it.StatusVersion++
	if to == StatusCancelled {
		now := time.Now()
		it.CancelledAt = &now
	}
	if reason != nil {
		it.CancelReason = reason
	}
	return true, nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}
