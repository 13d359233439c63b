// README: Itinerary service turns confirmed booking records into itineraries and handles cancellation.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"flybot/internal/modules/booking"
	"flybot/internal/types"
)

// Publisher receives itinerary state events. The Kafka writer in infra satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, payload any) error
}

const (
	EventConfirmed = "itinerary.confirmed"
	EventCancelled = "itinerary.cancelled"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("itinerary not found")
	ErrConflict     = errors.New("itinerary state conflict")
	ErrBadRequest   = errors.New("bad request")
)

type BookCommand struct {
	ConversationID types.ID
	Record         booking.Record
}

type CancelCommand struct {
	ItineraryID types.ID
	ActorType   string
	Reason      string
}

type Service struct {
	repo      Repository
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// Book stores a confirmed itinerary. The record must have every slot filled.
func (s *Service) Book(ctx context.Context, cmd BookCommand) (*Itinerary, error) {
	rec := cmd.Record
	if cmd.ConversationID == "" || rec.Origin == nil || rec.Destination == nil ||
		rec.OutboundDate == nil || rec.ReturnDate == nil || rec.Budget == nil {
		return nil, ErrBadRequest
	}
	amount, ok := types.ParseAmount(*rec.Budget)
	if !ok {
		return nil, fmt.Errorf("%w: budget %q", ErrBadRequest, *rec.Budget)
	}
	currency := rec.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}

	now := s.now()
	it := &Itinerary{
		ID:             types.NewID(),
		ConversationID: cmd.ConversationID,
		Status:         StatusConfirmed,
		Origin:         *rec.Origin,
		Destination:    *rec.Destination,
		OutboundDate:   *rec.OutboundDate,
		ReturnDate:     *rec.ReturnDate,
		Budget:         types.Money{Amount: amount, Currency: currency},
		CreatedAt:      now,
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("create itinerary: %w", err)
	}
	s.recordEvent(ctx, it, EventConfirmed, &Event{
		ItineraryID: it.ID,
		FromStatus:  StatusNone,
		ToStatus:    StatusConfirmed,
		ActorType:   "bot",
		CreatedAt:   now,
	})
	return it, nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	it, err := s.repo.Get(ctx, cmd.ItineraryID)
	if err != nil {
		return err
	}
	if !CanTransition(it.Status, StatusCancelled) {
		return ErrInvalidState
	}
	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.repo.UpdateStatus(ctx, it.ID, it.Status, StatusCancelled, it.StatusVersion, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	actor := cmd.ActorType
	if actor == "" {
		actor = "user"
	}
	s.recordEvent(ctx, it, EventCancelled, &Event{
		ItineraryID: it.ID,
		FromStatus:  it.Status,
		ToStatus:    StatusCancelled,
		ActorType:   actor,
		CreatedAt:   s.now(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Itinerary, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByConversation(ctx context.Context, conversationID types.ID) ([]*Itinerary, error) {
	return s.repo.ListByConversation(ctx, conversationID)
}

// recordEvent appends to the audit trail and publishes. Neither failure undoes
// the transition that already happened.
func (s *Service) recordEvent(ctx context.Context, it *Itinerary, eventType string, e *Event) {
	if err := s.repo.AppendEvent(ctx, e); err != nil {
		s.logger.Warn("append itinerary event failed", zap.String("itinerary_id", it.ID.String()), zap.Error(err))
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, it.ID.String(), eventType, e); err != nil {
		s.logger.Warn("publish itinerary event failed",
			zap.String("itinerary_id", it.ID.String()), zap.String("event", eventType), zap.Error(err))
	}
}
