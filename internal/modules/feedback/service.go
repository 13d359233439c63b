// README: Feedback service records failure reports and forwards them to the events topic.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"flybot/internal/types"
)

const EventFailure = "dialog.failure"

// Publisher is satisfied by the Kafka writer in infra.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, payload any) error
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

// ReportFailure stores r. The transcript is dropped unless the user agreed to share it.
func (s *Service) ReportFailure(ctx context.Context, r Report) (*Report, error) {
	if r.ConversationID == "" || strings.TrimSpace(r.Reason) == "" {
		return nil, ErrBadRequest
	}
	r.ID = types.NewID()
	r.CreatedAt = s.now()
	if !r.WithHistory {
		r.History = nil
	}
	if err := s.repo.Create(ctx, &r); err != nil {
		return nil, fmt.Errorf("store failure report: %w", err)
	}

	s.logger.Info("dialog failure reported",
		zap.String("conversation_id", r.ConversationID.String()),
		zap.String("title", r.Title()),
		zap.Int("history_lines", len(r.History)),
	)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, r.ConversationID.String(), EventFailure, r); err != nil {
			s.logger.Warn("publish failure report failed", zap.Error(err))
		}
	}
	return &r, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Report, error) {
	return s.repo.Get(ctx, id)
}
