// README: AI-usage service; charges one LLM extraction call against the owner's monthly allowance.
package aiusage

import (
	"context"
	"time"
)

// Service orchestrates extraction-quota logic.
type Service struct {
	store     Repository
	allowance int
	now       func() time.Time
}

// NewService creates a Service. A non-positive allowance means DefaultTokens.
func NewService(store Repository, allowance int) *Service {
	if allowance <= 0 {
		allowance = DefaultTokens
	}
	return &Service{store: store, allowance: allowance, now: time.Now}
}

// UseToken deducts one call from the owner's monthly allowance.
// If the owner row does not exist yet it is initialised and the call is immediately charged.
// Returns ErrInsufficientTokens when the quota for the current month is exhausted.
func (s *Service) UseToken(ctx context.Context, uid string) error {
	month := s.now().Format(monthKey)
	err := s.store.UseToken(ctx, uid, month, s.allowance)
	if err != ErrInsufficientTokens {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, uid, month, s.allowance); initErr != nil {
		return initErr
	}
	return s.store.UseToken(ctx, uid, month, s.allowance)
}
