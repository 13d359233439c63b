// README: In-memory conversation registry; one utterance at a time per conversation, conversations run in parallel.
package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"flybot/internal/types"
)

var ErrConversationNotFound = errors.New("conversation not found")

type entry struct {
	mu   sync.Mutex
	conv *Conversation
}

type Registry struct {
	orchestrator *Orchestrator
	logger       *zap.Logger
	now          func() time.Time

	mu    sync.Mutex
	items map[types.ID]*entry
}

func NewRegistry(o *Orchestrator, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		orchestrator: o,
		logger:       logger,
		now:          o.cfg.Now,
		items:        make(map[types.ID]*entry),
	}
}

// Start creates a conversation and returns its opening reply.
func (r *Registry) Start(ctx context.Context) (types.ID, Reply) {
	id := types.NewID()
	e := &entry{conv: r.orchestrator.NewConversation(id.String())}

	e.mu.Lock()
	defer e.mu.Unlock()

	r.mu.Lock()
	r.items[id] = e
	r.mu.Unlock()

	return id, r.orchestrator.Start(ctx, e.conv)
}

// Handle routes an utterance to its conversation, waiting for any turn
// already in flight on the same conversation.
func (r *Registry) Handle(ctx context.Context, id types.ID, utterance string) (Reply, error) {
	r.mu.Lock()
	e, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return Reply{}, ErrConversationNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conv == nil {
		return Reply{}, ErrConversationNotFound
	}
	return r.orchestrator.Handle(ctx, e.conv, utterance), nil
}

// Close forgets a conversation.
func (r *Registry) Close(id types.ID) bool {
	r.mu.Lock()
	e, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()
	if ok {
		e.mu.Lock()
		e.conv = nil
		e.mu.Unlock()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep drops conversations idle for longer than maxIdle and returns how many went.
// Conversations mid-turn are skipped.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.items {
		if !e.mu.TryLock() {
			continue
		}
		if e.conv != nil && e.conv.lastSeen.Before(cutoff) {
			e.conv = nil
			delete(r.items, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// RunJanitor sweeps idle conversations every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				r.logger.Info("swept idle conversations", zap.Int("removed", n))
			}
		}
	}
}
