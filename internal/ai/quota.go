package ai

import (
	"context"
	"errors"
)

// ErrNoCaller is returned by QuotaExtractor when the context names no owner to charge.
var ErrNoCaller = errors.New("ai: no caller in context")

type callerKey struct{}

// WithCaller tags ctx with the owner charged for LLM extraction calls.
func WithCaller(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callerKey{}, id)
}

// CallerFrom returns the owner set by WithCaller.
func CallerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(callerKey{}).(string)
	return id, ok && id != ""
}

// Quota charges one call to an owner. aiusage.Service satisfies it.
type Quota interface {
	UseToken(ctx context.Context, uid string) error
}

// QuotaExtractor charges the caller's allowance before delegating. An
// exhausted allowance surfaces as an error so a FallbackExtractor can take over.
type QuotaExtractor struct {
	next  Extractor
	quota Quota
}

func NewQuotaExtractor(next Extractor, quota Quota) *QuotaExtractor {
	return &QuotaExtractor{next: next, quota: quota}
}

func (q *QuotaExtractor) Extract(ctx context.Context, utterance string) (*Extraction, error) {
	uid, ok := CallerFrom(ctx)
	if !ok {
		return nil, ErrNoCaller
	}
	if err := q.quota.UseToken(ctx, uid); err != nil {
		return nil, err
	}
	return q.next.Extract(ctx, utterance)
}
