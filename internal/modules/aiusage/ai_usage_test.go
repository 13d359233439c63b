// README: AI-usage module tests (lazy reset and quota boundary logic).
package aiusage

import (
	"context"
	"testing"
	"time"

	"flybot/internal/pgtest"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
}

// TestMemoryQuotaBoundary exhausts a small allowance and checks the next call is blocked.
func TestMemoryQuotaBoundary(t *testing.T) {
	svc := NewService(NewMemoryStore(), 2)
	svc.now = fixedClock
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.UseToken(ctx, "conv"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if err := svc.UseToken(ctx, "conv"); err != ErrInsufficientTokens {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
	if err := svc.UseToken(ctx, "other"); err != nil {
		t.Fatalf("other owners keep their own allowance: %v", err)
	}
}

// TestMemoryQuotaMonthReset verifies an exhausted owner is refilled when the month changes.
func TestMemoryQuotaMonthReset(t *testing.T) {
	svc := NewService(NewMemoryStore(), 1)
	svc.now = fixedClock
	ctx := context.Background()

	if err := svc.UseToken(ctx, "conv"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := svc.UseToken(ctx, "conv"); err != ErrInsufficientTokens {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	svc.now = func() time.Time { return fixedClock().AddDate(0, 1, 0) }
	if err := svc.UseToken(ctx, "conv"); err != nil {
		t.Fatalf("expected reset next month, got %v", err)
	}
}

// TestUseTokenCrossMonthReset verifies that an owner with 0 calls left from a previous month
// is automatically reset and the request succeeds (leaving DefaultTokens-1).
func TestUseTokenCrossMonthReset(t *testing.T) {
	db := pgtest.Open(t, "ai_usage")
	svc := NewService(NewStore(db), 0)
	ctx := context.Background()

	// Seed owner with 0 calls from a past month.
	if _, err := db.Exec(ctx, "INSERT INTO ai_usage VALUES ('user_reset', 0, '2000-01')"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.UseToken(ctx, "user_reset"); err != nil {
		t.Fatalf("UseToken after cross-month reset: %v", err)
	}

	var remaining int
	if err := db.QueryRow(ctx, "SELECT tokens_remaining FROM ai_usage WHERE uid = 'user_reset'").Scan(&remaining); err != nil {
		t.Fatalf("query: %v", err)
	}
	if remaining != DefaultTokens-1 {
		t.Fatalf("expected %d calls remaining, got %d", DefaultTokens-1, remaining)
	}
}

// TestUseTokenInsufficientCheck verifies that an owner with 0 calls in the current month is blocked.
func TestUseTokenInsufficientCheck(t *testing.T) {
	db := pgtest.Open(t, "ai_usage")
	svc := NewService(NewStore(db), 0)
	ctx := context.Background()

	month := time.Now().Format(monthKey)
	if _, err := db.Exec(ctx, "INSERT INTO ai_usage (uid, tokens_remaining, last_reset_month) VALUES ('user_zero', 0, $1)", month); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.UseToken(ctx, "user_zero"); err != ErrInsufficientTokens {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
}

// TestUseTokenNewUser verifies that an owner absent from the table is initialised on first call.
func TestUseTokenNewUser(t *testing.T) {
	db := pgtest.Open(t, "ai_usage")
	svc := NewService(NewStore(db), 0)
	ctx := context.Background()

	if err := svc.UseToken(ctx, "user_new"); err != nil {
		t.Fatalf("UseToken for new owner: %v", err)
	}

	var remaining int
	if err := db.QueryRow(ctx, "SELECT tokens_remaining FROM ai_usage WHERE uid = 'user_new'").Scan(&remaining); err != nil {
		t.Fatalf("query: %v", err)
	}
	if remaining != DefaultTokens-1 {
		t.Fatalf("expected %d calls remaining, got %d", DefaultTokens-1, remaining)
	}
}
