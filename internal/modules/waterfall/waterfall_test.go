// README: Waterfall tests (happy path, decline, rewinds, date resolution, currency default).
package waterfall

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"flybot/internal/ai"
	"flybot/internal/modules/booking"
	"flybot/internal/timex"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
}

func newTestWaterfall(extractor ai.Extractor) *Waterfall {
	recognizer := timex.NewRecognizer()
	if extractor == nil {
		extractor = ai.NewRuleExtractor(recognizer, nil, fixedNow)
	}
	return New(extractor, recognizer, Config{DefaultCurrency: "Euros", Now: fixedNow}, nil)
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, string) (*ai.Extraction, error) {
	return nil, errors.New("recognizer unavailable")
}

// lastPrompt returns the text of the final message of a turn.
func lastPrompt(t *testing.T, turn Turn) string {
	t.Helper()
	if len(turn.Messages) == 0 {
		t.Fatalf("turn produced no messages: %+v", turn)
	}
	return turn.Messages[len(turn.Messages)-1].Text
}

func hasMessage(turn Turn, text string) bool {
	for _, m := range turn.Messages {
		if m.Text == text {
			return true
		}
	}
	return false
}

// drive feeds answers in order and returns the last turn.
func drive(t *testing.T, w *Waterfall, s *Session, answers ...string) Turn {
	t.Helper()
	var turn Turn
	for _, a := range answers {
		turn = w.Continue(context.Background(), s, a)
	}
	return turn
}

func TestTransitionTables(t *testing.T) {
	order := []Step{StepOrigin, StepOutboundDate, StepDestination, StepReturnDate, StepBudget, StepConfirm, StepFinal}
	for i := 0; i < len(order)-1; i++ {
		if Next[order[i]] != order[i+1] {
			t.Errorf("Next[%s] = %s, want %s", order[i], Next[order[i]], order[i+1])
		}
	}
	for i := 1; i < len(order)-1; i++ {
		if Reask[order[i]] != order[i-1] {
			t.Errorf("Reask[%s] = %s, want %s", order[i], Reask[order[i]], order[i-1])
		}
	}
	if _, ok := Reask[StepOrigin]; ok {
		t.Error("origin has no slot to reask")
	}
}

func TestHappyPath(t *testing.T) {
	w := newTestWaterfall(nil)
	s, turn := w.Begin(context.Background(), &booking.Record{})
	if got := lastPrompt(t, turn); got != PromptOrigin {
		t.Fatalf("expected origin prompt, got %q", got)
	}

	steps := []struct {
		answer string
		prompt string
	}{
		{"Paris", OutboundPrompts.Prompt},
		{"today", PromptDestination},
		{"London", ReturnPrompts.Prompt},
		{"in 15 days", PromptBudget},
	}
	for _, st := range steps {
		turn = w.Continue(context.Background(), s, st.answer)
		if got := lastPrompt(t, turn); got != st.prompt {
			t.Fatalf("after %q expected %q, got %q", st.answer, st.prompt, got)
		}
	}

	turn = w.Continue(context.Background(), s, "1500$")
	confirm := turn.Messages[len(turn.Messages)-1]
	if confirm.Expecting != InputYesNo {
		t.Fatalf("expected yes/no prompt, got %+v", confirm)
	}
	if !strings.HasPrefix(confirm.Text, "Please confirm, I have you traveling") || !strings.HasSuffix(confirm.Text, "(1) Yes or (2) No") {
		t.Fatalf("unexpected confirmation text %q", confirm.Text)
	}

	turn = w.Continue(context.Background(), s, "Yes")
	if !turn.Done || turn.Result == nil || turn.Declined {
		t.Fatalf("expected completed booking, got %+v", turn)
	}
	r := turn.Result
	checks := map[string][2]string{
		"origin":      {booking.Value(r.Origin), "Paris"},
		"destination": {booking.Value(r.Destination), "London"},
		"outbound":    {booking.Value(r.OutboundDate), "2026-10-17"},
		"return":      {booking.Value(r.ReturnDate), "2026-11-01"},
		"budget":      {booking.Value(r.Budget), "1500"},
		"currency":    {r.Currency, "Dollars"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
}

func TestDecline(t *testing.T) {
	w := newTestWaterfall(nil)
	s, _ := w.Begin(context.Background(), &booking.Record{})
	turn := drive(t, w, s, "Paris", "today", "London", "in 15 days", "1500$", "No")
	if !turn.Done || turn.Result != nil || !turn.Declined {
		t.Fatalf("expected declined run, got %+v", turn)
	}
	if after := w.Continue(context.Background(), s, "hello"); !after.Done || len(after.Messages) != 0 {
		t.Fatalf("finished session must stay finished, got %+v", after)
	}
}

func TestUnrecognisedConfirmationRepeatsPrompt(t *testing.T) {
	w := newTestWaterfall(nil)
	s, _ := w.Begin(context.Background(), &booking.Record{})
	confirm := drive(t, w, s, "Paris", "today", "London", "in 15 days", "1500$")
	again := w.Continue(context.Background(), s, "maybe")
	if again.Done || lastPrompt(t, again) != lastPrompt(t, confirm) {
		t.Fatalf("expected confirmation repeated, got %+v", again)
	}
	if done := w.Continue(context.Background(), s, "(1) Yes"); done.Result == nil {
		t.Fatal("expected booking after yes")
	}
}

func TestSameCityRewindsToDestination(t *testing.T) {
	w := newTestWaterfall(nil)
	s, _ := w.Begin(context.Background(), &booking.Record{})
	turn := drive(t, w, s, "Paris", "today", "Paris")

	if !hasMessage(turn, booking.MsgSameLocation) {
		t.Fatalf("expected same-location message, got %+v", turn.Messages)
	}
	if got := lastPrompt(t, turn); got != PromptDestination {
		t.Fatalf("expected destination prompt, got %q", got)
	}
	if s.Record.Destination != nil {
		t.Fatalf("destination must be cleared, got %q", *s.Record.Destination)
	}
	if booking.Value(s.Record.Origin) != "Paris" {
		t.Fatal("origin must be kept")
	}
}

func TestSameCityFromPrefilledDestinationRewindsToOrigin(t *testing.T) {
	w := newTestWaterfall(nil)
	s, _ := w.Begin(context.Background(), &booking.Record{Destination: booking.String("Paris")})
	turn := w.Continue(context.Background(), s, "paris")

	if !hasMessage(turn, booking.MsgSameLocation) || lastPrompt(t, turn) != PromptOrigin {
		t.Fatalf("expected same-location message then origin prompt, got %+v", turn.Messages)
	}
	if s.Record.Origin != nil {
		t.Fatal("origin must be cleared")
	}
}

func TestReversedDatesRewindToOutbound(t *testing.T) {
	w := newTestWaterfall(nil)
	rec := &booking.Record{
		Origin:       booking.String("Paris"),
		Destination:  booking.String("London"),
		OutboundDate: booking.String("2026-11-10"),
		ReturnDate:   booking.String("2026-11-01"),
	}
	s, turn := w.Begin(context.Background(), rec)

	if !hasMessage(turn, booking.MsgDatesReversed) {
		t.Fatalf("expected reversed-dates message, got %+v", turn.Messages)
	}
	if got := lastPrompt(t, turn); got != OutboundPrompts.Prompt {
		t.Fatalf("expected outbound date prompt, got %q", got)
	}
	if rec.OutboundDate != nil {
		t.Fatal("outbound date must be cleared")
	}

	turn = w.Continue(context.Background(), s, "2026-10-25")
	if got := lastPrompt(t, turn); got != PromptBudget {
		t.Fatalf("expected budget prompt once dates are ordered, got %q", got)
	}
}

func TestReturnBeforeOutboundRewindsToReturn(t *testing.T) {
	w := newTestWaterfall(nil)
	s, _ := w.Begin(context.Background(), &booking.Record{Origin: booking.String("Paris"), Destination: booking.String("London")})
	turn := drive(t, w, s, "2026-11-10", "2026-11-01")

	if !hasMessage(turn, booking.MsgDatesReversed) || lastPrompt(t, turn) != ReturnPrompts.Prompt {
		t.Fatalf("expected reversed message then return prompt, got %+v", turn.Messages)
	}
	if s.Record.ReturnDate != nil {
		t.Fatal("return date must be cleared")
	}
}

func TestPastDateRewinds(t *testing.T) {
	w := newTestWaterfall(nil)
	s, _ := w.Begin(context.Background(), &booking.Record{Origin: booking.String("Paris")})
	turn := drive(t, w, s, "2025-01-01")

	if !hasMessage(turn, booking.MsgPastDate) || lastPrompt(t, turn) != OutboundPrompts.Prompt {
		t.Fatalf("expected past-date message then outbound prompt, got %+v", turn.Messages)
	}
}

func TestInvalidBudgetRewinds(t *testing.T) {
	for _, answer := range []string{"0", "0$", "lots of money"} {
		w := newTestWaterfall(nil)
		s, _ := w.Begin(context.Background(), &booking.Record{
			Origin: booking.String("Paris"), Destination: booking.String("London"),
			OutboundDate: booking.String("2026-10-20"), ReturnDate: booking.String("2026-10-30"),
		})
		turn := w.Continue(context.Background(), s, answer)
		if !hasMessage(turn, booking.MsgInvalidBudget) || lastPrompt(t, turn) != PromptBudget {
			t.Errorf("answer %q: expected invalid-budget message then budget prompt, got %+v", answer, turn.Messages)
		}
		if s.Record.Budget != nil {
			t.Errorf("answer %q: budget must be cleared", answer)
		}
	}
}

func TestBudgetNormalisationAndCurrency(t *testing.T) {
	cases := []struct {
		answer, budget, currency string
	}{
		{"1500$", "1500", "Dollars"},
		{"1,500", "1500", "Euros"},
		{"No more than 1500£", "1500", "Pounds"},
	}
	for _, tc := range cases {
		w := newTestWaterfall(nil)
		s, _ := w.Begin(context.Background(), &booking.Record{
			Origin: booking.String("Paris"), Destination: booking.String("London"),
			OutboundDate: booking.String("2026-10-20"), ReturnDate: booking.String("2026-10-30"),
		})
		turn := w.Continue(context.Background(), s, tc.answer)
		if turn.Messages[len(turn.Messages)-1].Expecting != InputYesNo {
			t.Errorf("answer %q: expected confirmation, got %+v", tc.answer, turn.Messages)
			continue
		}
		if booking.Value(s.Record.Budget) != tc.budget || s.Record.Currency != tc.currency {
			t.Errorf("answer %q: got %q %q, want %q %q", tc.answer,
				booking.Value(s.Record.Budget), s.Record.Currency, tc.budget, tc.currency)
		}
	}
}

func TestBareBudgetUsesConfiguredCurrency(t *testing.T) {
	recognizer := timex.NewRecognizer()
	extractor := ai.NewRuleExtractor(recognizer, nil, fixedNow)
	for _, currency := range []string{"Dollars", "Francs"} {
		w := New(extractor, recognizer, Config{DefaultCurrency: currency, Now: fixedNow}, nil)
		s, _ := w.Begin(context.Background(), &booking.Record{
			Origin: booking.String("Paris"), Destination: booking.String("London"),
			OutboundDate: booking.String("2026-10-20"), ReturnDate: booking.String("2026-10-30"),
		})
		turn := w.Continue(context.Background(), s, " 900 ")
		if turn.Messages[len(turn.Messages)-1].Expecting != InputYesNo {
			t.Errorf("%s: expected confirmation, got %+v", currency, turn.Messages)
			continue
		}
		if booking.Value(s.Record.Budget) != "900" || s.Record.Currency != currency {
			t.Errorf("%s: got %q %q", currency, booking.Value(s.Record.Budget), s.Record.Currency)
		}
	}
}

func TestDateTimeAnswerKeepsDay(t *testing.T) {
	w := newTestWaterfall(nil)
	rec := &booking.Record{}
	s, _ := w.Begin(context.Background(), rec)
	turn := drive(t, w, s, "Paris", "2026-11-02T18:30")
	if got := lastPrompt(t, turn); got != PromptDestination {
		t.Fatalf("expected destination prompt, got %q", got)
	}
	if booking.Value(rec.OutboundDate) != "2026-11-02" {
		t.Fatalf("expected day only, got %q", booking.Value(rec.OutboundDate))
	}
}

func TestPrefilledBudgetGetsDefaultCurrency(t *testing.T) {
	w := newTestWaterfall(nil)
	rec := &booking.Record{
		Origin: booking.String("Paris"), Destination: booking.String("London"),
		OutboundDate: booking.String("2026-10-20"), ReturnDate: booking.String("2026-10-30"),
		Budget: booking.String("700"),
	}
	_, turn := w.Begin(context.Background(), rec)
	if turn.Messages[len(turn.Messages)-1].Expecting != InputYesNo {
		t.Fatalf("expected straight confirmation, got %+v", turn.Messages)
	}
	if rec.Currency != "Euros" {
		t.Fatalf("expected default currency, got %q", rec.Currency)
	}
}

func TestAmbiguousPrefilledDateIsReplaced(t *testing.T) {
	w := newTestWaterfall(nil)
	rec := &booking.Record{Origin: booking.String("Paris"), OutboundDate: booking.String("2026-W43")}
	s, turn := w.Begin(context.Background(), rec)
	if got := lastPrompt(t, turn); got != OutboundPrompts.Reprompt {
		t.Fatalf("ambiguous seed must reprompt, got %q", got)
	}

	turn = w.Continue(context.Background(), s, "next week")
	if got := lastPrompt(t, turn); got != OutboundPrompts.Reprompt {
		t.Fatalf("still ambiguous answer must reprompt, got %q", got)
	}

	turn = w.Continue(context.Background(), s, "2026-10-22")
	if got := lastPrompt(t, turn); got != PromptDestination {
		t.Fatalf("expected destination prompt, got %q", got)
	}
	if booking.Value(rec.OutboundDate) != "2026-10-22" {
		t.Fatalf("expected resolved date stored, got %q", booking.Value(rec.OutboundDate))
	}
}

func TestExtractionFailureReasks(t *testing.T) {
	w := newTestWaterfall(failingExtractor{})
	s, _ := w.Begin(context.Background(), &booking.Record{})
	turn := w.Continue(context.Background(), s, "Paris")
	if got := lastPrompt(t, turn); got != PromptOrigin {
		t.Fatalf("expected origin reprompt after failed extraction, got %q", got)
	}
	if len(turn.Messages) != 1 {
		t.Fatalf("failed extraction must not surface messages, got %+v", turn.Messages)
	}
}

func TestDateResolver(t *testing.T) {
	r := NewDateResolver(OutboundPrompts, timex.NewRecognizer(), fixedNow)

	if v, p := r.Begin(nil); v != "" || p == nil || p.Text != OutboundPrompts.Prompt {
		t.Fatalf("nil seed must prompt, got %q %+v", v, p)
	}
	if v, p := r.Begin(booking.String("2026-10-30")); p != nil || v != "2026-10-30" {
		t.Fatalf("definite seed must resolve immediately, got %q %+v", v, p)
	}
	if _, p := r.Begin(booking.String("XXXX-WXX-5")); p == nil || p.Text != OutboundPrompts.Reprompt {
		t.Fatalf("ambiguous seed must reprompt, got %+v", p)
	}
	if v, p := r.Continue("today"); p != nil || v != "2026-10-17" {
		t.Fatalf("today must resolve without prompt, got %q %+v", v, p)
	}
	for i := 0; i < 5; i++ {
		if _, p := r.Continue("next week"); p == nil || p.Text != OutboundPrompts.Reprompt {
			t.Fatalf("attempt %d: expected reprompt, got %+v", i, p)
		}
	}
	if v, _ := r.Continue("2026-11-02T18:30"); v != "2026-11-02" {
		t.Fatalf("expected time stripped, got %q", v)
	}
}

func TestDateResolverDefaults(t *testing.T) {
	r := NewDateResolver(DatePrompts{}, nil, fixedNow)
	if _, p := r.Begin(nil); p == nil || p.Text != DefaultPrompts.Prompt {
		t.Fatalf("expected default prompt, got %+v", p)
	}
}

func TestWithPrefix(t *testing.T) {
	cases := map[string]string{
		"Paris":          "From Paris",
		"  Paris  ":      "From Paris",
		"New York":       "New York",
		"from Marseille": "from Marseille",
	}
	for in, want := range cases {
		if got := withPrefix("From ", in); got != want {
			t.Errorf("withPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseYesNo(t *testing.T) {
	for _, in := range []string{"Yes", "y", "sure!", "OK", "1"} {
		if yes, ok := ParseYesNo(in); !ok || !yes {
			t.Errorf("ParseYesNo(%q) = %v %v, want yes", in, yes, ok)
		}
	}
	for _, in := range []string{"No", "nope", "2"} {
		if yes, ok := ParseYesNo(in); !ok || yes {
			t.Errorf("ParseYesNo(%q) = %v %v, want no", in, yes, ok)
		}
	}
	if _, ok := ParseYesNo("perhaps"); ok {
		t.Error("expected unrecognised answer")
	}
}

func TestContinueWithoutPendingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	newTestWaterfall(nil).Continue(context.Background(), &Session{Step: StepBudget, Record: &booking.Record{}}, "x")
}
