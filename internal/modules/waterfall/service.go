// README: Booking waterfall; walks the slot steps, validates answers and rewinds on invalid input.
package waterfall

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"flybot/internal/ai"
	"flybot/internal/modules/booking"
	"flybot/internal/timex"
	"flybot/internal/types"
)

const (
	PromptOrigin      = "From what city will you be travelling?"
	PromptDestination = "Where would you like to travel to?"
	PromptBudget      = "What is your budget for this travel?"
	yesNoChoices      = " (1) Yes or (2) No"

	// Every reask lands on a prompting step, so a single turn walks at most
	// a couple of laps through the table.
	maxTransitions = 32
)

type Config struct {
	DefaultCurrency string
	// Now supplies "today" for date rules and relative dates; nil means time.Now.
	Now func() time.Time
}

type Waterfall struct {
	extractor       ai.Extractor
	validator       *booking.Validator
	resolvers       map[DateVariant]*DateResolver
	defaultCurrency string
	logger          *zap.Logger
}

// New builds a waterfall. extractor reads locations and budgets out of raw
// answers; a nil extractor leaves only the raw-budget fallback.
func New(extractor ai.Extractor, recognizer *timex.Recognizer, cfg Config, logger *zap.Logger) *Waterfall {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = types.DefaultCurrency
	}
	if recognizer == nil {
		recognizer = timex.NewRecognizer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Waterfall{
		extractor: extractor,
		validator: booking.NewValidator(cfg.Now),
		resolvers: map[DateVariant]*DateResolver{
			DateOutbound: NewDateResolver(OutboundPrompts, recognizer, cfg.Now),
			DateReturn:   NewDateResolver(ReturnPrompts, recognizer, cfg.Now),
		},
		defaultCurrency: cfg.DefaultCurrency,
		logger:          logger,
	}
}

// Begin starts a run over rec, which may be empty or pre-filled by extraction.
// The record is mutated in place.
func (w *Waterfall) Begin(ctx context.Context, rec *booking.Record) (*Session, Turn) {
	if rec == nil {
		rec = &booking.Record{}
	}
	s := &Session{Step: StepOrigin, Record: rec}
	return s, w.run(ctx, s, nil)
}

// Continue feeds the user's answer to the suspended session.
func (w *Waterfall) Continue(ctx context.Context, s *Session, utterance string) Turn {
	if s.Done {
		return Turn{Done: true}
	}
	if s.Pending == nil {
		panic(fmt.Sprintf("waterfall: session at %q is not awaiting input", s.Step))
	}

	if s.Date != nil {
		s.Date.Attempts++
		value, reprompt := w.resolver(s.Date.Variant).Continue(utterance)
		if reprompt != nil {
			w.logger.Debug("date not definite, reprompting",
				zap.String("variant", string(s.Date.Variant)), zap.Int("attempts", s.Date.Attempts))
			s.Pending = reprompt
			return Turn{Messages: []Message{*reprompt}}
		}
		s.Date = nil
		s.Step = nextStep(s.Step)
		return w.run(ctx, s, &value)
	}

	answer := utterance
	if s.Pending.Expecting == InputYesNo {
		yes, ok := ParseYesNo(utterance)
		if !ok {
			return Turn{Messages: []Message{*s.Pending}}
		}
		answer = "no"
		if yes {
			answer = "yes"
		}
	}
	s.Step = nextStep(s.Step)
	return w.run(ctx, s, &answer)
}

func (w *Waterfall) run(ctx context.Context, s *Session, in *string) Turn {
	var t Turn
	s.Pending = nil

	for i := 0; i < maxTransitions; i++ {
		out := w.step(ctx, s, in, &t.Messages)
		switch out.kind {
		case outcomeAdvance:
			s.Step = nextStep(s.Step)
			in = out.value
		case outcomeReask:
			target, ok := Reask[s.Step]
			if !ok {
				panic(fmt.Sprintf("waterfall: step %q has no reask edge", s.Step))
			}
			w.logger.Debug("reasking", zap.String("from", string(s.Step)), zap.String("to", string(target)))
			s.Step = target
			in = nil
		case outcomePrompt:
			p := out.prompt
			s.Pending = &p
			t.Messages = append(t.Messages, p)
			return t
		case outcomeDelegate:
			value, p := w.resolver(out.variant).Begin(out.seed)
			if p == nil {
				s.Step = nextStep(s.Step)
				in = &value
				continue
			}
			s.Date = &DateState{Variant: out.variant}
			s.Pending = p
			t.Messages = append(t.Messages, *p)
			return t
		case outcomeEnd:
			s.Done = true
			t.Done = true
			t.Result = out.result
			t.Declined = out.result == nil
			return t
		}
	}
	panic(fmt.Sprintf("waterfall: no suspension after %d transitions at %q", maxTransitions, s.Step))
}

func (w *Waterfall) step(ctx context.Context, s *Session, in *string, msgs *[]Message) outcome {
	switch s.Step {
	case StepOrigin:
		return w.originStep(s)
	case StepOutboundDate:
		return w.outboundDateStep(ctx, s, in, msgs)
	case StepDestination:
		return w.destinationStep(s, in, msgs)
	case StepReturnDate:
		return w.returnDateStep(ctx, s, in, msgs)
	case StepBudget:
		return w.budgetStep(s, in, msgs)
	case StepConfirm:
		return w.confirmStep(ctx, s, in, msgs)
	case StepFinal:
		return w.finalStep(s, in)
	}
	panic(fmt.Sprintf("waterfall: unknown step %q", s.Step))
}

func (w *Waterfall) originStep(s *Session) outcome {
	if s.Record.Origin == nil {
		return ask(prompt(PromptOrigin, InputFreeText))
	}
	return advance(s.Record.Origin)
}

func (w *Waterfall) outboundDateStep(ctx context.Context, s *Session, in *string, msgs *[]Message) outcome {
	rec := s.Record
	if rec.Origin == nil && in != nil {
		rec.Origin = w.extractOriginOrFallback(ctx, *in, msgs)
	}
	if v := w.validator.CheckOrigin(rec); v != nil {
		return w.rejected(v, msgs)
	}
	if rec.Origin == nil {
		return reask()
	}
	if !isDefinite(rec.OutboundDate) {
		return delegate(DateOutbound, rec.OutboundDate)
	}
	return advance(rec.OutboundDate)
}

func (w *Waterfall) destinationStep(s *Session, in *string, msgs *[]Message) outcome {
	rec := s.Record
	// An ambiguous pre-filled date is replaced by the resolved one.
	if in != nil && !isDefinite(rec.OutboundDate) {
		rec.OutboundDate = booking.String(*in)
	}
	if v := w.validator.CheckOutboundDate(rec); v != nil {
		return w.rejected(v, msgs)
	}
	if rec.OutboundDate == nil {
		return reask()
	}
	if rec.Destination == nil {
		return ask(prompt(PromptDestination, InputFreeText))
	}
	return advance(rec.Destination)
}

func (w *Waterfall) returnDateStep(ctx context.Context, s *Session, in *string, msgs *[]Message) outcome {
	rec := s.Record
	if rec.Destination == nil && in != nil {
		rec.Destination = w.extractDestinationOrFallback(ctx, *in, msgs)
	}
	if v := w.validator.CheckDestination(rec); v != nil {
		return w.rejected(v, msgs)
	}
	if rec.Destination == nil {
		return reask()
	}
	if !isDefinite(rec.ReturnDate) {
		return delegate(DateReturn, rec.ReturnDate)
	}
	return advance(rec.ReturnDate)
}

func (w *Waterfall) budgetStep(s *Session, in *string, msgs *[]Message) outcome {
	rec := s.Record
	if in != nil && !isDefinite(rec.ReturnDate) {
		rec.ReturnDate = booking.String(*in)
	}
	if v := w.validator.CheckReturnDate(rec); v != nil {
		return w.rejected(v, msgs)
	}
	if rec.ReturnDate == nil {
		return reask()
	}
	if rec.Budget == nil {
		return ask(prompt(PromptBudget, InputFreeText))
	}
	return advance(rec.Budget)
}

func (w *Waterfall) confirmStep(ctx context.Context, s *Session, in *string, msgs *[]Message) outcome {
	rec := s.Record
	if rec.Budget == nil && in != nil {
		w.consumeBudget(ctx, rec, *in)
	}
	if v := w.validator.CheckBudget(rec); v != nil {
		return w.rejected(v, msgs)
	}
	if rec.Budget == nil {
		return reask()
	}
	if rec.Currency == "" {
		rec.Currency = w.defaultCurrency
	}
	return ask(prompt(ConfirmText(rec)+yesNoChoices, InputYesNo))
}

func (w *Waterfall) finalStep(s *Session, in *string) outcome {
	if in != nil && *in == "yes" {
		return end(s.Record)
	}
	return end(nil)
}

// ConfirmText renders the confirmation summary of all slots.
func ConfirmText(rec *booking.Record) string {
	origin, dest := booking.Value(rec.Origin), booking.Value(rec.Destination)
	return fmt.Sprintf(
		"Please confirm, I have you traveling \n\n- from: **%s** to: **%s** on: *%s* \n\n- then from: **%s** to: **%s** on: *%s* \n\nwith a budget of **%s** %s",
		origin, dest, booking.Value(rec.OutboundDate),
		dest, origin, booking.Value(rec.ReturnDate),
		booking.Value(rec.Budget), rec.Currency,
	)
}

// extractOriginOrFallback reads a departure city from a raw answer. A single
// token is sent as "From <token>" so the extractor tags it as an origin.
func (w *Waterfall) extractOriginOrFallback(ctx context.Context, raw string, msgs *[]Message) *string {
	ext := w.extract(ctx, withPrefix("From ", raw), msgs)
	if ext == nil {
		return nil
	}
	if ext.Slots.Origin != nil {
		return ext.Slots.Origin
	}
	return ext.Slots.Destination
}

// extractDestinationOrFallback is the arrival-side twin of extractOriginOrFallback.
func (w *Waterfall) extractDestinationOrFallback(ctx context.Context, raw string, msgs *[]Message) *string {
	ext := w.extract(ctx, withPrefix("To ", raw), msgs)
	if ext == nil {
		return nil
	}
	if ext.Slots.Destination != nil {
		return ext.Slots.Destination
	}
	return ext.Slots.Origin
}

func (w *Waterfall) consumeBudget(ctx context.Context, rec *booking.Record, raw string) {
	// A bare number is read in the default currency.
	if types.IsBareAmount(raw) {
		raw = strings.TrimSpace(raw) + types.CurrencySymbol(w.defaultCurrency)
	}
	if ext := w.extract(ctx, raw, nil); ext != nil && ext.Slots.Budget != nil {
		rec.Budget = booking.String(*ext.Slots.Budget)
		rec.Currency = ext.Slots.Currency
		return
	}
	// Unparseable text is kept so the budget rule reports it.
	rec.Budget = booking.String(raw)
	rec.Currency = types.CurrencyFromText(raw)
}

// rejected reports a validation failure and rewinds to the slot's prompt.
func (w *Waterfall) rejected(v *booking.Violation, msgs *[]Message) outcome {
	w.logger.Debug("slot rejected", zap.String("slot", string(v.Slot)), zap.String("value", v.Rejected))
	*msgs = append(*msgs, info(v.Message))
	return reask()
}

// extract calls the extractor; errors count as "nothing extracted".
func (w *Waterfall) extract(ctx context.Context, text string, msgs *[]Message) *ai.Extraction {
	if w.extractor == nil {
		return nil
	}
	ext, err := w.extractor.Extract(ctx, text)
	if err != nil {
		w.logger.Warn("slot extraction failed", zap.Error(err))
		return nil
	}
	if ext != nil && msgs != nil && len(ext.Slots.UnsupportedLocations) > 0 {
		*msgs = append(*msgs, info(UnsupportedText(ext.Slots.UnsupportedLocations)))
	}
	return ext
}

// UnsupportedText is the warning for places that cannot be served.
func UnsupportedText(locations []string) string {
	return "Sorry but the following airports are not supported: " + strings.Join(locations, ", ")
}

func (w *Waterfall) resolver(v DateVariant) *DateResolver {
	r, ok := w.resolvers[v]
	if !ok {
		panic(fmt.Sprintf("waterfall: unknown date variant %q", v))
	}
	return r
}

func nextStep(s Step) Step {
	n, ok := Next[s]
	if !ok {
		panic(fmt.Sprintf("waterfall: step %q has no successor", s))
	}
	return n
}

func isDefinite(p *string) bool {
	return p != nil && timex.IsDefiniteDate(*p)
}

// withPrefix applies the single-token heuristic: exactly one
// whitespace-delimited token gets prefix, anything else is sent as is.
func withPrefix(prefix, raw string) string {
	raw = strings.TrimSpace(raw)
	if len(strings.Fields(raw)) == 1 {
		return prefix + raw
	}
	return raw
}

var (
	yesWords = map[string]bool{"yes": true, "y": true, "yeah": true, "yep": true, "sure": true, "ok": true, "okay": true, "1": true, "true": true}
	noWords  = map[string]bool{"no": true, "n": true, "nope": true, "nah": true, "2": true, "false": true}
)

// ParseYesNo reads a confirmation answer. ok is false when the answer is neither.
func ParseYesNo(text string) (yes bool, ok bool) {
	t := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!?"))
	t = strings.TrimPrefix(strings.TrimPrefix(t, "(1) "), "(2) ")
	switch {
	case yesWords[t]:
		return true, true
	case noWords[t]:
		return false, true
	}
	return false, false
}
