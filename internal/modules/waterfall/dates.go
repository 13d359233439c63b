// README: Date sub-dialog; loops until the user gives one definite calendar day.
package waterfall

import (
	"strings"
	"time"

	"flybot/internal/timex"
)

type DateVariant string

const (
	DateOutbound DateVariant = "outbound"
	DateReturn   DateVariant = "return"
)

// DatePrompts configures one date sub-dialog.
type DatePrompts struct {
	Prompt   string
	Reprompt string
}

var (
	OutboundPrompts = DatePrompts{
		Prompt:   "When will you start your travel?",
		Reprompt: "I'm sorry, for best results, please enter your **outbound travel** date including the **month**, **day** and **year**.",
	}
	ReturnPrompts = DatePrompts{
		Prompt:   "When will you come back?",
		Reprompt: "I'm sorry, for best results, please enter your **return travel** date including the **month**, **day** and **year**.",
	}
	DefaultPrompts = DatePrompts{
		Prompt:   "On what date would you like to travel?",
		Reprompt: "I'm sorry, for best results, please enter your travel date including the month, day and year. ",
	}
)

// DateResolver resolves a possibly ambiguous date. There is no retry cap;
// only cancellation from outside ends an unresolved loop.
type DateResolver struct {
	prompts    DatePrompts
	recognizer *timex.Recognizer
	now        func() time.Time
}

func NewDateResolver(prompts DatePrompts, recognizer *timex.Recognizer, now func() time.Time) *DateResolver {
	if prompts.Prompt == "" {
		prompts.Prompt = DefaultPrompts.Prompt
	}
	if prompts.Reprompt == "" {
		prompts.Reprompt = DefaultPrompts.Reprompt
	}
	if recognizer == nil {
		recognizer = timex.NewRecognizer()
	}
	if now == nil {
		now = time.Now
	}
	return &DateResolver{prompts: prompts, recognizer: recognizer, now: now}
}

// Begin starts resolution from seed. It returns the date when seed is
// already definite, otherwise the prompt to send.
func (r *DateResolver) Begin(seed *string) (string, *Message) {
	if seed == nil || strings.TrimSpace(*seed) == "" {
		m := prompt(r.prompts.Prompt, InputDate)
		return "", &m
	}
	if e, ok := r.classify(*seed); ok && e.IsDefinite() {
		return e.DateOnly(), nil
	}
	m := prompt(r.prompts.Reprompt, InputDate)
	return "", &m
}

// Continue reads one answer. Anything but a definite date repeats the reprompt.
func (r *DateResolver) Continue(utterance string) (string, *Message) {
	e, ok := r.recognizer.Recognize(utterance, r.now())
	if ok && e.IsDefinite() {
		return e.DateOnly(), nil
	}
	m := prompt(r.prompts.Reprompt, InputDate)
	return "", &m
}

// classify accepts TIMEX values as stored on the record and falls back to
// reading free text.
func (r *DateResolver) classify(seed string) (timex.Expression, bool) {
	if e := timex.Parse(seed); e.Known() {
		return e, true
	}
	return r.recognizer.Recognize(seed, r.now())
}
