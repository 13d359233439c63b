package ai

import (
	"strings"
	"time"

	"flybot/internal/modules/booking"
	"flybot/internal/timex"
)

// IntentResult captures the structured output from the AI model.
type IntentResult struct {
	// Intent is one of BookFlight, Greet, Quit, Cancel or None.
	Intent string `json:"intent"`

	Origin      *string `json:"origin,omitempty"`
	Destination *string `json:"destination,omitempty"`

	// Dates are TIMEX values: "2026-11-02" when the day is known, "2026-W44"
	// or "XXXX-WXX-5" when the user named a range or a bare weekday.
	OutboundDate *string `json:"outbound_date,omitempty"`
	ReturnDate   *string `json:"return_date,omitempty"`

	// Budget is the amount as written by the user, without currency.
	Budget   *string `json:"budget,omitempty"`
	Currency *string `json:"currency,omitempty"`

	// UnsupportedLocations lists places that are not cities with an airport.
	UnsupportedLocations []string `json:"unsupported_locations,omitempty"`
}

// Extraction converts the model output, dropping blank values and
// re-reading dates the model did not express as TIMEX.
func (r *IntentResult) Extraction(dates *timex.Recognizer, now time.Time) *Extraction {
	ext := &Extraction{Intent: parseIntent(r.Intent)}
	ext.Slots = booking.Record{
		Origin:               nonBlank(r.Origin),
		Destination:          nonBlank(r.Destination),
		OutboundDate:         normalizeDate(nonBlank(r.OutboundDate), dates, now),
		ReturnDate:           normalizeDate(nonBlank(r.ReturnDate), dates, now),
		Budget:               nonBlank(r.Budget),
		UnsupportedLocations: r.UnsupportedLocations,
	}
	if c := nonBlank(r.Currency); c != nil {
		ext.Slots.Currency = *c
	}
	return ext
}

func parseIntent(v string) Intent {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "bookflight", "book_flight", "book":
		return IntentBookFlight
	case "greet", "greeting":
		return IntentGreet
	case "quit":
		return IntentQuit
	case "cancel":
		return IntentCancel
	}
	return IntentNone
}

func nonBlank(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

func normalizeDate(p *string, dates *timex.Recognizer, now time.Time) *string {
	if p == nil {
		return nil
	}
	e := timex.Parse(*p)
	if !e.Known() && dates != nil {
		var ok bool
		if e, ok = dates.Recognize(*p, now); !ok {
			return nil
		}
	}
	v := e.Value
	if e.IsDefinite() {
		v = e.DateOnly()
	}
	return &v
}
