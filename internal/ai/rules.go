package ai

import (
	"context"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"flybot/internal/modules/booking"
	"flybot/internal/timex"
	"flybot/internal/types"
)

// RuleExtractor is a deterministic keyword and pattern extractor. It serves
// as the offline recognizer and as the fallback when the model is unavailable.
type RuleExtractor struct {
	dates     *timex.Recognizer
	locations LocationChecker
	now       func() time.Time
}

// NewRuleExtractor builds an extractor. locations may be nil to accept every place.
func NewRuleExtractor(dates *timex.Recognizer, locations LocationChecker, now func() time.Time) *RuleExtractor {
	if dates == nil {
		dates = timex.NewRecognizer()
	}
	if now == nil {
		now = time.Now
	}
	return &RuleExtractor{
		dates:     dates,
		locations: locations,
		now:       now,
	}
}

const placeStop = `(?:to|on|for|in|at|by|until|till|and|with|leaving|returning|departing|back|next|this|tomorrow|today)`

var (
	greetRe   = regexp.MustCompile(`^(hi|hello|hey|hiya|howdy|good (morning|afternoon|evening))\b`)
	cancelRe  = regexp.MustCompile(`^(cancel|stop|never ?mind|forget it)\b`)
	quitRe    = regexp.MustCompile(`^(quit|exit|bye|goodbye)\b`)
	bookRe    = regexp.MustCompile(`\b(book|booking|flight|flights|fly|flying|trip|travel|travelling|traveling|ticket|tickets|vacation|holiday)\b`)
	fromRe    = regexp.MustCompile(`\bfrom\s+(\p{L}[\p{L} .'-]*?)(?:\s+` + placeStop + `\b|[,.!?]|$)`)
	toRe      = regexp.MustCompile(`\bto\s+(\p{L}[\p{L} .'-]*?)(?:\s+` + placeStop + `\b|[,.!?]|$)`)
	bareRe    = regexp.MustCompile(`^\p{L}[\p{L} .'-]*$`)
	fillerRe  = regexp.MustCompile(`(?:(?:^|\s+)(?:please|pls|plz|thanks|thank you|thx|cheers))+[\s.!]*$`)
	returnRe  = regexp.MustCompile(`\b(returning|return|coming back|back|until|till)\b`)
	moneyRe   = regexp.MustCompile(`(?i)(?:[$£€¥]\s*(\d[\d.,]*)|(\d[\d.,]*)\s*(?:[$£€¥]|(?:dollars?|usd|pounds?|gbp|euros?|eur|yens?|jpy|francs?|chf)\b))`)
	budgetRe  = regexp.MustCompile(`(?i)\bbudget\b\D{0,16}(\d[\d.,]*)`)
	notPlaces = map[string]bool{
		"go": true, "travel": true, "fly": true, "book": true, "visit": true, "be": true,
		"leave": true, "get": true, "have": true, "me": true, "the": true, "a": true,
		"yes": true, "no": true, "ok": true, "okay": true, "help": true, "thanks": true,
	}
)

// Extract never fails; unknown text yields IntentNone and no slots.
func (e *RuleExtractor) Extract(ctx context.Context, utterance string) (*Extraction, error) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	ext := &Extraction{Intent: classify(text)}
	if text == "" {
		return ext, nil
	}

	if name, ok := firstPlace(fromRe, text); ok {
		e.assignPlace(ctx, &ext.Slots, name, &ext.Slots.Origin)
	}
	if name, ok := firstPlace(toRe, text); ok {
		e.assignPlace(ctx, &ext.Slots, name, &ext.Slots.Destination)
	}
	if bare := withoutFiller(text); ext.Slots.Origin == nil && ext.Slots.Destination == nil &&
		ext.Intent == IntentNone && bare != "" && bareRe.MatchString(bare) &&
		len(strings.Fields(bare)) <= 3 && !notPlaces[bare] {
		e.assignPlace(ctx, &ext.Slots, bare, &ext.Slots.Destination)
	}

	e.extractDates(text, &ext.Slots)
	extractBudget(utterance, &ext.Slots)
	return ext, nil
}

func classify(text string) Intent {
	switch {
	case text == "":
		return IntentNone
	case cancelRe.MatchString(text):
		return IntentCancel
	case quitRe.MatchString(text):
		return IntentQuit
	case greetRe.MatchString(text) && !bookRe.MatchString(text):
		return IntentGreet
	case bookRe.MatchString(text):
		return IntentBookFlight
	}
	return IntentNone
}

func firstPlace(re *regexp.Regexp, text string) (string, bool) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(strings.Trim(withoutFiller(m[1]), ".'-"))
		first := strings.Fields(name)
		if len(first) == 0 || notPlaces[first[0]] {
			continue
		}
		return name, true
	}
	return "", false
}

// withoutFiller drops trailing courtesy words ("rome please" → "rome").
func withoutFiller(text string) string {
	return strings.TrimRight(fillerRe.ReplaceAllString(text, ""), " ,.!")
}

func (e *RuleExtractor) assignPlace(ctx context.Context, rec *booking.Record, name string, slot **string) {
	// Casers keep state, so each call gets its own.
	name = cases.Title(language.English).String(name)
	if e.locations != nil {
		// Lookup errors count as supported.
		if ok, err := e.locations.Supported(ctx, name); err == nil && !ok {
			rec.UnsupportedLocations = append(rec.UnsupportedLocations, name)
			return
		}
	}
	*slot = booking.String(name)
}

func (e *RuleExtractor) extractDates(text string, rec *booking.Record) {
	now := e.now()
	outbound, back := text, ""
	if loc := returnRe.FindStringIndex(text); loc != nil {
		outbound, back = text[:loc[0]], text[loc[1]:]
	}
	if v, ok := e.recognize(outbound, now); ok {
		rec.OutboundDate = &v
	}
	if v, ok := e.recognize(back, now); ok {
		rec.ReturnDate = &v
	}
}

func (e *RuleExtractor) recognize(text string, now time.Time) (string, bool) {
	// Amounts are not dates.
	text = moneyRe.ReplaceAllString(text, " ")
	expr, ok := e.dates.Recognize(text, now)
	if !ok {
		return "", false
	}
	if expr.IsDefinite() {
		return expr.DateOnly(), true
	}
	return expr.Value, true
}

func extractBudget(utterance string, rec *booking.Record) {
	if m := moneyRe.FindStringSubmatch(utterance); m != nil {
		amount := m[1]
		if amount == "" {
			amount = m[2]
		}
		rec.Budget = booking.String(strings.TrimRight(amount, ".,"))
		rec.Currency = types.CurrencyFromText(m[0])
		return
	}
	if m := budgetRe.FindStringSubmatch(utterance); m != nil {
		rec.Budget = booking.String(strings.TrimRight(m[1], ".,"))
		rec.Currency = types.CurrencyFromText(utterance)
	}
}
