// README: Money value object plus budget parsing shared by extraction, validation and itineraries.
package types

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultCurrency is used when a budget carries no recognisable currency.
const DefaultCurrency = "Euros"

type Money struct {
	Amount   float64
	Currency string
}

func (m Money) String() string {
	return FormatAmount(m.Amount) + " " + m.Currency
}

var (
	amountRe          = regexp.MustCompile(`-?\d[\d.,]*`)
	commaThousandsRe  = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)
	dotThousandsRe    = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	currencyWordRe    = regexp.MustCompile(`(?i)\b(dollars?|usd|pounds?|gbp|euros?|eur|yens?|jpy|francs?|chf)\b`)
	currencyBySymbol  = map[string]string{"$": "Dollars", "£": "Pounds", "€": "Euros", "¥": "Yen"}
	currencyByWord    = map[string]string{"dollar": "Dollars", "usd": "Dollars", "pound": "Pounds", "gbp": "Pounds", "euro": "Euros", "eur": "Euros", "yen": "Yen", "jpy": "Yen", "franc": "Francs", "chf": "Francs"}
	symbolsByCurrency = map[string]string{"Dollars": "$", "Pounds": "£", "Euros": "€", "Yen": "¥"}
)

// ParseAmount pulls the first number out of free text and resolves its
// separators independently of locale: "1500$", "1,500", "1.500,50" and
// "No more than 1500£" all parse.
func ParseAmount(raw string) (float64, bool) {
	m := amountRe.FindString(raw)
	if m == "" {
		return 0, false
	}
	neg := strings.HasPrefix(m, "-")
	digits := strings.TrimRight(strings.TrimPrefix(m, "-"), ".,")

	normalized, ok := normalizeSeparators(digits)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

func normalizeSeparators(s string) (string, bool) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// The right-most separator is the decimal mark.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1), strings.Count(s, ",") == 1
		}
		s = strings.ReplaceAll(s, ",", "")
		return s, strings.Count(s, ".") == 1
	case lastComma >= 0:
		if commaThousandsRe.MatchString(s) {
			return strings.ReplaceAll(s, ",", ""), true
		}
		if strings.Count(s, ",") == 1 {
			return strings.Replace(s, ",", ".", 1), true
		}
		return "", false
	case strings.Count(s, ".") > 1:
		if dotThousandsRe.MatchString(s) {
			return strings.ReplaceAll(s, ".", ""), true
		}
		return "", false
	}
	return s, true
}

// FormatAmount renders the shortest exact decimal form (1500, 1500.5).
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CurrencyFromText returns the currency name mentioned in raw, by symbol or
// by word, or "" when none is present.
func CurrencyFromText(raw string) string {
	for sym, name := range currencyBySymbol {
		if strings.Contains(raw, sym) {
			return name
		}
	}
	if strings.Contains(strings.ToUpper(raw), "CHF") {
		return "Francs"
	}
	if m := currencyWordRe.FindStringSubmatch(raw); m != nil {
		word := strings.ToLower(m[1])
		if name, ok := currencyByWord[word]; ok {
			return name
		}
		return currencyByWord[strings.TrimSuffix(word, "s")]
	}
	return ""
}

// IsBareAmount reports whether raw is a number and nothing else.
func IsBareAmount(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw != "" && amountRe.FindString(raw) == raw
}

// CurrencySymbol returns the symbol for a currency name, or the name itself
// with a leading space when it has none ("Francs" → " Francs").
func CurrencySymbol(currency string) string {
	if sym, ok := symbolsByCurrency[currency]; ok {
		return sym
	}
	return " " + currency
}
