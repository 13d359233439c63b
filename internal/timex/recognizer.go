// README: Natural-language date recognizer producing TIMEX expressions.
package timex

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Recognizer turns free text into a TIMEX expression. Phrases that denote a
// range ("next week", "this weekend", a bare weekday, a date without year)
// come back ambiguous; everything else is resolved to a calendar day.
type Recognizer struct {
	parser *when.Parser
}

func NewRecognizer() *Recognizer {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Recognizer{parser: w}
}

const monthNames = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	isoDayRe      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:t\d{2}(?::\d{2}(?::\d{2})?)?)?\b`)
	monthDayRe    = regexp.MustCompile(`\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4}))?`)
	dayMonthRe    = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthNames + `)\b\.?(?:,?\s+(\d{4}))?`)
	inMonthRe     = regexp.MustCompile(`\bin\s+(` + monthNames + `)\b`)
	weekPhrase    = regexp.MustCompile(`\b(this|next|last|coming)\s+week\b`)
	weekendPhrase = regexp.MustCompile(`\b(?:(this|next|last|coming)\s+)?weekend\b`)
	monthPhrase   = regexp.MustCompile(`\b(this|next|last|coming)\s+month\b`)
	seasonWord    = regexp.MustCompile(`\b(?:(this|next|last|coming)\s+)?(summer|fall|autumn|winter|spring)\b`)
	weekdayWord   = regexp.MustCompile(`\b(?:(this|next|last|coming|on)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

var monthByName = map[string]int{
	"january": 1, "jan": 1, "february": 2, "feb": 2, "march": 3, "mar": 3,
	"april": 4, "apr": 4, "may": 5, "june": 6, "jun": 6, "july": 7, "jul": 7,
	"august": 8, "aug": 8, "september": 9, "sept": 9, "sep": 9,
	"october": 10, "oct": 10, "november": 11, "nov": 11, "december": 12, "dec": 12,
}

var weekdayNumber = map[string]int{
	"monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4,
	"friday": 5, "saturday": 6, "sunday": 7,
}

var seasonCode = map[string]string{
	"summer": "SU", "fall": "FA", "autumn": "FA", "winter": "WI", "spring": "SP",
}

// Recognize finds the first date expression in text, resolving relative
// phrases against now. ok is false when text holds no date at all.
func (r *Recognizer) Recognize(text string, now time.Time) (Expression, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Expression{}, false
	}
	// text is lower-cased here; TIMEX wants the upper-case T separator.
	if m := isoDayRe.FindString(text); m != "" {
		return Parse(strings.ToUpper(m)), true
	}
	if e, ok := explicitMonthDay(text); ok {
		return e, true
	}
	if e, ok := ambiguousPhrase(text, now); ok {
		return e, true
	}

	res, err := r.parser.Parse(text, now)
	if err != nil || res == nil {
		return Expression{}, false
	}
	return Definite(res.Time), true
}

func explicitMonthDay(text string) (Expression, bool) {
	var month, day, year string
	if m := monthDayRe.FindStringSubmatch(text); m != nil {
		month, day, year = m[1], m[2], m[3]
	} else if m := dayMonthRe.FindStringSubmatch(text); m != nil {
		day, month, year = m[1], m[2], m[3]
	} else {
		return Expression{}, false
	}

	d, _ := strconv.Atoi(day)
	if year == "" {
		return Parse(fmt.Sprintf("XXXX-%02d-%02d", monthByName[month], d)), true
	}
	return Parse(fmt.Sprintf("%s-%02d-%02d", year, monthByName[month], d)), true
}

func ambiguousPhrase(text string, now time.Time) (Expression, bool) {
	if m := weekendPhrase.FindStringSubmatch(text); m != nil {
		y, w := shiftWeeks(now, m[1]).ISOWeek()
		return Parse(fmt.Sprintf("%04d-W%02d-WE", y, w)), true
	}
	if m := weekPhrase.FindStringSubmatch(text); m != nil {
		y, w := shiftWeeks(now, m[1]).ISOWeek()
		return Parse(fmt.Sprintf("%04d-W%02d", y, w)), true
	}
	if m := monthPhrase.FindStringSubmatch(text); m != nil {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		switch m[1] {
		case "next", "coming":
			first = first.AddDate(0, 1, 0)
		case "last":
			first = first.AddDate(0, -1, 0)
		}
		return Parse(first.Format("2006-01")), true
	}
	if m := inMonthRe.FindStringSubmatch(text); m != nil {
		return Parse(fmt.Sprintf("XXXX-%02d", monthByName[m[1]])), true
	}
	if m := seasonWord.FindStringSubmatch(text); m != nil {
		year := now.Year()
		switch m[1] {
		case "next", "coming":
			year++
		case "last":
			year--
		}
		return Parse(fmt.Sprintf("%04d-%s", year, seasonCode[m[2]])), true
	}
	// "next friday" names one day and is left to the parser.
	if m := weekdayWord.FindStringSubmatch(text); m != nil && (m[1] == "" || m[1] == "on") {
		return Parse(fmt.Sprintf("XXXX-WXX-%d", weekdayNumber[m[2]])), true
	}
	return Expression{}, false
}

func shiftWeeks(now time.Time, qualifier string) time.Time {
	switch qualifier {
	case "next", "coming":
		return now.AddDate(0, 0, 7)
	case "last":
		return now.AddDate(0, 0, -7)
	}
	return now
}
