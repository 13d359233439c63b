// README: TIMEX-style date expressions and their granularity classification.
package timex

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Type is a granularity tag attached to an expression.
type Type string

const (
	TypeDefinite  Type = "definite"
	TypeDate      Type = "date"
	TypeTime      Type = "time"
	TypeDayOfWeek Type = "dayOfWeek"
	TypeWeek      Type = "week"
	TypeWeekend   Type = "weekend"
	TypeMonth     Type = "month"
	TypeSeason    Type = "season"
	TypeDateRange Type = "daterange"
	TypePresent   Type = "present"
)

const dateLayout = "2006-01-02"

// Expression is a parsed TIMEX value such as "2026-11-02", "2026-W44" or "XXXX-WXX-5".
type Expression struct {
	Value string
	types map[Type]struct{}
}

var (
	dateTimeRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(T\d{2}(:\d{2}(:\d{2})?)?)?$`)
	noYearRe   = regexp.MustCompile(`^XXXX-\d{2}-\d{2}$`)
	weekdayRe  = regexp.MustCompile(`^XXXX-WXX-[1-7]$`)
	weekRe     = regexp.MustCompile(`^\d{4}-W\d{2}$`)
	weekendRe  = regexp.MustCompile(`^\d{4}-W\d{2}-WE$`)
	monthRe    = regexp.MustCompile(`^(\d{4}|XXXX)-\d{2}$`)
	seasonRe   = regexp.MustCompile(`^(\d{4}|XXXX)-(SU|FA|WI|SP)$`)
)

// Parse classifies expr. Unknown shapes yield an expression with no types.
func Parse(expr string) Expression {
	expr = strings.TrimSpace(expr)
	e := Expression{Value: expr, types: map[Type]struct{}{}}

	switch {
	case expr == "PRESENT_REF":
		e.add(TypePresent)
	case dateTimeRe.MatchString(expr):
		m := dateTimeRe.FindStringSubmatch(expr)
		e.add(TypeDate)
		if m[2] != "" {
			e.add(TypeTime)
		}
		// 2026-02-30 has the right shape but names no calendar day.
		if _, err := time.Parse(dateLayout, m[1]); err == nil {
			e.add(TypeDefinite)
		}
	case noYearRe.MatchString(expr):
		e.add(TypeDate)
	case weekdayRe.MatchString(expr):
		e.add(TypeDate, TypeDayOfWeek)
	case weekendRe.MatchString(expr):
		e.add(TypeWeekend, TypeDateRange)
	case weekRe.MatchString(expr):
		e.add(TypeWeek, TypeDateRange)
	case seasonRe.MatchString(expr):
		e.add(TypeSeason, TypeDateRange)
	case monthRe.MatchString(expr):
		e.add(TypeMonth, TypeDateRange)
	}
	return e
}

// Definite wraps a calendar day.
func Definite(t time.Time) Expression {
	return Parse(t.Format(dateLayout))
}

func (e *Expression) add(ts ...Type) {
	for _, t := range ts {
		e.types[t] = struct{}{}
	}
}

func (e Expression) Has(t Type) bool {
	_, ok := e.types[t]
	return ok
}

// IsDefinite reports whether the expression names exactly one calendar day.
func (e Expression) IsDefinite() bool {
	return e.Has(TypeDefinite)
}

// Known reports whether Parse recognised the shape at all.
func (e Expression) Known() bool {
	return len(e.types) > 0
}

// sortedTypes returns the granularity tags in a stable order.
func (e Expression) sortedTypes() []Type {
	out := make([]Type, 0, len(e.types))
	for t := range e.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DateOnly drops any time component: "2026-11-02T10:00" becomes "2026-11-02".
func (e Expression) DateOnly() string {
	return strings.SplitN(e.Value, "T", 2)[0]
}

// IsDefiniteDate reports whether value is a definite TIMEX date.
func IsDefiniteDate(value string) bool {
	return Parse(value).IsDefinite()
}
