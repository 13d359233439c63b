// README: Monthly allowance of LLM extraction calls per conversation owner.
package aiusage

import "errors"

// ErrInsufficientTokens is returned when an owner has no extraction calls left for the current month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultTokens is the number of LLM extraction calls granted per month.
const DefaultTokens = 100

// monthKey is the layout of last_reset_month.
const monthKey = "2006-01"
