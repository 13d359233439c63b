// README: Slot validator; cross-slot rules that clear the offending slot and report a message.
package booking

import (
	"time"

	"flybot/internal/timex"
	"flybot/internal/types"
)

const (
	MsgSameLocation  = "Your origin and destination are the same... "
	MsgPastDate      = "We don't offer time travel ⏱ ⌛ ⏰ ⌚ ⏲ 🕧, sorry... "
	MsgDatesReversed = "The return date cannot be earlier than the departure date ⌚"
	MsgInvalidBudget = "This amount is not valid..."
)

// Violation names the slot a rule cleared, the value it held and the message for the user.
type Violation struct {
	Slot     Slot
	Message  string
	Rejected string
}

func reject(r *Record, s Slot, msg string) *Violation {
	v := &Violation{Slot: s, Message: msg, Rejected: Value(r.Get(s))}
	r.Clear(s)
	return v
}

type Validator struct {
	now func() time.Time
}

// NewValidator uses now to decide what "today" is; nil means time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

func (v *Validator) today() string {
	return v.now().Format("2006-01-02")
}

// CheckOrigin applies the same-location rule from the origin side.
func (v *Validator) CheckOrigin(r *Record) *Violation {
	return checkSameLocation(r, SlotOrigin)
}

// CheckDestination applies the same-location rule from the destination side.
func (v *Validator) CheckDestination(r *Record) *Violation {
	return checkSameLocation(r, SlotDestination)
}

func checkSameLocation(r *Record, owner Slot) *Violation {
	if r.Origin == nil || r.Destination == nil {
		return nil
	}
	if !SameLocation(*r.Origin, *r.Destination) {
		return nil
	}
	return reject(r, owner, MsgSameLocation)
}

// CheckOutboundDate rejects a past outbound date or one later than the return date.
func (v *Validator) CheckOutboundDate(r *Record) *Violation {
	out, ok := definiteDay(r.OutboundDate)
	if !ok {
		return nil
	}
	if out < v.today() {
		return reject(r, SlotOutboundDate, MsgPastDate)
	}
	if ret, ok := definiteDay(r.ReturnDate); ok && out > ret {
		return reject(r, SlotOutboundDate, MsgDatesReversed)
	}
	return nil
}

// CheckReturnDate rejects a past return date or one earlier than the outbound date.
func (v *Validator) CheckReturnDate(r *Record) *Violation {
	ret, ok := definiteDay(r.ReturnDate)
	if !ok {
		return nil
	}
	if ret < v.today() {
		return reject(r, SlotReturnDate, MsgPastDate)
	}
	if out, ok := definiteDay(r.OutboundDate); ok && ret < out {
		return reject(r, SlotReturnDate, MsgDatesReversed)
	}
	return nil
}

// CheckBudget rejects budgets that are not a positive number and rewrites
// valid ones in canonical form ("1,500" becomes "1500").
func (v *Validator) CheckBudget(r *Record) *Violation {
	if r.Budget == nil {
		return nil
	}
	amount, ok := types.ParseAmount(*r.Budget)
	if !ok || amount <= 0 {
		return reject(r, SlotBudget, MsgInvalidBudget)
	}
	r.Budget = String(types.FormatAmount(amount))
	return nil
}

// definiteDay returns the YYYY-MM-DD part of a definite date. ISO days
// compare correctly as strings.
func definiteDay(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	e := timex.Parse(*p)
	if !e.IsDefinite() {
		return "", false
	}
	return e.DateOnly(), true
}
