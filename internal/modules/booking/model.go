// README: Booking record (slot container) filled by the waterfall.
package booking

import (
	"fmt"
	"strings"
)

type Slot string

const (
	SlotOrigin       Slot = "origin"
	SlotDestination  Slot = "destination"
	SlotOutboundDate Slot = "outbound_date"
	SlotReturnDate   Slot = "return_date"
	SlotBudget       Slot = "budget"
)

// Record holds the slots of one flight booking. Nil means unset.
type Record struct {
	Origin               *string  `json:"origin,omitempty"`
	Destination          *string  `json:"destination,omitempty"`
	OutboundDate         *string  `json:"outbound_date,omitempty"`
	ReturnDate           *string  `json:"return_date,omitempty"`
	Budget               *string  `json:"budget,omitempty"`
	Currency             string   `json:"currency,omitempty"`
	UnsupportedLocations []string `json:"unsupported_locations,omitempty"`
}

func String(v string) *string {
	return &v
}

func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (r *Record) Clone() *Record {
	if r == nil {
		return &Record{}
	}
	out := &Record{
		Origin:       clonePtr(r.Origin),
		Destination:  clonePtr(r.Destination),
		OutboundDate: clonePtr(r.OutboundDate),
		ReturnDate:   clonePtr(r.ReturnDate),
		Budget:       clonePtr(r.Budget),
		Currency:     r.Currency,
	}
	if len(r.UnsupportedLocations) > 0 {
		out.UnsupportedLocations = append([]string(nil), r.UnsupportedLocations...)
	}
	return out
}

// IsEmpty reports whether no slot, currency or unsupported location is set.
func (r *Record) IsEmpty() bool {
	return r == nil || (r.Origin == nil && r.Destination == nil &&
		r.OutboundDate == nil && r.ReturnDate == nil && r.Budget == nil &&
		r.Currency == "" && len(r.UnsupportedLocations) == 0)
}

// Merge overlays the populated fields of p onto r. Unset fields of p leave r untouched.
func (r *Record) Merge(p *Record) {
	if p == nil {
		return
	}
	if p.Origin != nil {
		r.Origin = clonePtr(p.Origin)
	}
	if p.Destination != nil {
		r.Destination = clonePtr(p.Destination)
	}
	if p.OutboundDate != nil {
		r.OutboundDate = clonePtr(p.OutboundDate)
	}
	if p.ReturnDate != nil {
		r.ReturnDate = clonePtr(p.ReturnDate)
	}
	if p.Budget != nil {
		r.Budget = clonePtr(p.Budget)
	}
	if p.Currency != "" {
		r.Currency = p.Currency
	}
	r.UnsupportedLocations = append(r.UnsupportedLocations, p.UnsupportedLocations...)
}

// Get returns the value of a slot.
func (r *Record) Get(s Slot) *string {
	switch s {
	case SlotOrigin:
		return r.Origin
	case SlotDestination:
		return r.Destination
	case SlotOutboundDate:
		return r.OutboundDate
	case SlotReturnDate:
		return r.ReturnDate
	case SlotBudget:
		return r.Budget
	}
	panic("booking: unknown slot " + string(s))
}

// Clear unsets a slot.
func (r *Record) Clear(s Slot) {
	switch s {
	case SlotOrigin:
		r.Origin = nil
	case SlotDestination:
		r.Destination = nil
	case SlotOutboundDate:
		r.OutboundDate = nil
	case SlotReturnDate:
		r.ReturnDate = nil
	case SlotBudget:
		r.Budget = nil
	default:
		panic("booking: unknown slot " + string(s))
	}
}

// Summary is the text shown once a trip is booked.
func (r *Record) Summary() string {
	return fmt.Sprintf(
		"I have you booked to **%s** from **%s** on *%s*\n\nthen from **%s** to **%s** on *%s* \n\nfor a budget of %s %s",
		Value(r.Destination), Value(r.Origin), Value(r.OutboundDate),
		Value(r.Destination), Value(r.Origin), Value(r.ReturnDate),
		Value(r.Budget), r.Currency,
	)
}

// SameLocation compares two location names case-insensitively.
func SameLocation(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
