// README: Itinerary aggregate (a confirmed round trip) and status definitions.
package itinerary

import (
	"time"

	"flybot/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

type Itinerary struct {
	ID             types.ID    `json:"id"`
	ConversationID types.ID    `json:"conversation_id"`
	Status         Status      `json:"status"`
	StatusVersion  int         `json:"-"`
	Origin         string      `json:"origin"`
	Destination    string      `json:"destination"`
	OutboundDate   string      `json:"outbound_date"`
	ReturnDate     string      `json:"return_date"`
	Budget         types.Money `json:"budget"`
	CreatedAt      time.Time   `json:"created_at"`
	CancelledAt    *time.Time  `json:"cancelled_at,omitempty"`
	CancelReason   *string     `json:"cancel_reason,omitempty"`
}

type Event struct {
	ID          int64     `json:"-"`
	ItineraryID types.ID  `json:"itinerary_id"`
	FromStatus  Status    `json:"from_status"`
	ToStatus    Status    `json:"to_status"`
	ActorType   string    `json:"actor_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// AllowedTransitions represents the itinerary state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusNone:      {StatusConfirmed},
	StatusConfirmed: {StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
