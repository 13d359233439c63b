// README: Failure reports raised when the dialog could not serve the user.
package feedback

import (
	"errors"
	"fmt"
	"time"

	"flybot/internal/types"
)

const ReasonNotConfirmed = "Booking not confirmed"

// ReasonMisunderstanding names a run of n unrecognised requests.
func ReasonMisunderstanding(n int) string {
	return fmt.Sprintf("Misunderstanding x %d", n)
}

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("report not found")
)

type Report struct {
	ID             types.ID  `json:"id"`
	ConversationID types.ID  `json:"conversation_id"`
	Reason         string    `json:"reason"`
	WithHistory    bool      `json:"with_history"`
	History        []string  `json:"history,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Title is the reason tagged with whether the transcript was shared.
func (r Report) Title() string {
	if r.WithHistory {
		return r.Reason + " [with history]"
	}
	return r.Reason + " [without history]"
}
