package ai

import (
	"context"

	"flybot/internal/modules/booking"
)

// Intent is the top-level goal recognised in an utterance.
type Intent string

const (
	IntentBookFlight Intent = "BookFlight"
	IntentGreet      Intent = "Greet"
	IntentQuit       Intent = "Quit"
	IntentCancel     Intent = "Cancel"
	IntentNone       Intent = "None"
)

// Extraction is the structured reading of one utterance.
type Extraction struct {
	Intent Intent         `json:"intent"`
	Slots  booking.Record `json:"slots"`
}

// Extractor reads intent and booking slots out of free text.
// Implementations may call remote models; callers treat any error as "nothing extracted".
type Extractor interface {
	Extract(ctx context.Context, utterance string) (*Extraction, error)
}

// LocationChecker decides whether a place can be served.
type LocationChecker interface {
	Supported(ctx context.Context, name string) (bool, error)
}
