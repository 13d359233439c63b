// README: Per-conversation state owned by the orchestrator (phase, accumulated record, counters, transcript).
package conversation

import (
	"time"

	"flybot/internal/modules/booking"
	"flybot/internal/modules/itinerary"
	"flybot/internal/modules/waterfall"
	"flybot/internal/types"
)

type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseAwaitingRequest Phase = "awaiting_request"
	PhaseBooking         Phase = "booking"
	PhaseAwaitingConsent Phase = "awaiting_consent"
)

const (
	PromptRequest     = "What can I help you with today?"
	PromptRequestNext = "What else can I do for you?"
	MsgGreeting       = "Well, hello there! What can I do for you?"
	MsgNotUnderstood  = "Sorry, I didn't get that. Please try asking in a different way"
	MsgCancelling     = "Cancelling"
	MsgHelp           = "Show Help..."
	MsgBooked         = "**I booked the following trip for you**"
	MsgNoRecognizer   = "NOTE: intent recognition is not configured. To enable all capabilities, set FLYBOT_AI_GEMINI_KEY or enable the rule extractor."
)

const (
	consentQuestion    = "**Would you allow me to share our conversation with my administrators?**"
	MsgConsentConfused = "We obviously have a communication problem... \n\n" + consentQuestion
	MsgConsentDeclined = "I have noticed that you are not satisfied with my proposal. \n\n" + consentQuestion
)

// Conversation is everything one dialog owns. It is not safe for concurrent
// use; the Registry serialises access per conversation.
type Conversation struct {
	ID    types.ID
	Phase Phase

	session *waterfall.Session
	// record accumulates slots across booking rounds until a run ends.
	record  booking.Record
	pending *waterfall.Message

	misunderstandings int
	failureReason     string
	rounds            int

	history  *History
	lastSeen time.Time
}

func newConversation(id types.ID, historySize int, now time.Time) *Conversation {
	return &Conversation{
		ID:       id,
		Phase:    PhaseIdle,
		history:  NewHistory(historySize),
		lastSeen: now,
	}
}

// Misunderstandings is the current run of unrecognised requests.
func (c *Conversation) Misunderstandings() int {
	return c.misunderstandings
}

// Record returns a copy of the accumulated slots.
func (c *Conversation) Record() *booking.Record {
	return c.record.Clone()
}

// History returns the transcript lines kept so far.
func (c *Conversation) History() []string {
	return c.history.Lines()
}

// Reply is what the bot says back for one utterance.
type Reply struct {
	Messages []waterfall.Message `json:"messages"`
	Phase    Phase               `json:"phase"`
	// Booked is set on the turn a booking was confirmed.
	Booked    *booking.Record      `json:"booked,omitempty"`
	Itinerary *itinerary.Itinerary `json:"itinerary,omitempty"`
}

// History is a bounded transcript; the oldest lines are dropped first.
type History struct {
	max   int
	lines []string
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = 100
	}
	return &History{max: max}
}

func (h *History) Add(speaker, text string) {
	h.lines = append(h.lines, speaker+": "+text)
	if over := len(h.lines) - h.max; over > 0 {
		h.lines = append(h.lines[:0], h.lines[over:]...)
	}
}

func (h *History) Lines() []string {
	return append([]string(nil), h.lines...)
}
