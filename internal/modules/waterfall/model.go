// README: Booking waterfall steps, transition tables and per-conversation session state.
package waterfall

import "flybot/internal/modules/booking"

type Step string

const (
	StepOrigin       Step = "origin"
	StepOutboundDate Step = "outbound_date"
	StepDestination  Step = "destination"
	StepReturnDate   Step = "return_date"
	StepBudget       Step = "budget"
	StepConfirm      Step = "confirm"
	StepFinal        Step = "final"
)

// Next is the forward edge taken after a step advances or after its prompt is answered.
var Next = map[Step]Step{
	StepOrigin:       StepOutboundDate,
	StepOutboundDate: StepDestination,
	StepDestination:  StepReturnDate,
	StepReturnDate:   StepBudget,
	StepBudget:       StepConfirm,
	StepConfirm:      StepFinal,
}

// Reask points each step at the step that prompts for the slot it consumes.
// A step that finds that slot invalid or missing follows this edge.
var Reask = map[Step]Step{
	StepOutboundDate: StepOrigin,
	StepDestination:  StepOutboundDate,
	StepReturnDate:   StepDestination,
	StepBudget:       StepReturnDate,
	StepConfirm:      StepBudget,
}

// InputKind tells the channel what kind of answer a prompt expects.
type InputKind string

const (
	InputNone     InputKind = ""
	InputFreeText InputKind = "free_text"
	InputYesNo    InputKind = "yes_no"
	InputDate     InputKind = "date"
)

// Message is one bot turn. Expecting is empty for informational messages.
type Message struct {
	Text      string    `json:"text"`
	Expecting InputKind `json:"expecting,omitempty"`
}

func info(text string) Message {
	return Message{Text: text}
}

func prompt(text string, kind InputKind) Message {
	return Message{Text: text, Expecting: kind}
}

// DateState tracks an active date sub-dialog.
type DateState struct {
	Variant  DateVariant
	Attempts int
}

// Session is the suspended state of one waterfall run. It belongs to a single
// conversation and must not be shared.
type Session struct {
	Step   Step
	Record *booking.Record
	// Date is set while the date sub-dialog owns the conversation.
	Date *DateState
	// Pending is the prompt awaiting an answer; nil when finished.
	Pending *Message
	Done    bool
}

// Turn is what one call to Begin or Continue produced.
type Turn struct {
	Messages []Message
	Done     bool
	// Result is the confirmed record; nil with Done means the user declined.
	Result   *booking.Record
	Declined bool
}

type outcomeKind int

const (
	outcomeAdvance outcomeKind = iota
	outcomePrompt
	outcomeDelegate
	outcomeReask
	outcomeEnd
)

type outcome struct {
	kind    outcomeKind
	value   *string
	prompt  Message
	variant DateVariant
	seed    *string
	result  *booking.Record
}

func advance(v *string) outcome {
	return outcome{kind: outcomeAdvance, value: v}
}

func ask(m Message) outcome {
	return outcome{kind: outcomePrompt, prompt: m}
}

func delegate(variant DateVariant, seed *string) outcome {
	return outcome{kind: outcomeDelegate, variant: variant, seed: seed}
}

func reask() outcome {
	return outcome{kind: outcomeReask}
}

func end(result *booking.Record) outcome {
	return outcome{kind: outcomeEnd, result: result}
}
