package conversation

import "strings"

type Interruption int

const (
	InterruptNone Interruption = iota
	InterruptHelp
	InterruptCancel
)

// Interrupter inspects an utterance before the dialog sees it.
type Interrupter interface {
	Classify(utterance string) Interruption
}

// KeywordInterrupter treats exact "help"/"?" and "cancel"/"quit" as interruptions.
type KeywordInterrupter struct{}

func (KeywordInterrupter) Classify(utterance string) Interruption {
	switch strings.ToLower(strings.TrimSpace(utterance)) {
	case "help", "?":
		return InterruptHelp
	case "cancel", "quit":
		return InterruptCancel
	}
	return InterruptNone
}
