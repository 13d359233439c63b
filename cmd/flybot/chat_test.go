package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"flybot/internal/ai"
	"flybot/internal/modules/conversation"
	"flybot/internal/modules/waterfall"
	"flybot/internal/timex"
)

func TestChatBooksOverConsole(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	recognizer := timex.NewRecognizer()
	extractor := ai.NewRuleExtractor(recognizer, nil, now)
	o := conversation.New(conversation.Deps{
		Recognizer: extractor,
		Waterfall:  waterfall.New(extractor, recognizer, waterfall.Config{Now: now}, nil),
	}, conversation.Config{Now: now}, nil)

	in := strings.NewReader("book a flight from Paris to London\ntoday\n\nin 15 days\n1500$\nyes\n")
	var out bytes.Buffer
	if err := chat(context.Background(), o, in, &out); err != nil {
		t.Fatalf("chat: %v", err)
	}

	got := out.String()
	for _, want := range []string{conversation.PromptRequest, conversation.MsgBooked, conversation.PromptRequestNext} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestJanitorInterval(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		30 * time.Minute:       time.Minute,
		2 * time.Minute:        30 * time.Second,
		100 * time.Millisecond: time.Second,
	}
	for idle, want := range cases {
		if got := janitorInterval(idle); got != want {
			t.Errorf("janitorInterval(%v) = %v, want %v", idle, got, want)
		}
	}
}
