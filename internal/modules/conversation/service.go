// README: Conversation orchestrator; routes each utterance to intent extraction, the booking waterfall or the consent question.
package conversation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"flybot/internal/ai"
	"flybot/internal/modules/booking"
	"flybot/internal/modules/feedback"
	"flybot/internal/modules/itinerary"
	"flybot/internal/modules/waterfall"
	"flybot/internal/types"
)

// Booker persists a confirmed booking. itinerary.Service satisfies it.
type Booker interface {
	Book(ctx context.Context, cmd itinerary.BookCommand) (*itinerary.Itinerary, error)
}

// FailureReporter receives dialog failures. feedback.Service satisfies it.
type FailureReporter interface {
	ReportFailure(ctx context.Context, r feedback.Report) (*feedback.Report, error)
}

type Config struct {
	// MaxMisunderstandings consecutive unrecognised requests trigger the consent question.
	MaxMisunderstandings int
	HistorySize          int
	Now                  func() time.Time
}

// Deps are the collaborators. Only Waterfall is required; a nil Recognizer
// sends every conversation straight into booking.
type Deps struct {
	Recognizer  ai.Extractor
	Waterfall   *waterfall.Waterfall
	Booker      Booker
	Reporter    FailureReporter
	Interrupter Interrupter
}

type Orchestrator struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

func New(deps Deps, cfg Config, logger *zap.Logger) *Orchestrator {
	if deps.Waterfall == nil {
		panic("conversation: waterfall is required")
	}
	if deps.Interrupter == nil {
		deps.Interrupter = KeywordInterrupter{}
	}
	if cfg.MaxMisunderstandings <= 0 {
		cfg.MaxMisunderstandings = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps, cfg: cfg, logger: logger}
}

// NewConversation returns a fresh idle conversation.
func (o *Orchestrator) NewConversation(id string) *Conversation {
	return newConversation(types.ID(id), o.cfg.HistorySize, o.cfg.Now())
}

// Start opens the dialog: the request prompt, or booking directly when no
// recognizer is configured.
func (o *Orchestrator) Start(ctx context.Context, c *Conversation) Reply {
	var msgs []waterfall.Message
	o.beginRound(ctx, c, &msgs)
	return o.reply(c, msgs)
}

// Handle processes one utterance. Callers must not run two Handle calls on
// the same conversation at once.
func (o *Orchestrator) Handle(ctx context.Context, c *Conversation, utterance string) Reply {
	ctx = ai.WithCaller(ctx, c.ID.String())
	c.lastSeen = o.cfg.Now()
	c.history.Add("user", utterance)

	var msgs []waterfall.Message
	if c.Phase == PhaseAwaitingRequest || c.Phase == PhaseBooking {
		switch o.deps.Interrupter.Classify(utterance) {
		case InterruptHelp:
			msgs = append(msgs, waterfall.Message{Text: MsgHelp})
			if c.pending != nil {
				msgs = append(msgs, *c.pending)
			}
			return o.reply(c, msgs)
		case InterruptCancel:
			o.logger.Info("conversation cancelled", zap.String("conversation_id", c.ID.String()), zap.String("phase", string(c.Phase)))
			msgs = append(msgs, waterfall.Message{Text: MsgCancelling})
			c.session = nil
			c.record = booking.Record{}
			c.rounds++
			o.beginRound(ctx, c, &msgs)
			return o.reply(c, msgs)
		}
	}

	var r Reply
	switch c.Phase {
	case PhaseIdle:
		// The first utterance of a conversation is read as the request itself.
		if o.deps.Recognizer == nil {
			o.beginRound(ctx, c, &msgs)
			return o.reply(c, msgs)
		}
		r = o.act(ctx, c, utterance, msgs)
	case PhaseAwaitingRequest:
		r = o.act(ctx, c, utterance, msgs)
	case PhaseBooking:
		r = o.continueBooking(ctx, c, utterance)
	case PhaseAwaitingConsent:
		r = o.answerConsent(ctx, c, utterance)
	default:
		panic(fmt.Sprintf("conversation: unknown phase %q", c.Phase))
	}
	return r
}

func (o *Orchestrator) beginRound(ctx context.Context, c *Conversation, msgs *[]waterfall.Message) {
	if o.deps.Recognizer == nil {
		*msgs = append(*msgs, waterfall.Message{Text: MsgNoRecognizer})
		o.enterBooking(ctx, c, msgs)
		return
	}
	text := PromptRequest
	if c.rounds > 0 {
		text = PromptRequestNext
	}
	p := waterfall.Message{Text: text, Expecting: waterfall.InputFreeText}
	c.Phase = PhaseAwaitingRequest
	c.pending = &p
	*msgs = append(*msgs, p)
}

// endRound closes a round and asks for the next request.
func (o *Orchestrator) endRound(ctx context.Context, c *Conversation, msgs *[]waterfall.Message) {
	c.rounds++
	o.beginRound(ctx, c, msgs)
}

func (o *Orchestrator) act(ctx context.Context, c *Conversation, utterance string, msgs []waterfall.Message) Reply {
	ext, err := o.deps.Recognizer.Extract(ctx, utterance)
	if err != nil || ext == nil {
		o.logger.Warn("intent extraction failed", zap.String("conversation_id", c.ID.String()), zap.Error(err))
		ext = &ai.Extraction{Intent: ai.IntentNone}
	}
	o.logger.Debug("intent", zap.String("conversation_id", c.ID.String()), zap.String("intent", string(ext.Intent)))

	switch ext.Intent {
	case ai.IntentBookFlight:
		c.misunderstandings = 0
		// An extraction that found nothing reuses what was gathered before.
		if !ext.Slots.IsEmpty() {
			c.record.Merge(&ext.Slots)
		}
		if len(c.record.UnsupportedLocations) > 0 {
			msgs = append(msgs, waterfall.Message{Text: waterfall.UnsupportedText(c.record.UnsupportedLocations)})
			c.record.UnsupportedLocations = nil
		}
		done := o.enterBooking(ctx, c, &msgs)
		return done.attach(o.reply(c, msgs))

	case ai.IntentGreet:
		c.misunderstandings = 0
		msgs = append(msgs, waterfall.Message{Text: MsgGreeting})

	case ai.IntentCancel, ai.IntentQuit:
		c.misunderstandings = 0
		c.record = booking.Record{}
		msgs = append(msgs, waterfall.Message{Text: MsgCancelling})

	default:
		msgs = append(msgs, waterfall.Message{Text: MsgNotUnderstood})
		c.misunderstandings++
		if o.deps.Reporter != nil && c.misunderstandings >= o.cfg.MaxMisunderstandings {
			c.misunderstandings = 0
			o.askConsent(c, feedback.ReasonMisunderstanding(o.cfg.MaxMisunderstandings), MsgConsentConfused, &msgs)
			return o.reply(c, msgs)
		}
	}
	o.endRound(ctx, c, &msgs)
	return o.reply(c, msgs)
}

// bookingDone carries what a finished waterfall run produced into the Reply.
type bookingDone struct {
	booked    *booking.Record
	itinerary *itinerary.Itinerary
}

func (d bookingDone) attach(r Reply) Reply {
	r.Booked = d.booked
	r.Itinerary = d.itinerary
	return r
}

func (o *Orchestrator) enterBooking(ctx context.Context, c *Conversation, msgs *[]waterfall.Message) bookingDone {
	c.Phase = PhaseBooking
	session, turn := o.deps.Waterfall.Begin(ctx, &c.record)
	c.session = session
	c.pending = session.Pending
	*msgs = append(*msgs, turn.Messages...)
	if turn.Done {
		return o.finishBooking(ctx, c, turn, msgs)
	}
	return bookingDone{}
}

func (o *Orchestrator) continueBooking(ctx context.Context, c *Conversation, utterance string) Reply {
	turn := o.deps.Waterfall.Continue(ctx, c.session, utterance)
	msgs := append([]waterfall.Message(nil), turn.Messages...)
	c.pending = c.session.Pending
	if !turn.Done {
		return o.reply(c, msgs)
	}
	done := o.finishBooking(ctx, c, turn, &msgs)
	return done.attach(o.reply(c, msgs))
}

func (o *Orchestrator) finishBooking(ctx context.Context, c *Conversation, turn waterfall.Turn, msgs *[]waterfall.Message) bookingDone {
	c.session = nil
	c.pending = nil

	if turn.Declined {
		o.logger.Info("booking declined", zap.String("conversation_id", c.ID.String()))
		// Declined slots stay for the next booking request to revise. Without a
		// recognizer nothing could revise them.
		if o.deps.Recognizer == nil {
			c.record = booking.Record{}
		}
		if o.deps.Reporter != nil {
			o.askConsent(c, feedback.ReasonNotConfirmed, MsgConsentDeclined, msgs)
		} else {
			o.endRound(ctx, c, msgs)
		}
		return bookingDone{}
	}

	rec := turn.Result.Clone()
	c.record = booking.Record{}
	c.misunderstandings = 0
	*msgs = append(*msgs, waterfall.Message{Text: MsgBooked}, waterfall.Message{Text: rec.Summary()})
	out := bookingDone{booked: rec}
	if o.deps.Booker != nil {
		it, err := o.deps.Booker.Book(ctx, itinerary.BookCommand{ConversationID: c.ID, Record: *rec})
		if err != nil {
			o.logger.Error("persist itinerary failed", zap.String("conversation_id", c.ID.String()), zap.Error(err))
		} else {
			out.itinerary = it
		}
	}
	o.logger.Info("booking confirmed",
		zap.String("conversation_id", c.ID.String()),
		zap.String("origin", booking.Value(rec.Origin)),
		zap.String("destination", booking.Value(rec.Destination)),
	)
	o.endRound(ctx, c, msgs)
	return out
}

func (o *Orchestrator) askConsent(c *Conversation, reason, text string, msgs *[]waterfall.Message) {
	p := waterfall.Message{Text: text, Expecting: waterfall.InputYesNo}
	c.Phase = PhaseAwaitingConsent
	c.failureReason = reason
	c.pending = &p
	*msgs = append(*msgs, p)
}

func (o *Orchestrator) answerConsent(ctx context.Context, c *Conversation, utterance string) Reply {
	yes, ok := waterfall.ParseYesNo(utterance)
	if !ok {
		return o.reply(c, []waterfall.Message{*c.pending})
	}
	report := feedback.Report{
		ConversationID: c.ID,
		Reason:         c.failureReason,
		WithHistory:    yes,
	}
	if yes {
		report.History = c.history.Lines()
	}
	if _, err := o.deps.Reporter.ReportFailure(ctx, report); err != nil {
		o.logger.Error("report failure failed", zap.String("conversation_id", c.ID.String()), zap.Error(err))
	}
	c.failureReason = ""

	var msgs []waterfall.Message
	o.endRound(ctx, c, &msgs)
	return o.reply(c, msgs)
}

// reply records bot messages in the transcript and snapshots the phase.
func (o *Orchestrator) reply(c *Conversation, msgs []waterfall.Message) Reply {
	for _, m := range msgs {
		c.history.Add("bot", m.Text)
	}
	return Reply{Messages: msgs, Phase: c.Phase}
}
