// Package assistant implements the ClassClaw engine: it filters inbound
// group messages for mentions, classifies the payload into an intent via
// the external LLM, dispatches the intent against the record store, and
// renders exactly one reply per addressed message. It also derives the
// on-demand and scheduled digests over the same store.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jholhewres/classclaw/pkg/classclaw/channels"
	"github.com/jholhewres/classclaw/pkg/classclaw/classifier"
	"github.com/jholhewres/classclaw/pkg/classclaw/config"
	"github.com/jholhewres/classclaw/pkg/classclaw/store"
)

// fallbackNotice is shown (after the reply prefix) when classification
// fails; the diagnostic detail stays in the logs.
const fallbackNotice = "My mind is currently unreachable, but I can still show you what's coming up!"

// Assistant is the intent resolution and action dispatch engine.
type Assistant struct {
	cfg        *config.Config
	store      *store.Store
	classifier classifier.Classifier
	location   *time.Location
	logger     *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// New creates the assistant engine.
func New(cfg *config.Config, st *store.Store, cl classifier.Classifier, logger *slog.Logger) (*Assistant, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Assistant{
		cfg:        cfg,
		store:      st,
		classifier: cl,
		location:   loc,
		logger:     logger.With("component", "assistant"),
		now:        time.Now,
	}, nil
}

// Today returns the current calendar date in the configured timezone.
func (a *Assistant) Today() time.Time {
	return a.now().In(a.location)
}

// Run consumes the channel's incoming message stream until ctx is done.
// One logical worker handles messages in arrival order; replies are
// fire-and-forget (a send failure is logged, never retried, and never rolls
// back a store mutation already committed).
func (a *Assistant) Run(ctx context.Context, ch channels.Channel) error {
	a.logger.Info("assistant started", "channel", ch.Name())
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("assistant stopped")
			return ctx.Err()
		case msg, ok := <-ch.Receive():
			if !ok {
				return fmt.Errorf("channel %s closed its receive stream", ch.Name())
			}
			reply, respond := a.HandleMessage(ctx, msg)
			if !respond {
				continue
			}
			out := &channels.OutgoingMessage{Content: reply, ReplyTo: msg.ID}
			if err := ch.Send(ctx, msg.ChatID, out); err != nil {
				a.logger.Error("failed to send reply", "chat_id", msg.ChatID, "error", err)
			}
		}
	}
}

// HandleMessage runs one unit of work: mention filter, classification,
// dispatch, digest fallback. Returns the reply text and whether to respond
// at all. Unaddressed messages are silent no-ops.
func (a *Assistant) HandleMessage(ctx context.Context, msg *channels.IncomingMessage) (string, bool) {
	logger := a.logger.With("request_id", uuid.NewString()[:8], "chat_id", msg.ChatID)

	// Command-prefixed events are out of scope, except the welcome command.
	if strings.HasPrefix(msg.Content, "/") {
		cmd := strings.Fields(msg.Content)[0]
		if cmd == "/start" || cmd == "/help" {
			return a.welcome(msg), true
		}
		return "", false
	}

	if !Addressed(msg.Content, a.cfg.Handle, a.cfg.HandleSuffix) {
		return "", false
	}
	if a.cfg.RequireIncantation && !containsFold(msg.Content, a.cfg.Incantation) {
		return "", false
	}

	payload := StripInvocation(msg.Content, a.cfg.Name, a.cfg.Handle, a.cfg.HandleSuffix, a.cfg.Incantation)
	today := a.Today()
	prefix := a.replyPrefix()

	// Empty payload: skip classification, go straight to the digest.
	if payload == "" {
		return prefix + a.digestOrFailure(today, logger), true
	}

	intent, err := a.classifier.Classify(ctx, payload, today)
	if err != nil {
		// Recovered locally: the chat sees a generic notice plus the digest,
		// never the diagnostic detail. Still exactly one reply.
		logger.Error("classification failed", "error", err)
		return prefix + fallbackNotice + "\n\n" + a.digestOrFailure(today, logger), true
	}

	logger.Info("intent classified", "action", intent.Action)

	reply, handled := a.dispatch(intent, today)
	if handled {
		return prefix + reply, true
	}

	// Unknown or malformed intent: digest fallback, no notice needed.
	return prefix + a.digestOrFailure(today, logger), true
}

// digestOrFailure renders the on-demand digest, degrading to a generic
// failure message if the store is unreachable.
func (a *Assistant) digestOrFailure(today time.Time, logger *slog.Logger) string {
	body, err := a.OnDemandDigest(today)
	if err != nil {
		logger.Error("on-demand digest failed", "error", err)
		return storeFailureReply
	}
	return body
}

// replyPrefix is the fixed stylistic prefix every reply carries.
func (a *Assistant) replyPrefix() string {
	return fmt.Sprintf("%s hears your call… ✨\n\n", a.cfg.Name)
}

// welcome renders the reply to /start and /help.
func (a *Assistant) welcome(msg *channels.IncomingMessage) string {
	handle := "@" + a.cfg.Handle
	greeting := fmt.Sprintf("Hello %s! I'm %s, your class group assistant.\n\n", msg.FromName, a.cfg.Name)
	return greeting + fmt.Sprintf(
		"Summon me with %s.\n\nExamples:\n"+
			"• %s add math quiz due next Friday\n"+
			"• %s add timetable Monday OOP 9AM, Stats 11AM\n"+
			"• %s add exam Data Structures March 10\n"+
			"• %s list assignments\n"+
			"• %s list events\n"+
			"• %s (on its own for everything coming up)\n\n"+
			"I also send a daily reminder at %s with due items, events, and the timetable.",
		handle, handle, handle, handle, handle, handle, handle, a.cfg.Digest.ScheduleTime)
}
