// Package classifier turns free-form chat text into a structured intent by
// calling an external LLM completion service. The prompt embeds today's date
// so the model can resolve relative dates ("tomorrow", "next Friday") to
// absolute YYYY-MM-DD form, and an explicit enumeration of the allowed
// output shapes.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Action identifies the kind of intent extracted from a message.
type Action string

const (
	ActionAddAssignment   Action = "add_assignment"
	ActionAddTimetable    Action = "add_timetable"
	ActionListAssignments Action = "list_assignments"
	ActionAddEvent        Action = "add_event"
	ActionListEvents      Action = "list_events"
	ActionUnknown         Action = "unknown"
)

// Intent is the structured, schema-validated representation of what the user
// wants. Only the fields relevant to the Action are populated.
type Intent struct {
	Action   Action `json:"action"`
	Task     string `json:"task,omitempty"`
	Due      string `json:"due,omitempty"`
	Day      string `json:"day,omitempty"`
	Schedule string `json:"schedule,omitempty"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Date     string `json:"date,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// ClassificationError signals that classification could not produce an
// intent: the external call failed, timed out, returned nothing, or returned
// something unparseable. The Reason is diagnostic detail for logging only
// and is never shown to the chat verbatim.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification failed: %s: %v", e.Reason, e.Err)
	}
	return "classification failed: " + e.Reason
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Classifier extracts an intent from a message payload.
type Classifier interface {
	Classify(ctx context.Context, payload string, today time.Time) (*Intent, error)
}

// Completer is the minimal completion capability the classifier needs.
// *Client satisfies it; tests inject a fake.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// LLMClassifier implements Classifier on top of a Completer.
type LLMClassifier struct {
	llm     Completer
	botName string
	timeout time.Duration
	logger  *slog.Logger
}

// NewLLMClassifier creates a classifier backed by the given completion client.
func NewLLMClassifier(llm Completer, botName string, timeout time.Duration, logger *slog.Logger) *LLMClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if botName == "" {
		botName = "ClassClaw"
	}
	return &LLMClassifier{
		llm:     llm,
		botName: botName,
		timeout: timeout,
		logger:  logger.With("component", "classifier"),
	}
}

// maxOutputTokens bounds the completion: an intent JSON never needs more.
const maxOutputTokens = 300

// Classify builds the prompt, invokes the completion service with a bounded
// timeout and near-zero temperature, and parses the response into an Intent.
// An action outside the enumerated set is folded into ActionUnknown; it is
// not an error. All failure conditions return a *ClassificationError.
func (c *LLMClassifier) Classify(ctx context.Context, payload string, today time.Time) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := c.buildPrompt(payload, today)

	raw, err := c.llm.Complete(ctx, prompt, maxOutputTokens, 0.1)
	if err != nil {
		return nil, &ClassificationError{Reason: "completion call failed", Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, &ClassificationError{Reason: "empty completion response"}
	}

	intent, err := ParseIntent(raw)
	if err != nil {
		c.logger.Warn("unparseable classifier response", "error", err, "raw_len", len(raw))
		return nil, &ClassificationError{Reason: "unparseable response", Err: err}
	}

	c.logger.Debug("classified", "action", intent.Action)
	return intent, nil
}

// buildPrompt produces the deterministic classification prompt.
func (c *LLMClassifier) buildPrompt(payload string, today time.Time) string {
	return fmt.Sprintf(`You are %s, a class group assistant for students.
Output ONLY valid JSON. No explanation. No markdown.
Allowed formats:
{"action": "add_assignment", "task": "string", "due": "YYYY-MM-DD"}
{"action": "add_timetable", "day": "Monday", "schedule": "string"}
{"action": "list_assignments"}
{"action": "add_event", "type": "exam/test/quiz/presentation/etc or empty", "title": "string", "date": "YYYY-MM-DD", "notes": "string or empty"}
{"action": "list_events"}
{"action": "unknown"}
Convert relative dates properly (tomorrow, next Friday, in 2 weeks -> absolute YYYY-MM-DD).
Today is %s
Message:
%s`, c.botName, today.Format("2006-01-02"), payload)
}

// ParseIntent strips markdown code-fence wrapping from a raw completion and
// parses it as an Intent. A response wrapped in fences parses identically to
// one without. Unlisted actions become ActionUnknown.
func ParseIntent(raw string) (*Intent, error) {
	cleaned := stripCodeFences(raw)

	var intent Intent
	if err := json.Unmarshal([]byte(cleaned), &intent); err != nil {
		return nil, fmt.Errorf("parsing intent JSON: %w", err)
	}

	switch intent.Action {
	case ActionAddAssignment, ActionAddTimetable, ActionListAssignments,
		ActionAddEvent, ActionListEvents, ActionUnknown:
	default:
		intent = Intent{Action: ActionUnknown}
	}
	return &intent, nil
}

// stripCodeFences removes ```json / ``` markers the model sometimes wraps
// its output in despite instructions.
func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// Compile-time interface verification.
var _ Classifier = (*LLMClassifier)(nil)
