// Package email implements the agent answering email requests: summarizing
// the inbox and sending mail.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/llm"
)

const (
	defaultMaxEmails = 5
	maxMaxEmails     = 50
)

const actionPrompt = `You turn a personal-assistant request about email into an action.

Actions:
- summarize_inbox: get a summary of recent emails
  parameters: max_emails (optional integer, default 5)
- send_email: send a new email
  parameters: to (recipient email address), subject, body

Respond with a single JSON object and nothing else, for example:
{"action": "summarize_inbox", "parameters": {"max_emails": 5}}
{"action": "send_email", "parameters": {"to": "john@example.com", "subject": "Lunch", "body": "Are we still on for noon?"}}

Request: %s`

// Message is the header summary of one email.
type Message struct {
	From    string
	Subject string
	Date    string
}

// Mailbox is the mail service the agent works against.
type Mailbox interface {
	// Recent returns up to max of the newest inbox messages, newest first.
	Recent(ctx context.Context, max int) ([]Message, error)
	Send(ctx context.Context, to, subject, body string) error
}

// Agent handles email requests.
type Agent struct {
	provider llm.CompletionProvider
	mailbox  Mailbox
	opts     llm.Options
	allowed  []string
	timeout  time.Duration
	log      *slog.Logger
}

type Option func(*Agent)

// WithAllowedRecipients restricts send_email to addresses matching one of
// the glob patterns (e.g. "*@example.com"). An empty list allows any.
func WithAllowedRecipients(patterns ...string) Option {
	return func(a *Agent) { a.allowed = append(a.allowed, patterns...) }
}

// WithTimeout bounds each mailbox call.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) { a.timeout = d }
}

// WithOptions sets the completion options used for action extraction.
func WithOptions(opts llm.Options) Option {
	return func(a *Agent) { a.opts = opts }
}

func New(provider llm.CompletionProvider, mailbox Mailbox, opts ...Option) (*Agent, error) {
	a := &Agent{
		provider: provider,
		mailbox:  mailbox,
		log:      slog.Default().With("component", "agent.email"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.opts.Temperature == nil {
		a.opts.Temperature = llm.Float(0)
	}
	for i, p := range a.allowed {
		p = strings.ToLower(strings.TrimSpace(p))
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Fatal(nil, "invalid allowed_recipients pattern %q", p)
		}
		a.allowed[i] = p
	}
	return a, nil
}

func (a *Agent) Process(ctx context.Context, req agent.Request) (agent.Response, error) {
	if req.Empty() {
		return agent.Response{}, agent.ErrEmptyRequest()
	}

	action, err := agent.ExtractAction(ctx, a.provider, fmt.Sprintf(actionPrompt, req.Text), a.opts)
	if err != nil {
		return agent.Response{}, err
	}
	a.log.DebugContext(ctx, "extracted action", "request_id", req.ID, "action", action.Name)

	switch action.Name {
	case "summarize_inbox":
		return a.summarizeInbox(ctx, action.Int("max_emails", defaultMaxEmails))
	case "send_email":
		return a.sendEmail(ctx, action.String("to"), action.String("subject"), action.String("body"))
	default:
		return agent.Response{}, errors.InvalidInput("unknown email action %q", action.Name)
	}
}

func (a *Agent) summarizeInbox(ctx context.Context, n int) (agent.Response, error) {
	n = min(max(n, 1), maxMaxEmails)

	var msgs []Message
	err := agent.CallWithTimeout(ctx, a.timeout, "listing inbox", func(ctx context.Context) error {
		var err error
		msgs, err = a.mailbox.Recent(ctx, n)
		return err
	})
	if err != nil {
		return agent.Response{}, errors.Wrapf(err, "error summarizing inbox")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Retrieved %d emails", len(msgs))
	if len(msgs) > 0 {
		sb.WriteString(":")
	}
	for _, m := range msgs {
		fmt.Fprintf(&sb, "\n- %s: %s (%s)", orDefault(m.From, "unknown sender"), orDefault(m.Subject, "(no subject)"), m.Date)
	}
	return agent.Response{Text: sb.String()}, nil
}

func (a *Agent) sendEmail(ctx context.Context, to, subject, body string) (agent.Response, error) {
	if to == "" || subject == "" || body == "" {
		return agent.Response{}, errors.InvalidInput("missing required parameters (to, subject, body)")
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return agent.Response{}, errors.InvalidInput("%q is not a valid email address", to)
	}
	if !a.recipientAllowed(addr.Address) {
		return agent.Response{}, errors.InvalidInput("sending to %s is not allowed", addr.Address)
	}

	err = agent.CallWithTimeout(ctx, a.timeout, "sending email", func(ctx context.Context) error {
		return a.mailbox.Send(ctx, addr.Address, subject, body)
	})
	if err != nil {
		return agent.Response{}, errors.Wrapf(err, "error sending email")
	}
	a.log.InfoContext(ctx, "email sent", "to", addr.Address)
	return agent.Response{Text: fmt.Sprintf("Email sent to %s", addr.Address)}, nil
}

func (a *Agent) recipientAllowed(addr string) bool {
	if len(a.allowed) == 0 {
		return true
	}
	addr = strings.ToLower(addr)
	for _, p := range a.allowed {
		if ok, _ := doublestar.Match(p, addr); ok {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
