// Package calendar implements the agent answering calendar requests:
// listing upcoming events and creating new ones.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/llm"
)

const (
	defaultDays = 7
	maxDays     = 365
	// MaxListed is how many events list_events asks for.
	MaxListed = 10
)

const actionPrompt = `You turn a personal-assistant request about a calendar into an action.
The current time is %s (UTC).

Actions:
- list_events: list upcoming events
  parameters: days (optional integer, how many days ahead, default 7)
- create_event: create a new event
  parameters: summary, start_time and end_time (RFC3339, e.g. 2026-01-05T14:00:00Z),
  description (optional), attendees (optional list of email addresses)

Respond with a single JSON object and nothing else, for example:
{"action": "list_events", "parameters": {"days": 1}}
{"action": "create_event", "parameters": {"summary": "Team sync", "start_time": "2026-01-05T14:00:00Z", "end_time": "2026-01-05T14:30:00Z", "attendees": ["ana@example.com"]}}

Request: %s`

// Event is one calendar entry.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// AllDay events carry a date only; Start is midnight UTC of that date.
	AllDay    bool
	Attendees []string
}

// Calendar is the calendar service the agent works against.
type Calendar interface {
	// Upcoming returns at most max single events starting in [from, to),
	// ordered by start time.
	Upcoming(ctx context.Context, from, to time.Time, max int) ([]Event, error)
	// Create inserts ev, notifying attendees, and returns the new event ID.
	Create(ctx context.Context, ev Event) (string, error)
}

// Agent handles calendar requests.
type Agent struct {
	provider llm.CompletionProvider
	calendar Calendar
	opts     llm.Options
	timeout  time.Duration
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Agent)

// WithTimeout bounds each calendar call.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) { a.timeout = d }
}

// WithOptions sets the completion options used for action extraction.
func WithOptions(opts llm.Options) Option {
	return func(a *Agent) { a.opts = opts }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

func New(provider llm.CompletionProvider, cal Calendar, opts ...Option) *Agent {
	a := &Agent{
		provider: provider,
		calendar: cal,
		now:      time.Now,
		log:      slog.Default().With("component", "agent.calendar"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.opts.Temperature == nil {
		a.opts.Temperature = llm.Float(0)
	}
	return a
}

func (a *Agent) Process(ctx context.Context, req agent.Request) (agent.Response, error) {
	if req.Empty() {
		return agent.Response{}, agent.ErrEmptyRequest()
	}

	now := a.now().UTC()
	prompt := fmt.Sprintf(actionPrompt, now.Format(time.RFC3339), req.Text)
	action, err := agent.ExtractAction(ctx, a.provider, prompt, a.opts)
	if err != nil {
		return agent.Response{}, err
	}
	a.log.DebugContext(ctx, "extracted action", "request_id", req.ID, "action", action.Name)

	switch action.Name {
	case "list_events":
		return a.listEvents(ctx, now, action.Int("days", defaultDays))
	case "create_event":
		return a.createEvent(ctx, action)
	default:
		return agent.Response{}, errors.InvalidInput("unknown calendar action %q", action.Name)
	}
}

func (a *Agent) listEvents(ctx context.Context, now time.Time, days int) (agent.Response, error) {
	days = min(max(days, 1), maxDays)

	var events []Event
	err := agent.CallWithTimeout(ctx, a.timeout, "listing events", func(ctx context.Context) error {
		var err error
		events, err = a.calendar.Upcoming(ctx, now, now.AddDate(0, 0, days), MaxListed)
		return err
	})
	if err != nil {
		return agent.Response{}, errors.Wrapf(err, "error listing events")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Retrieved %d events", len(events))
	if len(events) > 0 {
		sb.WriteString(":")
	}
	for _, ev := range events {
		summary := ev.Summary
		if strings.TrimSpace(summary) == "" {
			summary = "No title"
		}
		fmt.Fprintf(&sb, "\n- %s (%s)", summary, formatStart(ev))
		if len(ev.Attendees) > 0 {
			fmt.Fprintf(&sb, " with %s", strings.Join(ev.Attendees, ", "))
		}
	}
	return agent.Response{Text: sb.String()}, nil
}

func (a *Agent) createEvent(ctx context.Context, action agent.Action) (agent.Response, error) {
	summary := action.String("summary")
	rawStart, rawEnd := action.String("start_time"), action.String("end_time")
	if summary == "" || rawStart == "" || rawEnd == "" {
		return agent.Response{}, errors.InvalidInput("missing required parameters (summary, start_time, end_time)")
	}
	start, err := time.Parse(time.RFC3339, rawStart)
	if err != nil {
		return agent.Response{}, errors.InvalidInput("start_time %q is not an RFC3339 timestamp", rawStart)
	}
	end, err := time.Parse(time.RFC3339, rawEnd)
	if err != nil {
		return agent.Response{}, errors.InvalidInput("end_time %q is not an RFC3339 timestamp", rawEnd)
	}
	if !end.After(start) {
		return agent.Response{}, errors.InvalidInput("the event must end after it starts")
	}

	ev := Event{
		Summary:     summary,
		Description: action.String("description"),
		Start:       start.UTC(),
		End:         end.UTC(),
		Attendees:   action.Strings("attendees"),
	}
	var id string
	err = agent.CallWithTimeout(ctx, a.timeout, "creating event", func(ctx context.Context) error {
		var err error
		id, err = a.calendar.Create(ctx, ev)
		return err
	})
	if err != nil {
		return agent.Response{}, errors.Wrapf(err, "error creating event")
	}
	a.log.InfoContext(ctx, "event created", "id", id, "attendees", len(ev.Attendees))
	return agent.Response{Text: fmt.Sprintf("Event created: %s", id)}, nil
}

func formatStart(ev Event) string {
	if ev.AllDay {
		return ev.Start.Format(time.DateOnly)
	}
	return ev.Start.UTC().Format(time.RFC3339)
}
