package workspace

import (
	"context"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/m4xw311/steward/agent/calendar"
)

// CalendarScopes are the scopes GoogleCalendar needs.
var CalendarScopes = []string{gcal.CalendarScope}

// GoogleCalendar is a calendar.Calendar backed by the user's primary
// Google calendar.
type GoogleCalendar struct {
	svc *gcal.Service
}

var _ calendar.Calendar = (*GoogleCalendar)(nil)

func NewGoogleCalendar(ctx context.Context, opts ...option.ClientOption) (*GoogleCalendar, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, classify(err, "could not create calendar service")
	}
	return &GoogleCalendar{svc: svc}, nil
}

func (g *GoogleCalendar) Upcoming(ctx context.Context, from, to time.Time, max int) ([]calendar.Event, error) {
	res, err := g.svc.Events.List("primary").
		TimeMin(from.UTC().Format(time.RFC3339)).
		TimeMax(to.UTC().Format(time.RFC3339)).
		MaxResults(int64(max)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err, "could not list events")
	}

	events := make([]calendar.Event, 0, len(res.Items))
	for _, item := range res.Items {
		ev := calendar.Event{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
		}
		ev.Start, ev.AllDay = eventTime(item.Start)
		ev.End, _ = eventTime(item.End)
		for _, att := range item.Attendees {
			ev.Attendees = append(ev.Attendees, att.Email)
		}
		events = append(events, ev)
	}
	return events, nil
}

func (g *GoogleCalendar) Create(ctx context.Context, ev calendar.Event) (string, error) {
	item := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         &gcal.EventDateTime{DateTime: ev.End.UTC().Format(time.RFC3339), TimeZone: "UTC"},
	}
	for _, a := range ev.Attendees {
		item.Attendees = append(item.Attendees, &gcal.EventAttendee{Email: a})
	}

	created, err := g.svc.Events.Insert("primary", item).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return "", classify(err, "could not create event")
	}
	return created.Id, nil
}

// eventTime reads a timed or all-day event boundary.
func eventTime(dt *gcal.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err == nil {
			return t, false
		}
	}
	if dt.Date != "" {
		t, err := time.Parse(time.DateOnly, dt.Date)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
