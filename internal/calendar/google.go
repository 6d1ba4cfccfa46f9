// Package calendar reads participants' busy time from Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
)

// GoogleFreeBusy queries the FreeBusy endpoint of the Google Calendar API.
// The participant's email address is used as the calendar id.
type GoogleFreeBusy struct {
	svc *gcal.Service
}

// NewGoogleFreeBusy authenticates with a service-account (or authorized
// user) credentials file.
func NewGoogleFreeBusy(ctx context.Context, credentialsFile string) (*GoogleFreeBusy, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	return NewGoogleFreeBusyWithOptions(ctx, option.WithCredentials(creds))
}

func NewGoogleFreeBusyWithOptions(ctx context.Context, opts ...option.ClientOption) (*GoogleFreeBusy, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleFreeBusy{svc: svc}, nil
}

// BusyIntervals returns the busy periods of calendarID inside window, in
// the order Google reports them. Intervals that are empty or reversed are
// dropped.
func (g *GoogleFreeBusy) BusyIntervals(ctx context.Context, calendarID string, window model.TimeWindow) ([]model.TimeWindow, error) {
	resp, err := g.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: window.Start.UTC().Format(time.RFC3339),
		TimeMax: window.End.UTC().Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("freebusy: calendar %s missing from response", calendarID)
	}
	if len(cal.Errors) > 0 {
		reasons := make([]string, 0, len(cal.Errors))
		for _, e := range cal.Errors {
			reasons = append(reasons, e.Reason)
		}
		return nil, fmt.Errorf("freebusy: calendar %s: %s", calendarID, strings.Join(reasons, ", "))
	}

	busy := make([]model.TimeWindow, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("freebusy: parse start %q: %w", p.Start, err)
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("freebusy: parse end %q: %w", p.End, err)
		}
		w := model.TimeWindow{Start: start, End: end}
		if w.IsValid() {
			busy = append(busy, w)
		}
	}
	return busy, nil
}
