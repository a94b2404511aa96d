package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"calexport/internal/models"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// ErrNoEncodableEvents is returned when no event has a usable start date.
var ErrNoEncodableEvents = errors.New("no events with a valid start date")

const propColor = "COLOR"

// ICSOptions controls the iCalendar rendering.
type ICSOptions struct {
	// Location is used for timestamps without zone information. Defaults to UTC.
	Location *time.Location
	// UIDDomain is appended to generated UIDs. Defaults to "dokume.net".
	UIDDomain string
	ProductID string
}

func (o ICSOptions) withDefaults() ICSOptions {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.UIDDomain == "" {
		o.UIDDomain = "dokume.net"
	}
	if o.ProductID == "" {
		o.ProductID = "-//calexport//EN"
	}
	return o
}

// WriteICS encodes events as a VCALENDAR and returns the number of VEVENTs
// written. Events whose start date cannot be parsed are skipped.
func WriteICS(w io.Writer, events []models.Event, opts ICSOptions) (int, error) {
	opts = opts.withDefaults()

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, opts.ProductID)

	stamp := time.Now().UTC()
	for _, e := range events {
		vevent, ok := toICal(e, opts, stamp)
		if !ok {
			continue
		}
		cal.Children = append(cal.Children, vevent)
	}

	if len(cal.Children) == 0 {
		return 0, ErrNoEncodableEvents
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return 0, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return len(cal.Children), nil
}

// toICal converts an event to a VEVENT component.
func toICal(e models.Event, opts ICSOptions, stamp time.Time) (*ical.Component, bool) {
	start, err := parseTimestamp(e.StartDate.String(), opts.Location)
	if err != nil {
		return nil, false
	}
	end, endErr := parseTimestamp(e.EndDate.String(), opts.Location)
	if endErr == nil && end.Before(start) {
		endErr = errors.New("end before start")
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, eventUID(e, start, opts.UIDDomain))
	ve.Props.SetText(ical.PropSummary, e.Title.String())
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	if e.AllDay.Flag() {
		ve.Props.SetDate(ical.PropDateTimeStart, start)
		// DTEND is exclusive for all-day events.
		if endErr == nil {
			ve.Props.SetDate(ical.PropDateTimeEnd, end.AddDate(0, 0, 1))
		} else {
			ve.Props.SetDate(ical.PropDateTimeEnd, start.AddDate(0, 0, 1))
		}
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, start)
		if endErr == nil {
			ve.Props.SetDateTime(ical.PropDateTimeEnd, end)
		}
	}

	if loc := e.Location.String(); loc != "" {
		ve.Props.SetText(ical.PropLocation, loc)
	}
	if note := StripHTML(e.Note.String(), -1); note != "" {
		ve.Props.SetText(ical.PropDescription, note)
	}
	if name := e.UserInterface.Name(); name != "" {
		ve.Props.SetText(ical.PropCategories, name)
	}
	if color := e.Color.String(); color != "" {
		ve.Props.SetText(propColor, color)
	}
	if e.Private.Flag() {
		ve.Props.SetText(ical.PropClass, "PRIVATE")
	}
	if created, err := parseTimestamp(e.CreationDate.String(), opts.Location); err == nil {
		ve.Props.SetDateTime(ical.PropCreated, created.UTC())
	}
	return ve, true
}

// eventUID derives a stable UID from the event ID and start; events without an
// ID get a random one.
func eventUID(e models.Event, start time.Time, domain string) string {
	if !e.ID.IsSet() || e.ID.String() == "" {
		return GenerateUID() + "@" + domain
	}
	return fmt.Sprintf("%s-%s@%s", e.ID.String(), start.UTC().Format("20060102T150405Z"), domain)
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the layouts the API uses plus RFC 3339.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time: %q", s)
}
