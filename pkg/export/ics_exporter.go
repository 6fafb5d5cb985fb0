package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEntry is one VEVENT. A nil End leaves DTEND out.
type CalendarEntry struct {
	UID         string
	Summary     string
	Description string
	Location    string
	URL         string
	Start       time.Time
	End         *time.Time
}

// ICSExporter renders entries as an iCalendar feed.
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter constructs an exporter stamping productID into the feed.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//rsvp-agenda//agenda-gateway//EN"
	}
	return &ICSExporter{productID: productID, now: time.Now}
}

// Render serialises entries into a PUBLISH calendar named name.
func (e *ICSExporter) Render(name string, entries []CalendarEntry) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for _, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("ics entry %q has no uid", entry.Summary)
		}
		ev := cal.AddEvent(entry.UID)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(entry.Start)
		if entry.End != nil {
			ev.SetEndAt(*entry.End)
		}
		ev.SetSummary(entry.Summary)
		if entry.Description != "" {
			ev.SetDescription(entry.Description)
		}
		if entry.Location != "" {
			ev.SetLocation(entry.Location)
		}
		if entry.URL != "" {
			ev.SetURL(entry.URL)
		}
	}
	return []byte(cal.Serialize()), nil
}
