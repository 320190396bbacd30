package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultVenueRadius is used when an event has no radius configured.
const DefaultVenueRadius = 200

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}

// TimeOfDayFromDuration converts an offset since midnight, as stored in a
// Postgres TIME column.
func TimeOfDayFromDuration(d time.Duration) TimeOfDay {
	secs := int(d / time.Second)
	return TimeOfDay{Hour: secs / 3600, Minute: (secs % 3600) / 60, Second: secs % 60}
}

// Duration is the offset since midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute + time.Duration(t.Second)*time.Second
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Event is a scheduled gathering students check in to. Date carries only the
// calendar day; the zone used to interpret Date and StartTime is server config.
type Event struct {
	ID          int64       `json:"id"`
	Name        string      `json:"event_name"`
	Description string      `json:"description,omitempty"`
	Date        time.Time   `json:"-"`
	StartTime   TimeOfDay   `json:"start_time"`
	EndTime     TimeOfDay   `json:"end_time"`
	Venue       string      `json:"venue"`
	VenueLat    *float64    `json:"venue_lat,omitempty"`
	VenueLng    *float64    `json:"venue_lng,omitempty"`
	VenueRadius int         `json:"venue_radius"`
	Status      EventStatus `json:"status"`
}

// DateString renders the calendar date as YYYY-MM-DD.
func (e Event) DateString() string {
	return e.Date.Format(time.DateOnly)
}

func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		plain
		EventDate string `json:"event_date"`
	}{plain: plain(e), EventDate: e.DateString()})
}

// Radius returns the geofence radius in meters, defaulting when unset.
func (e Event) Radius() float64 {
	if e.VenueRadius <= 0 {
		return DefaultVenueRadius
	}
	return float64(e.VenueRadius)
}

// HasVenueLocation reports whether both venue coordinates are set.
func (e Event) HasVenueLocation() bool {
	return e.VenueLat != nil && e.VenueLng != nil
}
