package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: TimeOfDay{Hour: 9}},
		{in: "17:30:15", want: TimeOfDay{Hour: 17, Minute: 30, Second: 15}},
		{in: "25:00", wantErr: true},
		{in: "nine", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_DurationRoundTrip(t *testing.T) {
	tod := TimeOfDay{Hour: 13, Minute: 5, Second: 59}
	assert.Equal(t, tod, TimeOfDayFromDuration(tod.Duration()))
	assert.Equal(t, "13:05:59", tod.String())
}

func TestEvent_Radius(t *testing.T) {
	assert.Equal(t, 200.0, Event{}.Radius())
	assert.Equal(t, 200.0, Event{VenueRadius: -5}.Radius())
	assert.Equal(t, 75.0, Event{VenueRadius: 75}.Radius())
}

func TestEvent_MarshalJSON(t *testing.T) {
	lat, lng := 14.0, 121.0
	evt := Event{
		ID:        7,
		Name:      "Orientation",
		Date:      time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		StartTime: TimeOfDay{Hour: 9},
		EndTime:   TimeOfDay{Hour: 11},
		VenueLat:  &lat,
		VenueLng:  &lng,
		Status:    EventUpcoming,
	}

	b, err := json.Marshal(evt)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "2025-01-10", out["event_date"])
	assert.Equal(t, "09:00:00", out["start_time"])
	assert.Equal(t, "upcoming", out["status"])
}

func TestParseVerificationMethod(t *testing.T) {
	m, err := ParseVerificationMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodManual, m)

	m, err = ParseVerificationMethod(" RFID ")
	require.NoError(t, err)
	assert.Equal(t, MethodRFID, m)

	_, err = ParseVerificationMethod("retina")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
