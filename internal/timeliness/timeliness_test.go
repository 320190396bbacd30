package timeliness

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcheckin/internal/domain"
)

func manila(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	return loc
}

func TestEventStart(t *testing.T) {
	loc := manila(t)
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	start := EventStart(date, domain.TimeOfDay{Hour: 9}, loc)

	assert.Equal(t, time.Date(2025, 1, 10, 9, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2025, 1, 10, 1, 0, 0, 0, time.UTC), start.UTC())
}

func TestClassify(t *testing.T) {
	loc := manila(t)
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	nine := domain.TimeOfDay{Hour: 9}
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		now  time.Time
		want domain.AttendanceStatus
	}{
		{name: "before start", now: start.Add(-10 * time.Minute), want: domain.StatusPresent},
		{name: "exactly at start", now: start, want: domain.StatusPresent},
		{name: "one second after", now: start.Add(time.Second), want: domain.StatusLate},
		{name: "one nanosecond after", now: start.Add(time.Nanosecond), want: domain.StatusLate},
		{name: "same instant expressed in UTC", now: start.UTC(), want: domain.StatusPresent},
		{name: "next day", now: start.Add(24 * time.Hour), want: domain.StatusLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.now, date, nine, loc))
		})
	}
}

func TestClassify_ZoneMatters(t *testing.T) {
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 10, 5, 0, 0, 0, time.UTC) // 13:00 in Manila

	assert.Equal(t, domain.StatusPresent, Classify(now, date, domain.TimeOfDay{Hour: 9}, time.UTC))
	assert.Equal(t, domain.StatusLate, Classify(now, date, domain.TimeOfDay{Hour: 9}, manila(t)))
}
