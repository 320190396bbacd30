package attendance

import (
	"context"

	"eventcheckin/internal/domain"
)

// Summary is the live view of one event's attendance.
type Summary struct {
	EventID  int64                    `json:"event_id"`
	Total    int                      `json:"total"`
	Present  int                      `json:"present"`
	Late     int                      `json:"late"`
	Verified int                      `json:"verified"`
	Records  []domain.AttendanceEntry `json:"records"`
}

// SameCounts reports whether two summaries have identical totals.
func (s *Summary) SameCounts(o *Summary) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Total == o.Total && s.Present == o.Present && s.Late == o.Late && s.Verified == o.Verified
}

// Summarize recomputes counts from the persisted records on every call. Each
// count is independent: a late record can also be verified.
func (s *Service) Summarize(ctx context.Context, eventID int64) (*Summary, error) {
	records, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, domain.ErrStorage.WithError(err)
	}
	return summarize(eventID, records), nil
}

func summarize(eventID int64, records []domain.AttendanceEntry) *Summary {
	sum := &Summary{EventID: eventID, Total: len(records), Records: records}
	if sum.Records == nil {
		sum.Records = []domain.AttendanceEntry{}
	}
	for _, r := range records {
		switch r.Status {
		case domain.StatusPresent:
			sum.Present++
		case domain.StatusLate:
			sum.Late++
		}
		if r.LocationVerified {
			sum.Verified++
		}
	}
	return sum
}
