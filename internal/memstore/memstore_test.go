package memstore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcheckin/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func seeded(t *testing.T) (*Store, *domain.Student, *domain.Event) {
	t.Helper()
	s := New(time.UTC)
	st, err := s.AddStudent(domain.Student{
		StudentID: "2021-0001",
		FirstName: "Ana",
		LastName:  "Reyes",
		Course:    "BSIT",
		YearLevel: 3,
		RFIDTag:   ptr("A1B2C3"),
	})
	require.NoError(t, err)
	evt := s.AddEvent(domain.Event{
		Name:      "Seminar",
		Date:      time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		StartTime: domain.TimeOfDay{Hour: 9},
		Venue:     "Hall A",
	})
	return s, st, evt
}

func TestStore_Lookup(t *testing.T) {
	s, st, _ := seeded(t)
	ctx := context.Background()

	got, err := s.FindByExternalIDOrTag(ctx, "2021-0001")
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)

	got, err = s.FindByExternalIDOrTag(ctx, "A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)

	got, err = s.FindByTag(ctx, "A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)

	_, err = s.FindByTag(ctx, "2021-0001")
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)

	_, err = s.FindByExternalIDOrTag(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)
}

func TestStore_AddStudent_IdentifiersAreDisjoint(t *testing.T) {
	s, _, _ := seeded(t)

	_, err := s.AddStudent(domain.Student{StudentID: "A1B2C3"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = s.AddStudent(domain.Student{StudentID: "2021-0002", RFIDTag: ptr("2021-0001")})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = s.AddStudent(domain.Student{StudentID: "2021-0003", RFIDTag: ptr("2021-0003")})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestStore_Create_IsInsertIfAbsent(t *testing.T) {
	s, st, evt := seeded(t)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Create(ctx, &domain.Attendance{
				ID:          uuid.New(),
				StudentID:   st.ID,
				EventID:     evt.ID,
				CheckInTime: time.Now(),
				Status:      domain.StatusPresent,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, domain.ErrAlreadyCheckedIn) {
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 19, conflict)
	recs, err := s.ListByEvent(ctx, evt.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestStore_PromoteIfUpcoming(t *testing.T) {
	s, _, evt := seeded(t)
	ctx := context.Background()
	done := s.AddEvent(domain.Event{Name: "Old", Status: domain.EventCompleted})

	require.NoError(t, s.PromoteIfUpcoming(ctx, evt.ID))
	require.NoError(t, s.PromoteIfUpcoming(ctx, evt.ID))
	require.NoError(t, s.PromoteIfUpcoming(ctx, done.ID))
	require.NoError(t, s.PromoteIfUpcoming(ctx, 999))

	got, err := s.GetEvent(ctx, evt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventOngoing, got.Status)

	got, err = s.GetEvent(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCompleted, got.Status)

	open, err := s.ListEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, evt.ID, open[0].ID)
}

func TestStore_List_OrderAndPaging(t *testing.T) {
	s, st, evt := seeded(t)
	ctx := context.Background()
	other, err := s.AddStudent(domain.Student{StudentID: "2021-0002", FirstName: "Ben", LastName: "Cruz", Course: "BSCS"})
	require.NoError(t, err)

	base := time.Date(2025, 1, 10, 1, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, &domain.Attendance{ID: uuid.New(), StudentID: st.ID, EventID: evt.ID, CheckInTime: base, Status: domain.StatusPresent}))
	require.NoError(t, s.Create(ctx, &domain.Attendance{ID: uuid.New(), StudentID: other.ID, EventID: evt.ID, CheckInTime: base.Add(time.Minute), Status: domain.StatusLate}))

	all, err := s.ListByEvent(ctx, evt.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ben Cruz", all[0].Student.Name)
	assert.Equal(t, "Ana Reyes", all[1].Student.Name)

	page, err := s.List(ctx, domain.AttendanceFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, st.ID, page[0].StudentID)

	none, err := s.List(ctx, domain.AttendanceFilter{Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, none)

	ov, err := s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ov.TotalCheckins)
	assert.Equal(t, 1, ov.Present)
	assert.Equal(t, 1, ov.Late)
	require.Len(t, ov.Events, 1)
	assert.Equal(t, 2, ov.Events[0].Attendees)
	assert.Len(t, ov.ByCourse, 2)
	require.Len(t, ov.Monthly, 1)
	assert.Equal(t, 2025, ov.Monthly[0].Year)
	assert.Equal(t, 1, ov.Monthly[0].Month)
}

func TestStore_LoadSeed(t *testing.T) {
	s := New(nil)
	err := s.LoadSeed(strings.NewReader(`{
		"students": [{"student_id": "S-1", "first_name": "Ana", "last_name": "Reyes", "course": "BSIT", "status": "inactive"}],
		"events": [{"event_name": "Fair", "event_date": "2025-02-01", "start_time": "08:30", "venue": "Field", "venue_lat": 14.0, "venue_lng": 121.0}]
	}`))
	require.NoError(t, err)

	st, err := s.FindByExternalIDOrTag(context.Background(), "S-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StudentInactive, st.Status)

	evt, err := s.GetEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", evt.DateString())
	assert.Equal(t, domain.TimeOfDay{Hour: 8, Minute: 30}, evt.StartTime)
	assert.Equal(t, domain.EventUpcoming, evt.Status)
	assert.True(t, evt.HasVenueLocation())
}
