// Package memstore is an in-process backend for the directory, the event
// registry and attendance records. It backs local runs and tests.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"eventcheckin/internal/domain"
	"eventcheckin/internal/report"
)

type key struct {
	student int64
	event   int64
}

// Store keeps everything behind one mutex, which makes Create an atomic
// insert-if-absent per (student, event).
type Store struct {
	mu          sync.RWMutex
	nextStudent int64
	nextEvent   int64
	students    map[int64]*domain.Student
	identifiers map[string]identifier
	events      map[int64]*domain.Event
	records     map[key]domain.Attendance
	loc         *time.Location
}

type identifier struct {
	studentID int64
	rfid      bool
}

// New creates an empty store. loc is used for the monthly report buckets.
func New(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		students:    make(map[int64]*domain.Student),
		identifiers: make(map[string]identifier),
		events:      make(map[int64]*domain.Event),
		records:     make(map[key]domain.Attendance),
		loc:         loc,
	}
}

// AddStudent stores st, assigning an ID when st.ID is zero. External IDs and
// RFID tags share one namespace; a collision with any existing identifier is
// rejected.
func (s *Store) AddStudent(st domain.Student) (*domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.StudentID == "" {
		return nil, domain.ErrInvalidRequest.WithMessage("student_id is required")
	}
	if st.RFIDTag != nil && *st.RFIDTag == "" {
		st.RFIDTag = nil
	}
	if _, taken := s.identifiers[st.StudentID]; taken {
		return nil, domain.ErrInvalidRequest.WithMessage("identifier already in use: " + st.StudentID)
	}
	if st.RFIDTag != nil {
		if _, taken := s.identifiers[*st.RFIDTag]; taken || *st.RFIDTag == st.StudentID {
			return nil, domain.ErrInvalidRequest.WithMessage("identifier already in use: " + *st.RFIDTag)
		}
	}
	if st.Status == "" {
		st.Status = domain.StudentActive
	}
	if st.ID == 0 {
		s.nextStudent++
		st.ID = s.nextStudent
	} else if st.ID > s.nextStudent {
		s.nextStudent = st.ID
	}

	s.students[st.ID] = &st
	s.identifiers[st.StudentID] = identifier{studentID: st.ID}
	if st.RFIDTag != nil {
		s.identifiers[*st.RFIDTag] = identifier{studentID: st.ID, rfid: true}
	}
	out := st
	return &out, nil
}

// SetStudentStatus changes a student's account status.
func (s *Store) SetStudentStatus(id int64, status domain.StudentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return domain.ErrStudentNotFound
	}
	st.Status = status
	return nil
}

// AddEvent stores evt, assigning an ID when evt.ID is zero.
func (s *Store) AddEvent(evt domain.Event) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if evt.Status == "" {
		evt.Status = domain.EventUpcoming
	}
	if evt.ID == 0 {
		s.nextEvent++
		evt.ID = s.nextEvent
	} else if evt.ID > s.nextEvent {
		s.nextEvent = evt.ID
	}
	y, m, d := evt.Date.Date()
	evt.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	s.events[evt.ID] = &evt
	out := evt
	return &out
}

func (s *Store) FindByExternalIDOrTag(_ context.Context, ident string) (*domain.Student, error) {
	return s.lookup(ident, false)
}

func (s *Store) FindByTag(_ context.Context, tag string) (*domain.Student, error) {
	return s.lookup(tag, true)
}

func (s *Store) lookup(ident string, rfidOnly bool) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identifiers[ident]
	if !ok || (rfidOnly && !id.rfid) {
		return nil, domain.ErrStudentNotFound
	}
	st := *s.students[id.studentID]
	return &st, nil
}

func (s *Store) GetEvent(_ context.Context, id int64) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evt, ok := s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	out := *evt
	return &out, nil
}

func (s *Store) PromoteIfUpcoming(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if evt, ok := s.events[id]; ok && evt.Status == domain.EventUpcoming {
		evt.Status = domain.EventOngoing
	}
	return nil
}

// ListEvents mirrors the Postgres registry: no statuses means upcoming and
// ongoing, ordered by date then start time.
func (s *Store) ListEvents(_ context.Context, statuses []domain.EventStatus) ([]domain.Event, error) {
	if len(statuses) == 0 {
		statuses = []domain.EventStatus{domain.EventUpcoming, domain.EventOngoing}
	}
	want := make(map[domain.EventStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	s.mu.RLock()
	res := []domain.Event{}
	for _, evt := range s.events {
		if want[evt.Status] {
			res = append(res, *evt)
		}
	}
	s.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.Before(res[j].Date)
		}
		return res[i].StartTime.Duration() < res[j].StartTime.Duration()
	})
	return res, nil
}

func (s *Store) FindByStudentEvent(_ context.Context, studentID, eventID int64) (*domain.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key{studentID, eventID}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) Create(_ context.Context, rec *domain.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{rec.StudentID, rec.EventID}
	if _, exists := s.records[k]; exists {
		return domain.ErrAlreadyCheckedIn
	}
	if _, ok := s.students[rec.StudentID]; !ok {
		return fmt.Errorf("create attendance: unknown student %d", rec.StudentID)
	}
	if _, ok := s.events[rec.EventID]; !ok {
		return fmt.Errorf("create attendance: unknown event %d", rec.EventID)
	}
	s.records[k] = *rec
	return nil
}

func (s *Store) ListByEvent(ctx context.Context, eventID int64) ([]domain.AttendanceEntry, error) {
	return s.List(ctx, domain.AttendanceFilter{EventID: eventID})
}

// List returns entries newest check-in first.
func (s *Store) List(_ context.Context, f domain.AttendanceFilter) ([]domain.AttendanceEntry, error) {
	s.mu.RLock()
	res := []domain.AttendanceEntry{}
	for k, rec := range s.records {
		if f.EventID != 0 && k.event != f.EventID {
			continue
		}
		if f.StudentID != 0 && k.student != f.StudentID {
			continue
		}
		res = append(res, domain.AttendanceEntry{Attendance: rec, Student: s.students[k.student].Summary()})
	}
	s.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		return res[i].CheckInTime.After(res[j].CheckInTime)
	})
	if f.Limit > 0 {
		start := min(max(f.Offset, 0), len(res))
		end := min(start+f.Limit, len(res))
		res = res[start:end]
	}
	return res, nil
}

// Overview computes the same aggregates as report.Repository.
func (s *Store) Overview(_ context.Context) (*report.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ov := &report.Overview{
		TotalStudents: len(s.students),
		TotalEvents:   len(s.events),
		TotalCheckins: len(s.records),
		Events:        []report.EventCount{},
		ByCourse:      []report.CourseCount{},
		Monthly:       []report.MonthCount{},
	}

	perEvent := map[int64]int{}
	perCourse := map[string]int{}
	perMonth := map[[2]int]int{}
	for k, rec := range s.records {
		switch rec.Status {
		case domain.StatusPresent:
			ov.Present++
		case domain.StatusLate:
			ov.Late++
		}
		perEvent[k.event]++
		perCourse[s.students[k.student].Course]++
		local := rec.CheckInTime.In(s.loc)
		perMonth[[2]int{local.Year(), int(local.Month())}]++
	}

	for _, evt := range s.events {
		ov.Events = append(ov.Events, report.EventCount{
			EventID:   evt.ID,
			Name:      evt.Name,
			Date:      evt.DateString(),
			Venue:     evt.Venue,
			Attendees: perEvent[evt.ID],
		})
	}
	sort.Slice(ov.Events, func(i, j int) bool {
		if ov.Events[i].Date != ov.Events[j].Date {
			return ov.Events[i].Date > ov.Events[j].Date
		}
		return ov.Events[i].EventID < ov.Events[j].EventID
	})

	for course, n := range perCourse {
		ov.ByCourse = append(ov.ByCourse, report.CourseCount{Course: course, Count: n})
	}
	sort.Slice(ov.ByCourse, func(i, j int) bool {
		if ov.ByCourse[i].Count != ov.ByCourse[j].Count {
			return ov.ByCourse[i].Count > ov.ByCourse[j].Count
		}
		return ov.ByCourse[i].Course < ov.ByCourse[j].Course
	})

	for ym, n := range perMonth {
		ov.Monthly = append(ov.Monthly, report.MonthCount{Year: ym[0], Month: ym[1], Count: n})
	}
	sort.Slice(ov.Monthly, func(i, j int) bool {
		if ov.Monthly[i].Year != ov.Monthly[j].Year {
			return ov.Monthly[i].Year < ov.Monthly[j].Year
		}
		return ov.Monthly[i].Month < ov.Monthly[j].Month
	})
	return ov, nil
}

type seedEvent struct {
	domain.Event
	EventDate string `json:"event_date"`
}

type seed struct {
	Students []domain.Student `json:"students"`
	Events   []seedEvent      `json:"events"`
}

// LoadSeed reads {"students": [...], "events": [...]} into the store.
// Event dates are YYYY-MM-DD.
func (s *Store) LoadSeed(r io.Reader) error {
	var in seed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}
	for _, st := range in.Students {
		if _, err := s.AddStudent(st); err != nil {
			return fmt.Errorf("seed student %s: %w", st.StudentID, err)
		}
	}
	for _, se := range in.Events {
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(se.EventDate))
		if err != nil {
			return fmt.Errorf("seed event %q: %w", se.Name, err)
		}
		evt := se.Event
		evt.Date = date
		s.AddEvent(evt)
	}
	return nil
}
