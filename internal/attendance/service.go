package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventcheckin/internal/domain"
	"eventcheckin/internal/geofence"
	"eventcheckin/internal/metrics"
	"eventcheckin/internal/queue"
	"eventcheckin/internal/timeliness"
)

// Directory resolves scanned identifiers to students. Both lookups return
// domain.ErrStudentNotFound when nothing matches.
type Directory interface {
	FindByExternalIDOrTag(ctx context.Context, identifier string) (*domain.Student, error)
	FindByTag(ctx context.Context, tag string) (*domain.Student, error)
}

// Registry provides event metadata and the one-way promotion to ongoing.
type Registry interface {
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	PromoteIfUpcoming(ctx context.Context, id int64) error
}

// Store persists attendance records. Create must be an atomic insert-if-absent
// on (student, event) that reports domain.ErrAlreadyCheckedIn on conflict.
type Store interface {
	FindByStudentEvent(ctx context.Context, studentID, eventID int64) (*domain.Attendance, error)
	Create(ctx context.Context, rec *domain.Attendance) error
	ListByEvent(ctx context.Context, eventID int64) ([]domain.AttendanceEntry, error)
}

// Publisher receives a notification for every accepted check-in.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Request is a single check-in submission from a kiosk.
type Request struct {
	Identifier string
	EventID    int64
	Method     domain.VerificationMethod
	Lat        *float64
	Lng        *float64
}

type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeAlreadyCheckedIn Outcome = "already_checked_in"
)

// Result is returned for both accepted and duplicate check-ins. For duplicates
// Attendance holds the existing record when it could be read back.
type Result struct {
	Outcome    Outcome
	Student    domain.StudentSummary
	Attendance *domain.Attendance
}

// Message is the human readable feedback for kiosks.
func (r *Result) Message() string {
	if r.Outcome == OutcomeAlreadyCheckedIn {
		return r.Student.Name + " is already checked in."
	}
	return r.Student.Name + " checked in successfully!"
}

// Service admits check-ins and summarizes event attendance. It keeps no
// per-request state; uniqueness is left to the Store.
type Service struct {
	directory Directory
	events    Registry
	store     Store
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
}

type Option func(*Service)

// WithLocation sets the zone event dates and start times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService creates a service over the three collaborators.
func NewService(dir Directory, events Registry, st Store, opts ...Option) *Service {
	s := &Service{
		directory: dir,
		events:    events,
		store:     st,
		logger:    slog.Default(),
		loc:       time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckIn records attendance for the student matching req.Identifier.
// A repeated check-in for the same pair is not an error: it returns a Result
// with OutcomeAlreadyCheckedIn and creates nothing.
func (s *Service) CheckIn(ctx context.Context, req Request) (res *Result, err error) {
	started := time.Now()
	if req.Method == "" {
		req.Method = domain.MethodManual
	}
	defer func() {
		s.metrics.ObserveCheckIn(outcomeLabel(res, err), string(req.Method), time.Since(started))
	}()

	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return nil, domain.ErrInvalidRequest.WithMessage("identifier is required")
	}

	student, err := s.resolve(ctx, identifier, req.Method)
	if err != nil {
		return nil, err
	}
	if !student.CanCheckIn() {
		return nil, domain.ErrInactiveAccount
	}

	existing, err := s.store.FindByStudentEvent(ctx, student.ID, req.EventID)
	if err != nil {
		return nil, domain.ErrStorage.WithError(err)
	}
	if existing != nil {
		return duplicate(student, existing), nil
	}

	event, err := s.events.GetEvent(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, err
		}
		return nil, domain.ErrStorage.WithError(err)
	}

	// Postgres keeps microseconds; classify against the instant that is stored.
	now := s.now().Truncate(time.Microsecond)
	rec := &domain.Attendance{
		ID:          uuid.New(),
		StudentID:   student.ID,
		EventID:     event.ID,
		CheckInTime: now,
		Method:      req.Method,
		LocationLat: req.Lat,
		LocationLng: req.Lng,
		Status:      timeliness.Classify(now, event.Date, event.StartTime, s.loc),
	}
	if rec.HasLocation() && event.HasVenueLocation() {
		rec.LocationVerified = geofence.Verify(*req.Lat, *req.Lng, *event.VenueLat, *event.VenueLng, event.Radius())
	}

	if err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrAlreadyCheckedIn) {
			// Lost a race with a concurrent kiosk.
			winner, ferr := s.store.FindByStudentEvent(ctx, student.ID, event.ID)
			if ferr != nil {
				s.logger.Warn("read back existing attendance failed",
					slog.Int64("student_id", student.ID), slog.Int64("event_id", event.ID), slog.Any("error", ferr))
			}
			return duplicate(student, winner), nil
		}
		return nil, domain.ErrStorage.WithError(err)
	}

	if event.Status == domain.EventUpcoming {
		s.promote(ctx, event.ID)
	}
	s.notify(ctx, event.ID)

	s.logger.Info("check-in accepted",
		slog.String("student", student.StudentID),
		slog.Int64("event_id", event.ID),
		slog.String("status", string(rec.Status)),
		slog.Bool("location_verified", rec.LocationVerified),
	)
	return &Result{Outcome: OutcomeSuccess, Student: student.Summary(), Attendance: rec}, nil
}

func (s *Service) resolve(ctx context.Context, identifier string, method domain.VerificationMethod) (*domain.Student, error) {
	var (
		st  *domain.Student
		err error
	)
	if method == domain.MethodRFID {
		st, err = s.directory.FindByTag(ctx, identifier)
	} else {
		st, err = s.directory.FindByExternalIDOrTag(ctx, identifier)
	}
	switch {
	case errors.Is(err, domain.ErrStudentNotFound):
		return nil, err
	case err != nil:
		return nil, domain.ErrStorage.WithError(fmt.Errorf("resolve student: %w", err))
	case st == nil:
		return nil, domain.ErrStudentNotFound
	}
	return st, nil
}

// promote is best effort: the record is already committed and the worker
// retries from the check-in notification.
func (s *Service) promote(ctx context.Context, eventID int64) {
	if err := s.events.PromoteIfUpcoming(ctx, eventID); err != nil {
		s.metrics.PromotionFailed()
		s.logger.Warn("event promotion failed", slog.Int64("event_id", eventID), slog.Any("error", err))
	}
}

func (s *Service) notify(ctx context.Context, eventID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, queue.NewCheckIn(eventID)); err != nil {
		s.logger.Warn("queue publish failed", slog.Int64("event_id", eventID), slog.Any("error", err))
	}
}

func duplicate(st *domain.Student, existing *domain.Attendance) *Result {
	return &Result{Outcome: OutcomeAlreadyCheckedIn, Student: st.Summary(), Attendance: existing}
}

func outcomeLabel(res *Result, err error) string {
	if err == nil {
		if res == nil {
			return "unknown"
		}
		return string(res.Outcome)
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return "internal_error"
}
