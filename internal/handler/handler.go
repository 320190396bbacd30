// Package handler exposes the check-in engine over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"eventcheckin/internal/attendance"
	"eventcheckin/internal/domain"
	"eventcheckin/internal/report"
)

type Engine interface {
	CheckIn(ctx context.Context, req attendance.Request) (*attendance.Result, error)
	Summarize(ctx context.Context, eventID int64) (*attendance.Summary, error)
}

type EventLister interface {
	ListEvents(ctx context.Context, statuses []domain.EventStatus) ([]domain.Event, error)
}

type AttendanceLog interface {
	List(ctx context.Context, f domain.AttendanceFilter) ([]domain.AttendanceEntry, error)
}

type Reporter interface {
	Overview(ctx context.Context) (*report.Overview, error)
}

type HealthChecker interface {
	Check(ctx context.Context) (map[string]bool, bool)
}

// Deps are the collaborators behind the routes. Health may be nil.
type Deps struct {
	Engine         Engine
	Events         EventLister
	Attendance     AttendanceLog
	Reports        Reporter
	Health         HealthChecker
	Logger         *slog.Logger
	StreamInterval time.Duration
}

type Handler struct {
	engine         Engine
	events         EventLister
	attendance     AttendanceLog
	reports        Reporter
	health         HealthChecker
	logger         *slog.Logger
	streamInterval time.Duration
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.StreamInterval <= 0 {
		d.StreamInterval = 2 * time.Second
	}
	return &Handler{
		engine:         d.Engine,
		events:         d.Events,
		attendance:     d.Attendance,
		reports:        d.Reports,
		health:         d.Health,
		logger:         d.Logger,
		streamInterval: d.StreamInterval,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	v1.POST("/checkins", h.CheckIn)
	v1.GET("/events", h.ListEvents)
	v1.GET("/events/:id/attendance", h.EventAttendance)
	v1.GET("/events/:id/attendance/stream", h.StreamAttendance)
	v1.GET("/attendance", h.ListAttendance)
	v1.GET("/reports/overview", h.ReportOverview)
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	deps, ok := h.health.Check(c.Request.Context())
	status, code := "ok", http.StatusOK
	if !ok {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	body := gin.H{"status": status}
	for name, healthy := range deps {
		body[name] = healthy
	}
	c.JSON(code, body)
}

// ---------- Check-in ----------

// flexID accepts a JSON number or a numeric string; kiosks post form values
// as strings.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return domain.ErrInvalidRequest.WithMessage("event_id must be an integer")
	}
	*f = flexID(n)
	return nil
}

type checkInRequest struct {
	Identifier string   `json:"identifier"`
	RFIDTag    string   `json:"rfid_tag"`
	EventID    flexID   `json:"event_id"`
	Method     string   `json:"verification_method"`
	Lat        *float64 `json:"location_lat"`
	Lng        *float64 `json:"location_lng"`
}

type checkInResponse struct {
	Outcome    string                 `json:"outcome"`
	Message    string                 `json:"message"`
	Student    *domain.StudentSummary `json:"student,omitempty"`
	Attendance *domain.Attendance     `json:"attendance,omitempty"`
}

// CheckIn handles POST /v1/checkins.
func (h *Handler) CheckIn(c *gin.Context) {
	var body checkInRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, invalid(err))
		return
	}
	method, err := domain.ParseVerificationMethod(body.Method)
	if err != nil {
		h.fail(c, err)
		return
	}
	if body.EventID <= 0 {
		h.fail(c, domain.ErrInvalidRequest.WithMessage("event_id is required"))
		return
	}
	identifier := body.Identifier
	if identifier == "" {
		identifier = body.RFIDTag
	}

	res, err := h.engine.CheckIn(c.Request.Context(), attendance.Request{
		Identifier: identifier,
		EventID:    int64(body.EventID),
		Method:     method,
		Lat:        body.Lat,
		Lng:        body.Lng,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	code := http.StatusCreated
	if res.Outcome == attendance.OutcomeAlreadyCheckedIn {
		code = http.StatusOK
	}
	c.JSON(code, checkInResponse{
		Outcome:    string(res.Outcome),
		Message:    res.Message(),
		Student:    &res.Student,
		Attendance: res.Attendance,
	})
}

// ---------- Events ----------

// ListEvents handles GET /v1/events?status=upcoming,ongoing.
func (h *Handler) ListEvents(c *gin.Context) {
	var statuses []domain.EventStatus
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, domain.EventStatus(s))
		}
	}
	events, err := h.events.ListEvents(c.Request.Context(), statuses)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// EventAttendance handles GET /v1/events/:id/attendance.
func (h *Handler) EventAttendance(c *gin.Context) {
	id, ok := h.eventID(c)
	if !ok {
		return
	}
	sum, err := h.engine.Summarize(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// StreamAttendance pushes a summary event whenever the counts change. The
// first summary is sent immediately.
func (h *Handler) StreamAttendance(c *gin.Context) {
	id, ok := h.eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	first, err := h.engine.Summarize(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	var last *attendance.Summary
	pending := first
	c.Stream(func(w io.Writer) bool {
		if pending != nil {
			c.SSEvent("summary", pending)
			last, pending = pending, nil
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
		sum, err := h.engine.Summarize(ctx, id)
		if err != nil {
			h.logger.Warn("attendance stream refresh failed", slog.Int64("event_id", id), slog.Any("error", err))
			return ctx.Err() == nil
		}
		if !sum.SameCounts(last) {
			c.SSEvent("summary", sum)
			last = sum
		}
		return true
	})
}

// ---------- Attendance log ----------

// ListAttendance handles GET /v1/attendance?event_id=&student_id=&limit=&offset=.
func (h *Handler) ListAttendance(c *gin.Context) {
	f := domain.AttendanceFilter{Limit: 50}
	for _, q := range []struct {
		name string
		dst  any
	}{
		{"event_id", &f.EventID},
		{"student_id", &f.StudentID},
		{"limit", &f.Limit},
		{"offset", &f.Offset},
	} {
		v := c.Query(q.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			h.fail(c, domain.ErrInvalidRequest.WithMessage(q.name+" must be a non-negative integer"))
			return
		}
		switch dst := q.dst.(type) {
		case *int64:
			*dst = n
		case *int:
			*dst = int(n)
		}
	}
	f.Limit = min(f.Limit, 500)

	records, err := h.attendance.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "limit": f.Limit, "offset": f.Offset})
}

// ---------- Reports ----------

func (h *Handler) ReportOverview(c *gin.Context) {
	ov, err := h.reports.Overview(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (h *Handler) eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(c, domain.ErrInvalidRequest.WithMessage("event id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// outcomes maps error codes to the outcome names kiosks switch on.
var outcomes = map[string]string{
	domain.ErrStudentNotFound.Code: "not_found",
	domain.ErrInactiveAccount.Code: "inactive",
	domain.ErrEventNotFound.Code:   "event_not_found",
	domain.ErrInvalidRequest.Code:  "invalid_request",
}

func (h *Handler) fail(c *gin.Context, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.ErrInternal.WithError(err)
	}
	outcome, ok := outcomes[appErr.Code]
	if !ok {
		outcome = "internal_error"
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("code", appErr.Code),
			slog.Any("error", err),
		)
	}
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"outcome": outcome,
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

func invalid(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return domain.ErrInvalidRequest.WithError(err)
}
