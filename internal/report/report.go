// Package report builds read-only attendance aggregates for the reports view.
package report

import (
	"context"
	"fmt"
	"time"

	"eventcheckin/internal/store"
)

// Overview is the data behind the reports page. Rendering is left to clients.
type Overview struct {
	TotalStudents int           `json:"total_students"`
	TotalEvents   int           `json:"total_events"`
	TotalCheckins int           `json:"total_checkins"`
	Present       int           `json:"present"`
	Late          int           `json:"late"`
	Events        []EventCount  `json:"events"`
	ByCourse      []CourseCount `json:"by_course"`
	Monthly       []MonthCount  `json:"monthly"`
}

type EventCount struct {
	EventID   int64  `json:"event_id"`
	Name      string `json:"event_name"`
	Date      string `json:"event_date"`
	Venue     string `json:"venue"`
	Attendees int    `json:"attendee_count"`
}

type CourseCount struct {
	Course string `json:"course"`
	Count  int    `json:"count"`
}

type MonthCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// Repository computes the overview with aggregate SQL.
type Repository struct {
	db  store.Querier
	loc *time.Location
}

// NewRepository groups monthly trends by calendar month in loc. loc must be a
// named zone Postgres knows; nil and time.Local fall back to UTC.
func NewRepository(db store.Querier, loc *time.Location) *Repository {
	if loc == nil || loc == time.Local {
		loc = time.UTC
	}
	return &Repository{db: db, loc: loc}
}

func (r *Repository) Overview(ctx context.Context) (*Overview, error) {
	ov := &Overview{Events: []EventCount{}, ByCourse: []CourseCount{}, Monthly: []MonthCount{}}

	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM events),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'present'),
			COUNT(*) FILTER (WHERE status = 'late')
		FROM attendance
	`).Scan(&ov.TotalStudents, &ov.TotalEvents, &ov.TotalCheckins, &ov.Present, &ov.Late)
	if err != nil {
		return nil, fmt.Errorf("report totals: %w", err)
	}

	if err := r.eventCounts(ctx, ov); err != nil {
		return nil, err
	}
	if err := r.courseCounts(ctx, ov); err != nil {
		return nil, err
	}
	if err := r.monthlyCounts(ctx, ov); err != nil {
		return nil, err
	}
	return ov, nil
}

func (r *Repository) eventCounts(ctx context.Context, ov *Overview) error {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.event_name, e.event_date::text, e.venue, COUNT(a.id)
		FROM events e
		LEFT JOIN attendance a ON a.event_id = e.id
		GROUP BY e.id
		ORDER BY e.event_date DESC
	`)
	if err != nil {
		return fmt.Errorf("report events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ec EventCount
		if err := rows.Scan(&ec.EventID, &ec.Name, &ec.Date, &ec.Venue, &ec.Attendees); err != nil {
			return fmt.Errorf("scan event count: %w", err)
		}
		ov.Events = append(ov.Events, ec)
	}
	return rows.Err()
}

func (r *Repository) courseCounts(ctx context.Context, ov *Overview) error {
	rows, err := r.db.Query(ctx, `
		SELECT s.course, COUNT(a.id)
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		GROUP BY s.course
		ORDER BY COUNT(a.id) DESC, s.course
	`)
	if err != nil {
		return fmt.Errorf("report courses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc CourseCount
		if err := rows.Scan(&cc.Course, &cc.Count); err != nil {
			return fmt.Errorf("scan course count: %w", err)
		}
		ov.ByCourse = append(ov.ByCourse, cc)
	}
	return rows.Err()
}

func (r *Repository) monthlyCounts(ctx context.Context, ov *Overview) error {
	rows, err := r.db.Query(ctx, `
		SELECT EXTRACT(YEAR FROM local_time)::int, EXTRACT(MONTH FROM local_time)::int, COUNT(*)
		FROM (SELECT check_in_time AT TIME ZONE $1 AS local_time FROM attendance) t
		GROUP BY 1, 2
		ORDER BY 1, 2
	`, r.loc.String())
	if err != nil {
		return fmt.Errorf("report monthly: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.Count); err != nil {
			return fmt.Errorf("scan monthly count: %w", err)
		}
		ov.Monthly = append(ov.Monthly, mc)
	}
	return rows.Err()
}
