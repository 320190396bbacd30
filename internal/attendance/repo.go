package attendance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"eventcheckin/internal/domain"
	"eventcheckin/internal/store"
)

const attendanceColumns = `a.id::text, a.student_id, a.event_id, a.check_in_time, a.verification_method,
		       a.location_lat, a.location_lng, a.location_verified, a.status`

// Repository persists attendance records in Postgres.
type Repository struct {
	db store.Querier
}

// NewRepository creates a repo.
func NewRepository(db store.Querier) *Repository {
	return &Repository{db: db}
}

// FindByStudentEvent returns the record for the pair, or nil when none exists.
func (r *Repository) FindByStudentEvent(ctx context.Context, studentID, eventID int64) (*domain.Attendance, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance a
		WHERE a.student_id = $1 AND a.event_id = $2
	`, studentID, eventID)
	var rec domain.Attendance
	if err := scanAttendance(row, &rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &rec, nil
}

// Create inserts rec unless the (student, event) pair already has a record, in
// which case it returns domain.ErrAlreadyCheckedIn. The unique constraint makes
// this a single atomic check-and-insert.
func (r *Repository) Create(ctx context.Context, rec *domain.Attendance) error {
	var id string
	err := r.db.QueryRow(ctx, `
		INSERT INTO attendance (id, student_id, event_id, check_in_time, verification_method,
		                        location_lat, location_lng, location_verified, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, event_id) DO NOTHING
		RETURNING id::text
	`, rec.ID.String(), rec.StudentID, rec.EventID, rec.CheckInTime, string(rec.Method),
		rec.LocationLat, rec.LocationLng, rec.LocationVerified, string(rec.Status)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAlreadyCheckedIn
	}
	if err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// ListByEvent returns every record for the event with student display fields,
// newest check-in first, read in one statement.
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]domain.AttendanceEntry, error) {
	return r.List(ctx, domain.AttendanceFilter{EventID: eventID})
}

// List returns attendance entries joined with students.
func (r *Repository) List(ctx context.Context, f domain.AttendanceFilter) ([]domain.AttendanceEntry, error) {
	query := `SELECT ` + attendanceColumns + `,
		       s.first_name, s.last_name, s.student_id, s.course, s.year_level
		FROM attendance a
		JOIN students s ON s.id = a.student_id`
	args := []any{}
	clauses := []string{}
	if f.EventID != 0 {
		args = append(args, f.EventID)
		clauses = append(clauses, "a.event_id = $"+strconv.Itoa(len(args)))
	}
	if f.StudentID != 0 {
		args = append(args, f.StudentID)
		clauses = append(clauses, "a.student_id = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY a.check_in_time DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit, max(f.Offset, 0))
		query += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	res := []domain.AttendanceEntry{}
	for rows.Next() {
		var (
			e           domain.AttendanceEntry
			cols        attendanceRow
			first, last string
		)
		if err := rows.Scan(append(cols.dest(&e.Attendance),
			&first, &last, &e.Student.StudentID, &e.Student.Course, &e.Student.YearLevel)...); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		if err := cols.apply(&e.Attendance); err != nil {
			return nil, err
		}
		e.Student.Name = first + " " + last
		res = append(res, e)
	}
	return res, rows.Err()
}

// attendanceRow holds the text columns that need converting after a scan.
type attendanceRow struct {
	id, method, status string
}

func (c *attendanceRow) dest(rec *domain.Attendance) []any {
	return []any{&c.id, &rec.StudentID, &rec.EventID, &rec.CheckInTime, &c.method,
		&rec.LocationLat, &rec.LocationLng, &rec.LocationVerified, &c.status}
}

func (c *attendanceRow) apply(rec *domain.Attendance) error {
	id, err := uuid.Parse(c.id)
	if err != nil {
		return fmt.Errorf("parse attendance id: %w", err)
	}
	rec.ID = id
	rec.Method = domain.VerificationMethod(c.method)
	rec.Status = domain.AttendanceStatus(c.status)
	return nil
}

func scanAttendance(row pgx.Row, rec *domain.Attendance) error {
	var cols attendanceRow
	if err := row.Scan(cols.dest(rec)...); err != nil {
		return err
	}
	return cols.apply(rec)
}
