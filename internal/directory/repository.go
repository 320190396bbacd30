// Package directory resolves scanned identifiers to student records.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"eventcheckin/internal/domain"
	"eventcheckin/internal/store"
)

const selectStudent = `
		SELECT s.id, s.student_id, s.first_name, s.last_name, s.email, s.course,
		       s.year_level, s.rfid_tag, s.status, s.archived
		FROM student_identifiers i
		JOIN students s ON s.id = i.student_id
	`

// Repository looks students up through the shared identifier table, where
// external IDs and RFID tags cannot collide.
type Repository struct {
	db store.Querier
}

func NewRepository(db store.Querier) *Repository {
	return &Repository{db: db}
}

// FindByExternalIDOrTag matches the identifier against both namespaces.
func (r *Repository) FindByExternalIDOrTag(ctx context.Context, identifier string) (*domain.Student, error) {
	row := r.db.QueryRow(ctx, selectStudent+`WHERE i.identifier = $1`, identifier)
	st, err := scanStudent(row)
	if err != nil {
		return nil, fmt.Errorf("find student by identifier: %w", err)
	}
	return st, nil
}

// FindByTag matches RFID tags only.
func (r *Repository) FindByTag(ctx context.Context, tag string) (*domain.Student, error) {
	row := r.db.QueryRow(ctx, selectStudent+`WHERE i.identifier = $1 AND i.kind = 'rfid'`, tag)
	st, err := scanStudent(row)
	if err != nil {
		return nil, fmt.Errorf("find student by tag: %w", err)
	}
	return st, nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var (
		st     domain.Student
		status string
	)
	err := row.Scan(&st.ID, &st.StudentID, &st.FirstName, &st.LastName, &st.Email, &st.Course,
		&st.YearLevel, &st.RFIDTag, &status, &st.Archived)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	st.Status = domain.StudentStatus(status)
	return &st, nil
}
