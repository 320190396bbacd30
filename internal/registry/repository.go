// Package registry holds event metadata and the upcoming to ongoing promotion.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"eventcheckin/internal/domain"
	"eventcheckin/internal/store"
)

const selectEvent = `
		SELECT id, event_name, COALESCE(description, ''), event_date, start_time::text, end_time::text,
		       venue, venue_lat, venue_lng, COALESCE(venue_radius, 0), status
		FROM events
	`

// OpenStatuses are the lifecycle states kiosks may check students in to.
var OpenStatuses = []domain.EventStatus{domain.EventUpcoming, domain.EventOngoing}

type Repository struct {
	db store.Querier
}

func NewRepository(db store.Querier) *Repository {
	return &Repository{db: db}
}

// GetEvent returns a single event by id.
func (r *Repository) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	evt, err := scanEvent(r.db.QueryRow(ctx, selectEvent+`WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return evt, nil
}

// PromoteIfUpcoming moves an upcoming event to ongoing. Events in any other
// state are left alone, so repeated or concurrent calls converge.
func (r *Repository) PromoteIfUpcoming(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE events
		SET status = 'ongoing', updated_at = NOW()
		WHERE id = $1 AND status = 'upcoming'
	`, id)
	if err != nil {
		return fmt.Errorf("promote event: %w", err)
	}
	return nil
}

// ListEvents returns events in the given states ordered by date. No states
// means OpenStatuses.
func (r *Repository) ListEvents(ctx context.Context, statuses []domain.EventStatus) ([]domain.Event, error) {
	if len(statuses) == 0 {
		statuses = OpenStatuses
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	rows, err := r.db.Query(ctx, selectEvent+`WHERE status = ANY($1) ORDER BY event_date ASC, start_time ASC`, names)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *evt)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		evt        domain.Event
		date       time.Time
		start, end string
		radius     int
		status     string
	)
	if err := row.Scan(&evt.ID, &evt.Name, &evt.Description, &date, &start, &end,
		&evt.Venue, &evt.VenueLat, &evt.VenueLng, &radius, &status); err != nil {
		return nil, err
	}

	var err error
	if evt.StartTime, err = domain.ParseTimeOfDay(start); err != nil {
		return nil, err
	}
	if evt.EndTime, err = domain.ParseTimeOfDay(end); err != nil {
		return nil, err
	}
	evt.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	evt.VenueRadius = radius
	evt.Status = domain.EventStatus(status)
	return &evt, nil
}
