package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/query"
)

// EventRepository manages persistence for school events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

var eventFilters = query.FilterSpec{
	{Param: "school_id", Column: "e.school_id"},
}

// List returns events within the caller's scope. from/to bound the window
// on the event start.
func (r *EventRepository) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.Event, int, error) {
	qb := query.New(
		"SELECT e.id, e.school_id, e.title, e.description, e.location, e.start_at, e.end_at, e.created_by, e.created_at, e.updated_at",
		"FROM events e",
	)
	if scope != nil && scope.Restricted && scope.SchoolID != nil {
		params = withoutSchoolParam(params)
		qb.Where("e.school_id", *scope.SchoolID)
	}
	if from := params.Get("from"); from != "" {
		qb.Condition("e.start_at >= $%d", from)
	}
	if to := params.Get("to"); to != "" {
		qb.Condition("e.start_at <= $%d", to)
	}
	qb.ApplyFilters(params, eventFilters).
		ApplySearch(params, []string{"e.title", "e.location"}).
		ApplySort(params, "e.start_at ASC").
		ApplyPagination(params, 25)

	stmt, args := qb.Build()
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countStmt, countArgs := qb.BuildCount()
	var total int
	if err := r.db.GetContext(ctx, &total, countStmt, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID fetches an event by ID.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	const query = `SELECT id, school_id, title, description, location, start_at, end_at, created_by, created_at, updated_at
        FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, school_id, title, description, location, start_at, end_at, created_by, created_at, updated_at)
        VALUES (:id, :school_id, :title, :description, :location, :start_at, :end_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update modifies an existing event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, location = :location, start_at = :start_at, end_at = :end_at, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update event %s: %w", event.ID, errNoRowsAffected)
	}
	return nil
}

// SchoolUserIDs returns every active account bound to a school, for event
// notification fan-out.
func (r *EventRepository) SchoolUserIDs(ctx context.Context, schoolID string) ([]string, error) {
	const query = `SELECT u.id FROM users u WHERE u.active = true AND u.id IN (
        SELECT user_id FROM principals WHERE school_id = $1
        UNION SELECT user_id FROM teachers WHERE school_id = $1
        UNION SELECT user_id FROM students WHERE school_id = $1)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, schoolID); err != nil {
		return nil, fmt.Errorf("list school users: %w", err)
	}
	return ids, nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete event %s: %w", id, errNoRowsAffected)
	}
	return nil
}
