package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aulatech/aula/core/event"
)

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

type eventRow struct {
	ID          string      `db:"id"`
	CourseID    string      `db:"course_id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	Date        time.Time   `db:"date"`
	IsPublished null.Bool   `db:"is_published"`
	CourseName  null.String `db:"course_name"`
	CreatedAt   null.Time   `db:"created_at"`
}

func (repo eventRepository) unrow(row eventRow) event.Event {
	return event.Event{
		ID:          row.ID,
		CourseID:    row.CourseID,
		Title:       row.Title,
		Description: row.Description.String,
		Date:        row.Date,
		Published:   row.IsPublished.Bool,
		CourseName:  row.CourseName.String,
		CreatedAt:   row.CreatedAt.Time,
	}
}

func (repo eventRepository) unrowSlice(rows []eventRow) []event.Event {
	events := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, repo.unrow(row))
	}
	return events
}

func (repo eventRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return event.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// selectEvents joins in the course name for feed rendering.
const selectEvents = `
	SELECT e.id, e.course_id, e.title, e.description, e.date, e.is_published, e.created_at,
	       c.name AS course_name
	FROM event e
	JOIN course c ON c.id = e.course_id`

func (repo eventRepository) CreateEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	evt.ID = uuid.New().String()
	evt.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO event (id, course_id, title, description, date, is_published, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query,
		evt.ID, evt.CourseID, evt.Title, evt.Description, evt.Date.UTC(), evt.Published, evt.CreatedAt)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo eventRepository) GetEventByID(ctx context.Context, id string) (event.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return event.Event{}, event.ErrNotFound
	}
	var row eventRow
	err := repo.db.GetContext(ctx, &row, selectEvents+` WHERE e.id = $1`, id)
	if err != nil {
		return event.Event{}, repo.trapNoRowsErr(err, "finding event by ID")
	}
	return repo.unrow(row), nil
}

func (repo eventRepository) QueryCourseEvents(ctx context.Context, courseID string, publishedOnly bool) ([]event.Event, error) {
	query := selectEvents + ` WHERE e.course_id = $1`
	if publishedOnly {
		query += ` AND e.is_published`
	}
	query += ` ORDER BY e.date`

	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying course events")
	}
	return repo.unrowSlice(rows), nil
}

func (repo eventRepository) QueryTeacherEvents(ctx context.Context, teacherID string) ([]event.Event, error) {
	query := selectEvents + ` WHERE c.teacher_id = $1 ORDER BY e.date`

	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying teacher events")
	}
	return repo.unrowSlice(rows), nil
}

func (repo eventRepository) DeleteEventsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM event WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting events")
	}
	return nil
}
