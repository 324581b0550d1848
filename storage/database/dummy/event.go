package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aulatech/aula/core/event"
)

type eventRepository struct {
	db      *eventTable
	courses *courseTable
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db.event, courses: db.course}
}

// courseName resolves the owning course name for feed rendering.
func (repo *eventRepository) courseName(courseID string) string {
	repo.courses.RLock()
	defer repo.courses.RUnlock()
	if crs, ok := repo.courses.table[courseID]; ok {
		return crs.Name
	}
	return ""
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	evt.ID = uuid.New().String()
	evt.CreatedAt = time.Now().UTC()
	repo.db.table[evt.ID] = &evt

	stored := evt
	stored.CourseName = repo.courseName(evt.CourseID)
	return stored, nil
}

func (repo *eventRepository) GetEventByID(ctx context.Context, id string) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evt, ok := repo.db.table[id]; ok {
		out := *evt
		out.CourseName = repo.courseName(out.CourseID)
		return out, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) QueryCourseEvents(ctx context.Context, courseID string, publishedOnly bool) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.Event, 0)
	for _, evt := range repo.db.table {
		if evt.CourseID != courseID {
			continue
		}
		if publishedOnly && !evt.Published {
			continue
		}
		out := *evt
		out.CourseName = repo.courseName(out.CourseID)
		events = append(events, out)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

func (repo *eventRepository) QueryTeacherEvents(ctx context.Context, teacherID string) ([]event.Event, error) {
	repo.courses.RLock()
	owned := make(map[string]bool)
	for id, crs := range repo.courses.table {
		if crs.TeacherID == teacherID {
			owned[id] = true
		}
	}
	repo.courses.RUnlock()

	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.Event, 0)
	for _, evt := range repo.db.table {
		if owned[evt.CourseID] {
			out := *evt
			out.CourseName = repo.courseName(out.CourseID)
			events = append(events, out)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
