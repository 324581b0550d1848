package event

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("event not found")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
		GetEventByID(ctx context.Context, id string) (Event, error)
		// QueryCourseEvents returns the course's events ordered by date ascending.
		// When publishedOnly is set, unpublished events are filtered out.
		QueryCourseEvents(ctx context.Context, courseID string, publishedOnly bool) ([]Event, error)
		QueryTeacherEvents(ctx context.Context, teacherID string) ([]Event, error)
		DeleteEventsByID(ctx context.Context, ids ...string) error
	}

	// CourseDirectory resolves the courses a student is enrolled in.
	CourseDirectory interface {
		StudentCourses(ctx context.Context, studentID string) ([]CourseRef, error)
	}

	Service interface {
		Create(ctx context.Context, ne NewEvent) (Event, error)
		GetByID(ctx context.Context, id string) (Event, error)
		QueryByCourse(ctx context.Context, courseID string) ([]Event, error)
		QueryByTeacher(ctx context.Context, teacherID string) ([]Event, error)
		// StudentCalendar assembles published events of every course the
		// student is enrolled in, date-ascending.
		StudentCalendar(ctx context.Context, studentID string) (Calendar, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		courses CourseDirectory
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courses CourseDirectory) Service {
	return &service{repo: repo, courses: courses}
}

func (svc *service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	evt := Event{
		CourseID:    ne.CourseID,
		Title:       ne.Title,
		Description: ne.Description,
		Date:        ne.Date,
		Published:   true,
	}
	if ne.Published != nil {
		evt.Published = *ne.Published
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *service) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *service) QueryByCourse(ctx context.Context, courseID string) ([]Event, error) {
	return svc.repo.QueryCourseEvents(ctx, courseID, false)
}

func (svc *service) QueryByTeacher(ctx context.Context, teacherID string) ([]Event, error) {
	return svc.repo.QueryTeacherEvents(ctx, teacherID)
}

func (svc *service) StudentCalendar(ctx context.Context, studentID string) (Calendar, error) {
	courses, err := svc.courses.StudentCourses(ctx, studentID)
	if err != nil {
		return Calendar{}, errors.Wrap(err, "resolving student courses")
	}

	cal := Calendar{
		Events:  make([]CalendarEntry, 0),
		Courses: courses,
	}
	if cal.Courses == nil {
		cal.Courses = make([]CourseRef, 0)
	}
	for _, crs := range courses {
		events, err := svc.repo.QueryCourseEvents(ctx, crs.ID, true /* publishedOnly */)
		if err != nil {
			return Calendar{}, errors.Wrap(err, "querying course events")
		}
		for _, evt := range events {
			cal.Events = append(cal.Events, CalendarEntry{
				ID:          evt.ID,
				Title:       evt.Title,
				Date:        evt.Date,
				Description: evt.Description,
				Course:      crs,
			})
		}
	}
	sort.Slice(cal.Events, func(i, j int) bool { return cal.Events[i].Date.Before(cal.Events[j].Date) })
	return cal, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteEventsByID(ctx, ids...)
}
