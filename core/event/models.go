package event

import (
	"time"

	"github.com/aulatech/aula/core"
)

// Event is a calendar reminder ("recordatorio") attached to a course.
type Event struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Published   bool      `json:"published"`
	CourseName  string    `json:"course_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	CourseID    string    `json:"course_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
	Published   *bool     `json:"published"`
}

func (ne *NewEvent) Validate() error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	return core.Validate.Struct(ne)
}

// CourseRef is the course summary embedded in calendar payloads.
type CourseRef struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// CalendarEntry is one event in a student's calendar feed.
type CalendarEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Course      CourseRef `json:"asignatura"`
}

// Calendar is the student calendar payload: upcoming events ordered by date
// plus the courses they belong to.
type Calendar struct {
	Events  []CalendarEntry `json:"eventos"`
	Courses []CourseRef     `json:"asignaturas"`
}
