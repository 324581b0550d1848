package course

import (
	"time"

	"github.com/aulatech/aula/core"
)

// Course is an "asignatura": a subject taught by one teacher, in which
// students enroll through a time-limited registration link.
type Course struct {
	ID               string     `json:"id"`
	Name             string     `json:"nombre"`
	Program          string     `json:"carrera"`
	Shift            string     `json:"jornada"`
	TeacherID        string     `json:"teacher_id"`
	Active           bool       `json:"activo"`
	EnrollLinkToken  *string    `json:"enroll_link_token,omitempty"`
	EnrollLinkExpiry *time.Time `json:"enroll_link_expiry,omitempty"`
	StudentCount     int        `json:"student_count"`
	CreatedAt        time.Time  `json:"created_at"` // UTC
	UpdatedAt        time.Time  `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name      string `json:"nombre" validate:"required"`
	Program   string `json:"carrera" validate:"required"`
	Shift     string `json:"jornada" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

func (nc *NewCourse) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Program = core.CleanString(nc.Program)
	nc.Shift = core.CleanString(nc.Shift)
	nc.TeacherID = core.CleanString(nc.TeacherID)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name    string `json:"nombre"`
	Program string `json:"carrera"`
	Shift   string `json:"jornada"`
	Active  *bool  `json:"activo"`
}

func (uc *UpdateCourse) Validate(orig Course) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if program := core.CleanString(uc.Program); program != "" {
		uc.Program = program
	} else {
		uc.Program = orig.Program
	}
	if shift := core.CleanString(uc.Shift); shift != "" {
		uc.Shift = shift
	} else {
		uc.Shift = orig.Shift
	}
	return core.Validate.Struct(uc)
}

// EnrollmentLink is a time-limited token students use to join a Course.
type EnrollmentLink struct {
	Token     string    `json:"enlace_registro"`
	ExpiresAt time.Time `json:"fecha_expiracion"`
}

// Enrollment ties a student to a Course.
type Enrollment struct {
	CourseID  string    `json:"course_id"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}
