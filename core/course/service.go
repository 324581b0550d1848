package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound    = errors.New("course not found")
	ErrLinkExpired = errors.New("enrollment link is invalid or has expired")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		GetCourseByEnrollToken(ctx context.Context, token string) (Course, error)
		// QueryCourses returns all courses, student counts included.
		// An empty teacherID matches every course.
		QueryCourses(ctx context.Context, teacherID string) ([]Course, error)
		QueryStudentCourses(ctx context.Context, studentID string) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, active *bool) (Course, error)
		SetEnrollLink(ctx context.Context, id, token string, expiry time.Time) (Course, error)
		// EnrollStudent is idempotent per (course, student) pair.
		EnrollStudent(ctx context.Context, courseID, studentID string) error
		DeleteCoursesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		Query(ctx context.Context, teacherID string) ([]Course, error)
		QueryByStudent(ctx context.Context, studentID string) ([]Course, error)
		Update(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		GenerateEnrollLink(ctx context.Context, id string, ttl time.Duration) (EnrollmentLink, error)
		Enroll(ctx context.Context, token, studentID string) (Course, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	crs := Course{
		Name:      nc.Name,
		Program:   nc.Program,
		Shift:     nc.Shift,
		TeacherID: nc.TeacherID,
		Active:    true,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, teacherID string) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, teacherID)
}

func (svc *service) QueryByStudent(ctx context.Context, studentID string) ([]Course, error) {
	return svc.repo.QueryStudentCourses(ctx, studentID)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:      id,
		Name:    uc.Name,
		Program: uc.Program,
		Shift:   uc.Shift,
	}
	return svc.repo.UpdateCourse(ctx, crs, uc.Active)
}

// GenerateEnrollLink issues a fresh registration token for the course,
// replacing any previous one.
func (svc *service) GenerateEnrollLink(ctx context.Context, id string, ttl time.Duration) (EnrollmentLink, error) {
	token := uuid.New().String()
	expiry := NowFunc().UTC().Add(ttl)
	if _, err := svc.repo.SetEnrollLink(ctx, id, token, expiry); err != nil {
		return EnrollmentLink{}, errors.Wrap(err, "setting enrollment link")
	}
	return EnrollmentLink{Token: token, ExpiresAt: expiry}, nil
}

// Enroll adds the student to the course holding a matching, unexpired link.
func (svc *service) Enroll(ctx context.Context, token, studentID string) (Course, error) {
	crs, err := svc.repo.GetCourseByEnrollToken(ctx, token)
	if err != nil {
		return Course{}, err
	}
	if crs.EnrollLinkExpiry == nil || NowFunc().After(*crs.EnrollLinkExpiry) {
		return Course{}, ErrLinkExpired
	}
	if err := svc.repo.EnrollStudent(ctx, crs.ID, studentID); err != nil {
		return Course{}, errors.Wrap(err, "enrolling student")
	}
	return crs, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}
