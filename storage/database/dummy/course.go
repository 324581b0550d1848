package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/event"
)

type courseRepository struct {
	db *courseTable
}

var (
	_ course.Repository     = (*courseRepository)(nil) // interface compliance check
	_ event.CourseDirectory = (*courseRepository)(nil)
)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

// withCount attaches the live enrollment count. Assumes the lock is held.
func (repo *courseRepository) withCount(crs course.Course) course.Course {
	crs.StudentCount = len(repo.db.enrollments[crs.ID])
	return crs
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = uuid.New().String()
	now := time.Now().UTC()
	crs.CreatedAt, crs.UpdatedAt = now, now
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return repo.withCount(*crs), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetCourseByEnrollToken(ctx context.Context, token string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, crs := range repo.db.table {
		if crs.EnrollLinkToken != nil && *crs.EnrollLinkToken == token {
			return repo.withCount(*crs), nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(ctx context.Context, teacherID string) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		if teacherID != "" && crs.TeacherID != teacherID {
			continue
		}
		courses = append(courses, repo.withCount(*crs))
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) QueryStudentCourses(ctx context.Context, studentID string) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var courses []course.Course
	for id, students := range repo.db.enrollments {
		if !students[studentID] {
			continue
		}
		if crs, ok := repo.db.table[id]; ok && crs.Active {
			courses = append(courses, repo.withCount(*crs))
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, active *bool) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}

	if crs.Name != "" {
		existing.Name = crs.Name
	}
	if crs.Program != "" {
		existing.Program = crs.Program
	}
	if crs.Shift != "" {
		existing.Shift = crs.Shift
	}
	if active != nil {
		existing.Active = *active
	}
	existing.UpdatedAt = time.Now().UTC()
	return repo.withCount(*existing), nil
}

func (repo *courseRepository) SetEnrollLink(ctx context.Context, id, token string, expiry time.Time) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	existing.EnrollLinkToken = &token
	existing.EnrollLinkExpiry = &expiry
	existing.UpdatedAt = time.Now().UTC()
	return repo.withCount(*existing), nil
}

func (repo *courseRepository) EnrollStudent(ctx context.Context, courseID, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[courseID]; !ok {
		return course.ErrNotFound
	}
	students, ok := repo.db.enrollments[courseID]
	if !ok {
		students = make(map[string]bool)
		repo.db.enrollments[courseID] = students
	}
	students[studentID] = true
	return nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
		delete(repo.db.enrollments, id)
	}
	return nil
}

// StudentCourses implements event.CourseDirectory.
func (repo *courseRepository) StudentCourses(ctx context.Context, studentID string) ([]event.CourseRef, error) {
	courses, err := repo.QueryStudentCourses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	refs := make([]event.CourseRef, 0, len(courses))
	for _, crs := range courses {
		refs = append(refs, event.CourseRef{ID: crs.ID, Name: crs.Name})
	}
	return refs, nil
}
