package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/event"
)

type courseRepository struct {
	db *sqlx.DB
}

var (
	_ course.Repository     = (*courseRepository)(nil) // interface compliance check
	_ event.CourseDirectory = (*courseRepository)(nil)
)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID               string      `db:"id"`
	Name             string      `db:"name"`
	Program          null.String `db:"program"`
	Shift            null.String `db:"shift"`
	TeacherID        null.String `db:"teacher_id"`
	IsActive         null.Bool   `db:"is_active"`
	EnrollLinkToken  null.String `db:"enroll_link_token"`
	EnrollLinkExpiry null.Time   `db:"enroll_link_expiry"`
	StudentCount     int         `db:"student_count"`
	CreatedAt        null.Time   `db:"created_at"`
	UpdatedAt        null.Time   `db:"updated_at"`
}

func (repo courseRepository) unrow(row courseRow) course.Course {
	crs := course.Course{
		ID:               row.ID,
		Name:             row.Name,
		Program:          row.Program.String,
		Shift:            row.Shift.String,
		TeacherID:        row.TeacherID.String,
		Active:           row.IsActive.Bool,
		EnrollLinkToken:  row.EnrollLinkToken.Ptr(),
		StudentCount:     row.StudentCount,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
	if row.EnrollLinkExpiry.Valid {
		expiry := row.EnrollLinkExpiry.Time
		crs.EnrollLinkExpiry = &expiry
	}
	return crs
}

func (repo courseRepository) unrowSlice(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, repo.unrow(row))
	}
	return courses
}

func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// selectCourses joins in the enrolled-student count.
const selectCourses = `
	SELECT c.id, c.name, c.program, c.shift, c.teacher_id, c.is_active,
	       c.enroll_link_token, c.enroll_link_expiry, c.created_at, c.updated_at,
	       COUNT(e.student_id) AS student_count
	FROM course c
	LEFT JOIN enrollment e ON e.course_id = c.id`

const groupCourses = ` GROUP BY c.id`

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	now := time.Now().UTC()
	crs.CreatedAt, crs.UpdatedAt = now, now

	const query = `
		INSERT INTO course (id, name, program, shift, teacher_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, query,
		crs.ID, crs.Name, crs.Program, crs.Shift, crs.TeacherID, crs.Active, crs.CreatedAt, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	err := repo.db.GetContext(ctx, &row, selectCourses+` WHERE c.id = $1`+groupCourses, id)
	if err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "finding course by ID")
	}
	return repo.unrow(row), nil
}

func (repo courseRepository) GetCourseByEnrollToken(ctx context.Context, token string) (course.Course, error) {
	if _, err := uuid.Parse(token); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	err := repo.db.GetContext(ctx, &row, selectCourses+` WHERE c.enroll_link_token = $1`+groupCourses, token)
	if err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "finding course by enrollment token")
	}
	return repo.unrow(row), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, teacherID string) ([]course.Course, error) {
	query := selectCourses
	var args []interface{}
	if teacherID != "" {
		query += ` WHERE c.teacher_id = $1`
		args = append(args, teacherID)
	}
	query += groupCourses + ` ORDER BY c.created_at DESC`

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return repo.unrowSlice(rows), nil
}

func (repo courseRepository) QueryStudentCourses(ctx context.Context, studentID string) ([]course.Course, error) {
	query := selectCourses + `
	WHERE c.id IN (SELECT course_id FROM enrollment WHERE student_id = $1) AND c.is_active` +
		groupCourses + ` ORDER BY c.name`

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student courses")
	}
	return repo.unrowSlice(rows), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, active *bool) (course.Course, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if crs.Name != "" {
		set("name", crs.Name)
	}
	if crs.Program != "" {
		set("program", crs.Program)
	}
	if crs.Shift != "" {
		set("shift", crs.Shift)
	}
	if active != nil {
		set("is_active", *active)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, crs.ID)
	query := fmt.Sprintf(`UPDATE course SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo courseRepository) SetEnrollLink(ctx context.Context, id, token string, expiry time.Time) (course.Course, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE course SET enroll_link_token = $1, enroll_link_expiry = $2, updated_at = $3 WHERE id = $4`,
		token, expiry.UTC(), time.Now().UTC(), id)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "setting enrollment link")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, id)
}

func (repo courseRepository) EnrollStudent(ctx context.Context, courseID, studentID string) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO enrollment (course_id, student_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (course_id, student_id) DO NOTHING`,
		courseID, studentID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return nil
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

// StudentCourses implements event.CourseDirectory.
func (repo courseRepository) StudentCourses(ctx context.Context, studentID string) ([]event.CourseRef, error) {
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
