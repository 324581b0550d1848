package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/aulatech/aula/core/course"
	dummydb "github.com/aulatech/aula/storage/database/dummy"
)

func setupService(t *testing.T) course.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() error = %v", err)
	}
	return course.NewService(dummydb.NewCourseRepository(db))
}

func createCourse(t *testing.T, svc course.Service, name, teacherID string) course.Course {
	t.Helper()
	crs, err := svc.Create(context.Background(), course.NewCourse{
		Name:      name,
		Program:   "Ingeniería",
		Shift:     "Diurna",
		TeacherID: teacherID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return crs
}

func TestService_Create(t *testing.T) {
	svc := setupService(t)

	crs := createCourse(t, svc, "Cálculo I", "teacher-1")
	if crs.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if !crs.Active {
		t.Error("Create() course should be active")
	}
	if crs.StudentCount != 0 {
		t.Errorf("StudentCount = %d, want 0", crs.StudentCount)
	}
}

func TestService_Query(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	createCourse(t, svc, "Cálculo I", "teacher-1")
	createCourse(t, svc, "Física I", "teacher-1")
	createCourse(t, svc, "Química I", "teacher-2")

	tests := []struct {
		name      string
		teacherID string
		want      int
	}{
		{name: "all courses", teacherID: "", want: 3},
		{name: "by teacher", teacherID: "teacher-1", want: 2},
		{name: "unknown teacher", teacherID: "nope", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses, err := svc.Query(ctx, tt.teacherID)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(courses) != tt.want {
				t.Errorf("Query() returned %d courses, want %d", len(courses), tt.want)
			}
		})
	}
}

func TestService_Enroll(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	crs := createCourse(t, svc, "Cálculo I", "teacher-1")

	link, err := svc.GenerateEnrollLink(ctx, crs.ID, 24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateEnrollLink() error = %v", err)
	}
	if link.Token == "" {
		t.Fatal("GenerateEnrollLink() returned an empty token")
	}
	if !link.ExpiresAt.After(time.Now()) {
		t.Errorf("ExpiresAt = %v, want in the future", link.ExpiresAt)
	}

	enrolled, err := svc.Enroll(ctx, link.Token, "student-1")
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if enrolled.ID != crs.ID {
		t.Errorf("Enroll() course = %v, want %v", enrolled.ID, crs.ID)
	}

	// enrolling twice is a no-op
	if _, err := svc.Enroll(ctx, link.Token, "student-1"); err != nil {
		t.Fatalf("Enroll() twice error = %v", err)
	}

	courses, err := svc.QueryByStudent(ctx, "student-1")
	if err != nil {
		t.Fatalf("QueryByStudent() error = %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("QueryByStudent() returned %d courses, want 1", len(courses))
	}
	if courses[0].StudentCount != 1 {
		t.Errorf("StudentCount = %d, want 1", courses[0].StudentCount)
	}

	if _, err := svc.Enroll(ctx, "unknown-token", "student-1"); err != course.ErrNotFound {
		t.Errorf("Enroll() error = %v, want %v", err, course.ErrNotFound)
	}

	// a regenerated link invalidates the previous one
	fresh, err := svc.GenerateEnrollLink(ctx, crs.ID, 24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateEnrollLink() error = %v", err)
	}
	if fresh.Token == link.Token {
		t.Error("regenerated link should carry a new token")
	}
	if _, err := svc.Enroll(ctx, link.Token, "student-2"); err != course.ErrNotFound {
		t.Errorf("Enroll() with replaced token error = %v, want %v", err, course.ErrNotFound)
	}
}

func TestService_EnrollExpiredLink(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	crs := createCourse(t, svc, "Cálculo I", "teacher-1")

	link, err := svc.GenerateEnrollLink(ctx, crs.ID, -time.Hour)
	if err != nil {
		t.Fatalf("GenerateEnrollLink() error = %v", err)
	}
	if _, err := svc.Enroll(ctx, link.Token, "student-1"); err != course.ErrLinkExpired {
		t.Errorf("Enroll() error = %v, want %v", err, course.ErrLinkExpired)
	}
}

func TestService_Update(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	crs := createCourse(t, svc, "Cálculo I", "teacher-1")

	inactive := false
	updated, err := svc.Update(ctx, crs.ID, course.UpdateCourse{Name: "Cálculo II", Active: &inactive})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Cálculo II" {
		t.Errorf("Name = %q, want %q", updated.Name, "Cálculo II")
	}
	if updated.Active {
		t.Error("course should be inactive")
	}

	if _, err := svc.Update(ctx, "nope", course.UpdateCourse{Name: "X"}); err != course.ErrNotFound {
		t.Errorf("Update() error = %v, want %v", err, course.ErrNotFound)
	}
}
