package material_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aulatech/aula/core"
	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/material"
	storagesvc "github.com/aulatech/aula/services/storage"
	dummydb "github.com/aulatech/aula/storage/database/dummy"
)

func setupService(t *testing.T) (material.Service, *dummydb.DB) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() error = %v", err)
	}
	svc := material.NewService(dummydb.NewMaterialRepository(db), storagesvc.NewMemoryStore())
	return svc, db
}

func upload(t *testing.T, svc material.Service, courseID, name, content string) material.Material {
	t.Helper()
	mat, err := svc.Upload(context.Background(), material.NewMaterial{
		CourseID:  courseID,
		Name:      name,
		MediaType: "application/pdf",
		Topics:    []string{"derivadas", "límites"},
	}, strings.NewReader(content))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	return mat
}

func TestService_Upload(t *testing.T) {
	svc, _ := setupService(t)

	mat := upload(t, svc, "course-1", "Guía de derivadas", "contenido")
	if mat.ID == "" {
		t.Error("Upload() did not assign an ID")
	}
	if mat.Size != int64(len("contenido")) {
		t.Errorf("Size = %d, want %d", mat.Size, len("contenido"))
	}
	if mat.URL == "" {
		t.Error("Upload() did not set a URL")
	}
	if len(mat.Topics) != 2 {
		t.Errorf("Topics = %v, want 2 entries", mat.Topics)
	}
}

func TestService_UploadTooLarge(t *testing.T) {
	svc, _ := setupService(t)

	oversized := bytes.NewReader(bytes.Repeat([]byte("a"), material.MaxUploadSize+1))
	_, err := svc.Upload(context.Background(), material.NewMaterial{
		CourseID:  "course-1",
		Name:      "Demasiado grande",
		MediaType: "application/pdf",
	}, oversized)
	if _, ok := err.(*core.ValidationError); !ok {
		t.Fatalf("Upload() error = %v, want *core.ValidationError", err)
	}
}

func TestService_Open(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	mat := upload(t, svc, "course-1", "Guía de derivadas", "contenido")

	got, rc, err := svc.Open(ctx, mat.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	if got.ID != mat.ID {
		t.Errorf("Open() material = %v, want %v", got.ID, mat.ID)
	}
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading object: %v", err)
	}
	if string(content) != "contenido" {
		t.Errorf("content = %q, want %q", content, "contenido")
	}

	if _, _, err := svc.Open(ctx, "nope"); err != material.ErrNotFound {
		t.Errorf("Open() error = %v, want %v", err, material.ErrNotFound)
	}
}

func TestService_Delete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	mat := upload(t, svc, "course-1", "Guía de derivadas", "contenido")

	if err := svc.Delete(ctx, mat.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(ctx, mat.ID); err != material.ErrNotFound {
		t.Errorf("GetByID() error = %v, want %v", err, material.ErrNotFound)
	}

	// unknown ids are skipped
	if err := svc.Delete(ctx, "nope"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestService_RecentActivity(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	crsRepo := dummydb.NewCourseRepository(db)
	crs, err := crsRepo.CreateCourse(ctx, course.Course{
		Name:      "Cálculo I",
		Program:   "Ingeniería",
		Shift:     "Diurna",
		TeacherID: "teacher-1",
		Active:    true,
	})
	if err != nil {
		t.Fatalf("creating course: %v", err)
	}
	if err := crsRepo.EnrollStudent(ctx, crs.ID, "student-1"); err != nil {
		t.Fatalf("enrolling student: %v", err)
	}

	for i := 0; i < 7; i++ {
		upload(t, svc, crs.ID, fmt.Sprintf("Material %d", i), "contenido")
	}

	acts, err := svc.RecentActivity(ctx, "student-1")
	if err != nil {
		t.Fatalf("RecentActivity() error = %v", err)
	}
	if len(acts) != 5 {
		t.Fatalf("RecentActivity() returned %d entries, want 5", len(acts))
	}
	for _, act := range acts {
		if act.Type != "application/pdf" {
			t.Errorf("Type = %q, want %q", act.Type, "application/pdf")
		}
	}

	mats, err := svc.QueryByStudent(ctx, "student-1")
	if err != nil {
		t.Fatalf("QueryByStudent() error = %v", err)
	}
	if len(mats) != 7 {
		t.Errorf("QueryByStudent() returned %d materials, want 7", len(mats))
	}
}
