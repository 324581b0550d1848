package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	dummydb "github.com/aulatech/aula/storage/database/dummy"

	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/material"
	"github.com/aulatech/aula/core/user"
	storagesvc "github.com/aulatech/aula/services/storage"
)

func setupMaterialSvc(t *testing.T) (material.Service, course.Service, user.Service, user.Repository) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrSvc, usrRepo := setupUserSvc(t)
	crsSvc := course.NewService(dummydb.NewCourseRepository(db))
	matSvc := material.NewService(dummydb.NewMaterialRepository(db), storagesvc.NewMemoryStore())
	return matSvc, crsSvc, usrSvc, usrRepo
}

func newUploadRequest(t *testing.T, path, token, filename string, content []byte, fields map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("writing form field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func TestMaterialAPI_uploadAndList(t *testing.T) {
	matSvc, crsSvc, usrSvc, usrRepo := setupMaterialSvc(t)
	app, v1, jwt := initApp()
	registerCourseAPI(v1, jwt, crsSvc, usrSvc)
	registerMaterialAPI(v1, jwt, matSvc, crsSvc, usrSvc)

	teacher := createUser(t, usrRepo, "Teacher", "theteacher", "teacher@test.ed", "", []string{user.RoleTeacher}, true)
	intruder := createUser(t, usrRepo, "Intruder", "intruder", "intruder@test.ed", "", []string{user.RoleTeacher}, true)
	student := createUser(t, usrRepo, "Student", "thestudent", "student@test.ed", "", []string{user.RoleStudent}, true)
	crs := createCourse(t, crsSvc, "Cálculo I", teacher.ID)

	link, err := crsSvc.GenerateEnrollLink(context.Background(), crs.ID, defaultEnrollLinkTTL)
	if err != nil {
		t.Fatalf("generating link failed: %v", err)
	}
	if _, err := crsSvc.Enroll(context.Background(), link.Token, student.ID); err != nil {
		t.Fatalf("enrolling failed: %v", err)
	}

	uploadPath := "/v1/courses/" + crs.ID + "/materials"
	fields := map[string]string{"nombre": "Guía de derivadas", "tipo": "application/pdf", "topics": "Derivadas, Límites"}

	t.Run("owner uploads", func(t *testing.T) {
		req, rec := newUploadRequest(t, uploadPath, getToken(t, teacher), "guia.pdf", []byte("%PDF-1.4 contenido"), fields)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var mat material.Material
		if err := json.Unmarshal(rec.Body.Bytes(), &mat); err != nil {
			t.Fatalf("unmarshalling Material: %v", err)
		}
		if mat.Name != "Guía de derivadas" || mat.CourseID != crs.ID {
			t.Errorf("got %+v", mat)
		}
		if len(mat.Topics) != 2 {
			t.Errorf("Topics = %v; want 2 entries", mat.Topics)
		}
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		req, rec := newUploadRequest(t, uploadPath, getToken(t, intruder), "guia.pdf", []byte("x"), fields)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("oversized file", func(t *testing.T) {
		big := bytes.Repeat([]byte("a"), material.MaxUploadSize+1)
		req, rec := newUploadRequest(t, uploadPath, getToken(t, teacher), "big.bin", big, fields)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("course listing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, uploadPath, getToken(t, teacher))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var mats []material.Material
		if err := json.Unmarshal(rec.Body.Bytes(), &mats); err != nil {
			t.Fatalf("unmarshalling materials: %v", err)
		}
		if len(mats) != 1 {
			t.Errorf("got %d materials; want 1", len(mats))
		}
	})

	t.Run("student materials", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/materials", getToken(t, student))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var mats []material.Material
		if err := json.Unmarshal(rec.Body.Bytes(), &mats); err != nil {
			t.Fatalf("unmarshalling materials: %v", err)
		}
		if len(mats) != 1 {
			t.Errorf("got %d materials; want 1", len(mats))
		}
	})

	t.Run("recent activity", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/materials/recent-activities", getToken(t, student))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var acts []material.Activity
		if err := json.Unmarshal(rec.Body.Bytes(), &acts); err != nil {
			t.Fatalf("unmarshalling activities: %v", err)
		}
		if len(acts) != 1 || acts[0].Title != "Guía de derivadas" {
			t.Errorf("got %+v", acts)
		}
	})
}
