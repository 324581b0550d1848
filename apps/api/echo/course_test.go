package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	dummydb "github.com/aulatech/aula/storage/database/dummy"

	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/user"
)

func setupCourseSvc(t *testing.T) (course.Service, user.Service, user.Repository) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrSvc, usrRepo := setupUserSvc(t)
	crsSvc := course.NewService(dummydb.NewCourseRepository(db))
	return crsSvc, usrSvc, usrRepo
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
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func TestCourseAPI_create(t *testing.T) {
	crsSvc, usrSvc, usrRepo := setupCourseSvc(t)
	app, v1, jwt := initApp()
	registerCourseAPI(v1, jwt, crsSvc, usrSvc)

	teacher := createUser(t, usrRepo, "Teacher", "theteacher", "teacher@test.ed", "", []string{user.RoleTeacher}, true)
	student := createUser(t, usrRepo, "Student", "thestudent", "student@test.ed", "", []string{user.RoleStudent}, true)

	body := marchallObj(t, course.NewCourse{Name: "Cálculo I", Program: "Ingeniería", Shift: "Diurna"})

	t.Run("teacher creates own course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, teacher), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var crs course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &crs); err != nil {
			t.Fatalf("unmarshalling Course: %v", err)
		}
		if crs.TeacherID != teacher.ID {
			t.Errorf("TeacherID = %q; want %q", crs.TeacherID, teacher.ID)
		}
		if !crs.Active {
			t.Error("new course should be active")
		}
	})

	t.Run("student cannot create", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, student), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("missing fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, teacher), marchallObj(t, course.NewCourse{}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestCourseAPI_query(t *testing.T) {
	crsSvc, usrSvc, usrRepo := setupCourseSvc(t)
	app, v1, jwt := initApp()
	registerCourseAPI(v1, jwt, crsSvc, usrSvc)

	admin := createUser(t, usrRepo, "Admin", "theadmin", "admin@test.ed", "", []string{user.RoleAdmin}, true)
	t1 := createUser(t, usrRepo, "Teacher One", "teacherone", "t1@test.ed", "", []string{user.RoleTeacher}, true)
	t2 := createUser(t, usrRepo, "Teacher Two", "teachertwo", "t2@test.ed", "", []string{user.RoleTeacher}, true)
	student := createUser(t, usrRepo, "Student", "thestudent", "student@test.ed", "", []string{user.RoleStudent}, true)

	calc := createCourse(t, crsSvc, "Cálculo I", t1.ID)
	physics := createCourse(t, crsSvc, "Física I", t2.ID)

	link, err := crsSvc.GenerateEnrollLink(context.Background(), calc.ID, defaultEnrollLinkTTL)
	if err != nil {
		t.Fatalf("generating link failed: %v", err)
	}
	if _, err := crsSvc.Enroll(context.Background(), link.Token, student.ID); err != nil {
		t.Fatalf("enrolling failed: %v", err)
	}

	count := func(token string) []course.Course {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var courses []course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &courses); err != nil {
			t.Fatalf("unmarshalling courses: %v", err)
		}
		return courses
	}

	if got := count(getToken(t, admin)); len(got) != 2 {
		t.Errorf("admin: got %d courses; want 2", len(got))
	}
	if got := count(getToken(t, t1)); len(got) != 1 || got[0].ID != calc.ID {
		t.Errorf("teacher: got %+v; want only %q", got, calc.ID)
	}
	if got := count(getToken(t, t2)); len(got) != 1 || got[0].ID != physics.ID {
		t.Errorf("teacher: got %+v; want only %q", got, physics.ID)
	}
	if got := count(getToken(t, student)); len(got) != 1 || got[0].ID != calc.ID {
		t.Errorf("student: got %+v; want only enrolled %q", got, calc.ID)
	}
}

func TestCourseAPI_enroll(t *testing.T) {
	crsSvc, usrSvc, usrRepo := setupCourseSvc(t)
	app, v1, jwt := initApp()
	registerCourseAPI(v1, jwt, crsSvc, usrSvc)

	teacher := createUser(t, usrRepo, "Teacher", "theteacher", "teacher@test.ed", "", []string{user.RoleTeacher}, true)
	student := createUser(t, usrRepo, "Student", "thestudent", "student@test.ed", "", []string{user.RoleStudent}, true)
	crs := createCourse(t, crsSvc, "Cálculo I", teacher.ID)

	link, err := crsSvc.GenerateEnrollLink(context.Background(), crs.ID, defaultEnrollLinkTTL)
	if err != nil {
		t.Fatalf("generating link failed: %v", err)
	}

	studentToken := getToken(t, student)

	t.Run("valid link", func(t *testing.T) {
		body := marchallObj(t, EnrollRequest{Token: link.Token})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/enroll", studentToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var got course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling Course: %v", err)
		}
		if got.ID != crs.ID {
			t.Errorf("ID = %q; want %q", got.ID, crs.ID)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()})}
		body := marchallObj(t, EnrollRequest{Token: "00000000-0000-0000-0000-000000000000"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/enroll", studentToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("expired link", func(t *testing.T) {
		expired, err := crsSvc.GenerateEnrollLink(context.Background(), crs.ID, -time.Hour)
		if err != nil {
			t.Fatalf("generating link failed: %v", err)
		}
		tt := httpTest{wantCode: http.StatusGone, wantData: marchallObj(t, httpErr{Error: course.ErrLinkExpired.Error()})}
		body := marchallObj(t, EnrollRequest{Token: expired.Token})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/enroll", studentToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func TestCourseAPI_updateOwnership(t *testing.T) {
	crsSvc, usrSvc, usrRepo := setupCourseSvc(t)
	app, v1, jwt := initApp()
	registerCourseAPI(v1, jwt, crsSvc, usrSvc)

	owner := createUser(t, usrRepo, "Owner", "theowner", "owner@test.ed", "", []string{user.RoleTeacher}, true)
	intruder := createUser(t, usrRepo, "Intruder", "intruder", "intruder@test.ed", "", []string{user.RoleTeacher}, true)
	crs := createCourse(t, crsSvc, "Cálculo I", owner.ID)

	body := marchallObj(t, course.UpdateCourse{Name: "Cálculo II"})

	t.Run("owner updates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+crs.ID, getToken(t, owner), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var got course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling Course: %v", err)
		}
		if got.Name != "Cálculo II" {
			t.Errorf("Name = %q; want %q", got.Name, "Cálculo II")
		}
	})

	t.Run("other teacher forbidden", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+crs.ID, getToken(t, intruder), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
