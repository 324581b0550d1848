package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulatech/aula/core"
	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/user"
)

var errCrsNotFoundInCtx = errors.New("course object not found in echo.Context")

// defaultEnrollLinkTTL applies when a link request does not set expiry_hours.
const defaultEnrollLinkTTL = 7 * 24 * time.Hour

type courseApi struct {
	svc    course.Service
	usrSvc user.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.Service, usrSvc user.Service) {
	api := courseApi{svc: svc, usrSvc: usrSvc}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create, teacherMiddleware())
	cg.GET("", api.query)
	cg.POST("/enroll", api.enroll, studentMiddleware())

	// detail endpoints
	dg := cg.Group("/:id", ctxCourseMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, teacherMiddleware())
	dg.DELETE("", api.destroy, teacherMiddleware())
	dg.POST("/enroll-link", api.generateEnrollLink, teacherMiddleware())
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if data.TeacherID == "" {
		data.TeacherID = claims.Subject
	}
	// teachers can only create their own courses
	if !claims.IsAdmin && data.TeacherID != claims.Subject {
		return errHttpForbidden
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var courses []course.Course
	switch {
	case claims.IsAdmin:
		courses, err = api.svc.Query(ctx.Request().Context(), "")
	case claims.IsTeacher:
		courses, err = api.svc.Query(ctx.Request().Context(), claims.Subject)
	default:
		courses, err = api.svc.QueryByStudent(ctx.Request().Context(), claims.Subject)
	}
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}
	if err := courseOwnerOrAdmin(ctx, crs); err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(crs); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}
	if err := courseOwnerOrAdmin(ctx, crs); err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) generateEnrollLink(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}
	if err := courseOwnerOrAdmin(ctx, crs); err != nil {
		return err
	}

	var data EnrollLinkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollLinkRequest")
	}
	ttl := defaultEnrollLinkTTL
	if data.ExpiryHours > 0 {
		ttl = time.Duration(data.ExpiryHours) * time.Hour
	}

	link, err := api.svc.GenerateEnrollLink(ctx.Request().Context(), crs.ID, ttl)
	if err != nil {
		return errors.Wrap(err, "generating enrollment link")
	}
	return ctx.JSON(http.StatusCreated, link)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Enroll(ctx.Request().Context(), data.Token, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusOK, crs)
}

// ctxCourseMiddleware resolves the `:id` course and stashes it in the context.
func ctxCourseMiddleware(svc course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			crs, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == course.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding course by ID")
			}
			ctx.Set("object", crs)
			return next(ctx)
		}
	}
}

// courseOwnerOrAdmin rejects teachers acting on courses they do not own.
func courseOwnerOrAdmin(ctx echo.Context, crs course.Course) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin || crs.TeacherID == claims.Subject {
		return nil
	}
	return errHttpForbidden
}

type (
	EnrollLinkRequest struct {
		ExpiryHours int `json:"expiry_hours"`
	}

	EnrollRequest struct {
		Token string `json:"enlace_registro" validate:"required"`
	}
)

func (er *EnrollRequest) Validate() error {
	er.Token = core.CleanString(er.Token)
	return core.Validate.Struct(er)
}
