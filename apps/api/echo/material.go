package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulatech/aula/core"
	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/material"
	"github.com/aulatech/aula/core/user"
)

type materialApi struct {
	svc    material.Service
	crsSvc course.Service
	usrSvc user.Service
}

func registerMaterialAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc material.Service,
	crsSvc course.Service,
	usrSvc user.Service,
) {
	api := materialApi{svc: svc, crsSvc: crsSvc, usrSvc: usrSvc}

	mg := g.Group("/materials", jwt)
	mg.GET("", api.queryStudent, studentMiddleware())
	mg.GET("/recent-activities", api.recentActivity, studentMiddleware())
	mg.GET("/:id/download", api.download)
	mg.DELETE("/:id", api.destroy, teacherMiddleware())

	// course-scoped endpoints
	cg := g.Group("/courses/:id/materials", jwt, ctxCourseMiddleware(crsSvc))
	cg.POST("", api.upload, teacherMiddleware())
	cg.GET("", api.queryCourse)
}

// Handlers

// upload receives a multipart form holding the file plus its metadata.
func (api *materialApi) upload(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}
	if err := courseOwnerOrAdmin(ctx, crs); err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "a file is required"})
	}
	if fh.Size > material.MaxUploadSize {
		return core.NewValidationError(
			material.ErrTooLarge, core.FieldError{Field: "file", Error: material.ErrTooLarge.Error()})
	}

	data := material.NewMaterial{
		CourseID:  crs.ID,
		Name:      ctx.FormValue("nombre"),
		MediaType: ctx.FormValue("tipo"),
		Topics:    splitTopics(ctx.FormValue("topics")),
	}
	if data.Name == "" {
		data.Name = fh.Filename
	}
	if data.MediaType == "" {
		data.MediaType = fh.Header.Get(echo.HeaderContentType)
	}
	if err := data.Validate(); err != nil {
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	mat, err := api.svc.Upload(ctx.Request().Context(), data, src)
	if err != nil {
		return errors.Wrap(err, "uploading material")
	}
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *materialApi) queryCourse(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}

	mats, err := api.svc.QueryByCourse(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying course materials")
	}
	if mats == nil {
		mats = []material.Material{}
	}
	return ctx.JSON(http.StatusOK, mats)
}

func (api *materialApi) queryStudent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mats, err := api.svc.QueryByStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying student materials")
	}
	if mats == nil {
		mats = []material.Material{}
	}
	return ctx.JSON(http.StatusOK, mats)
}

func (api *materialApi) recentActivity(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	acts, err := api.svc.RecentActivity(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying recent activity")
	}
	if acts == nil {
		acts = []material.Activity{}
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *materialApi) download(ctx echo.Context) error {
	mat, rc, err := api.svc.Open(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "opening material")
	}
	defer rc.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+mat.Name+`"`)
	return ctx.Stream(http.StatusOK, mat.MediaType, rc)
}

func (api *materialApi) destroy(ctx echo.Context) error {
	mat, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding material by ID")
	}

	crs, err := api.crsSvc.GetByID(ctx.Request().Context(), mat.CourseID)
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	if err := courseOwnerOrAdmin(ctx, crs); err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), mat.ID); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func splitTopics(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			topics = append(topics, p)
		}
	}
	return topics
}
