package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulatech/aula/core/course"
	"github.com/aulatech/aula/core/event"
	"github.com/aulatech/aula/core/user"
)

type eventApi struct {
	svc    event.Service
	crsSvc course.Service
	usrSvc user.Service
}

func registerEventAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc event.Service,
	crsSvc course.Service,
	usrSvc user.Service,
) {
	api := eventApi{svc: svc, crsSvc: crsSvc, usrSvc: usrSvc}

	eg := g.Group("/events", jwt)
	eg.POST("", api.create, teacherMiddleware())
	eg.GET("", api.queryTeacher, teacherMiddleware())
	eg.GET("/calendar", api.calendar, studentMiddleware())
	eg.DELETE("/:id", api.destroy, teacherMiddleware())

	// course-scoped endpoints
	cg := g.Group("/courses/:id/events", jwt, ctxCourseMiddleware(crsSvc))
	cg.GET("", api.queryCourse)
}

// Handlers

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.crsSvc.GetByID(ctx.Request().Context(), data.CourseID)
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	if err := courseOwnerOrAdmin(ctx, crs); err != nil {
		return err
	}

	evt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *eventApi) queryTeacher(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	events, err := api.svc.QueryByTeacher(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying teacher events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) queryCourse(ctx echo.Context) error {
	crs, ok := ctx.Get("object").(course.Course)
	if !ok {
		return errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
	}

	events, err := api.svc.QueryByCourse(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying course events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) calendar(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cal, err := api.svc.StudentCalendar(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "assembling student calendar")
	}
	return ctx.JSON(http.StatusOK, cal)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	evt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding event by ID")
	}

	crs, err := api.crsSvc.GetByID(ctx.Request().Context(), evt.CourseID)
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	if err := courseOwnerOrAdmin(ctx, crs); err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), evt.ID); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
