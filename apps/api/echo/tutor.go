package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aulatech/aula/core/tutor"
	"github.com/aulatech/aula/core/user"
)

type tutorApi struct {
	svc    *tutor.Service
	usrSvc user.Service
}

func registerTutorAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *tutor.Service, usrSvc user.Service) {
	api := tutorApi{svc: svc, usrSvc: usrSvc}

	tg := g.Group("/tutor", jwt)
	tg.POST("/chat", api.chat, studentMiddleware())
}

// chat relays one message to the tutoring orchestrator. The orchestrator
// never fails; its Reply carries the HTTP status to use.
func (api *tutorApi) chat(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}

	reply := api.svc.Chat(ctx.Request().Context(), claims.Subject, data.Message)
	code := reply.Status
	if code == 0 {
		code = http.StatusOK
	}
	return ctx.JSON(code, reply)
}

type ChatRequest struct {
	Message string `json:"message"`
}
