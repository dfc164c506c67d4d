package websocket

import (
	"crypto/subtle"

	"github.com/tech-arch1tect/berth-archiver/internal/common"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	hub         *Hub
	accessToken string
}

func NewHandler(hub *Hub, accessToken string) *Handler {
	return &Handler{
		hub:         hub,
		accessToken: accessToken,
	}
}

func (h *Handler) HandleOperationEvents(c echo.Context) error {
	token := logging.ExtractBearerToken(c.Request().Header.Get("Authorization"))
	if token == "" {
		logging.SetAuthFailure(c, "Bearer token required")
		return common.SendUnauthorized(c, "Bearer token required")
	}

	if h.accessToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.accessToken)) != 1 {
		logging.SetAuthFailure(c, "Invalid token")
		return common.SendUnauthorized(c, "Invalid token")
	}

	logging.SetAuthSuccess(c, token)
	return h.hub.ServeWebSocket(c)
}
