package health

import (
	"net/http"
	"os/exec"

	"github.com/labstack/echo/v4"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Tools the archive commands may invoke. Without tar only zip archives can
// be handled, so a missing tar marks the agent degraded.
var archiveTools = []string{"tar", "zip", "unzip", "pigz"}

type Response struct {
	Status string          `json:"status"`
	Tools  map[string]bool `json:"tools"`
}

type Handler struct {
	lookPath func(file string) (string, error)
}

func NewHandler() *Handler {
	return &Handler{lookPath: exec.LookPath}
}

func NewHandlerWithLookPath(lookPath func(file string) (string, error)) *Handler {
	return &Handler{lookPath: lookPath}
}

func (h *Handler) Check() Response {
	tools := make(map[string]bool, len(archiveTools))
	for _, tool := range archiveTools {
		_, err := h.lookPath(tool)
		tools[tool] = err == nil
	}

	status := StatusHealthy
	if !tools["tar"] {
		status = StatusDegraded
	}
	return Response{Status: status, Tools: tools}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Check())
}
