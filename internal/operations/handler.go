package operations

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/tech-arch1tect/berth-archiver/internal/archive"
	"github.com/tech-arch1tect/berth-archiver/internal/audit"
	"github.com/tech-arch1tect/berth-archiver/internal/common"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"

	"github.com/labstack/echo/v4"
)

var operationIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

type Handler struct {
	service      *Service
	auditService *audit.Service
}

func NewHandler(service *Service, auditService *audit.Service) *Handler {
	return &Handler{
		service:      service,
		auditService: auditService,
	}
}

func (h *Handler) CreateOperation(c echo.Context) error {
	params, err := archive.DecodeParams(c.Request().Body)
	if err != nil {
		return common.SendFailure(c, http.StatusBadRequest, FailureResponse{
			FailureResult: archive.NewFailureResult(err),
		})
	}

	c.Set(logging.ArchiveStateContextKey, params.State)
	c.Set(logging.SourceContextKey, params.Source)
	c.Set(logging.DestContextKey, params.Dest)

	operation, err := h.service.Execute(c.Request().Context(), params, OriginHTTP, c.RealIP())
	c.Set(logging.OperationIDContextKey, operation.ID)

	if err != nil && !errors.Is(err, archive.ErrSourceCleanup) {
		return common.SendFailure(c, statusForError(err), FailureResponse{
			OperationID:   operation.ID,
			FailureResult: archive.NewFailureResult(err),
		})
	}

	return common.SendSuccess(c, OperationResponse{
		OperationID: operation.ID,
		Result:      operation.Result,
	})
}

func (h *Handler) GetOperation(c echo.Context) error {
	operationID := c.Param("operationId")
	if !operationIDRegex.MatchString(operationID) {
		return common.SendBadRequest(c, "Invalid operation ID format")
	}

	operation, exists := h.service.GetOperation(operationID)
	if !exists {
		return common.SendNotFound(c, "Operation not found")
	}

	h.auditService.LogOperationEvent(audit.EventOperationRetrieved, c.RealIP(), operationID)
	return common.SendSuccess(c, operation)
}

func (h *Handler) ListOperations(c echo.Context) error {
	h.auditService.LogOperationEvent(audit.EventOperationListed, c.RealIP(), "")
	return common.SendSuccess(c, ListResponse{Operations: h.service.ListOperations()})
}

func statusForError(err error) int {
	if archive.IsCallerError(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
