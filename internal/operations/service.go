package operations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tech-arch1tect/berth-archiver/internal/archive"
	"github.com/tech-arch1tect/berth-archiver/internal/audit"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"
	"github.com/tech-arch1tect/berth-archiver/internal/validation"
	"github.com/tech-arch1tect/berth-archiver/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ArchiveRunner interface {
	Run(ctx context.Context, req archive.Request) (*archive.Result, error)
}

type EventPublisher interface {
	BroadcastOperationEvent(event websocket.OperationEvent)
}

type Service struct {
	archiveRoot  string
	historyLimit int
	runner       ArchiveRunner
	publisher    EventPublisher
	auditService *audit.Service
	logger       *logging.Logger

	mutex      sync.RWMutex
	operations map[string]*Operation
	order      []string
}

func NewService(archiveRoot string, historyLimit int, runner ArchiveRunner, publisher EventPublisher, auditService *audit.Service, logger *logging.Logger) *Service {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	logger.Debug("operations service initialized",
		zap.String("archive_root", archiveRoot),
		zap.Int("history_limit", historyLimit),
	)
	return &Service{
		archiveRoot:  archiveRoot,
		historyLimit: historyLimit,
		runner:       runner,
		publisher:    publisher,
		auditService: auditService,
		logger:       logger.With(zap.String("service", "operations")),
		operations:   make(map[string]*Operation),
	}
}

// Execute records and runs one archive operation. The returned operation is a
// snapshot; err is whatever the archive run returned.
func (s *Service) Execute(ctx context.Context, params archive.Params, origin Origin, clientIP string) (*Operation, error) {
	operation := &Operation{
		ID:        uuid.New().String(),
		Origin:    origin,
		ClientIP:  clientIP,
		Params:    params,
		StartTime: time.Now(),
		Status:    StatusRunning,
	}
	s.store(operation)

	s.logger.Info("operation started",
		zap.String("operation_id", operation.ID),
		zap.String("origin", string(origin)),
		zap.String("state", params.State),
		zap.String("source", params.Source),
		zap.String("dest", params.Dest),
	)
	s.auditService.LogArchiveEvent(audit.EventArchiveStarted, clientIP, operation.ID, params.State, params.Source, params.Dest, nil, true, "", 0, map[string]any{
		"origin": string(origin),
	})
	s.publish(operation, websocket.MessageTypeOperationStarted)

	result, err := s.run(ctx, params)
	s.finish(operation, result, err)

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return operation.snapshot(), err
}

func (s *Service) run(ctx context.Context, params archive.Params) (*archive.Result, error) {
	if err := validation.ValidateParamsPaths(s.archiveRoot, params.Source, params.Dest, params.Include); err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrInvalidParams, err)
	}

	req, err := params.Request()
	if err != nil {
		return nil, err
	}

	return s.runner.Run(ctx, req)
}

func (s *Service) finish(operation *Operation, result *archive.Result, err error) {
	end := time.Now()
	duration := end.Sub(operation.StartTime)

	s.mutex.Lock()
	operation.EndTime = &end
	operation.Result = result
	switch {
	case err == nil:
		operation.Status = StatusSucceeded
	case errors.Is(err, archive.ErrSourceCleanup) && result != nil:
		operation.Status = StatusCleanupFailed
	default:
		operation.Status = StatusFailed
		failure := archive.NewFailureResult(err)
		operation.Failure = &failure
	}
	status := operation.Status
	s.mutex.Unlock()

	params := operation.Params
	var command []string
	if result != nil {
		command = result.Command
	}

	switch status {
	case StatusSucceeded:
		s.logger.Info("operation completed",
			zap.String("operation_id", operation.ID),
			zap.Duration("duration", duration),
		)
		eventType := audit.EventArchiveCompleted
		if params.CheckMode {
			eventType = audit.EventArchiveCheckCompleted
		}
		s.auditService.LogArchiveEvent(eventType, operation.ClientIP, operation.ID, params.State, params.Source, params.Dest, command, true, "", duration.Milliseconds(), nil)
		if result.SourceDeleted {
			s.auditService.LogArchiveEvent(audit.EventArchiveSourceDeleted, operation.ClientIP, operation.ID, params.State, params.Source, params.Dest, nil, true, "", 0, nil)
		}
		s.publish(operation, websocket.MessageTypeOperationCompleted)

	case StatusCleanupFailed:
		s.logger.Warn("operation completed, source cleanup failed",
			zap.String("operation_id", operation.ID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		s.auditService.LogArchiveEvent(audit.EventArchiveCompleted, operation.ClientIP, operation.ID, params.State, params.Source, params.Dest, command, true, "", duration.Milliseconds(), nil)
		s.auditService.LogArchiveEvent(audit.EventArchiveCleanupFailed, operation.ClientIP, operation.ID, params.State, params.Source, params.Dest, nil, false, err.Error(), 0, nil)
		s.publish(operation, websocket.MessageTypeOperationCompleted)

	default:
		kind := archive.ErrorKind(err)
		s.logger.Error("operation failed",
			zap.String("operation_id", operation.ID),
			zap.String("error_kind", kind),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		eventType := audit.EventArchiveFailed
		if archive.IsCallerError(err) {
			eventType = audit.EventArchiveRejected
		}
		s.auditService.LogArchiveEvent(eventType, operation.ClientIP, operation.ID, params.State, params.Source, params.Dest, command, false, err.Error(), duration.Milliseconds(), map[string]any{
			"error_kind": kind,
		})
		s.publish(operation, websocket.MessageTypeOperationFailed)
	}
}

func (s *Service) publish(operation *Operation, messageType websocket.MessageType) {
	if s.publisher == nil {
		return
	}

	s.mutex.RLock()
	event := websocket.OperationEvent{
		BaseMessage: websocket.BaseMessage{Type: messageType, Timestamp: time.Now()},
		OperationID: operation.ID,
		State:       operation.Params.State,
		Source:      operation.Params.Source,
		Dest:        operation.Params.Dest,
	}
	if operation.Result != nil {
		event.Message = operation.Result.Message
		event.FormatDetected = operation.Result.FormatDetected
		event.CleanupFailed = operation.Result.CleanupError != ""
	}
	if operation.Failure != nil {
		event.Message = operation.Failure.Message
		event.ErrorKind = operation.Failure.ErrorKind
	}
	s.mutex.RUnlock()

	s.publisher.BroadcastOperationEvent(event)
}

func (s *Service) store(operation *Operation) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.operations[operation.ID] = operation
	s.order = append(s.order, operation.ID)

	for len(s.order) > s.historyLimit {
		evicted := s.order[0]
		s.order = s.order[1:]
		delete(s.operations, evicted)
	}
}

func (s *Service) snapshot(operationID string) *Operation {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	operation, exists := s.operations[operationID]
	if !exists {
		return nil
	}
	return operation.snapshot()
}

func (s *Service) GetOperation(operationID string) (*Operation, bool) {
	operation := s.snapshot(operationID)
	return operation, operation != nil
}

// ListOperations returns the retained history, newest first.
func (s *Service) ListOperations() []*Operation {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	operations := make([]*Operation, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		operations = append(operations, s.operations[s.order[i]].snapshot())
	}
	return operations
}
