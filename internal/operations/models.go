package operations

import (
	"time"

	"github.com/tech-arch1tect/berth-archiver/internal/archive"
)

type Status string

const (
	StatusRunning       Status = "running"
	StatusSucceeded     Status = "succeeded"
	StatusCleanupFailed Status = "cleanup_failed"
	StatusFailed        Status = "failed"
)

type Origin string

const (
	OriginHTTP  Origin = "http"
	OriginSpool Origin = "spool"
)

type Operation struct {
	ID        string                 `json:"id"`
	Origin    Origin                 `json:"origin"`
	ClientIP  string                 `json:"client_ip,omitempty"`
	Params    archive.Params         `json:"params"`
	StartTime time.Time              `json:"start_time"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Status    Status                 `json:"status"`
	Result    *archive.Result        `json:"result,omitempty"`
	Failure   *archive.FailureResult `json:"failure,omitempty"`
}

func (o *Operation) snapshot() *Operation {
	clone := *o
	if o.EndTime != nil {
		end := *o.EndTime
		clone.EndTime = &end
	}
	return &clone
}

type OperationResponse struct {
	OperationID string `json:"operation_id"`
	*archive.Result
}

type FailureResponse struct {
	OperationID string `json:"operation_id,omitempty"`
	archive.FailureResult
}

type ListResponse struct {
	Operations []*Operation `json:"operations"`
}
