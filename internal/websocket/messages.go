package websocket

import "time"

type MessageType string

const (
	MessageTypeOperationStarted   MessageType = "operation_started"
	MessageTypeOperationCompleted MessageType = "operation_completed"
	MessageTypeOperationFailed    MessageType = "operation_failed"
)

type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

type OperationEvent struct {
	BaseMessage
	OperationID    string `json:"operation_id"`
	State          string `json:"state"`
	Source         string `json:"source"`
	Dest           string `json:"dest"`
	Message        string `json:"msg,omitempty"`
	ErrorKind      string `json:"error_kind,omitempty"`
	FormatDetected string `json:"format_detected,omitempty"`
	CleanupFailed  bool   `json:"cleanup_failed,omitempty"`
}
