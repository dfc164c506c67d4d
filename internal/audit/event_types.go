package audit

const (
	EventArchiveStarted        = "archive.started"
	EventArchiveCompleted      = "archive.completed"
	EventArchiveFailed         = "archive.failed"
	EventArchiveCleanupFailed  = "archive.cleanup_failed"
	EventArchiveRejected       = "archive.rejected"
	EventArchiveSourceDeleted  = "archive.source_deleted"
	EventArchiveCheckCompleted = "archive.check_completed"
)

const (
	EventOperationListed    = "operation.listed"
	EventOperationRetrieved = "operation.retrieved"
)

const (
	EventAuthSuccess = "auth.success"
	EventAuthFailure = "auth.failure"
)

func GetEventCategory(eventType string) string {
	switch eventType {
	case EventArchiveStarted, EventArchiveCompleted, EventArchiveFailed,
		EventArchiveCleanupFailed, EventArchiveRejected, EventArchiveSourceDeleted,
		EventArchiveCheckCompleted:
		return "archive"

	case EventOperationListed, EventOperationRetrieved:
		return "operation"

	case EventAuthSuccess, EventAuthFailure:
		return "auth"

	default:
		return "unknown"
	}
}

func GetEventSeverity(eventType string) string {
	switch eventType {
	case EventArchiveSourceDeleted, EventArchiveCleanupFailed:
		return "critical"

	case EventArchiveStarted, EventArchiveCompleted, EventArchiveFailed, EventAuthFailure:
		return "high"

	case EventArchiveRejected, EventArchiveCheckCompleted:
		return "medium"

	case EventOperationListed, EventOperationRetrieved, EventAuthSuccess:
		return "low"

	default:
		return "medium"
	}
}
