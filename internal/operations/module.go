package operations

import (
	"github.com/tech-arch1tect/berth-archiver/config"
	"github.com/tech-arch1tect/berth-archiver/internal/archive"
	"github.com/tech-arch1tect/berth-archiver/internal/audit"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"
	"github.com/tech-arch1tect/berth-archiver/internal/websocket"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewServiceWithConfig),
	fx.Provide(NewHandler),
)

type ServiceParams struct {
	fx.In

	Config       *config.Config
	Archive      *archive.Service
	AuditService *audit.Service
	Logger       *logging.Logger
	Hub          *websocket.Hub `optional:"true"`
}

// The hub is only present when the HTTP agent is running; spool mode has no
// event listeners.
func NewServiceWithConfig(p ServiceParams) *Service {
	var publisher EventPublisher
	if p.Hub != nil {
		publisher = p.Hub
	}
	return NewService(p.Config.ArchiveRoot, p.Config.OperationHistoryLimit, p.Archive, publisher, p.AuditService, p.Logger)
}
