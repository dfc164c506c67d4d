package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tech-arch1tect/berth-archiver/config"
	"github.com/tech-arch1tect/berth-archiver/internal/archive"
	"github.com/tech-arch1tect/berth-archiver/internal/audit"
	"github.com/tech-arch1tect/berth-archiver/internal/auth"
	"github.com/tech-arch1tect/berth-archiver/internal/health"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"
	"github.com/tech-arch1tect/berth-archiver/internal/operations"
	"github.com/tech-arch1tect/berth-archiver/internal/spool"
	"github.com/tech-arch1tect/berth-archiver/internal/ssl"
	"github.com/tech-arch1tect/berth-archiver/internal/websocket"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		logging.Module,
		audit.Module,
		archive.Module,
		operations.Module,
		fx.WithLogger(func(logger *logging.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetZap()}
		}),
	)
}

func runAgent() {
	fx.New(
		coreModules(),
		websocket.Module,
		fx.Provide(health.NewHandler),
		fx.Provide(NewEcho),
		fx.Provide(NewCertificateManager),
		fx.Invoke(RegisterRoutes),
		fx.Invoke(StartServer),
	).Run()
}

func runWatcher() {
	fx.New(
		coreModules(),
		spool.Module,
	).Run()
}

func NewEcho(requestLogService *logging.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.Use(logging.RequestLoggingMiddleware(requestLogService))
	return e
}

func RegisterRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *logging.Logger,
	auditService *audit.Service,
	healthHandler *health.Handler,
	operationsHandler *operations.Handler,
	wsHandler *websocket.Handler,
) {
	api := e.Group("/api")
	api.Use(auth.TokenMiddleware(cfg.AccessToken, logger, auditService))

	api.GET("/health", healthHandler.Health)

	api.POST("/archives", operationsHandler.CreateOperation)
	api.GET("/operations", operationsHandler.ListOperations)
	api.GET("/operations/:operationId", operationsHandler.GetOperation)

	e.GET("/ws/operations", wsHandler.HandleOperationEvents)
}

func NewCertificateManager(cfg *config.Config, logger *logging.Logger) *ssl.CertificateManager {
	return ssl.NewCertificateManager(cfg.TLSCertDir, logger)
}

func StartServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, e *echo.Echo, cfg *config.Config, certManager *ssl.CertificateManager, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			address := ":" + cfg.Port

			var certPath, keyPath string
			if cfg.TLSEnabled {
				var err error
				certPath, keyPath, err = certManager.EnsureCertificates()
				if err != nil {
					return err
				}
			}

			go func() {
				logger.Info("starting archive agent",
					zap.String("address", address),
					zap.Bool("tls", cfg.TLSEnabled),
				)

				var err error
				if cfg.TLSEnabled {
					err = e.StartTLS(address, certPath, keyPath)
				} else {
					err = e.Start(address)
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
