package websocket

import (
	"context"

	"github.com/tech-arch1tect/berth-archiver/config"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewHub),
	fx.Provide(func(hub *Hub, cfg *config.Config) *Handler {
		return NewHandler(hub, cfg.AccessToken)
	}),
	fx.Invoke(StartHub),
)

func StartHub(lc fx.Lifecycle, hub *Hub) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go hub.Run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Stop()
			return nil
		},
	})
}
