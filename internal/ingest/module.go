package ingest

import (
	"context"

	"settler/internal/modules/config"
	"settler/internal/store"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("ingest",
		fx.Invoke(func(
			lc fx.Lifecycle,
			ctx context.Context,
			cfg *config.Config,
			ticks *store.Ticks,
		) {
			if cfg.Feed.URL == "" {
				return
			}
			g := New(cfg.Feed.URL, cfg.Feed.Instruments, ticks, cfg.IngestFlushSize, cfg.IngestFlushInterval)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go g.Run(ctx)
					return nil
				},
			})
		}),
	)
}
