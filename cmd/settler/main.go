package main

import (
	"context"
	"log"

	"settler/internal/ingest"
	"settler/internal/modules/config"
	"settler/internal/modules/health"
	"settler/internal/modules/postgres"
	"settler/internal/notify"
	"settler/internal/worker"
	"settler/pkg/logger"
	"settler/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	logger.SetServiceName("settler")
	tracing.SetServiceName("settler")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		health.Module(),
		notify.Module(),
		worker.Module(),
		ingest.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			if cfg.Jaeger.Host == "" {
				return
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Error("jaeger init failed, tracing disabled: %v", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
	)
	app.Run()
}
