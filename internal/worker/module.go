package worker

import (
	"context"

	"settler/internal/marketdata"
	"settler/internal/modules/config"
	"settler/internal/modules/health/service"
	"settler/internal/notify"
	"settler/internal/processor"
	"settler/internal/simulator"
	"settler/internal/store"
	"settler/pkg/db"
	"settler/pkg/logger"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("worker",
		fx.Provide(
			func(tm *db.PgTxManager) *store.Orders { return store.NewOrders(tm) },
			func(tm *db.PgTxManager) *store.Ticks { return store.NewTicks(tm) },
			newTickSource,
			func(cfg *config.Config) simulator.SlippageSource {
				return simulator.NewUniformSlippage(cfg.MaxSlippage)
			},
			func(orders *store.Orders, ticks processor.TickSource, slip simulator.SlippageSource) *processor.Processor {
				return processor.New(orders, ticks, slip)
			},
		),
		fx.Invoke(run),
	)
}

// newTickSource picks the configured tick source: the market service over
// HTTP, or the local tick history table.
func newTickSource(cfg *config.Config, ticks *store.Ticks) processor.TickSource {
	if cfg.TickSource == "postgres" {
		return ticks
	}
	return marketdata.NewClient(cfg.Market.BaseURL)
}

func run(
	lc fx.Lifecycle,
	ctx context.Context,
	cfg *config.Config,
	orders *store.Orders,
	proc *processor.Processor,
	notifier notify.Notifier,
	state *service.State,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			wcfg := Config{
				BatchSize:    cfg.BatchSize,
				PollInterval: cfg.PollInterval,
			}
			for i := 0; i < cfg.WorkerCount; i++ {
				w := New(orders, orders, proc, notifier, state, wcfg)
				go w.Run(ctx)
			}
			state.SetReady(true)
			logger.Info("started %d settlement workers, batch=%d poll=%s",
				cfg.WorkerCount, wcfg.BatchSize, wcfg.PollInterval)
			return nil
		},
	})
}
