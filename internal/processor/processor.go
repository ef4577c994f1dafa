package processor

import (
	"context"
	"fmt"
	"time"

	"settler/internal/models"
	"settler/internal/simulator"
	"settler/pkg/logger"
)

// TickSource returns the ticks of (instrument, [start, end]) ascending by time.
type TickSource interface {
	Fetch(ctx context.Context, instrument string, start, end time.Time) ([]models.Tick, error)
}

// OrderStore is the slice of the order store the processor writes through.
type OrderStore interface {
	FinalizeDone(ctx context.Context, id int64, reason models.CloseReason, pnl float64, closedAt time.Time) error
	FinalizeError(ctx context.Context, id int64, reason models.CloseReason) error
}

// Processor settles one claimed order: validate, fetch the tick window,
// replay, finalize. All side effects stay on that single order row.
type Processor struct {
	store OrderStore
	ticks TickSource
	slip  simulator.SlippageSource
}

func New(store OrderStore, ticks TickSource, slip simulator.SlippageSource) *Processor {
	return &Processor{
		store: store,
		ticks: ticks,
		slip:  slip,
	}
}

// Process settles o, which must already be claimed (status processing), and
// returns the close reason it recorded.
//
// Validation failures are terminal: the order is finalized as error with a
// specific reason and a validation-kind error is returned alongside it —
// the row is already terminal, there is nothing for the caller to retry.
// A tick fetch failure returns a dependency-kind error and leaves the order
// in processing; the caller decides what to write back.
func (p *Processor) Process(ctx context.Context, o *models.Order) (models.CloseReason, error) {
	if o.EntryPrice <= 0 || o.Size <= 0 {
		logger.Error("order %d invalid: entry=%f size=%f", o.ID, o.EntryPrice, o.Size)
		if err := p.store.FinalizeError(ctx, o.ID, models.ReasonInvalid); err != nil {
			return "", newError(KindStore, err)
		}
		return models.ReasonInvalid, newError(KindValidation,
			fmt.Errorf("order %d: entry=%f size=%f", o.ID, o.EntryPrice, o.Size))
	}
	if o.WindowStart.After(o.WindowEnd) {
		logger.Error("order %d invalid window: start=%s end=%s", o.ID, o.WindowStart, o.WindowEnd)
		if err := p.store.FinalizeError(ctx, o.ID, models.ReasonInvalidTimestamp); err != nil {
			return "", newError(KindStore, err)
		}
		return models.ReasonInvalidTimestamp, newError(KindValidation,
			fmt.Errorf("order %d: window start %s after end %s", o.ID, o.WindowStart, o.WindowEnd))
	}

	ticks, err := p.ticks.Fetch(ctx, o.Instrument, o.WindowStart, o.WindowEnd)
	if err != nil {
		return "", newError(KindDependency, fmt.Errorf("fetch ticks for order %d: %w", o.ID, err))
	}

	res := simulator.Simulate(o, ticks, p.slip)

	if err := p.store.FinalizeDone(ctx, o.ID, res.Reason, res.PnL, time.Now().UTC()); err != nil {
		return "", newError(KindStore, err)
	}

	logger.Info("order %d settled: reason=%s pnl=%f ticks=%d", o.ID, res.Reason, res.PnL, len(ticks))
	return res.Reason, nil
}
