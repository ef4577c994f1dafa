package worker

import (
	"context"
	"time"

	"settler/internal/models"
	"settler/internal/modules/health/service"
	"settler/internal/notify"
	"settler/internal/processor"
	"settler/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// Claimer atomically claims up to max pending orders and marks them
// processing. Disjoint results across concurrent callers.
type Claimer interface {
	Claim(ctx context.Context, max int) ([]int64, error)
}

// OrderStore is the slice of the store the loop itself needs: loading a
// claimed order and the best-effort recovery write.
type OrderStore interface {
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	FinalizeError(ctx context.Context, id int64, reason models.CloseReason) error
}

// OrderProcessor settles one claimed order.
type OrderProcessor interface {
	Process(ctx context.Context, o *models.Order) (models.CloseReason, error)
}

type Config struct {
	BatchSize    int
	PollInterval time.Duration
}

// Worker is the scheduling shell: claim a batch, dispatch it sequentially,
// back off when there is no work. It has no terminal state of its own and
// runs until ctx is cancelled.
type Worker struct {
	claimer  Claimer
	store    OrderStore
	proc     OrderProcessor
	notifier notify.Notifier
	state    *service.State
	cfg      Config
}

func New(claimer Claimer, store OrderStore, proc OrderProcessor, notifier notify.Notifier, state *service.State, cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Worker{
		claimer:  claimer,
		store:    store,
		proc:     proc,
		notifier: notifier,
		state:    state,
		cfg:      cfg,
	}
}

func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		ids, err := w.claimer.Claim(ctx, w.cfg.BatchSize)
		if err != nil {
			// store failure: log, count, move on to the next batch
			claimErrors.Inc()
			logger.Error("claim failed: %v", err)
			if !w.sleep(ctx) {
				return
			}
			continue
		}

		if len(ids) == 0 {
			if !w.sleep(ctx) {
				return
			}
			continue
		}

		claimedTotal.Add(float64(len(ids)))
		w.state.TouchClaim(time.Now())
		w.dispatch(ctx, ids)
	}
}

func (w *Worker) dispatch(ctx context.Context, ids []int64) {
	span := opentracing.GlobalTracer().StartSpan("settle_batch")
	span.SetTag("batch_size", len(ids))
	defer span.Finish()

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		w.processOne(ctx, id)
	}
}

// processOne isolates a single order: whatever happens here, the rest of
// the batch still runs.
func (w *Worker) processOne(ctx context.Context, id int64) {
	started := time.Now()
	defer func() {
		processSeconds.Observe(time.Since(started).Seconds())
	}()

	o, err := w.store.GetByID(ctx, id)
	if err != nil {
		logger.Error("load order %d: %v", id, err)
		w.markFailed(ctx, id, err)
		return
	}

	reason, err := w.proc.Process(ctx, o)
	if err != nil {
		if processor.KindOf(err) == processor.KindValidation {
			// already finalized under its own reason, no recovery write
			logger.Error("order %d rejected: %v", id, err)
			settledTotal.WithLabelValues(string(reason)).Inc()
			w.state.AddSettled(1)
			return
		}
		logger.Error("process order %d (%s): %v", id, processor.KindOf(err), err)
		w.markFailed(ctx, id, err)
		return
	}

	settledTotal.WithLabelValues(string(reason)).Inc()
	w.state.AddSettled(1)
}

// markFailed is the best-effort terminal write for a failed order. If the
// write itself fails the order stays stuck in processing; that is a known
// gap, surfaced to the operator instead of masked.
func (w *Worker) markFailed(ctx context.Context, id int64, cause error) {
	failedTotal.Inc()
	if err := w.store.FinalizeError(ctx, id, models.ReasonProcessingError); err != nil {
		logger.Error("order %d stuck in processing, recovery write failed: %v", id, err)
		w.notifier.Sendf(ctx, "⚠️ order %d stuck in processing: %v (cause: %v)", id, err, cause)
		return
	}
	w.notifier.Sendf(ctx, "❗️ order %d failed processing: %v", id, cause)
}

// sleep is the idle backoff; returns false when ctx ended.
func (w *Worker) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.cfg.PollInterval):
		return true
	}
}
