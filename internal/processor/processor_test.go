package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"settler/internal/models"
	"settler/internal/simulator"
	"settler/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init()
}

type fakeStore struct {
	doneID     int64
	doneReason models.CloseReason
	donePnL    float64
	doneCalls  int

	errID     int64
	errReason models.CloseReason
	errCalls  int

	failFinalize error
}

func (f *fakeStore) FinalizeDone(_ context.Context, id int64, reason models.CloseReason, pnl float64, _ time.Time) error {
	if f.failFinalize != nil {
		return f.failFinalize
	}
	f.doneID, f.doneReason, f.donePnL = id, reason, pnl
	f.doneCalls++
	return nil
}

func (f *fakeStore) FinalizeError(_ context.Context, id int64, reason models.CloseReason) error {
	if f.failFinalize != nil {
		return f.failFinalize
	}
	f.errID, f.errReason = id, reason
	f.errCalls++
	return nil
}

type fakeTicks struct {
	ticks   []models.Tick
	err     error
	fetches int
}

func (f *fakeTicks) Fetch(context.Context, string, time.Time, time.Time) ([]models.Tick, error) {
	f.fetches++
	return f.ticks, f.err
}

func validOrder() *models.Order {
	now := time.Now()
	return &models.Order{
		ID:          7,
		Instrument:  "EURUSD",
		Side:        models.SideBuy,
		EntryPrice:  1.1000,
		Size:        1,
		StopLoss:    1.0990,
		TakeProfit:  1.1020,
		WindowStart: now.Add(-time.Hour),
		WindowEnd:   now,
		Status:      models.StatusProcessing,
	}
}

func TestProcessInvalidSizeSkipsTickSource(t *testing.T) {
	store := &fakeStore{}
	ticks := &fakeTicks{}
	p := New(store, ticks, simulator.Fixed(0))

	o := validOrder()
	o.Size = 0

	reason, err := p.Process(context.Background(), o)

	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, models.ReasonInvalid, reason)
	assert.Equal(t, models.ReasonInvalid, store.errReason)
	assert.Equal(t, o.ID, store.errID)
	assert.Zero(t, ticks.fetches, "invalid order must not touch the tick source")
}

func TestProcessInvertedWindow(t *testing.T) {
	store := &fakeStore{}
	ticks := &fakeTicks{}
	p := New(store, ticks, simulator.Fixed(0))

	o := validOrder()
	o.WindowStart = o.WindowEnd.Add(time.Minute)

	reason, err := p.Process(context.Background(), o)

	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, models.ReasonInvalidTimestamp, reason)
	assert.Equal(t, models.ReasonInvalidTimestamp, store.errReason)
	assert.Zero(t, ticks.fetches)
}

func TestProcessTickFetchFailure(t *testing.T) {
	store := &fakeStore{}
	ticks := &fakeTicks{err: errors.New("market service down")}
	p := New(store, ticks, simulator.Fixed(0))

	_, err := p.Process(context.Background(), validOrder())

	require.Error(t, err)
	assert.Equal(t, KindDependency, KindOf(err))
	// the order must not be finalized: it stays processing for the caller
	assert.Zero(t, store.doneCalls)
	assert.Zero(t, store.errCalls)
}

func TestProcessSettlesAndFinalizes(t *testing.T) {
	store := &fakeStore{}
	ticks := &fakeTicks{ticks: []models.Tick{
		{Time: time.Now(), Bid: 1.1006, Ask: 1.1009},
		{Time: time.Now(), Bid: 1.1021, Ask: 1.1024},
	}}
	p := New(store, ticks, simulator.Fixed(0))

	reason, err := p.Process(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, models.ReasonTakeProfit, reason)
	assert.Equal(t, int64(7), store.doneID)
	assert.Equal(t, models.ReasonTakeProfit, store.doneReason)
	assert.InDelta(t, 0.0024, store.donePnL, 1e-9)
}

func TestProcessFinalizeFailureIsStoreKind(t *testing.T) {
	store := &fakeStore{failFinalize: errors.New("connection reset")}
	ticks := &fakeTicks{}
	p := New(store, ticks, simulator.Fixed(0))

	_, err := p.Process(context.Background(), validOrder())

	require.Error(t, err)
	assert.Equal(t, KindStore, KindOf(err))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}
