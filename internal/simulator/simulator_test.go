package simulator

import (
	"testing"
	"time"

	"settler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buyOrder(entry, size, sl, tp float64) *models.Order {
	return &models.Order{
		ID:         1,
		Instrument: "EURUSD",
		Side:       models.SideBuy,
		EntryPrice: entry,
		Size:       size,
		StopLoss:   sl,
		TakeProfit: tp,
	}
}

func sellOrder(entry, size, sl, tp float64) *models.Order {
	o := buyOrder(entry, size, sl, tp)
	o.Side = models.SideSell
	return o
}

func tick(bid, ask float64) models.Tick {
	return models.Tick{Time: time.Now(), Bid: bid, Ask: ask, Last: (bid + ask) / 2}
}

func TestSimulateEmptyTicks(t *testing.T) {
	res := Simulate(buyOrder(1.1, 1, 1.099, 1.102), nil, Fixed(0))

	assert.Equal(t, models.ReasonExpired, res.Reason)
	assert.Zero(t, res.PnL)
}

func TestSimulateBuyTakeProfit(t *testing.T) {
	// entry 1.1000, TP 1.1020: second tick's ask 1.1024 crosses the level
	o := buyOrder(1.1000, 1, 1.0990, 1.1020)
	ticks := []models.Tick{
		tick(1.1006, 1.1009),
		tick(1.1021, 1.1024),
	}

	res := Simulate(o, ticks, Fixed(0))

	require.Equal(t, models.ReasonTakeProfit, res.Reason)
	assert.InDelta(t, 0.0024, res.PnL, 1e-9)
}

func TestSimulateSellStopLoss(t *testing.T) {
	// SELL entry 1.1000 size 2, SL 1.1010, no TP: second tick's ask 1.1011
	// triggers the stop, fill at that tick's bid 1.0996
	o := sellOrder(1.1000, 2, 1.1010, 0)
	ticks := []models.Tick{
		tick(1.0995, 1.0998),
		tick(1.0996, 1.1011),
	}

	res := Simulate(o, ticks, Fixed(0))

	require.Equal(t, models.ReasonStopLoss, res.Reason)
	assert.InDelta(t, 0.0008, res.PnL, 1e-9)
}

func TestSimulateStopWinsOverTakeOnSameTick(t *testing.T) {
	// one wide tick crosses both levels at once; the stop must win
	o := buyOrder(1.1000, 1, 1.0990, 1.1020)
	ticks := []models.Tick{
		tick(1.0980, 1.1030),
	}

	res := Simulate(o, ticks, Fixed(0))

	assert.Equal(t, models.ReasonStopLoss, res.Reason)
}

func TestSimulateExpiryUsesLastTick(t *testing.T) {
	o := buyOrder(1.1000, 3, 1.0900, 1.2000)
	ticks := []models.Tick{
		tick(1.1001, 1.1003),
		tick(1.1004, 1.1006),
		tick(1.1008, 1.1010),
	}

	res := Simulate(o, ticks, Fixed(0))

	require.Equal(t, models.ReasonExpired, res.Reason)
	assert.InDelta(t, (1.1010-1.1000)*3, res.PnL, 1e-9)
}

func TestSimulateUnsetLegsNeverTrigger(t *testing.T) {
	o := buyOrder(1.1000, 1, 0, 0)
	ticks := []models.Tick{
		tick(0.5, 0.6), // would hit any stop
		tick(2.0, 2.1), // would hit any take
		tick(1.1002, 1.1004),
	}

	res := Simulate(o, ticks, Fixed(0))

	assert.Equal(t, models.ReasonExpired, res.Reason)
}

func TestSimulateSlippageDirection(t *testing.T) {
	ticks := []models.Tick{tick(1.2000, 1.2004)}
	const slip = 0.0003

	// BUY fills above the ask, SELL fills below the bid
	buy := Simulate(buyOrder(1.1000, 1, 0, 0), ticks, Fixed(slip))
	assert.InDelta(t, 1.2004+slip-1.1000, buy.PnL, 1e-9)

	sell := Simulate(sellOrder(1.3000, 1, 0, 0), ticks, Fixed(slip))
	assert.InDelta(t, 1.3000-(1.2000-slip), sell.PnL, 1e-9)
}

func TestSimulateDeterministicWithFixedSlippage(t *testing.T) {
	o := sellOrder(1.1000, 2, 1.1010, 1.0950)
	ticks := []models.Tick{
		tick(1.0995, 1.0998),
		tick(1.0996, 1.1011),
		tick(1.0940, 1.0944),
	}

	first := Simulate(o, ticks, Fixed(0))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Simulate(o, ticks, Fixed(0)))
	}
}

func TestUniformSlippageBounds(t *testing.T) {
	src := NewUniformSlippage(0.0005)
	for i := 0; i < 1000; i++ {
		v := src.Draw()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 0.0005)
	}

	assert.Zero(t, NewUniformSlippage(0).Draw())
}
