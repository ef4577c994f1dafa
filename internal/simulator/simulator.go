package simulator

import (
	"settler/internal/models"
)

// Result of replaying an order against a tick window.
type Result struct {
	PnL    float64
	Reason models.CloseReason
}

// Simulate replays ticks (ascending by time) against the order and decides
// how it would have closed. Pure apart from the slippage draw.
//
// Rules, in order, per tick: stop-loss first, then take-profit — when both
// levels are crossed by the same tick the stop wins, that tie-break is part
// of the contract. A leg set to zero never triggers. If the window runs out
// the order expires at the last tick's prices. Slippage is charged only at
// the moment of execution, holding is free.
func Simulate(o *models.Order, ticks []models.Tick, slip SlippageSource) Result {
	if len(ticks) == 0 {
		return Result{PnL: 0, Reason: models.ReasonExpired}
	}

	for i := range ticks {
		t := &ticks[i]

		if o.StopLoss > 0 && stopHit(o, t) {
			return closeAt(o, t, models.ReasonStopLoss, slip)
		}
		if o.TakeProfit > 0 && takeHit(o, t) {
			return closeAt(o, t, models.ReasonTakeProfit, slip)
		}
	}

	return closeAt(o, &ticks[len(ticks)-1], models.ReasonExpired, slip)
}

// executablePrice is the side of the book a market close would actually
// fill against: ask for BUY, bid for SELL.
func executablePrice(o *models.Order, t *models.Tick) float64 {
	if o.Side == models.SideSell {
		return t.Bid
	}
	return t.Ask
}

func stopHit(o *models.Order, t *models.Tick) bool {
	if o.Side == models.SideSell {
		return t.Ask >= o.StopLoss
	}
	return t.Bid <= o.StopLoss
}

func takeHit(o *models.Order, t *models.Tick) bool {
	if o.Side == models.SideSell {
		return t.Bid <= o.TakeProfit
	}
	return t.Ask >= o.TakeProfit
}

func closeAt(o *models.Order, t *models.Tick, reason models.CloseReason, slip SlippageSource) Result {
	dir := o.Side.Dir()
	// against the order on either side: BUY fills higher, SELL fills lower
	exec := executablePrice(o, t) + dir*slip.Draw()
	return Result{
		PnL:    (exec - o.EntryPrice) * o.Size * dir,
		Reason: reason,
	}
}
