package models

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Dir is the directional multiplier: +1 for BUY, -1 for SELL.
func (s Side) Dir() float64 {
	if s == SideSell {
		return -1
	}
	return 1
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

type CloseReason string

const (
	ReasonTakeProfit       CloseReason = "tp"
	ReasonStopLoss         CloseReason = "sl"
	ReasonExpired          CloseReason = "expired"
	ReasonInvalid          CloseReason = "invalid"
	ReasonInvalidTimestamp CloseReason = "invalid_timestamp"
	ReasonProcessingError  CloseReason = "processing_error"
)

// Order is a pending position to be settled against the tick history of
// [WindowStart, WindowEnd]. StopLoss/TakeProfit are levels; zero means the
// leg is not configured.
type Order struct {
	ID          int64
	Instrument  string
	Side        Side
	EntryPrice  float64
	Size        float64
	StopLoss    float64
	TakeProfit  float64
	WindowStart time.Time
	WindowEnd   time.Time

	Status      Status
	CloseReason CloseReason
	PnL         float64
	ClosedAt    *time.Time
}
