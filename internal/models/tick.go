package models

import "time"

// Tick is one market observation. Volume may be zero for sources that
// don't report it (forex feeds).
type Tick struct {
	Time   time.Time
	Bid    float64
	Ask    float64
	Last   float64
	Volume float64
}
