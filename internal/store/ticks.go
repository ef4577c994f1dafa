package store

import (
	"context"
	"fmt"
	"time"

	"settler/internal/models"
	"settler/pkg/db"

	"github.com/jackc/pgx/v5"
)

// Ticks reads and writes the local tick history table. It backs the
// "postgres" tick source and is the sink of the websocket ingester.
type Ticks struct {
	tm db.TxManager
}

func NewTicks(tm db.TxManager) *Ticks {
	return &Ticks{tm: tm}
}

// Fetch returns the ticks of (instrument, [start, end]) ascending by time.
func (s *Ticks) Fetch(ctx context.Context, instrument string, start, end time.Time) (ticks []models.Tick, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Ticks.Fetch: %w", err)
		}
	}()

	rows, err := s.tm.Conn().Query(ctx, `
		SELECT ts, bid, ask, last, COALESCE(volume, 0)
		FROM ticks
		WHERE instrument = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts`,
		instrument, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Tick
		if err := rows.Scan(&t.Time, &t.Bid, &t.Ask, &t.Last, &t.Volume); err != nil {
			return nil, err
		}
		ticks = append(ticks, t)
	}
	return ticks, rows.Err()
}

// InsertBatch appends a batch of ticks in one transaction. Duplicate
// (instrument, ts) rows from feed reconnects are dropped.
func (s *Ticks) InsertBatch(ctx context.Context, instrument string, ticks []models.Tick) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Ticks.InsertBatch: %w", err)
		}
	}()

	if len(ticks) == 0 {
		return nil
	}

	return s.tm.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, t := range ticks {
			b.Queue(`
				INSERT INTO ticks (instrument, ts, bid, ask, last, volume)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (instrument, ts) DO NOTHING`,
				instrument, t.Time, t.Bid, t.Ask, t.Last, t.Volume,
			)
		}
		return tx.SendBatch(ctx, b).Close()
	})
}
