package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"settler/internal/models"
	"settler/pkg/db"

	"github.com/jackc/pgx/v5"
)

// ErrNotProcessing is returned when a finalize hits an order that is not in
// status processing. Status transitions are one-way; finalizing a done or
// errored order is rejected, not repeated.
var ErrNotProcessing = errors.New("order is not in processing status")

// Orders implements the order store over the orders table.
type Orders struct {
	tm db.TxManager
}

func NewOrders(tm db.TxManager) *Orders {
	return &Orders{tm: tm}
}

// Claim atomically selects up to max pending orders, oldest window first,
// and flips them to processing. Rows locked by a concurrent claim are
// skipped, so two claimers partition the pending set instead of waiting on
// each other. The select and the status flip commit together: on any
// failure nothing is marked.
func (s *Orders) Claim(ctx context.Context, max int) (ids []int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Orders.Claim: %w", err)
		}
	}()

	err = s.tm.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id
			FROM orders
			WHERE status = 'pending'
			ORDER BY window_start
			LIMIT $1
			FOR UPDATE SKIP LOCKED`,
			max,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		// UPDATE ... RETURNING does not keep row order, so the ordered
		// select above is the claim result and the update only flips status.
		_, err = tx.Exec(ctx, `
			UPDATE orders
			SET status = 'processing', updated_at = now()
			WHERE id = ANY($1)`,
			ids,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Orders) GetByID(ctx context.Context, id int64) (o *models.Order, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Orders.GetByID: %w", err)
		}
	}()

	o = &models.Order{}
	var closeReason *string
	err = s.tm.Conn().QueryRow(ctx, `
		SELECT id, instrument, side, entry_price, size,
		       COALESCE(stop_loss, 0), COALESCE(take_profit, 0),
		       window_start, window_end, status, close_reason, pnl, closed_at
		FROM orders
		WHERE id = $1`,
		id,
	).Scan(
		&o.ID, &o.Instrument, &o.Side, &o.EntryPrice, &o.Size,
		&o.StopLoss, &o.TakeProfit,
		&o.WindowStart, &o.WindowEnd, &o.Status, &closeReason, &o.PnL, &o.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	if closeReason != nil {
		o.CloseReason = models.CloseReason(*closeReason)
	}
	return o, nil
}

// FinalizeDone writes the settlement result. Only a processing order can be
// finalized; anything else returns ErrNotProcessing.
func (s *Orders) FinalizeDone(ctx context.Context, id int64, reason models.CloseReason, pnl float64, closedAt time.Time) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Orders.FinalizeDone: %w", err)
		}
	}()

	tag, err := s.tm.Conn().Exec(ctx, `
		UPDATE orders
		SET status = 'done', close_reason = $2, pnl = $3, closed_at = $4, updated_at = now()
		WHERE id = $1 AND status = 'processing'`,
		id, string(reason), pnl, closedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotProcessing
	}
	return nil
}

// FinalizeError moves a processing order to its terminal error status.
func (s *Orders) FinalizeError(ctx context.Context, id int64, reason models.CloseReason) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Orders.FinalizeError: %w", err)
		}
	}()

	tag, err := s.tm.Conn().Exec(ctx, `
		UPDATE orders
		SET status = 'error', close_reason = $2, closed_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'processing'`,
		id, string(reason),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotProcessing
	}
	return nil
}
