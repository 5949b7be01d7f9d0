package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"github.com/jackc/pgx/v5"
)

// accrueOrderTx credits restaurant and driver balances for a delivered
// order inside the delivery transaction. The unique ledger key per
// (beneficiary, order) makes the accrual idempotent: re-running it for an
// already-accrued order inserts nothing and moves no balance.
//
// Restaurant earns subtotal minus commission. The driver earns their share
// of the delivery fee plus non-negative bonuses; on cash orders they also
// walk away holding the client's cash, so the order stays in the cash
// ledger as owed (total minus driver earning) until a remittance covers it.
func accrueOrderTx(ctx context.Context, tx pgx.Tx, o *models.Order) error {
	restaurantNet := o.Subtotal - o.Commission

	deliveredAt := nowFunc()
	if o.DeliveredAt != nil {
		deliveredAt = *o.DeliveredAt
	}
	driverEarning := DriverEarningFor(o.DeliveryFee, o.DistanceKm, deliveredAt)

	if err := creditTx(ctx, tx, models.BeneficiaryRestaurant, o.RestaurantID, o.ID, restaurantNet); err != nil {
		return fmt.Errorf("accrue restaurant %d: %w", o.RestaurantID, err)
	}
	if o.DriverID != nil {
		if err := creditTx(ctx, tx, models.BeneficiaryDriver, *o.DriverID, o.ID, driverEarning); err != nil {
			return fmt.Errorf("accrue driver %d: %w", *o.DriverID, err)
		}
	}

	// driver_earning feeds the cash-owed computation and balance replay.
	_, err := tx.Exec(ctx, `
		UPDATE orders SET driver_earning = $1 WHERE id = $2 AND driver_earning = 0`,
		driverEarning, o.ID,
	)
	if err != nil {
		return err
	}
	o.DriverEarning = driverEarning
	return nil
}

// creditTx appends an order-earning ledger row and bumps the cached balance,
// but only when the row did not exist yet.
func creditTx(ctx context.Context, tx pgx.Tx, beneficiaryType string, beneficiaryID, orderID, amount int64) error {
	var txID int64
	err := tx.QueryRow(ctx, `
		INSERT INTO balance_transactions (beneficiary_type, beneficiary_id, kind, order_id, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (beneficiary_type, beneficiary_id, order_id) WHERE kind = 'order_earning' DO NOTHING
		RETURNING id`,
		beneficiaryType, beneficiaryID, models.TxKindOrderEarning, orderID, amount,
	).Scan(&txID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil // already accrued, nothing to add
		}
		return err
	}
	return bumpBalanceTx(ctx, tx, beneficiaryType, beneficiaryID, amount)
}

func bumpBalanceTx(ctx context.Context, tx pgx.Tx, beneficiaryType string, beneficiaryID, delta int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO balances (beneficiary_type, beneficiary_id, amount, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (beneficiary_type, beneficiary_id)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount, updated_at = now()`,
		beneficiaryType, beneficiaryID, delta,
	)
	return err
}

// GetBalance returns the cached balance for a beneficiary, 0 if none accrued.
func GetBalance(ctx context.Context, beneficiaryType string, beneficiaryID int64) (int64, error) {
	var amount int64
	err := db.Pool.QueryRow(ctx, `
		SELECT amount FROM balances WHERE beneficiary_type = $1 AND beneficiary_id = $2`,
		beneficiaryType, beneficiaryID,
	).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return amount, nil
}

// ListBalances returns all cached balances for a beneficiary type.
func ListBalances(ctx context.Context, beneficiaryType string) ([]models.Balance, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT beneficiary_type, beneficiary_id, amount, updated_at
		FROM balances WHERE beneficiary_type = $1 ORDER BY beneficiary_id`,
		beneficiaryType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Balance
	for rows.Next() {
		var b models.Balance
		if err := rows.Scan(&b.BeneficiaryType, &b.BeneficiaryID, &b.Amount, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BalanceDrift reports one beneficiary whose cached balance disagreed with
// the ledger before a recomputation.
type BalanceDrift struct {
	BeneficiaryType string
	BeneficiaryID   int64
	Before          int64
	After           int64
}

// RecomputeBalances rebuilds every balance from scratch: first it replays
// delivered orders into any missing ledger rows (idempotent inserts), then
// it resets each cached balance to the ledger sum. Safe to run repeatedly;
// returns the beneficiaries whose cached value had drifted.
func RecomputeBalances(ctx context.Context) ([]BalanceDrift, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Replay restaurant earnings for every delivered order.
	_, err = tx.Exec(ctx, `
		INSERT INTO balance_transactions (beneficiary_type, beneficiary_id, kind, order_id, amount)
		SELECT 'restaurant', o.restaurant_id, 'order_earning', o.id, o.subtotal - o.commission
		FROM orders o WHERE o.status = $1
		ON CONFLICT (beneficiary_type, beneficiary_id, order_id) WHERE kind = 'order_earning' DO NOTHING`,
		OrderStatusDelivered,
	)
	if err != nil {
		return nil, fmt.Errorf("replay restaurant earnings: %w", err)
	}

	// Replay driver earnings.
	_, err = tx.Exec(ctx, `
		INSERT INTO balance_transactions (beneficiary_type, beneficiary_id, kind, order_id, amount)
		SELECT 'driver', o.driver_id, 'order_earning', o.id, o.driver_earning
		FROM orders o WHERE o.status = $1 AND o.driver_id IS NOT NULL
		ON CONFLICT (beneficiary_type, beneficiary_id, order_id) WHERE kind = 'order_earning' DO NOTHING`,
		OrderStatusDelivered,
	)
	if err != nil {
		return nil, fmt.Errorf("replay driver earnings: %w", err)
	}

	// Compare ledger sums against the cache to surface drift.
	rows, err := tx.Query(ctx, `
		SELECT l.beneficiary_type, l.beneficiary_id, COALESCE(b.amount, 0), l.total
		FROM (
			SELECT beneficiary_type, beneficiary_id, SUM(amount)::bigint AS total
			FROM balance_transactions
			GROUP BY beneficiary_type, beneficiary_id
		) l
		LEFT JOIN balances b
		  ON b.beneficiary_type = l.beneficiary_type AND b.beneficiary_id = l.beneficiary_id
		WHERE COALESCE(b.amount, 0) <> l.total`,
	)
	if err != nil {
		return nil, fmt.Errorf("diff balances: %w", err)
	}
	var drifts []BalanceDrift
	for rows.Next() {
		var d BalanceDrift
		if err := rows.Scan(&d.BeneficiaryType, &d.BeneficiaryID, &d.Before, &d.After); err != nil {
			rows.Close()
			return nil, err
		}
		drifts = append(drifts, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reset every cache to the ledger sum.
	_, err = tx.Exec(ctx, `
		INSERT INTO balances (beneficiary_type, beneficiary_id, amount, updated_at)
		SELECT beneficiary_type, beneficiary_id, SUM(amount)::bigint, now()
		FROM balance_transactions
		GROUP BY beneficiary_type, beneficiary_id
		ON CONFLICT (beneficiary_type, beneficiary_id)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()`,
	)
	if err != nil {
		return nil, fmt.Errorf("reset balances: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return drifts, nil
}
