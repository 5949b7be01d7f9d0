package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const remittanceColumns = `id, driver_id, declared_amount, method, reference, status,
	verified_amount, reject_reason, created_at, resolved_at, resolved_by`

func scanRemittance(row pgx.Row) (*models.CashRemittance, error) {
	var r models.CashRemittance
	err := row.Scan(&r.ID, &r.DriverID, &r.DeclaredAmount, &r.Method, &r.Reference, &r.Status,
		&r.VerifiedAmount, &r.RejectReason, &r.CreatedAt, &r.ResolvedAt, &r.ResolvedBy)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func validRemittanceMethod(method string) bool {
	switch method {
	case models.RemittanceMethodAgency, models.RemittanceMethodBankDeposit, models.RemittanceMethodMobileMoneyDeposit:
		return true
	}
	return false
}

// outstandingCashCondition selects delivered cash orders the driver still
// owes for: not settled by a confirmed remittance and not held by a pending
// one.
const outstandingCashCondition = `
	o.driver_id = $1
	AND o.status = 'delivered'
	AND o.payment_method = 'cash'
	AND o.cash_settled = false
	AND NOT EXISTS (
		SELECT 1 FROM cash_remittance_orders cro
		JOIN cash_remittances cr ON cr.id = cro.remittance_id
		WHERE cro.order_id = o.id AND cr.status = 'pending'
	)`

// DriverCashOwed returns how much client cash the driver currently holds
// for the platform, with the delivered orders it comes from. Per order the
// owed amount is the cash collected (total) minus the driver's own earning.
func DriverCashOwed(ctx context.Context, driverID int64) (*models.CashOwed, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT o.id, o.total - o.driver_earning
		FROM orders o
		WHERE `+outstandingCashCondition+`
		ORDER BY o.id`,
		driverID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	owed := &models.CashOwed{DriverID: driverID}
	for rows.Next() {
		var orderID, amount int64
		if err := rows.Scan(&orderID, &amount); err != nil {
			return nil, err
		}
		owed.OrderIDs = append(owed.OrderIDs, orderID)
		owed.Amount += amount
	}
	return owed, rows.Err()
}

// SubmitRemittance records a driver's declaration of returning cash for a
// set of their delivered cash orders. Every order must still be
// outstanding; the remittance starts pending until an admin resolves it.
func SubmitRemittance(ctx context.Context, driverID int64, declaredAmount int64, method, reference string, orderIDs []int64) (*models.CashRemittance, error) {
	if declaredAmount <= 0 {
		return nil, validationf("declared amount must be positive")
	}
	if !validRemittanceMethod(method) {
		return nil, validationf("unknown remittance method %q", method)
	}
	if len(orderIDs) == 0 {
		return nil, validationf("a remittance must cover at least one order")
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock and validate every covered order. A concurrent submission of an
	// overlapping set loses on the pending-remittance check.
	for _, orderID := range orderIDs {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return nil, err
		}
		var ok bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM orders o WHERE o.id = $2 AND `+outstandingCashCondition+`)`,
			driverID, orderID,
		).Scan(&ok)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, stateConflictf("order %d is not awaiting remittance from driver %d", orderID, driverID)
		}
	}

	r, err := scanRemittance(tx.QueryRow(ctx, `
		INSERT INTO cash_remittances (id, driver_id, declared_amount, method, reference, status)
		VALUES ($1, $2, $3, $4, NULLIF(TRIM($5), ''), $6)
		RETURNING `+remittanceColumns,
		uuid.NewString(), driverID, declaredAmount, method, reference, models.RemittanceStatusPending,
	))
	if err != nil {
		return nil, err
	}
	for _, orderID := range orderIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cash_remittance_orders (remittance_id, order_id) VALUES ($1, $2)`,
			r.ID, orderID,
		); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.OrderIDs = orderIDs
	return r, nil
}

// ConfirmRemittance marks a pending remittance completed and settles its
// orders, removing them from the driver's outstanding set. verifiedAmount
// overrides the declared amount when the cash handed over differs; nil
// keeps the declaration.
func ConfirmRemittance(ctx context.Context, remittanceID string, adminID int64, verifiedAmount *int64) (*models.CashRemittance, error) {
	if verifiedAmount != nil && *verifiedAmount < 0 {
		return nil, validationf("verified amount cannot be negative")
	}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	r, err := scanRemittance(tx.QueryRow(ctx, `SELECT `+remittanceColumns+` FROM cash_remittances WHERE id = $1 FOR UPDATE`, remittanceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: remittance %s", ErrNotFound, remittanceID)
		}
		return nil, err
	}
	if r.Status != models.RemittanceStatusPending {
		return nil, stateConflictf("remittance %s is %s, expected pending", remittanceID, r.Status)
	}

	verified := r.DeclaredAmount
	if verifiedAmount != nil {
		verified = *verifiedAmount
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET cash_settled = true, updated_at = now()
		WHERE id IN (SELECT order_id FROM cash_remittance_orders WHERE remittance_id = $1)`,
		remittanceID,
	); err != nil {
		return nil, err
	}

	r, err = scanRemittance(tx.QueryRow(ctx, `
		UPDATE cash_remittances
		SET status = $1, verified_amount = $2, resolved_at = now(), resolved_by = $3
		WHERE id = $4
		RETURNING `+remittanceColumns,
		models.RemittanceStatusCompleted, verified, adminID, remittanceID,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.OrderIDs, err = remittanceOrderIDs(ctx, remittanceID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// RejectRemittance turns a pending remittance down with a mandatory reason.
// The covered orders stay outstanding and the driver can resubmit them.
func RejectRemittance(ctx context.Context, remittanceID string, adminID int64, reason string) (*models.CashRemittance, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validationf("a rejection reason is required")
	}
	r, err := scanRemittance(db.Pool.QueryRow(ctx, `
		UPDATE cash_remittances
		SET status = $1, reject_reason = $2, resolved_at = now(), resolved_by = $3
		WHERE id = $4 AND status = $5
		RETURNING `+remittanceColumns,
		models.RemittanceStatusRejected, strings.TrimSpace(reason), adminID, remittanceID, models.RemittanceStatusPending,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var status string
			checkErr := db.Pool.QueryRow(ctx, `SELECT status FROM cash_remittances WHERE id = $1`, remittanceID).Scan(&status)
			if checkErr != nil {
				if errors.Is(checkErr, pgx.ErrNoRows) {
					return nil, fmt.Errorf("%w: remittance %s", ErrNotFound, remittanceID)
				}
				return nil, checkErr
			}
			return nil, stateConflictf("remittance %s is %s, expected pending", remittanceID, status)
		}
		return nil, err
	}
	r.OrderIDs, err = remittanceOrderIDs(ctx, remittanceID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func remittanceOrderIDs(ctx context.Context, remittanceID string) ([]int64, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT order_id FROM cash_remittance_orders WHERE remittance_id = $1 ORDER BY order_id`,
		remittanceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RemittanceFilter narrows ListRemittances. Zero values mean "any".
type RemittanceFilter struct {
	Status   string
	DriverID int64
	From     time.Time
	To       time.Time
}

// ListRemittances returns remittances matching the filter, newest first.
func ListRemittances(ctx context.Context, f RemittanceFilter) ([]models.CashRemittance, error) {
	query := `SELECT ` + remittanceColumns + ` FROM cash_remittances WHERE 1=1`
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.DriverID != 0 {
		add("driver_id = $%d", f.DriverID)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.CashRemittance
	for rows.Next() {
		r, err := scanRemittance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
