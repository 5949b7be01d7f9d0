package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/config"
	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var payoutCfg = config.PayoutConfig{
	DriverMinBalance:     1000,
	RestaurantMinBalance: 10000,
}

// SetPayoutConfig installs the payout thresholds. Called once at startup.
func SetPayoutConfig(c config.PayoutConfig) {
	payoutCfg = c
}

const payoutColumns = `id, beneficiary_type, beneficiary_id, amount, status, trigger_kind, destination,
	transaction_ref, proof_url, reject_reason, created_at, processed_at, processed_by`

func scanPayout(row pgx.Row) (*models.PayoutRequest, error) {
	var p models.PayoutRequest
	err := row.Scan(&p.ID, &p.BeneficiaryType, &p.BeneficiaryID, &p.Amount, &p.Status, &p.Trigger, &p.Destination,
		&p.TransactionRef, &p.ProofURL, &p.RejectReason, &p.CreatedAt, &p.ProcessedAt, &p.ProcessedBy)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// lockBeneficiary serializes all payout work for one beneficiary inside the
// current transaction. Concurrent admin actions on the same balance queue
// behind this lock instead of double-spending it.
func lockBeneficiary(ctx context.Context, tx pgx.Tx, beneficiaryType string, beneficiaryID int64) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		fmt.Sprintf("payout:%s:%d", beneficiaryType, beneficiaryID))
	return err
}

// GeneratePayouts creates pending payout requests for every beneficiary of
// the given type whose balance reaches the auto threshold. Drivers must
// have a mobile-money destination configured; restaurants have no
// destination gate. A beneficiary with a pending request is skipped, so the
// same balance is never booked twice.
func GeneratePayouts(ctx context.Context, beneficiaryType string) ([]models.PayoutRequest, error) {
	var (
		query     string
		threshold int64
	)
	switch beneficiaryType {
	case models.BeneficiaryDriver:
		threshold = payoutCfg.DriverMinBalance
		query = `
			SELECT b.beneficiary_id, COALESCE(d.mobile_money, '')
			FROM balances b
			JOIN drivers d ON d.id = b.beneficiary_id
			WHERE b.beneficiary_type = 'driver'
			  AND b.amount >= $1
			  AND COALESCE(TRIM(d.mobile_money), '') <> ''
			ORDER BY b.beneficiary_id`
	case models.BeneficiaryRestaurant:
		threshold = payoutCfg.RestaurantMinBalance
		query = `
			SELECT b.beneficiary_id, ''
			FROM balances b
			JOIN restaurants r ON r.id = b.beneficiary_id
			WHERE b.beneficiary_type = 'restaurant'
			  AND b.amount >= $1
			ORDER BY b.beneficiary_id`
	default:
		return nil, validationf("unknown beneficiary type %q", beneficiaryType)
	}

	rows, err := db.Pool.Query(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	type candidate struct {
		id          int64
		destination string
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.destination); err != nil {
			rows.Close()
			return nil, err
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var created []models.PayoutRequest
	for _, c := range candidates {
		p, err := createPayout(ctx, beneficiaryType, c.id, c.destination, threshold, models.PayoutTriggerAuto)
		if err != nil {
			return created, fmt.Errorf("generate payout for %s %d: %w", beneficiaryType, c.id, err)
		}
		if p != nil {
			created = append(created, *p)
		}
	}
	return created, nil
}

// createPayout books the beneficiary's full available balance into one
// pending request. The balance is re-read under the per-beneficiary lock;
// a stale candidate list can never produce an over-booked payout. Returns
// (nil, nil) when the beneficiary no longer qualifies.
func createPayout(ctx context.Context, beneficiaryType string, beneficiaryID int64, destination string, threshold int64, trigger string) (*models.PayoutRequest, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockBeneficiary(ctx, tx, beneficiaryType, beneficiaryID); err != nil {
		return nil, err
	}

	var pending int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM payout_requests
		WHERE beneficiary_type = $1 AND beneficiary_id = $2 AND status = $3`,
		beneficiaryType, beneficiaryID, models.PayoutStatusPending,
	).Scan(&pending)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, nil
	}

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT amount FROM balances WHERE beneficiary_type = $1 AND beneficiary_id = $2`,
		beneficiaryType, beneficiaryID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if balance < threshold || balance <= 0 {
		return nil, nil
	}

	p, err := scanPayout(tx.QueryRow(ctx, `
		INSERT INTO payout_requests (id, beneficiary_type, beneficiary_id, amount, status, trigger_kind, destination)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+payoutColumns,
		uuid.NewString(), beneficiaryType, beneficiaryID, balance, models.PayoutStatusPending, trigger, destination,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// RequestPayout creates a manual pending payout for a beneficiary, for any
// amount up to the available balance.
func RequestPayout(ctx context.Context, beneficiaryType string, beneficiaryID, amount int64, destination string) (*models.PayoutRequest, error) {
	if amount <= 0 {
		return nil, validationf("payout amount must be positive")
	}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockBeneficiary(ctx, tx, beneficiaryType, beneficiaryID); err != nil {
		return nil, err
	}

	var pending int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM payout_requests
		WHERE beneficiary_type = $1 AND beneficiary_id = $2 AND status = $3`,
		beneficiaryType, beneficiaryID, models.PayoutStatusPending,
	).Scan(&pending)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, stateConflictf("%s %d already has a pending payout", beneficiaryType, beneficiaryID)
	}

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT amount FROM balances WHERE beneficiary_type = $1 AND beneficiary_id = $2`,
		beneficiaryType, beneficiaryID,
	).Scan(&balance)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if amount > balance {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientFunds, amount, balance)
	}

	p, err := scanPayout(tx.QueryRow(ctx, `
		INSERT INTO payout_requests (id, beneficiary_type, beneficiary_id, amount, status, trigger_kind, destination)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+payoutColumns,
		uuid.NewString(), beneficiaryType, beneficiaryID, amount, models.PayoutStatusPending, models.PayoutTriggerManual, destination,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// MarkPayoutPaid settles a pending payout: it debits the balance through a
// ledger entry and attaches the payment proof. At least one of
// transactionRef or proofURL is required. Funds are re-checked here, never
// assumed from the balance at request time.
func MarkPayoutPaid(ctx context.Context, payoutID string, processedBy int64, transactionRef, proofURL string) (*models.PayoutRequest, error) {
	transactionRef = strings.TrimSpace(transactionRef)
	proofURL = strings.TrimSpace(proofURL)
	if transactionRef == "" && proofURL == "" {
		return nil, validationf("a transaction reference or a proof URL is required")
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPayout(tx.QueryRow(ctx, `SELECT `+payoutColumns+` FROM payout_requests WHERE id = $1 FOR UPDATE`, payoutID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: payout %s", ErrNotFound, payoutID)
		}
		return nil, err
	}
	if p.Status != models.PayoutStatusPending {
		return nil, stateConflictf("payout %s is %s, expected pending", payoutID, p.Status)
	}

	if err := lockBeneficiary(ctx, tx, p.BeneficiaryType, p.BeneficiaryID); err != nil {
		return nil, err
	}

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT amount FROM balances WHERE beneficiary_type = $1 AND beneficiary_id = $2 FOR UPDATE`,
		p.BeneficiaryType, p.BeneficiaryID,
	).Scan(&balance)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if balance < p.Amount {
		return nil, fmt.Errorf("%w: payout %d exceeds balance %d", ErrInsufficientFunds, p.Amount, balance)
	}

	// One debit per payout, ever: the partial unique index on payout_id
	// makes a retried settlement a no-op on the ledger.
	var ledgerID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO balance_transactions (beneficiary_type, beneficiary_id, kind, payout_id, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payout_id) WHERE kind = 'payout' DO NOTHING
		RETURNING id`,
		p.BeneficiaryType, p.BeneficiaryID, models.TxKindPayout, p.ID, -p.Amount,
	).Scan(&ledgerID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	} else {
		if err := bumpBalanceTx(ctx, tx, p.BeneficiaryType, p.BeneficiaryID, -p.Amount); err != nil {
			return nil, err
		}
	}

	p, err = scanPayout(tx.QueryRow(ctx, `
		UPDATE payout_requests
		SET status = $1, transaction_ref = NULLIF($2, ''), proof_url = NULLIF($3, ''),
		    processed_at = now(), processed_by = $4
		WHERE id = $5
		RETURNING `+payoutColumns,
		models.PayoutStatusPaid, transactionRef, proofURL, processedBy, payoutID,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// RejectPayout turns a pending payout down with a mandatory reason. The
// balance is untouched; the funds become available for a later request.
func RejectPayout(ctx context.Context, payoutID string, processedBy int64, reason string) (*models.PayoutRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validationf("a rejection reason is required")
	}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	p, err := scanPayout(tx.QueryRow(ctx, `
		UPDATE payout_requests
		SET status = $1, reject_reason = $2, processed_at = now(), processed_by = $3
		WHERE id = $4 AND status = $5
		RETURNING `+payoutColumns,
		models.PayoutStatusRejected, strings.TrimSpace(reason), processedBy, payoutID, models.PayoutStatusPending,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var status string
			checkErr := tx.QueryRow(ctx, `SELECT status FROM payout_requests WHERE id = $1`, payoutID).Scan(&status)
			if checkErr != nil {
				if errors.Is(checkErr, pgx.ErrNoRows) {
					return nil, fmt.Errorf("%w: payout %s", ErrNotFound, payoutID)
				}
				return nil, checkErr
			}
			return nil, stateConflictf("payout %s is %s, expected pending", payoutID, status)
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// BatchResult is the outcome of one item of a payout batch.
type BatchResult struct {
	PayoutID string
	Payout   *models.PayoutRequest
	Err      error
}

// ProcessPayoutBatch marks a set of payouts paid with a shared proof
// reference. Each item settles in its own transaction: one failure is
// reported in its result and never blocks the rest.
func ProcessPayoutBatch(ctx context.Context, payoutIDs []string, processedBy int64, transactionRef string) []BatchResult {
	results := make([]BatchResult, 0, len(payoutIDs))
	for _, id := range payoutIDs {
		p, err := MarkPayoutPaid(ctx, id, processedBy, transactionRef, "")
		results = append(results, BatchResult{PayoutID: id, Payout: p, Err: err})
	}
	return results
}

// PayoutFilter narrows ListPayouts. Zero values mean "any".
type PayoutFilter struct {
	BeneficiaryType string
	Status          string
	From            time.Time
	To              time.Time
	Phone           string // matches the driver's mobile-money destination
}

// ListPayouts returns payout requests matching the filter, newest first.
func ListPayouts(ctx context.Context, f PayoutFilter) ([]models.PayoutRequest, error) {
	query := `SELECT ` + payoutColumns + ` FROM payout_requests WHERE 1=1`
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.BeneficiaryType != "" {
		add("beneficiary_type = $%d", f.BeneficiaryType)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}
	if strings.TrimSpace(f.Phone) != "" {
		add("destination = $%d", strings.TrimSpace(f.Phone))
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.PayoutRequest
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
