package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
)

func TestMarkPayoutPaidRequiresProof(t *testing.T) {
	_, err := MarkPayoutPaid(context.Background(), "any-id", 1, "", "  ")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRejectPayoutRequiresReason(t *testing.T) {
	_, err := RejectPayout(context.Background(), "any-id", 1, "   ")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRequestPayoutRequiresPositiveAmount(t *testing.T) {
	for _, amount := range []int64{0, -500} {
		_, err := RequestPayout(context.Background(), models.BeneficiaryDriver, 1, amount, "+2250700000001")
		if !errors.Is(err, ErrValidation) {
			t.Errorf("amount %d: err = %v, want validation error", amount, err)
		}
	}
}

// seedBalance gives a fresh driver a ledger-backed balance via a delivered
// order, so payout tests exercise the same rows production writes.
func seedDriverBalance(t *testing.T, ctx context.Context) (driverID, balance int64) {
	t.Helper()
	orderID, _, _, driverID := seedOrder(t, ctx, OrderStatusDelivering)
	if _, err := CompleteDelivery(ctx, orderID, driverID); err != nil {
		t.Fatalf("CompleteDelivery: %v", err)
	}
	balance, err := GetBalance(ctx, models.BeneficiaryDriver, driverID)
	if err != nil || balance <= 0 {
		t.Fatalf("driver balance = %d, %v", balance, err)
	}
	return driverID, balance
}

func TestPayoutLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping payout integration test in short mode")
	}
	if db.Pool == nil {
		t.Skip("skipping payout integration test: no DB pool")
	}
	ctx := context.Background()
	driverID, balance := seedDriverBalance(t, ctx)

	// More than the balance is refused.
	_, err := RequestPayout(ctx, models.BeneficiaryDriver, driverID, balance+1, "+2250700000001")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("over-request: err = %v, want ErrInsufficientFunds", err)
	}

	p, err := RequestPayout(ctx, models.BeneficiaryDriver, driverID, balance, "+2250700000001")
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}
	if p.Status != models.PayoutStatusPending {
		t.Fatalf("status = %q, want pending", p.Status)
	}

	// A second pending request on the same balance is refused.
	_, err = RequestPayout(ctx, models.BeneficiaryDriver, driverID, 1, "+2250700000001")
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("second pending: err = %v, want ErrStateConflict", err)
	}

	paid, err := MarkPayoutPaid(ctx, p.ID, 42, "OM-REF-12345", "")
	if err != nil {
		t.Fatalf("MarkPayoutPaid: %v", err)
	}
	if paid.Status != models.PayoutStatusPaid {
		t.Errorf("status = %q, want paid", paid.Status)
	}
	if paid.TransactionRef == nil || *paid.TransactionRef != "OM-REF-12345" {
		t.Errorf("transaction ref not recorded: %v", paid.TransactionRef)
	}

	// The settlement debited the whole balance through the ledger.
	after, _ := GetBalance(ctx, models.BeneficiaryDriver, driverID)
	if after != 0 {
		t.Errorf("balance after payout = %d, want 0", after)
	}

	// Settling the same payout again is a state conflict, not a second debit.
	_, err = MarkPayoutPaid(ctx, p.ID, 42, "OM-REF-12345", "")
	if !errors.Is(err, ErrStateConflict) {
		t.Errorf("re-settle: err = %v, want ErrStateConflict", err)
	}
	if again, _ := GetBalance(ctx, models.BeneficiaryDriver, driverID); again != after {
		t.Errorf("balance moved on re-settle: %d -> %d", after, again)
	}
}

// setDriverThreshold swaps the auto-payout threshold for one test and
// restores the configured value afterwards.
func setDriverThreshold(t *testing.T, min int64) {
	t.Helper()
	prev := payoutCfg
	cfg := prev
	cfg.DriverMinBalance = min
	SetPayoutConfig(cfg)
	t.Cleanup(func() { SetPayoutConfig(prev) })
}

func TestGeneratePayouts_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping payout integration test in short mode")
	}
	if db.Pool == nil {
		t.Skip("skipping payout integration test: no DB pool")
	}
	ctx := context.Background()
	driverID, balance := seedDriverBalance(t, ctx)
	// One delivered order earns the driver share of one fee, so the seeded
	// balance sits below the production threshold; qualify it exactly.
	setDriverThreshold(t, balance)

	created, err := GeneratePayouts(ctx, models.BeneficiaryDriver)
	if err != nil {
		t.Fatalf("GeneratePayouts: %v", err)
	}
	var mine *models.PayoutRequest
	for i := range created {
		if created[i].BeneficiaryID == driverID {
			mine = &created[i]
		}
	}
	if mine == nil {
		t.Fatalf("no payout generated for driver %d", driverID)
	}
	if mine.Amount != balance {
		t.Errorf("payout amount = %d, want full balance %d", mine.Amount, balance)
	}
	if mine.Trigger != models.PayoutTriggerAuto {
		t.Errorf("trigger = %q, want auto", mine.Trigger)
	}
	if mine.Destination == "" {
		t.Error("driver payout generated without a mobile-money destination")
	}

	// A second run sees the pending request and books nothing new.
	created, err = GeneratePayouts(ctx, models.BeneficiaryDriver)
	if err != nil {
		t.Fatalf("second GeneratePayouts: %v", err)
	}
	for _, p := range created {
		if p.BeneficiaryID == driverID {
			t.Errorf("balance double-booked into payout %s", p.ID)
		}
	}
}

func TestGeneratePayoutsHonorsThreshold_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping payout integration test in short mode")
	}
	if db.Pool == nil {
		t.Skip("skipping payout integration test: no DB pool")
	}
	ctx := context.Background()
	driverID, balance := seedDriverBalance(t, ctx)
	setDriverThreshold(t, balance+1)

	created, err := GeneratePayouts(ctx, models.BeneficiaryDriver)
	if err != nil {
		t.Fatalf("GeneratePayouts: %v", err)
	}
	for _, p := range created {
		if p.BeneficiaryID == driverID {
			t.Errorf("payout generated for balance %d below threshold %d", balance, balance+1)
		}
	}
}

func TestGeneratePayoutsSkipsDriversWithoutDestination_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping payout integration test in short mode")
	}
	if db.Pool == nil {
		t.Skip("skipping payout integration test: no DB pool")
	}
	ctx := context.Background()
	driverID, balance := seedDriverBalance(t, ctx)
	// The balance qualifies; only the missing destination may block it.
	setDriverThreshold(t, balance)
	if _, err := db.Pool.Exec(ctx, `UPDATE drivers SET mobile_money = NULL WHERE id = $1`, driverID); err != nil {
		t.Fatalf("clear mobile money: %v", err)
	}
	created, err := GeneratePayouts(ctx, models.BeneficiaryDriver)
	if err != nil {
		t.Fatalf("GeneratePayouts: %v", err)
	}
	for _, p := range created {
		if p.BeneficiaryID == driverID {
			t.Errorf("payout generated for driver without mobile money")
		}
	}

	// Restoring the destination is the only change needed for generation.
	if _, err := db.Pool.Exec(ctx, `UPDATE drivers SET mobile_money = '+2250700000099' WHERE id = $1`, driverID); err != nil {
		t.Fatalf("restore mobile money: %v", err)
	}
	created, err = GeneratePayouts(ctx, models.BeneficiaryDriver)
	if err != nil {
		t.Fatalf("second GeneratePayouts: %v", err)
	}
	var found bool
	for _, p := range created {
		if p.BeneficiaryID == driverID {
			found = true
			if p.Destination != "+2250700000099" {
				t.Errorf("destination = %q, want the driver's mobile money", p.Destination)
			}
		}
	}
	if !found {
		t.Error("no payout generated once the destination was configured")
	}
}
