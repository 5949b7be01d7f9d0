package models

import "time"

const (
	BeneficiaryRestaurant = "restaurant"
	BeneficiaryDriver     = "driver"

	PayoutStatusPending  = "pending"
	PayoutStatusPaid     = "paid"
	PayoutStatusRejected = "rejected"

	PayoutTriggerAuto   = "auto"
	PayoutTriggerManual = "manual"
)

// PayoutRequest is an intent to pay out part of a beneficiary's balance.
// At most one pending request may exist per beneficiary.
type PayoutRequest struct {
	ID              string // uuid
	BeneficiaryType string
	BeneficiaryID   int64
	Amount          int64
	Status          string
	Trigger         string
	Destination     string  // mobile money number for drivers
	TransactionRef  *string // set when marked paid
	ProofURL        *string
	RejectReason    *string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
	ProcessedBy     *int64
}

// BalanceTransaction is one ledger entry. Balances are a cached sum of
// these rows and must always be rebuildable from them.
type BalanceTransaction struct {
	ID              int64
	BeneficiaryType string
	BeneficiaryID   int64
	Kind            string // "order_earning" or "payout"
	OrderID         *int64
	PayoutID        *string
	Amount          int64 // signed; payouts are negative
	CreatedAt       time.Time
}

const (
	TxKindOrderEarning = "order_earning"
	TxKindPayout       = "payout"
)

type Balance struct {
	BeneficiaryType string
	BeneficiaryID   int64
	Amount          int64
	UpdatedAt       time.Time
}
