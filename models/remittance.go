package models

import "time"

const (
	RemittanceStatusPending   = "pending"
	RemittanceStatusCompleted = "completed"
	RemittanceStatusRejected  = "rejected"

	RemittanceMethodAgency             = "agency"
	RemittanceMethodBankDeposit        = "bank_deposit"
	RemittanceMethodMobileMoneyDeposit = "mobile_money_deposit"
)

// CashRemittance is a driver's declaration of returning client-paid cash
// for a set of delivered cash orders.
type CashRemittance struct {
	ID             string // uuid
	DriverID       int64
	DeclaredAmount int64
	Method         string
	Reference      *string // deposit slip / transfer reference, when given
	Status         string
	VerifiedAmount *int64 // admin override when cash handed over differs
	RejectReason   *string
	OrderIDs       []int64
	CreatedAt      time.Time
	ResolvedAt     *time.Time
	ResolvedBy     *int64
}

// CashOwed summarizes what a driver currently holds for the platform:
// cash collected on delivered, unsettled orders minus their own earnings.
type CashOwed struct {
	DriverID int64
	Amount   int64
	OrderIDs []int64
}
