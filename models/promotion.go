package models

import "time"

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Promotion is a promo code with a validity window and usage limits.
type Promotion struct {
	ID             int64
	Code           string // matched case-insensitively in any stored casing
	DiscountType   string
	Value          int64 // percent for percentage, amount for fixed
	MinOrderAmount int64
	ValidFrom      time.Time
	ValidUntil     time.Time
	UsageLimit     int
	UsedCount      int
}
