package services

import (
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/config"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
)

var pricingCfg = config.DefaultPricing()

// SetPricingConfig installs the platform pricing tunables. Called once at
// startup, before any order is priced.
func SetPricingConfig(c config.PricingConfig) {
	pricingCfg = c
}

// Quote holds every computed amount for an order. Invariant:
// Total == Subtotal - Discount + DeliveryFee, never negative.
type Quote struct {
	Subtotal          int64
	DeliveryFee       int64
	DeliveryFeeLabel  string
	Discount          int64
	Commission        int64
	CommissionRateBps int64
	Total             int64
}

// roundBps multiplies an amount by a basis-point rate with half-up rounding.
// Integer arithmetic only; currency never goes through floats.
func roundBps(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}

func Subtotal(items []models.OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitPrice * int64(it.Quantity)
	}
	return sum
}

// CommissionFor is the platform's cut of the subtotal, charged to the
// restaurant. commission == round(subtotal * rate).
func CommissionFor(subtotal, rateBps int64) int64 {
	return roundBps(subtotal, rateBps)
}

// ClampCommissionRate forces a restaurant's negotiated rate into the
// platform's configured bounds.
func ClampCommissionRate(rateBps int64) int64 {
	if rateBps < pricingCfg.MinCommissionBps {
		return pricingCfg.MinCommissionBps
	}
	if rateBps > pricingCfg.MaxCommissionBps {
		return pricingCfg.MaxCommissionBps
	}
	return rateBps
}

// DeliveryFeeFor resolves the distance-tiered delivery fee and its
// customer-facing label.
func DeliveryFeeFor(distanceKm float64) (int64, string) {
	tiers := pricingCfg.FeeTiers
	if len(tiers) == 0 {
		return 0, ""
	}
	for i, t := range tiers {
		if i == len(tiers)-1 {
			break // last tier catches everything beyond the previous bound
		}
		if distanceKm <= t.UpToKm {
			return t.Fee, t.Label
		}
	}
	last := tiers[len(tiers)-1]
	return last.Fee, last.Label
}

// DriverShareFor is the driver's cut of the delivery fee.
func DriverShareFor(deliveryFee int64) int64 {
	return roundBps(deliveryFee, pricingCfg.DriverShareBps)
}

// DistanceBonusFor returns the highest configured bonus whose distance
// threshold the order reaches. Zero when no tier matches.
func DistanceBonusFor(distanceKm float64) int64 {
	var bonus int64
	for _, t := range pricingCfg.DistanceBonuses {
		if distanceKm >= t.FromKm && t.Bonus > bonus {
			bonus = t.Bonus
		}
	}
	return bonus
}

// PeakHourBonusFor returns the peak-hour bonus when deliveredAt falls inside
// a configured window.
func PeakHourBonusFor(deliveredAt time.Time) int64 {
	if pricingCfg.PeakBonus <= 0 {
		return 0
	}
	m := deliveredAt.Hour()*60 + deliveredAt.Minute()
	for _, w := range pricingCfg.PeakWindows {
		if m >= w.StartMin && m <= w.EndMin {
			return pricingCfg.PeakBonus
		}
	}
	return 0
}

// DriverEarningFor is the driver's total earning on a delivered order:
// base share of the delivery fee plus non-negative bonuses. Bonuses are
// additive and never reduce the base share.
func DriverEarningFor(deliveryFee int64, distanceKm float64, deliveredAt time.Time) int64 {
	earning := DriverShareFor(deliveryFee)
	if b := DistanceBonusFor(distanceKm); b > 0 {
		earning += b
	}
	if b := PeakHourBonusFor(deliveredAt); b > 0 {
		earning += b
	}
	return earning
}

// BuildQuote assembles all amounts for an order. discount is already
// resolved (zero when no valid promo applies) and is capped at the subtotal.
func BuildQuote(items []models.OrderItem, rateBps int64, distanceKm float64, discount int64) Quote {
	subtotal := Subtotal(items)
	fee, label := DeliveryFeeFor(distanceKm)
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	rateBps = ClampCommissionRate(rateBps)
	total := subtotal - discount + fee
	if total < 0 {
		total = 0
	}
	return Quote{
		Subtotal:          subtotal,
		DeliveryFee:       fee,
		DeliveryFeeLabel:  label,
		Discount:          discount,
		Commission:        CommissionFor(subtotal, rateBps),
		CommissionRateBps: rateBps,
		Total:             total,
	}
}
