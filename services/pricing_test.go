package services

import (
	"testing"
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/config"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
)

func items(prices ...int64) []models.OrderItem {
	out := make([]models.OrderItem, len(prices))
	for i, p := range prices {
		out[i] = models.OrderItem{MenuItemID: int64(i + 1), Name: "item", UnitPrice: p, Quantity: 1}
	}
	return out
}

func TestCommissionFor(t *testing.T) {
	tests := []struct {
		subtotal int64
		rateBps  int64
		want     int64
	}{
		{5500, 1500, 825},  // 15% of 5500
		{5500, 2000, 1100}, // 20%
		{0, 1500, 0},
		{1, 1500, 0},    // 0.15 rounds down
		{4, 1500, 1},    // 0.6 rounds up
		{333, 1500, 50}, // 49.95 -> 50
	}
	for _, tt := range tests {
		got := CommissionFor(tt.subtotal, tt.rateBps)
		if got != tt.want {
			t.Errorf("CommissionFor(%d, %d) = %d, want %d", tt.subtotal, tt.rateBps, got, tt.want)
		}
	}
}

func TestClampCommissionRate(t *testing.T) {
	tests := []struct {
		in, want int64
	}{
		{1000, 1500},
		{1500, 1500},
		{1750, 1750},
		{2000, 2000},
		{2500, 2000},
	}
	for _, tt := range tests {
		if got := ClampCommissionRate(tt.in); got != tt.want {
			t.Errorf("ClampCommissionRate(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDeliveryFeeTiers(t *testing.T) {
	tests := []struct {
		km   float64
		want int64
	}{
		{0, 500},
		{2.9, 500},
		{3, 500},
		{3.1, 1000},
		{7, 1000},
		{10, 1500},
		{12, 1500},
		{15, 2500},
		{40, 2500}, // last tier catches everything
	}
	for _, tt := range tests {
		got, label := DeliveryFeeFor(tt.km)
		if got != tt.want {
			t.Errorf("DeliveryFeeFor(%.1f) = %d, want %d", tt.km, got, tt.want)
		}
		if label == "" {
			t.Errorf("DeliveryFeeFor(%.1f): empty label", tt.km)
		}
	}
}

// Scenario: subtotal 5500 at 15% commission, short distance.
func TestQuoteBaseline(t *testing.T) {
	q := BuildQuote(items(5500), 1500, 2.0, 0)
	if q.Subtotal != 5500 {
		t.Fatalf("subtotal = %d, want 5500", q.Subtotal)
	}
	if q.Commission != 825 {
		t.Errorf("commission = %d, want 825", q.Commission)
	}
	if q.DeliveryFee != 500 {
		t.Errorf("delivery fee = %d, want 500", q.DeliveryFee)
	}
	if q.Total != 6000 {
		t.Errorf("total = %d, want 6000", q.Total)
	}
	// Restaurant nets subtotal minus commission.
	if net := q.Subtotal - q.Commission; net != 4675 {
		t.Errorf("restaurant net = %d, want 4675", net)
	}
}

// Scenario: 50% promo on the same order.
func TestQuoteWithPromoDiscount(t *testing.T) {
	discount := DiscountFor(&models.Promotion{
		Code:         "moitie",
		DiscountType: models.DiscountTypePercentage,
		Value:        50,
		ValidFrom:    time.Now().Add(-time.Hour),
		ValidUntil:   time.Now().Add(time.Hour),
	}, 5500, time.Now())
	if discount != 2750 {
		t.Fatalf("discount = %d, want 2750", discount)
	}
	q := BuildQuote(items(5500), 1500, 2.0, discount)
	if q.Total != 3250 {
		t.Errorf("total = %d, want 3250", q.Total)
	}
	// Commission is charged on the full subtotal, not the discounted one.
	if q.Commission != 825 {
		t.Errorf("commission = %d, want 825", q.Commission)
	}
}

func TestDriverShare(t *testing.T) {
	if got := DriverShareFor(2500); got != 1750 {
		t.Errorf("DriverShareFor(2500) = %d, want 1750", got)
	}
	if got := DriverShareFor(500); got != 350 {
		t.Errorf("DriverShareFor(500) = %d, want 350", got)
	}
}

func TestDriverEarningBonuses(t *testing.T) {
	orig := pricingCfg
	defer SetPricingConfig(orig)

	cfg := config.DefaultPricing()
	cfg.DistanceBonuses = []config.BonusTier{{FromKm: 10, Bonus: 300}}
	cfg.PeakBonus = 200
	SetPricingConfig(cfg)

	offPeak := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	peak := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		fee  int64
		km   float64
		at   time.Time
		want int64
	}{
		{"base only", 2500, 5, offPeak, 1750},
		{"distance bonus", 2500, 12, offPeak, 2050},
		{"peak bonus", 2500, 5, peak, 1950},
		{"both bonuses", 2500, 12, peak, 2250},
	}
	for _, tt := range tests {
		if got := DriverEarningFor(tt.fee, tt.km, tt.at); got != tt.want {
			t.Errorf("%s: DriverEarningFor = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestQuoteInvariants(t *testing.T) {
	cases := []struct {
		name     string
		items    []models.OrderItem
		rateBps  int64
		km       float64
		discount int64
	}{
		{"plain", items(5500), 1500, 2, 0},
		{"discounted", items(5500), 1500, 2, 2750},
		{"discount above subtotal", items(1000), 1500, 2, 5000},
		{"negative discount", items(1000), 1500, 2, -100},
		{"far away", items(2000, 3000), 2000, 25, 0},
		{"empty order", nil, 1500, 1, 0},
	}
	for _, tc := range cases {
		q := BuildQuote(tc.items, tc.rateBps, tc.km, tc.discount)
		if q.Total != q.Subtotal-q.Discount+q.DeliveryFee {
			t.Errorf("%s: total %d != subtotal %d - discount %d + fee %d",
				tc.name, q.Total, q.Subtotal, q.Discount, q.DeliveryFee)
		}
		if q.Discount < 0 || q.Discount > q.Subtotal {
			t.Errorf("%s: discount %d outside [0, %d]", tc.name, q.Discount, q.Subtotal)
		}
		if q.CommissionRateBps < 1500 || q.CommissionRateBps > 2000 {
			t.Errorf("%s: rate %d outside configured bounds", tc.name, q.CommissionRateBps)
		}
		if q.Total < 0 {
			t.Errorf("%s: negative total %d", tc.name, q.Total)
		}
	}
}
