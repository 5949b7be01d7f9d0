package services

import (
	"context"
	"testing"
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
)

func TestDiscountFor(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	valid := models.Promotion{
		Code:         "promo50",
		DiscountType: models.DiscountTypePercentage,
		Value:        50,
		ValidFrom:    now.Add(-24 * time.Hour),
		ValidUntil:   now.Add(24 * time.Hour),
	}

	tests := []struct {
		name     string
		mutate   func(p *models.Promotion)
		subtotal int64
		want     int64
	}{
		{"fifty percent", nil, 5500, 2750},
		{"rounds half up", nil, 101, 51}, // 50.5 -> 51
		{"nil promotion", nil, 0, 0},
		{"expired", func(p *models.Promotion) { p.ValidUntil = now.Add(-time.Hour) }, 5500, 0},
		{"not started", func(p *models.Promotion) { p.ValidFrom = now.Add(time.Hour) }, 5500, 0},
		{"limit reached", func(p *models.Promotion) { p.UsageLimit = 10; p.UsedCount = 10 }, 5500, 0},
		{"limit remaining", func(p *models.Promotion) { p.UsageLimit = 10; p.UsedCount = 9 }, 5500, 2750},
		{"below minimum", func(p *models.Promotion) { p.MinOrderAmount = 6000 }, 5500, 0},
		{"at minimum", func(p *models.Promotion) { p.MinOrderAmount = 5500 }, 5500, 2750},
		{"fixed amount", func(p *models.Promotion) {
			p.DiscountType = models.DiscountTypeFixed
			p.Value = 1000
		}, 5500, 1000},
		{"fixed capped at subtotal", func(p *models.Promotion) {
			p.DiscountType = models.DiscountTypeFixed
			p.Value = 9000
		}, 5500, 5500},
	}
	for _, tt := range tests {
		p := valid
		if tt.mutate != nil {
			tt.mutate(&p)
		}
		var arg *models.Promotion
		if tt.name != "nil promotion" {
			arg = &p
		}
		if got := DiscountFor(arg, tt.subtotal, now); got != tt.want {
			t.Errorf("%s: DiscountFor = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestGetPromotionByCodeCaseInsensitive_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping promotion integration test in short mode")
	}
	if db.Pool == nil {
		t.Skip("skipping promotion integration test: no DB pool")
	}
	ctx := context.Background()

	if _, err := db.Pool.Exec(ctx, `DELETE FROM promotions WHERE lower(code) = 'casetest50'`); err != nil {
		t.Fatalf("clean promotion: %v", err)
	}

	// Seed with an uppercase code; every casing of the lookup must find it.
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO promotions (code, discount_type, value, valid_from, valid_until)
		VALUES ('CASETEST50', 'percentage', 50, now() - interval '1 day', now() + interval '1 day')`)
	if err != nil {
		t.Fatalf("seed promotion: %v", err)
	}
	for _, code := range []string{"CASETEST50", "casetest50", "CaseTest50", "  casetest50  "} {
		p, err := GetPromotionByCode(ctx, code)
		if err != nil {
			t.Fatalf("lookup %q: %v", code, err)
		}
		if p == nil {
			t.Errorf("lookup %q found no promotion", code)
		}
	}

	// The index treats a differently-cased duplicate as the same code.
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO promotions (code, discount_type, value, valid_from, valid_until)
		VALUES ('casetest50', 'percentage', 10, now() - interval '1 day', now() + interval '1 day')`)
	if err == nil {
		t.Error("duplicate code in another casing was accepted")
	}
}
