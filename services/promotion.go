package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"github.com/jackc/pgx/v5"
)

// DiscountFor computes the discount a promotion yields on a subtotal, or 0
// when the promotion does not apply (outside validity window, usage limit
// reached, subtotal below minimum). Percentage discounts round half-up,
// fixed discounts never exceed the subtotal.
func DiscountFor(p *models.Promotion, subtotal int64, now time.Time) int64 {
	if p == nil {
		return 0
	}
	if now.Before(p.ValidFrom) || now.After(p.ValidUntil) {
		return 0
	}
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return 0
	}
	if subtotal < p.MinOrderAmount {
		return 0
	}
	switch p.DiscountType {
	case models.DiscountTypePercentage:
		return (subtotal*p.Value + 50) / 100
	case models.DiscountTypeFixed:
		if p.Value > subtotal {
			return subtotal
		}
		return p.Value
	}
	return 0
}

// GetPromotionByCode loads a promotion by code, case-insensitively.
// Returns nil when no such code exists.
func GetPromotionByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var p models.Promotion
	err := db.Pool.QueryRow(ctx, `
		SELECT id, code, discount_type, value, min_order_amount,
		       valid_from, valid_until, usage_limit, used_count
		FROM promotions WHERE lower(code) = lower($1)`,
		strings.TrimSpace(code),
	).Scan(&p.ID, &p.Code, &p.DiscountType, &p.Value, &p.MinOrderAmount,
		&p.ValidFrom, &p.ValidUntil, &p.UsageLimit, &p.UsedCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ResolvePromo maps a promo code to (discount, promotion id) for an order
// subtotal. An unknown, expired, exhausted or below-minimum code yields a
// zero discount and no error: order creation proceeds at full price.
func ResolvePromo(ctx context.Context, code string, subtotal int64, now time.Time) (int64, int64, error) {
	if strings.TrimSpace(code) == "" {
		return 0, 0, nil
	}
	p, err := GetPromotionByCode(ctx, code)
	if err != nil {
		return 0, 0, err
	}
	discount := DiscountFor(p, subtotal, now)
	if discount == 0 {
		return 0, 0, nil
	}
	return discount, p.ID, nil
}

// consumePromoUsage increments used_count inside the order-creation
// transaction, guarded so a concurrent order cannot push usage past the
// limit. Returns false when the limit was hit between resolve and commit,
// in which case the order keeps its price but the discount is dropped.
func consumePromoUsage(ctx context.Context, tx pgx.Tx, promoID int64) (bool, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		UPDATE promotions SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit <= 0 OR used_count < usage_limit)
		RETURNING id`,
		promoID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
