package services

import (
	"context"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
)

// GetDailyStats aggregates one day of orders. Revenue columns count
// delivered orders only; the order and cancel counters cover everything
// created that day. date is "YYYY-MM-DD".
func GetDailyStats(ctx context.Context, date string) (*models.DailyStats, error) {
	s := models.DailyStats{Date: date}
	err := db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COUNT(*) FILTER (WHERE status = 'delivered')::int,
			COUNT(*) FILTER (WHERE status = 'cancelled')::int,
			COALESCE(SUM(subtotal) FILTER (WHERE status = 'delivered'), 0),
			COALESCE(SUM(delivery_fee) FILTER (WHERE status = 'delivered'), 0),
			COALESCE(SUM(commission) FILTER (WHERE status = 'delivered'), 0),
			COALESCE(SUM(discount) FILTER (WHERE status = 'delivered'), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'delivered'), 0)
		FROM orders
		WHERE created_at::date = $1::date`,
		date,
	).Scan(&s.OrdersCount, &s.DeliveredCount, &s.CancelledCount,
		&s.SubtotalRevenue, &s.DeliveryRevenue, &s.CommissionRevenue,
		&s.DiscountTotal, &s.GrandRevenue)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
