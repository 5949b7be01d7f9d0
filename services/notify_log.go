package services

import (
	"context"
	"fmt"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
)

// SaveOutboundNotification persists one outbound notification row, keyed by
// order and status so repeats can be detected.
func SaveOutboundNotification(ctx context.Context, orderID int64, status, content string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO notifications (order_id, status, content)
		VALUES ($1, $2, $3)`,
		orderID, status, content,
	)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// SentOrderNotifyWithin30s reports whether the same order/status pair was
// already notified in the last 30 seconds (de-dup for retried transitions).
func SentOrderNotifyWithin30s(ctx context.Context, orderID int64, status string) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE order_id = $1 AND status = $2
		  AND created_at > now() - interval '30 seconds'`,
		orderID, status,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
