package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"github.com/jackc/pgx/v5"
)

// GetRestaurantByID loads one restaurant.
func GetRestaurantByID(ctx context.Context, id int64) (*models.Restaurant, error) {
	var r models.Restaurant
	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(address,''), lat, lon, commission_rate_bps,
		       COALESCE(chat_id,0), active, created_at
		FROM restaurants WHERE id = $1`, id,
	).Scan(&r.ID, &r.Name, &r.Address, &r.Lat, &r.Lon, &r.CommissionRateBps,
		&r.ChatID, &r.Active, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("restaurant %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetDriverByID loads one driver.
func GetDriverByID(ctx context.Context, id int64) (*models.Driver, error) {
	var d models.Driver
	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(phone,''), COALESCE(mobile_money,''),
		       COALESCE(chat_id,0), active, created_at
		FROM drivers WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Phone, &d.MobileMoney, &d.ChatID, &d.Active, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("driver %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetClientByID loads one client.
func GetClientByID(ctx context.Context, id int64) (*models.Client, error) {
	var c models.Client
	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(phone,''), COALESCE(chat_id,0), created_at
		FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.ChatID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
