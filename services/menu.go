package services

import (
	"context"
	"errors"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"github.com/jackc/pgx/v5"
)

// ListMenu returns a restaurant's menu, unavailable items included so the
// restaurant can toggle them back.
func ListMenu(ctx context.Context, restaurantID int64) ([]models.MenuItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, restaurant_id, category, name, price, available
		FROM menu_items
		WHERE restaurant_id = $1
		ORDER BY category, id`,
		restaurantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var mi models.MenuItem
		if err := rows.Scan(&mi.ID, &mi.RestaurantID, &mi.Category, &mi.Name, &mi.Price, &mi.Available); err != nil {
			return nil, err
		}
		items = append(items, mi)
	}
	return items, rows.Err()
}

func AddMenuItem(ctx context.Context, restaurantID int64, category, name string, price int64) (int64, error) {
	if category != models.CategoryFood && category != models.CategoryDrink && category != models.CategoryDessert {
		return 0, validationf("invalid category: %s", category)
	}
	if name == "" {
		return 0, validationf("name is required")
	}
	if price < 0 {
		return 0, validationf("price must be >= 0")
	}

	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO menu_items (restaurant_id, category, name, price, available)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id`,
		restaurantID, category, name, price,
	).Scan(&id)
	return id, err
}

// GetMenuItem returns nil (no error) when the item does not exist; callers
// decide whether a missing item is a validation failure.
func GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	var mi models.MenuItem
	err := db.Pool.QueryRow(ctx, `
		SELECT id, restaurant_id, category, name, price, available
		FROM menu_items WHERE id = $1`, id,
	).Scan(&mi.ID, &mi.RestaurantID, &mi.Category, &mi.Name, &mi.Price, &mi.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mi, nil
}

// SetMenuItemAvailable toggles an item without deleting its price history
// from past order snapshots.
func SetMenuItemAvailable(ctx context.Context, restaurantID, itemID int64, available bool) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE menu_items SET available = $3
		WHERE id = $1 AND restaurant_id = $2`,
		itemID, restaurantID, available,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return validationf("item %d: not on restaurant %d's menu", itemID, restaurantID)
	}
	return nil
}

func DeleteMenuItem(ctx context.Context, restaurantID, itemID int64) error {
	_, err := db.Pool.Exec(ctx, `
		DELETE FROM menu_items WHERE id = $1 AND restaurant_id = $2`,
		itemID, restaurantID,
	)
	return err
}
