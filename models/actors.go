package models

import "time"

// Restaurant is a partner restaurant. CommissionRateBps is negotiated per
// restaurant and clamped to the platform's configured bounds at order time.
type Restaurant struct {
	ID                int64
	Name              string
	Address           string
	Lat               float64
	Lon               float64
	CommissionRateBps int64
	ChatID            int64 // Telegram chat for notifications, 0 if not linked
	Active            bool
	CreatedAt         time.Time
}

type Driver struct {
	ID          int64
	Name        string
	Phone       string
	MobileMoney string // payout destination; empty blocks auto payouts
	ChatID      int64
	Active      bool
	CreatedAt   time.Time
}

type Client struct {
	ID        int64
	Name      string
	Phone     string
	ChatID    int64
	CreatedAt time.Time
}
