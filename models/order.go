package models

import "time"

// Order is a row from the orders table. All amounts are integer CFA francs.
type Order struct {
	ID            int64
	ClientID      int64
	RestaurantID  int64
	DriverID      *int64 // nil until a driver takes the order
	Status        string
	PaymentMethod string
	PaymentStatus string

	Address string
	Lat     float64
	Lon     float64

	Subtotal          int64
	DeliveryFee       int64
	DeliveryFeeLabel  string
	Discount          int64
	Commission        int64
	CommissionRateBps int64
	Total             int64

	DistanceKm    float64
	PromoCode     *string
	DriverEarning int64 // set when the order is delivered and accrued
	CashSettled   bool  // cash orders: covered by a confirmed remittance

	PrepMinutes        *int
	CancellationReason *string
	RejectReason       *string

	CreatedAt    time.Time
	AcceptedAt   *time.Time
	PreparingAt  *time.Time
	ReadyAt      *time.Time
	PickedUpAt   *time.Time
	DeliveringAt *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
}

// OrderItem is a price/quantity snapshot taken at order time; later menu
// price changes never affect it.
type OrderItem struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	Name       string
	UnitPrice  int64
	Quantity   int
}

type OrderItemInput struct {
	MenuItemID int64
	Quantity   int
}

type CreateOrderInput struct {
	ClientID      int64
	RestaurantID  int64
	Address       string
	Lat           float64
	Lon           float64
	PaymentMethod string
	PromoCode     string
	Items         []OrderItemInput
}

type DailyStats struct {
	Date              string
	OrdersCount       int
	DeliveredCount    int
	CancelledCount    int
	SubtotalRevenue   int64
	DeliveryRevenue   int64
	CommissionRevenue int64
	DiscountTotal     int64
	GrandRevenue      int64
}
