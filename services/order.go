package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"github.com/jackc/pgx/v5"
)

const (
	OrderStatusNew        = "new"
	OrderStatusAccepted   = "accepted"
	OrderStatusPreparing  = "preparing"
	OrderStatusReady      = "ready"
	OrderStatusPickedUp   = "picked_up"
	OrderStatusDelivering = "delivering"
	OrderStatusDelivered  = "delivered"
	OrderStatusRejected   = "rejected"
	OrderStatusCancelled  = "cancelled"
)

const (
	ActorClient     = "client"
	ActorRestaurant = "restaurant"
	ActorDriver     = "driver"
	ActorAdmin      = "admin"
)

const (
	PaymentMethodCash    = "cash"
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Actor identifies who is attempting a transition.
type Actor struct {
	Role string
	ID   int64
}

// transitionRoles is the legality table of the order state machine: which
// actor roles may move an order from one status to another. Admin
// cancellation of any non-terminal status is handled in CancelOrder on top
// of this table. Terminal statuses have no outgoing edges.
var transitionRoles = map[string]map[string][]string{
	OrderStatusNew: {
		OrderStatusAccepted:  {ActorRestaurant},
		OrderStatusRejected:  {ActorRestaurant},
		OrderStatusCancelled: {ActorClient, ActorAdmin},
	},
	OrderStatusAccepted: {
		OrderStatusPreparing: {ActorRestaurant},
		OrderStatusCancelled: {ActorClient, ActorAdmin},
	},
	OrderStatusPreparing: {
		OrderStatusReady:     {ActorRestaurant},
		OrderStatusCancelled: {ActorAdmin},
	},
	OrderStatusReady: {
		OrderStatusPickedUp:  {ActorDriver},
		OrderStatusCancelled: {ActorAdmin},
	},
	OrderStatusPickedUp: {
		OrderStatusDelivering: {ActorDriver},
		OrderStatusCancelled:  {ActorAdmin},
	},
	OrderStatusDelivering: {
		OrderStatusDelivered: {ActorDriver},
		OrderStatusCancelled: {ActorAdmin},
	},
}

// IsTerminalStatus reports whether no transition exists out of the status.
func IsTerminalStatus(status string) bool {
	switch status {
	case OrderStatusDelivered, OrderStatusRejected, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidTransition reports whether role may move an order from one status to
// another.
func ValidTransition(from, to, role string) bool {
	targets, ok := transitionRoles[from]
	if !ok {
		return false
	}
	roles, ok := targets[to]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

const orderColumns = `id, client_id, restaurant_id, driver_id, status, payment_method, payment_status,
	delivery_address, delivery_lat, delivery_lon,
	subtotal, delivery_fee, delivery_fee_label, discount, commission, commission_rate_bps, total,
	distance_km, promo_code, driver_earning, cash_settled, prep_minutes,
	cancellation_reason, reject_reason,
	created_at, accepted_at, preparing_at, ready_at, picked_up_at, delivering_at, delivered_at, cancelled_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.ClientID, &o.RestaurantID, &o.DriverID, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.Address, &o.Lat, &o.Lon,
		&o.Subtotal, &o.DeliveryFee, &o.DeliveryFeeLabel, &o.Discount, &o.Commission, &o.CommissionRateBps, &o.Total,
		&o.DistanceKm, &o.PromoCode, &o.DriverEarning, &o.CashSettled, &o.PrepMinutes,
		&o.CancellationReason, &o.RejectReason,
		&o.CreatedAt, &o.AcceptedAt, &o.PreparingAt, &o.ReadyAt, &o.PickedUpAt, &o.DeliveringAt, &o.DeliveredAt, &o.CancelledAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrderByID loads an order. Returns ErrNotFound if it does not exist.
func GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	o, err := scanOrder(db.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return o, nil
}

// GetOrderItems returns the immutable price/quantity snapshot of an order.
func GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, unit_price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateOrder validates the request, prices it and persists the order with
// its item snapshot in one transaction. Only cash is accepted as payment
// method; anything else is rejected before pricing or persistence runs.
func CreateOrder(ctx context.Context, input models.CreateOrderInput) (*models.Order, error) {
	if input.PaymentMethod != PaymentMethodCash {
		return nil, ErrPaymentMethodDisabled
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, validationf("delivery address is required")
	}
	if len(input.Items) == 0 {
		return nil, validationf("order must contain at least one item")
	}
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, validationf("item %d: quantity must be positive", it.MenuItemID)
		}
	}

	restaurant, err := GetRestaurantByID(ctx, input.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.Active {
		return nil, validationf("restaurant %d not available", input.RestaurantID)
	}

	items, err := snapshotItems(ctx, restaurant.ID, input.Items)
	if err != nil {
		return nil, err
	}

	distanceKm := distanceEstimator.EstimateKm(restaurant.Lat, restaurant.Lon, input.Lat, input.Lon)

	subtotal := Subtotal(items)
	discount, promoID, err := ResolvePromo(ctx, input.PromoCode, subtotal, nowFunc())
	if err != nil {
		return nil, err
	}
	quote := BuildQuote(items, restaurant.CommissionRateBps, distanceKm, discount)

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if promoID != 0 {
		ok, err := consumePromoUsage(ctx, tx, promoID)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Limit exhausted between resolve and commit: the order still
			// goes through, at full price.
			quote = BuildQuote(items, restaurant.CommissionRateBps, distanceKm, 0)
			promoID = 0
		}
	}

	var promoCode *string
	if promoID != 0 {
		code := strings.ToLower(strings.TrimSpace(input.PromoCode))
		promoCode = &code
	}

	o, err := scanOrder(tx.QueryRow(ctx, `
		INSERT INTO orders (
			client_id, restaurant_id, status, payment_method, payment_status,
			subtotal, delivery_fee, delivery_fee_label, discount, commission, commission_rate_bps, total,
			distance_km, promo_code, delivery_address, delivery_lat, delivery_lon
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+orderColumns,
		input.ClientID, restaurant.ID, OrderStatusNew, PaymentMethodCash, PaymentStatusPending,
		quote.Subtotal, quote.DeliveryFee, quote.DeliveryFeeLabel, quote.Discount, quote.Commission, quote.CommissionRateBps, quote.Total,
		distanceKm, promoCode, strings.TrimSpace(input.Address), input.Lat, input.Lon,
	))
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID, it.MenuItemID, it.Name, it.UnitPrice, it.Quantity,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := recordTransition(ctx, tx, o.ID, "", OrderStatusNew, Actor{Role: ActorClient, ID: input.ClientID}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	notifyOrderStatus(o, OrderStatusNew)
	return o, nil
}

// snapshotItems loads current menu prices for the requested items and
// freezes them into the order. Items must belong to the order's restaurant.
func snapshotItems(ctx context.Context, restaurantID int64, inputs []models.OrderItemInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		mi, err := GetMenuItem(ctx, in.MenuItemID)
		if err != nil {
			return nil, err
		}
		if mi == nil || mi.RestaurantID != restaurantID {
			return nil, validationf("item %d: not on this restaurant's menu", in.MenuItemID)
		}
		if !mi.Available {
			return nil, validationf("item %d: currently unavailable", in.MenuItemID)
		}
		items = append(items, models.OrderItem{
			MenuItemID: mi.ID,
			Name:       mi.Name,
			UnitPrice:  mi.Price,
			Quantity:   in.Quantity,
		})
	}
	return items, nil
}

// recordTransition appends one row to the order's status history.
func recordTransition(ctx context.Context, tx pgx.Tx, orderID int64, from, to string, actor Actor) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, actor_role, actor_id)
		VALUES ($1, $2, $3, $4, $5)`,
		orderID, from, to, actor.Role, actor.ID,
	)
	return err
}

// classifyTransitionFailure turns a zero-row conditional update into the
// right error class: missing order, out-of-scope actor, or state conflict.
func classifyTransitionFailure(ctx context.Context, tx pgx.Tx, orderID int64, expectedFrom string, actor Actor) error {
	var status string
	var restaurantID int64
	var driverID *int64
	err := tx.QueryRow(ctx, `SELECT status, restaurant_id, driver_id FROM orders WHERE id = $1`, orderID).
		Scan(&status, &restaurantID, &driverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return err
	}
	switch actor.Role {
	case ActorRestaurant:
		if restaurantID != actor.ID {
			return fmt.Errorf("%w: order belongs to another restaurant", ErrUnauthorized)
		}
	case ActorDriver:
		if driverID == nil || *driverID != actor.ID {
			return fmt.Errorf("%w: order is not assigned to you", ErrUnauthorized)
		}
	}
	return stateConflictf("order %d is %q, expected %q", orderID, status, expectedFrom)
}

// AcceptOrder moves new -> accepted for the restaurant, recording the
// preparation estimate it supplied.
func AcceptOrder(ctx context.Context, orderID, restaurantID int64, prepMinutes int) (*models.Order, error) {
	if prepMinutes < 0 {
		return nil, validationf("preparation estimate cannot be negative")
	}
	actor := Actor{Role: ActorRestaurant, ID: restaurantID}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, prep_minutes = $2, accepted_at = now(), updated_at = now()
		WHERE id = $3 AND restaurant_id = $4 AND status = $5
		RETURNING `+orderColumns,
		OrderStatusAccepted, prepMinutes, orderID, restaurantID, OrderStatusNew,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, classifyTransitionFailure(ctx, tx, orderID, OrderStatusNew, actor)
		}
		return nil, err
	}
	if err := recordTransition(ctx, tx, orderID, OrderStatusNew, OrderStatusAccepted, actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	notifyOrderStatus(o, OrderStatusAccepted)
	return o, nil
}

// RejectOrder moves new -> rejected for the restaurant.
func RejectOrder(ctx context.Context, orderID, restaurantID int64, reason string) (*models.Order, error) {
	actor := Actor{Role: ActorRestaurant, ID: restaurantID}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, reject_reason = NULLIF(TRIM($2), ''), updated_at = now()
		WHERE id = $3 AND restaurant_id = $4 AND status = $5
		RETURNING `+orderColumns,
		OrderStatusRejected, reason, orderID, restaurantID, OrderStatusNew,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, classifyTransitionFailure(ctx, tx, orderID, OrderStatusNew, actor)
		}
		return nil, err
	}
	if err := recordTransition(ctx, tx, orderID, OrderStatusNew, OrderStatusRejected, actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	notifyOrderStatus(o, OrderStatusRejected)
	return o, nil
}

// restaurantStep handles the linear restaurant transitions
// accepted -> preparing and preparing -> ready.
func restaurantStep(ctx context.Context, orderID, restaurantID int64, from, to, timestampCol string) (*models.Order, error) {
	actor := Actor{Role: ActorRestaurant, ID: restaurantID}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, `+timestampCol+` = now(), updated_at = now()
		WHERE id = $2 AND restaurant_id = $3 AND status = $4
		RETURNING `+orderColumns,
		to, orderID, restaurantID, from,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, classifyTransitionFailure(ctx, tx, orderID, from, actor)
		}
		return nil, err
	}
	if err := recordTransition(ctx, tx, orderID, from, to, actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	notifyOrderStatus(o, to)
	return o, nil
}

func StartPreparing(ctx context.Context, orderID, restaurantID int64) (*models.Order, error) {
	return restaurantStep(ctx, orderID, restaurantID, OrderStatusAccepted, OrderStatusPreparing, "preparing_at")
}

func MarkReady(ctx context.Context, orderID, restaurantID int64) (*models.Order, error) {
	return restaurantStep(ctx, orderID, restaurantID, OrderStatusPreparing, OrderStatusReady, "ready_at")
}

// ClaimOrder assigns a driver to a ready, unassigned order. The conditional
// update on driver_id IS NULL makes concurrent claims resolve to exactly one
// winner; the loser gets a state-conflict error.
func ClaimOrder(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	o, err := scanOrder(db.Pool.QueryRow(ctx, `
		UPDATE orders SET driver_id = $1, updated_at = now()
		WHERE id = $2 AND status = $3 AND driver_id IS NULL
		RETURNING `+orderColumns,
		driverID, orderID, OrderStatusReady,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var existing *int64
			checkErr := db.Pool.QueryRow(ctx, `SELECT driver_id FROM orders WHERE id = $1`, orderID).Scan(&existing)
			if checkErr != nil {
				if errors.Is(checkErr, pgx.ErrNoRows) {
					return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
				}
				return nil, checkErr
			}
			if existing != nil {
				return nil, stateConflictf("order %d already has a driver", orderID)
			}
			return nil, stateConflictf("order %d is not ready for pickup", orderID)
		}
		return nil, err
	}
	notifyDriverAssigned(o)
	return o, nil
}

// ReassignDriver replaces (or sets) the order's driver. Admin only; this is
// an override outside the status graph, the status itself does not move.
func ReassignDriver(ctx context.Context, orderID, newDriverID, adminID int64) (*models.Order, error) {
	d, err := GetDriverByID(ctx, newDriverID)
	if err != nil {
		return nil, err
	}
	if !d.Active {
		return nil, validationf("driver %d not available", newDriverID)
	}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET driver_id = $1, updated_at = now()
		WHERE id = $2 AND status NOT IN ($3, $4, $5)
		RETURNING `+orderColumns,
		newDriverID, orderID, OrderStatusDelivered, OrderStatusRejected, OrderStatusCancelled,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var status string
			checkErr := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
			if checkErr != nil {
				if errors.Is(checkErr, pgx.ErrNoRows) {
					return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
				}
				return nil, checkErr
			}
			return nil, stateConflictf("order %d is %s, drivers cannot be reassigned on a closed order", orderID, status)
		}
		return nil, err
	}
	// The status does not move, but the override itself is audited.
	if err := recordTransition(ctx, tx, orderID, o.Status, o.Status, Actor{Role: ActorAdmin, ID: adminID}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	notifyDriverAssigned(o)
	return o, nil
}

// driverStep handles the linear driver transitions ready -> picked_up ->
// delivering. Only the assigned driver may move the order.
func driverStep(ctx context.Context, orderID, driverID int64, from, to, timestampCol string) (*models.Order, error) {
	actor := Actor{Role: ActorDriver, ID: driverID}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, `+timestampCol+` = now(), updated_at = now()
		WHERE id = $2 AND driver_id = $3 AND status = $4
		RETURNING `+orderColumns,
		to, orderID, driverID, from,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, classifyTransitionFailure(ctx, tx, orderID, from, actor)
		}
		return nil, err
	}
	if err := recordTransition(ctx, tx, orderID, from, to, actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	notifyOrderStatus(o, to)
	return o, nil
}

func PickUpOrder(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	return driverStep(ctx, orderID, driverID, OrderStatusReady, OrderStatusPickedUp, "picked_up_at")
}

func StartDelivering(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	return driverStep(ctx, orderID, driverID, OrderStatusPickedUp, OrderStatusDelivering, "delivering_at")
}

// CompleteDelivery moves delivering -> delivered and, in the same committed
// transaction, accrues restaurant and driver balances and registers the
// cash owed for cash orders. Cash payment is considered collected here.
func CompleteDelivery(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	actor := Actor{Role: ActorDriver, ID: driverID}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, payment_status = $2, delivered_at = now(), updated_at = now()
		WHERE id = $3 AND driver_id = $4 AND status = $5
		RETURNING `+orderColumns,
		OrderStatusDelivered, PaymentStatusPaid, orderID, driverID, OrderStatusDelivering,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, classifyTransitionFailure(ctx, tx, orderID, OrderStatusDelivering, actor)
		}
		return nil, err
	}
	if err := recordTransition(ctx, tx, orderID, OrderStatusDelivering, OrderStatusDelivered, actor); err != nil {
		return nil, err
	}
	if err := accrueOrderTx(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	notifyOrderStatus(o, OrderStatusDelivered)
	return o, nil
}

// CancelOrder cancels an order. Clients may cancel only while the order is
// new or accepted; once preparation started the request is refused. Admins
// may cancel any non-terminal order.
func CancelOrder(ctx context.Context, orderID int64, actor Actor, reason string) (*models.Order, error) {
	if actor.Role != ActorClient && actor.Role != ActorAdmin {
		return nil, fmt.Errorf("%w: only the client or an admin can cancel", ErrUnauthorized)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	var clientID int64
	err = tx.QueryRow(ctx, `SELECT status, client_id FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&current, &clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}

	if actor.Role == ActorClient {
		if clientID != actor.ID {
			return nil, fmt.Errorf("%w: order belongs to another client", ErrUnauthorized)
		}
		if current != OrderStatusNew && current != OrderStatusAccepted {
			if IsTerminalStatus(current) {
				return nil, stateConflictf("order %d is already %s", orderID, current)
			}
			return nil, ErrCannotCancel
		}
	} else if IsTerminalStatus(current) {
		return nil, stateConflictf("order %d is already %s", orderID, current)
	}

	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, cancellation_reason = NULLIF(TRIM($2), ''), cancelled_at = now(), updated_at = now()
		WHERE id = $3 AND status = $4
		RETURNING `+orderColumns,
		OrderStatusCancelled, reason, orderID, current,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, stateConflictf("order %d moved while cancelling", orderID)
		}
		return nil, err
	}
	if err := recordTransition(ctx, tx, orderID, current, OrderStatusCancelled, actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	notifyOrderStatus(o, OrderStatusCancelled)
	return o, nil
}
