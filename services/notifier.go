package services

import (
	"context"
	"fmt"
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/logger"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"go.uber.org/zap"
)

// Notifier delivers a short text to one of the marketplace actors. The
// engines only know this interface; the Telegram implementation lives in
// the notify package and tests use a recording fake.
type Notifier interface {
	NotifyClient(ctx context.Context, clientID int64, text string) error
	NotifyRestaurant(ctx context.Context, restaurantID int64, text string) error
	NotifyDriver(ctx context.Context, driverID int64, text string) error
}

var notifier Notifier

// SetNotifier installs the outbound notifier. nil disables sends.
func SetNotifier(n Notifier) {
	notifier = n
}

// OrderStatusMessage is the client-facing text for an order status.
func OrderStatusMessage(o *models.Order, status string) string {
	switch status {
	case OrderStatusNew:
		return fmt.Sprintf("Commande #%d reçue. Total: %d FCFA.", o.ID, o.Total)
	case OrderStatusAccepted:
		if o.PrepMinutes != nil {
			return fmt.Sprintf("Commande #%d acceptée. Préparation estimée: %d min.", o.ID, *o.PrepMinutes)
		}
		return fmt.Sprintf("Commande #%d acceptée.", o.ID)
	case OrderStatusPreparing:
		return fmt.Sprintf("Commande #%d en préparation.", o.ID)
	case OrderStatusReady:
		return fmt.Sprintf("Commande #%d prête, en attente d'un livreur.", o.ID)
	case OrderStatusPickedUp:
		return fmt.Sprintf("Commande #%d récupérée par le livreur.", o.ID)
	case OrderStatusDelivering:
		return fmt.Sprintf("Commande #%d en cours de livraison.", o.ID)
	case OrderStatusDelivered:
		return fmt.Sprintf("Commande #%d livrée. Total: %d FCFA. Merci !", o.ID, o.Total)
	case OrderStatusRejected:
		return fmt.Sprintf("Commande #%d refusée par le restaurant.", o.ID)
	case OrderStatusCancelled:
		return fmt.Sprintf("Commande #%d annulée.", o.ID)
	}
	return fmt.Sprintf("Commande #%d: %s", o.ID, status)
}

// notifyOrderStatus fires exactly one notification for a transition: the
// restaurant learns about new orders and cancellations, the client about
// everything else. The send runs detached from the owning transaction; a
// notifier failure is logged and never rolls anything back.
func notifyOrderStatus(o *models.Order, status string) {
	if notifier == nil {
		return
	}
	order := *o
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sent, err := SentOrderNotifyWithin30s(ctx, order.ID, status)
		if err == nil && sent {
			return
		}

		text := OrderStatusMessage(&order, status)
		switch status {
		case OrderStatusNew, OrderStatusCancelled:
			err = notifier.NotifyRestaurant(ctx, order.RestaurantID, text)
		default:
			err = notifier.NotifyClient(ctx, order.ClientID, text)
		}
		if err != nil {
			logger.L().Warn("order notification failed",
				zap.Int64("order_id", order.ID),
				zap.String("status", status),
				zap.Error(err))
			return
		}
		if logErr := SaveOutboundNotification(ctx, order.ID, status, text); logErr != nil {
			logger.L().Warn("record outbound notification", zap.Int64("order_id", order.ID), zap.Error(logErr))
		}
	}()
}

// notifyDriverAssigned tells the (re)assigned driver about their order.
func notifyDriverAssigned(o *models.Order) {
	if notifier == nil || o.DriverID == nil {
		return
	}
	order := *o
	driverID := *o.DriverID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		text := fmt.Sprintf("Commande #%d vous est attribuée. Livraison: %d FCFA.", order.ID, order.DeliveryFee)
		if err := notifier.NotifyDriver(ctx, driverID, text); err != nil {
			logger.L().Warn("driver notification failed",
				zap.Int64("order_id", order.ID),
				zap.Int64("driver_id", driverID),
				zap.Error(err))
		}
	}()
}
