// Package api defines the typed request/response contracts that the HTTP
// surface exchanges with the engines, validated before anything reaches
// the services package. Routing and transport live with the deployment,
// not here.
package api

import (
	"strings"
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"github.com/BBKML/BaibebaloProjets-sub007/services"
)

type OrderItemRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

type CreateOrderRequest struct {
	ClientID      int64              `json:"client_id"`
	RestaurantID  int64              `json:"restaurant_id"`
	Address       string             `json:"address"`
	Lat           float64            `json:"lat"`
	Lon           float64            `json:"lon"`
	PaymentMethod string             `json:"payment_method"`
	PromoCode     string             `json:"promo_code,omitempty"`
	Items         []OrderItemRequest `json:"items"`
}

func (r *CreateOrderRequest) Validate() error {
	if r.ClientID <= 0 {
		return services.ErrValidationField("client_id")
	}
	if r.RestaurantID <= 0 {
		return services.ErrValidationField("restaurant_id")
	}
	if strings.TrimSpace(r.Address) == "" {
		return services.ErrValidationField("address")
	}
	if len(r.Items) == 0 {
		return services.ErrValidationField("items")
	}
	for _, it := range r.Items {
		if it.MenuItemID <= 0 || it.Quantity <= 0 {
			return services.ErrValidationField("items")
		}
	}
	if r.PaymentMethod == "" {
		return services.ErrValidationField("payment_method")
	}
	return nil
}

func (r *CreateOrderRequest) ToInput() models.CreateOrderInput {
	items := make([]models.OrderItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = models.OrderItemInput{MenuItemID: it.MenuItemID, Quantity: it.Quantity}
	}
	return models.CreateOrderInput{
		ClientID:      r.ClientID,
		RestaurantID:  r.RestaurantID,
		Address:       strings.TrimSpace(r.Address),
		Lat:           r.Lat,
		Lon:           r.Lon,
		PaymentMethod: r.PaymentMethod,
		PromoCode:     strings.TrimSpace(r.PromoCode),
		Items:         items,
	}
}

// TransitionRequest covers every per-actor order transition endpoint; the
// route decides which operation runs, the body carries the actor and any
// transition-specific field.
type TransitionRequest struct {
	ActorRole   string `json:"actor_role"`
	ActorID     int64  `json:"actor_id"`
	PrepMinutes *int   `json:"prep_minutes,omitempty"` // accept
	Reason      string `json:"reason,omitempty"`       // reject / cancel
	DriverID    int64  `json:"driver_id,omitempty"`    // reassign
}

func (r *TransitionRequest) Validate() error {
	switch r.ActorRole {
	case services.ActorClient, services.ActorRestaurant, services.ActorDriver, services.ActorAdmin:
	default:
		return services.ErrValidationField("actor_role")
	}
	if r.ActorID <= 0 {
		return services.ErrValidationField("actor_id")
	}
	return nil
}

func (r *TransitionRequest) Actor() services.Actor {
	return services.Actor{Role: r.ActorRole, ID: r.ActorID}
}

type OrderResponse struct {
	ID                int64             `json:"id"`
	Status            string            `json:"status"`
	ClientID          int64             `json:"client_id"`
	RestaurantID      int64             `json:"restaurant_id"`
	DriverID          *int64            `json:"driver_id,omitempty"`
	Address           string            `json:"address"`
	PaymentMethod     string            `json:"payment_method"`
	PaymentStatus     string            `json:"payment_status"`
	Subtotal          int64             `json:"subtotal"`
	DeliveryFee       int64             `json:"delivery_fee"`
	DeliveryFeeLabel  string            `json:"delivery_fee_label"`
	Discount          int64             `json:"discount"`
	Commission        int64             `json:"commission"`
	CommissionRateBps int64             `json:"commission_rate_bps"`
	Total             int64             `json:"total"`
	DistanceKm        float64           `json:"distance_km"`
	PromoCode         *string           `json:"promo_code,omitempty"`
	Items             []OrderItemDetail `json:"items,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

type OrderItemDetail struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unit_price"`
	Quantity   int    `json:"quantity"`
}

func NewOrderResponse(o *models.Order, items []models.OrderItem) *OrderResponse {
	resp := &OrderResponse{
		ID:                o.ID,
		Status:            o.Status,
		ClientID:          o.ClientID,
		RestaurantID:      o.RestaurantID,
		DriverID:          o.DriverID,
		Address:           o.Address,
		PaymentMethod:     o.PaymentMethod,
		PaymentStatus:     o.PaymentStatus,
		Subtotal:          o.Subtotal,
		DeliveryFee:       o.DeliveryFee,
		DeliveryFeeLabel:  o.DeliveryFeeLabel,
		Discount:          o.Discount,
		Commission:        o.Commission,
		CommissionRateBps: o.CommissionRateBps,
		Total:             o.Total,
		DistanceKm:        o.DistanceKm,
		PromoCode:         o.PromoCode,
		CreatedAt:         o.CreatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, OrderItemDetail{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
		})
	}
	return resp
}

type MarkPaidRequest struct {
	PayoutID       string `json:"payout_id"`
	TransactionRef string `json:"transaction_ref,omitempty"`
	ProofURL       string `json:"proof_url,omitempty"`
}

func (r *MarkPaidRequest) Validate() error {
	if r.PayoutID == "" {
		return services.ErrValidationField("payout_id")
	}
	if r.TransactionRef == "" && r.ProofURL == "" {
		return services.ErrValidationField("transaction_ref or proof_url")
	}
	return nil
}

type PayoutBatchRequest struct {
	PayoutIDs      []string `json:"payout_ids"`
	TransactionRef string   `json:"transaction_ref,omitempty"`
	ProofURL       string   `json:"proof_url,omitempty"`
}

func (r *PayoutBatchRequest) Validate() error {
	if len(r.PayoutIDs) == 0 {
		return services.ErrValidationField("payout_ids")
	}
	if r.TransactionRef == "" && r.ProofURL == "" {
		return services.ErrValidationField("transaction_ref or proof_url")
	}
	return nil
}

type SubmitRemittanceRequest struct {
	DriverID int64   `json:"driver_id"`
	Amount   int64   `json:"amount"`
	Method   string  `json:"method"`
	OrderIDs []int64 `json:"order_ids"`
}

func (r *SubmitRemittanceRequest) Validate() error {
	if r.DriverID <= 0 {
		return services.ErrValidationField("driver_id")
	}
	if r.Amount <= 0 {
		return services.ErrValidationField("amount")
	}
	if len(r.OrderIDs) == 0 {
		return services.ErrValidationField("order_ids")
	}
	return nil
}

type ConfirmRemittanceRequest struct {
	RemittanceID   string `json:"remittance_id"`
	VerifiedAmount *int64 `json:"verified_amount,omitempty"`
}

func (r *ConfirmRemittanceRequest) Validate() error {
	if r.RemittanceID == "" {
		return services.ErrValidationField("remittance_id")
	}
	if r.VerifiedAmount != nil && *r.VerifiedAmount < 0 {
		return services.ErrValidationField("verified_amount")
	}
	return nil
}
