package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/BBKML/BaibebaloProjets-sub007/services"
)

func validCreateOrder() CreateOrderRequest {
	return CreateOrderRequest{
		ClientID:      1,
		RestaurantID:  2,
		Address:       "Rue 12, Cocody",
		PaymentMethod: "cash",
		Items:         []OrderItemRequest{{MenuItemID: 10, Quantity: 2}},
	}
}

func TestCreateOrderRequestValidate(t *testing.T) {
	if err := func() error { r := validCreateOrder(); return r.Validate() }(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(r *CreateOrderRequest)
	}{
		{"missing client", func(r *CreateOrderRequest) { r.ClientID = 0 }},
		{"missing restaurant", func(r *CreateOrderRequest) { r.RestaurantID = 0 }},
		{"blank address", func(r *CreateOrderRequest) { r.Address = "   " }},
		{"no items", func(r *CreateOrderRequest) { r.Items = nil }},
		{"zero quantity", func(r *CreateOrderRequest) { r.Items[0].Quantity = 0 }},
		{"no payment method", func(r *CreateOrderRequest) { r.PaymentMethod = "" }},
	}
	for _, tc := range cases {
		r := validCreateOrder()
		tc.mutate(&r)
		if err := r.Validate(); !errors.Is(err, services.ErrValidation) {
			t.Errorf("%s: err = %v, want validation error", tc.name, err)
		}
	}
}

func TestMarkPaidRequestValidate(t *testing.T) {
	r := MarkPaidRequest{PayoutID: "abc"}
	if err := r.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Errorf("proofless request: err = %v, want validation error", err)
	}
	r.TransactionRef = "OM-1"
	if err := r.Validate(); err != nil {
		t.Errorf("with transaction ref: %v", err)
	}
	r = MarkPaidRequest{PayoutID: "abc", ProofURL: "https://example.test/p.png"}
	if err := r.Validate(); err != nil {
		t.Errorf("with proof url: %v", err)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantClass  string
	}{
		{services.ErrValidationField("address"), http.StatusUnprocessableEntity, "validation"},
		{services.ErrCannotCancel, http.StatusConflict, "state_conflict"},
		{services.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{services.ErrNotFound, http.StatusNotFound, "not_found"},
		{services.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, body := StatusForError(tt.err)
		if status != tt.wantStatus || body.Class != tt.wantClass {
			t.Errorf("StatusForError(%v) = %d/%s, want %d/%s", tt.err, status, body.Class, tt.wantStatus, tt.wantClass)
		}
	}
}
