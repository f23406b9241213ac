package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CustomerDetails struct {
	Name  string `json:"customer_name"`
	Phone string `json:"customer_phone"`
}

// Complete reports whether both name and phone are set; whitespace does not count.
func (c CustomerDetails) Complete() bool {
	return strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.Phone) != ""
}

type OrderItem struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

// OrderRequest is the body of POST /orders. Items carry raw id+quantity pairs;
// pricing is computed by the order service.
type OrderRequest struct {
	RestaurantID    string      `json:"restaurant_id" validate:"required"`
	CustomerName    string      `json:"customer_name" validate:"required"`
	CustomerPhone   string      `json:"customer_phone" validate:"required"`
	DineInTime      time.Time   `json:"dine_in_time" validate:"required"`
	Items           []OrderItem `json:"items" validate:"required,min=1,dive"`
	SpecialRequests string      `json:"special_requests"`
}

// OrderConfirmation is the authoritative receipt returned by the order service.
type OrderConfirmation struct {
	OrderID              string          `json:"id"`
	Total                decimal.Decimal `json:"total"`
	EstimatedPrepMinutes int             `json:"estimated_prep_minutes"`
}
