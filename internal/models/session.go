package models

import "time"

type SelectRestaurantRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"required"`
}

type CartItemRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
}

type UpdateDetailsRequest struct {
	CustomerName    string     `json:"customer_name" validate:"max=120"`
	CustomerPhone   string     `json:"customer_phone" validate:"max=40"`
	DineInTime      *time.Time `json:"dine_in_time,omitempty"`
	SpecialRequests string     `json:"special_requests" validate:"max=500"`
}
