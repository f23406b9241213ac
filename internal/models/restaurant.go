package models

import "github.com/shopspring/decimal"

type Restaurant struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Cuisine        string `json:"cuisine"`
	Address        string `json:"address"`
	Image          string `json:"image,omitempty"`
	AvgPrepMinutes int    `json:"avg_prep_minutes"`
}

// MenuItem is read-only once fetched from the catalog.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
}

// FindMenuItem returns the item with the given id, or false if the menu does not carry it.
func FindMenuItem(menu []MenuItem, id string) (MenuItem, bool) {
	for _, item := range menu {
		if item.ID == id {
			return item, true
		}
	}

	return MenuItem{}, false
}
