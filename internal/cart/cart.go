// Package cart holds the per-session order composition state: menu item ids
// mapped to requested quantities, plus the priced projection used for display.
package cart

import (
	"slices"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/models"
	"github.com/shopspring/decimal"
)

// UnknownItemName labels a line whose item is missing from the loaded menu.
const UnknownItemName = "Item"

type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Resolved  bool            `json:"resolved"`
}

type Summary struct {
	Lines []LineItem      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Cart is not safe for concurrent use; the owning session serializes access.
// Every stored quantity is >= 1.
type Cart struct {
	quantities map[string]int
	order      []string
}

func New() *Cart {
	return &Cart{quantities: make(map[string]int)}
}

func (c *Cart) Increment(itemID string) {
	if _, ok := c.quantities[itemID]; !ok {
		c.order = append(c.order, itemID)
	}

	c.quantities[itemID]++
}

func (c *Cart) Decrement(itemID string) {
	qty, ok := c.quantities[itemID]
	if !ok {
		return
	}

	if qty <= 1 {
		delete(c.quantities, itemID)
		c.order = slices.DeleteFunc(c.order, func(id string) bool { return id == itemID })

		return
	}

	c.quantities[itemID] = qty - 1
}

func (c *Cart) Quantity(itemID string) int {
	return c.quantities[itemID]
}

func (c *Cart) Len() int {
	return len(c.order)
}

func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

// Items returns the id+quantity pairs in first-add order.
func (c *Cart) Items() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.order))

	for _, id := range c.order {
		items = append(items, models.OrderItem{MenuItemID: id, Quantity: c.quantities[id]})
	}

	return items
}

// Summarize prices every entry against menu. It reads both inputs and writes neither.
// Entries missing from menu are priced at zero and named UnknownItemName; such a
// total is for display only.
func (c *Cart) Summarize(menu []models.MenuItem) Summary {
	summary := Summary{
		Lines: make([]LineItem, 0, len(c.order)),
		Total: decimal.Zero,
	}

	for _, id := range c.order {
		qty := c.quantities[id]

		line := LineItem{
			ID:        id,
			Name:      UnknownItemName,
			Quantity:  qty,
			UnitPrice: decimal.Zero,
		}

		if item, ok := models.FindMenuItem(menu, id); ok {
			if item.Name != "" {
				line.Name = item.Name
			}
			line.UnitPrice = item.Price
			line.Resolved = true
		}

		line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		summary.Total = summary.Total.Add(line.LineTotal)
		summary.Lines = append(summary.Lines, line)
	}

	return summary
}
