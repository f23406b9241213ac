// Package catalog reads restaurants and menus from the catalog service.
//
// Reads are fail-soft: any transport, status, or decoding failure is logged and
// degrades to an empty collection. Callers never see an error, only "nothing
// available yet".
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	appErrors "github.com/aaravmahajanofficial/dine-in-preorder/internal/errors"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/metrics"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/models"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/utils"
)

type Catalog interface {
	ListRestaurants(ctx context.Context) []models.Restaurant
	GetMenu(ctx context.Context, restaurantID string) []models.MenuItem
}

type Client struct {
	baseURL string
	client  utils.HTTPClient
	logger  *slog.Logger
}

func NewClient(baseURL string, client utils.HTTPClient) *Client {
	return &Client{
		baseURL: baseURL,
		client:  client,
		logger:  slog.Default().With(slog.String("component", "catalog")),
	}
}

func (c *Client) ListRestaurants(ctx context.Context) []models.Restaurant {
	var restaurants []models.Restaurant

	if err := c.getJSON(ctx, "/restaurants", &restaurants); err != nil {
		c.degrade("list_restaurants", err)
		return []models.Restaurant{}
	}

	if restaurants == nil {
		restaurants = []models.Restaurant{}
	}

	return restaurants
}

func (c *Client) GetMenu(ctx context.Context, restaurantID string) []models.MenuItem {
	var menu []models.MenuItem

	path := fmt.Sprintf("/restaurants/%s/menu", url.PathEscape(restaurantID))
	if err := c.getJSON(ctx, path, &menu); err != nil {
		c.degrade("get_menu", err, slog.String("restaurantId", restaurantID))
		return []models.MenuItem{}
	}

	if menu == nil {
		menu = []models.MenuItem{}
	}

	return menu
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, utils.JoinURL(c.baseURL, path), nil)
	if err != nil {
		return appErrors.CatalogUnavailableError("Failed to build catalog request").WithError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return appErrors.CatalogUnavailableError("Catalog service unreachable").WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return appErrors.CatalogUnavailableError("Catalog service returned an error").
			WithDetail(fmt.Sprintf("status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.CatalogUnavailableError("Malformed catalog response").WithError(err)
	}

	return nil
}

func (c *Client) degrade(operation string, err error, attrs ...any) {
	metrics.CatalogFailure(operation)

	args := append([]any{slog.String("operation", operation), slog.Any("error", err)}, attrs...)
	if appErr, ok := appErrors.IsAppError(err); ok && appErr.Detail != "" {
		args = append(args, slog.String("detail", appErr.Detail))
	}

	c.logger.Warn("Catalog read degraded to empty result", args...)
}
