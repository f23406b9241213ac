// Package mocks holds testify mocks in the mockery layout for the interfaces
// the controller and clients depend on.
package mocks

import (
	"context"
	"net/http"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/models"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/ratelimit"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// HTTPClient is a mock type for the utils.HTTPClient type
type HTTPClient struct {
	mock.Mock
}

func (_m *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	ret := _m.Called(req)

	var r0 *http.Response
	if rf, ok := ret.Get(0).(func(*http.Request) *http.Response); ok {
		r0 = rf(req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*http.Response)
	}

	return r0, ret.Error(1)
}

func NewHTTPClient(t testingT) *HTTPClient {
	m := &HTTPClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Catalog is a mock type for the catalog.Catalog type
type Catalog struct {
	mock.Mock
}

func (_m *Catalog) ListRestaurants(ctx context.Context) []models.Restaurant {
	ret := _m.Called(ctx)

	var r0 []models.Restaurant
	if rf, ok := ret.Get(0).(func(context.Context) []models.Restaurant); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Restaurant)
	}

	return r0
}

func (_m *Catalog) GetMenu(ctx context.Context, restaurantID string) []models.MenuItem {
	ret := _m.Called(ctx, restaurantID)

	var r0 []models.MenuItem
	if rf, ok := ret.Get(0).(func(context.Context, string) []models.MenuItem); ok {
		r0 = rf(ctx, restaurantID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.MenuItem)
	}

	return r0
}

func NewCatalog(t testingT) *Catalog {
	m := &Catalog{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// OrderSubmitter is a mock type for the orders.Submitter type
type OrderSubmitter struct {
	mock.Mock
}

func (_m *OrderSubmitter) Submit(ctx context.Context, req *models.OrderRequest) (*models.OrderConfirmation, error) {
	ret := _m.Called(ctx, req)

	var r0 *models.OrderConfirmation
	if rf, ok := ret.Get(0).(func(context.Context, *models.OrderRequest) *models.OrderConfirmation); ok {
		r0 = rf(ctx, req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.OrderConfirmation)
	}

	return r0, ret.Error(1)
}

func NewOrderSubmitter(t testingT) *OrderSubmitter {
	m := &OrderSubmitter{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Limiter is a mock type for the ratelimit.Limiter type
type Limiter struct {
	mock.Mock
}

func (_m *Limiter) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	ret := _m.Called(ctx, key)

	return ret.Get(0).(ratelimit.Decision), ret.Error(1)
}

func NewLimiter(t testingT) *Limiter {
	m := &Limiter{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
