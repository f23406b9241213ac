package controller_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/controller"
	appErrors "github.com/aaravmahajanofficial/dine-in-preorder/internal/errors"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/mocks"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/models"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	spiceRoute = models.Restaurant{ID: "r1", Name: "Spice Route", Cuisine: "Indian", AvgPrepMinutes: 20}
	nonna      = models.Restaurant{ID: "r2", Name: "Nonna", Cuisine: "Italian", AvgPrepMinutes: 15}

	spiceMenu = []models.MenuItem{
		{ID: "A", Name: "Masala Dosa", Price: decimal.NewFromInt(5)},
		{ID: "B", Name: "Lassi", Price: decimal.RequireFromString("2.5")},
	}
	nonnaMenu = []models.MenuItem{
		{ID: "P", Name: "Margherita", Price: decimal.NewFromInt(11)},
	}

	dinner = time.Date(2026, 10, 20, 19, 30, 0, 0, time.UTC)
)

func setup(t *testing.T) (*controller.Controller, *mocks.Catalog, *mocks.OrderSubmitter) {
	t.Helper()

	cat := mocks.NewCatalog(t)
	submitter := mocks.NewOrderSubmitter(t)

	return controller.New(cat, submitter), cat, submitter
}

// composeReady leaves ctrl in Composing(spiceRoute) with {A:2} and complete details.
func composeReady(t *testing.T, ctrl *controller.Controller, cat *mocks.Catalog) {
	t.Helper()

	cat.On("GetMenu", mock.Anything, spiceRoute.ID).Return(spiceMenu).Once()

	require.NoError(t, ctrl.SelectRestaurant(spiceRoute))
	require.NoError(t, ctrl.LoadMenu(t.Context()))
	require.NoError(t, ctrl.Increment("A"))
	require.NoError(t, ctrl.Increment("A"))
	require.NoError(t, ctrl.SetCustomer("Asha", "555"))
	require.NoError(t, ctrl.SetDineInTime(dinner))
}

func TestNew_StartsBrowsing(t *testing.T) {
	ctrl, _, _ := setup(t)

	view := ctrl.View()

	assert.Equal(t, controller.KindBrowsing, view.State)
	assert.Equal(t, controller.Browsing{}, ctrl.State())
	assert.Nil(t, view.Restaurant)
	assert.Nil(t, view.Cart)
	assert.Nil(t, view.Confirmation)
}

func TestLoadRestaurants(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctrl, cat, _ := setup(t)
		cat.On("ListRestaurants", mock.Anything).Return([]models.Restaurant{spiceRoute, nonna}).Once()

		require.NoError(t, ctrl.LoadRestaurants(t.Context()))

		view := ctrl.View()
		assert.Equal(t, []models.Restaurant{spiceRoute, nonna}, view.Restaurants)

		found, ok := ctrl.FindRestaurant("r2")
		assert.True(t, ok)
		assert.Equal(t, nonna, found)

		_, ok = ctrl.FindRestaurant("missing")
		assert.False(t, ok)
	})

	t.Run("Not allowed outside Browsing", func(t *testing.T) {
		ctrl, _, _ := setup(t)
		require.NoError(t, ctrl.SelectRestaurant(spiceRoute))

		err := ctrl.LoadRestaurants(t.Context())

		assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	})

	t.Run("Late list is discarded after leaving Browsing", func(t *testing.T) {
		// Arrange
		ctrl, cat, _ := setup(t)
		started := make(chan struct{})
		release := make(chan struct{})

		cat.On("ListRestaurants", mock.Anything).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return([]models.Restaurant{spiceRoute}).Once()

		done := make(chan error, 1)
		go func() { done <- ctrl.LoadRestaurants(context.Background()) }()
		<-started

		// Act
		require.NoError(t, ctrl.SelectRestaurant(nonna))
		require.NoError(t, ctrl.Back())
		close(release)
		require.NoError(t, <-done)

		// Assert
		assert.Empty(t, ctrl.View().Restaurants)
	})
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(t *testing.T, ctrl *controller.Controller, cat *mocks.Catalog, sub *mocks.OrderSubmitter)
		act     func(ctrl *controller.Controller) error
	}{
		{
			name:    "Back while Browsing",
			arrange: func(*testing.T, *controller.Controller, *mocks.Catalog, *mocks.OrderSubmitter) {},
			act:     func(ctrl *controller.Controller) error { return ctrl.Back() },
		},
		{
			name:    "Reset while Browsing",
			arrange: func(*testing.T, *controller.Controller, *mocks.Catalog, *mocks.OrderSubmitter) {},
			act:     func(ctrl *controller.Controller) error { return ctrl.Reset() },
		},
		{
			name:    "Increment while Browsing",
			arrange: func(*testing.T, *controller.Controller, *mocks.Catalog, *mocks.OrderSubmitter) {},
			act:     func(ctrl *controller.Controller) error { return ctrl.Increment("A") },
		},
		{
			name:    "Place order while Browsing",
			arrange: func(*testing.T, *controller.Controller, *mocks.Catalog, *mocks.OrderSubmitter) {},
			act: func(ctrl *controller.Controller) error {
				_, err := ctrl.PlaceOrder(context.Background())
				return err
			},
		},
		{
			name: "Select while Composing",
			arrange: func(t *testing.T, ctrl *controller.Controller, _ *mocks.Catalog, _ *mocks.OrderSubmitter) {
				require.NoError(t, ctrl.SelectRestaurant(spiceRoute))
			},
			act: func(ctrl *controller.Controller) error { return ctrl.SelectRestaurant(nonna) },
		},
		{
			name: "Reset while Composing",
			arrange: func(t *testing.T, ctrl *controller.Controller, _ *mocks.Catalog, _ *mocks.OrderSubmitter) {
				require.NoError(t, ctrl.SelectRestaurant(spiceRoute))
			},
			act: func(ctrl *controller.Controller) error { return ctrl.Reset() },
		},
		{
			name:    "Compose while Confirmed",
			arrange: confirm,
			act:     func(ctrl *controller.Controller) error { return ctrl.Increment("A") },
		},
		{
			name:    "Back while Confirmed",
			arrange: confirm,
			act:     func(ctrl *controller.Controller) error { return ctrl.Back() },
		},
		{
			name:    "Select while Confirmed",
			arrange: confirm,
			act:     func(ctrl *controller.Controller) error { return ctrl.SelectRestaurant(nonna) },
		},
		{
			name:    "Load menu while Confirmed",
			arrange: confirm,
			act:     func(ctrl *controller.Controller) error { return ctrl.LoadMenu(context.Background()) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ctrl, cat, sub := setup(t)
			tt.arrange(t, ctrl, cat, sub)
			before := ctrl.View()

			// Act
			err := tt.act(ctrl)

			// Assert
			require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
			assert.Equal(t, before, ctrl.View())
		})
	}
}

func confirm(t *testing.T, ctrl *controller.Controller, cat *mocks.Catalog, sub *mocks.OrderSubmitter) {
	t.Helper()

	composeReady(t, ctrl, cat)
	sub.On("Submit", mock.Anything, mock.Anything).
		Return(&models.OrderConfirmation{OrderID: "O1", Total: decimal.NewFromInt(10), EstimatedPrepMinutes: 15}, nil).Once()

	_, err := ctrl.PlaceOrder(t.Context())
	require.NoError(t, err)
}

func TestCompose(t *testing.T) {
	// Arrange
	ctrl, cat, _ := setup(t)
	composeReady(t, ctrl, cat)

	// Act
	require.NoError(t, ctrl.Increment("B"))
	require.NoError(t, ctrl.Increment("ghost"))
	require.NoError(t, ctrl.Decrement("ghost"))
	require.NoError(t, ctrl.Decrement("never-added"))
	require.NoError(t, ctrl.SetSpecialRequests("window seat"))

	// Assert
	view := ctrl.View()
	require.Equal(t, controller.KindComposing, view.State)
	assert.Equal(t, spiceRoute, *view.Restaurant)
	assert.Equal(t, spiceMenu, view.Menu)
	assert.Equal(t, models.CustomerDetails{Name: "Asha", Phone: "555"}, *view.Customer)
	assert.True(t, dinner.Equal(*view.DineInTime))
	assert.Equal(t, "window seat", view.SpecialRequests)

	require.Len(t, view.Cart.Lines, 2)
	assert.Equal(t, "A", view.Cart.Lines[0].ID)
	assert.Equal(t, 2, view.Cart.Lines[0].Quantity)
	assert.Equal(t, "B", view.Cart.Lines[1].ID)
	assert.Equal(t, "12.5", view.Cart.Total.String())

	summary, err := ctrl.Summary()
	require.NoError(t, err)
	assert.True(t, summary.Total.Equal(view.Cart.Total))
}

func TestView_IsASnapshot(t *testing.T) {
	ctrl, cat, _ := setup(t)
	composeReady(t, ctrl, cat)

	view := ctrl.View()
	view.Menu[0].Name = "changed"
	view.Restaurant.Name = "changed"

	again := ctrl.View()
	assert.Equal(t, "Masala Dosa", again.Menu[0].Name)
	assert.Equal(t, "Spice Route", again.Restaurant.Name)
}

func TestPlaceOrder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(t *testing.T, ctrl *controller.Controller)
	}{
		{"Missing name", func(t *testing.T, ctrl *controller.Controller) {
			require.NoError(t, ctrl.SetCustomer("", "555"))
		}},
		{"Blank name", func(t *testing.T, ctrl *controller.Controller) {
			require.NoError(t, ctrl.SetCustomer("   ", "555"))
		}},
		{"Missing phone", func(t *testing.T, ctrl *controller.Controller) {
			require.NoError(t, ctrl.SetCustomer("Asha", ""))
		}},
		{"Missing dine-in time", func(t *testing.T, ctrl *controller.Controller) {
			require.NoError(t, ctrl.SetDineInTime(time.Time{}))
		}},
		{"Empty cart", func(t *testing.T, ctrl *controller.Controller) {
			require.NoError(t, ctrl.Decrement("A"))
			require.NoError(t, ctrl.Decrement("A"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ctrl, cat, submitter := setup(t)
			composeReady(t, ctrl, cat)
			tt.arrange(t, ctrl)
			before := ctrl.View()

			// Act
			confirmation, err := ctrl.PlaceOrder(t.Context())

			// Assert
			require.Error(t, err)
			assert.Nil(t, confirmation)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidationIncomplete))
			submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)

			after := ctrl.View()
			assert.Equal(t, controller.KindComposing, after.State)
			assert.Equal(t, orders.MsgIncomplete, after.Message)
			assert.Equal(t, before.Cart, after.Cart)
		})
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	// Arrange
	ctrl, cat, submitter := setup(t)
	composeReady(t, ctrl, cat)
	require.NoError(t, ctrl.SetSpecialRequests("no onions"))

	expected := &models.OrderConfirmation{OrderID: "O1", Total: decimal.RequireFromString("12.5"), EstimatedPrepMinutes: 15}

	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(req *models.OrderRequest) bool {
		return req.RestaurantID == "r1" &&
			req.CustomerName == "Asha" &&
			req.CustomerPhone == "555" &&
			req.DineInTime.Equal(dinner) &&
			req.SpecialRequests == "no onions" &&
			len(req.Items) == 1 &&
			req.Items[0] == models.OrderItem{MenuItemID: "A", Quantity: 2}
	})).Return(expected, nil).Once()

	// Act
	confirmation, err := ctrl.PlaceOrder(t.Context())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, expected, confirmation)

	assert.Equal(t, controller.Confirmed{Confirmation: *expected}, ctrl.State())

	view := ctrl.View()
	assert.Equal(t, controller.KindConfirmed, view.State)
	require.NotNil(t, view.Confirmation)
	assert.Equal(t, "O1", view.Confirmation.OrderID)
	assert.Equal(t, "12.5", view.Confirmation.Total.String())
	assert.Equal(t, 15, view.Confirmation.EstimatedPrepMinutes)
	assert.Nil(t, view.Cart)
	assert.Nil(t, view.Customer)

	_, err = ctrl.Summary()
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestPlaceOrder_Failure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "Rejected",
			err:     appErrors.SubmissionRejectedError(orders.MsgRejected).WithDetail("status 500: boom"),
			message: orders.MsgRejected,
		},
		{
			name:    "Unreachable",
			err:     appErrors.SubmissionUnreachableError(orders.MsgUnreachable).WithError(errors.New("connection refused")),
			message: orders.MsgUnreachable,
		},
		{
			name:    "Unclassified error",
			err:     errors.New("unexpected"),
			message: orders.MsgRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ctrl, cat, submitter := setup(t)
			composeReady(t, ctrl, cat)
			before := ctrl.View()

			submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			// Act
			confirmation, err := ctrl.PlaceOrder(t.Context())

			// Assert
			require.ErrorIs(t, err, tt.err)
			assert.Nil(t, confirmation)

			after := ctrl.View()
			assert.Equal(t, controller.KindComposing, after.State)
			assert.Equal(t, tt.message, after.Message)
			assert.False(t, after.Placing)
			assert.Equal(t, before.Cart, after.Cart)
			assert.Equal(t, before.Customer, after.Customer)
		})
	}

	t.Run("Retry after failure succeeds", func(t *testing.T) {
		ctrl, cat, submitter := setup(t)
		composeReady(t, ctrl, cat)

		submitter.On("Submit", mock.Anything, mock.Anything).
			Return(nil, appErrors.SubmissionUnreachableError(orders.MsgUnreachable)).Once()
		submitter.On("Submit", mock.Anything, mock.Anything).
			Return(&models.OrderConfirmation{OrderID: "O2", Total: decimal.NewFromInt(10)}, nil).Once()

		_, err := ctrl.PlaceOrder(t.Context())
		require.Error(t, err)

		confirmation, err := ctrl.PlaceOrder(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "O2", confirmation.OrderID)

		view := ctrl.View()
		assert.Equal(t, controller.KindConfirmed, view.State)
		assert.Empty(t, view.Message)
	})
}

func TestPlaceOrder_InFlight(t *testing.T) {
	// Arrange
	ctrl, cat, submitter := setup(t)
	composeReady(t, ctrl, cat)

	started := make(chan struct{})
	release := make(chan struct{})

	submitter.On("Submit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.OrderConfirmation{OrderID: "O1", Total: decimal.NewFromInt(10)}, nil).Once()

	type result struct {
		confirmation *models.OrderConfirmation
		err          error
	}

	done := make(chan result, 1)
	go func() {
		c, err := ctrl.PlaceOrder(context.Background())
		done <- result{c, err}
	}()
	<-started

	// Act & Assert
	assert.True(t, ctrl.View().Placing)

	_, err := ctrl.PlaceOrder(t.Context())
	require.ErrorIs(t, err, appErrors.ErrSubmissionInFlight)
	assert.ErrorIs(t, ctrl.Increment("B"), appErrors.ErrSubmissionInFlight)
	assert.ErrorIs(t, ctrl.SetCustomer("Other", "000"), appErrors.ErrSubmissionInFlight)
	assert.ErrorIs(t, ctrl.SetDetails(models.CustomerDetails{Name: "Other", Phone: "000"}, nil, ""), appErrors.ErrSubmissionInFlight)

	close(release)
	res := <-done

	require.NoError(t, res.err)
	assert.Equal(t, "O1", res.confirmation.OrderID)
	assert.Equal(t, controller.KindConfirmed, ctrl.View().State)
	submitter.AssertNumberOfCalls(t, "Submit", 1)
}

func TestPlaceOrder_BackWhileInFlight(t *testing.T) {
	tests := []struct {
		name string
		conf *models.OrderConfirmation
		err  error
	}{
		{name: "Late confirmation", conf: &models.OrderConfirmation{OrderID: "O1", Total: decimal.NewFromInt(10)}},
		{name: "Late failure", err: appErrors.SubmissionUnreachableError(orders.MsgUnreachable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ctrl, cat, submitter := setup(t)
			composeReady(t, ctrl, cat)

			started := make(chan struct{})
			release := make(chan struct{})

			submitter.On("Submit", mock.Anything, mock.Anything).
				Run(func(mock.Arguments) {
					close(started)
					<-release
				}).
				Return(tt.conf, tt.err).Once()

			done := make(chan error, 1)
			go func() {
				_, err := ctrl.PlaceOrder(context.Background())
				done <- err
			}()
			<-started

			// Act
			require.NoError(t, ctrl.Back())
			require.NoError(t, ctrl.SelectRestaurant(nonna))

			close(release)
			err := <-done

			// Assert
			require.True(t, appErrors.HasCode(err, appErrors.ErrCodeSessionAbandoned))

			view := ctrl.View()
			assert.Equal(t, controller.KindComposing, view.State)
			assert.Equal(t, nonna, *view.Restaurant)
			assert.False(t, view.Placing)
			assert.Empty(t, view.Message)
			assert.Empty(t, view.Cart.Lines)
		})
	}
}

func TestPlaceOrder_Gates(t *testing.T) {
	t.Run("Incomplete form skips gates", func(t *testing.T) {
		// Arrange
		ctrl, cat, _ := setup(t)
		composeReady(t, ctrl, cat)
		require.NoError(t, ctrl.SetCustomer("", "555"))

		gateCalls := 0
		gate := func(context.Context) error {
			gateCalls++
			return appErrors.TooManyRequestsError("slow down")
		}

		// Act
		_, err := ctrl.PlaceOrder(t.Context(), gate)

		// Assert
		require.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidationIncomplete))
		assert.Zero(t, gateCalls)
		assert.Equal(t, orders.MsgIncomplete, ctrl.View().Message)
	})

	t.Run("Refusing gate keeps the session", func(t *testing.T) {
		ctrl, cat, submitter := setup(t)
		composeReady(t, ctrl, cat)

		_, err := ctrl.PlaceOrder(t.Context(), func(context.Context) error {
			return appErrors.TooManyRequestsError("slow down")
		})

		require.True(t, appErrors.HasCode(err, appErrors.ErrCodeTooManyRequests))
		submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)

		view := ctrl.View()
		assert.Equal(t, controller.KindComposing, view.State)
		assert.False(t, view.Placing)
		assert.Equal(t, "slow down", view.Message)
		require.Len(t, view.Cart.Lines, 1)
		assert.Equal(t, 2, view.Cart.Lines[0].Quantity)
	})

	t.Run("Passing gate submits", func(t *testing.T) {
		ctrl, cat, submitter := setup(t)
		composeReady(t, ctrl, cat)
		submitter.On("Submit", mock.Anything, mock.Anything).
			Return(&models.OrderConfirmation{OrderID: "O1", Total: decimal.NewFromInt(10)}, nil).Once()

		_, err := ctrl.PlaceOrder(t.Context(), func(context.Context) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, controller.KindConfirmed, ctrl.View().State)
	})
}

func TestSetDetails(t *testing.T) {
	t.Run("Replaces all fields at once", func(t *testing.T) {
		ctrl, cat, _ := setup(t)
		composeReady(t, ctrl, cat)
		later := dinner.Add(time.Hour)

		require.NoError(t, ctrl.SetDetails(models.CustomerDetails{Name: "Ravi", Phone: "777"}, &later, "window seat"))

		view := ctrl.View()
		assert.Equal(t, models.CustomerDetails{Name: "Ravi", Phone: "777"}, *view.Customer)
		assert.True(t, later.Equal(*view.DineInTime))
		assert.Equal(t, "window seat", view.SpecialRequests)
	})

	t.Run("Nil time keeps the current one", func(t *testing.T) {
		ctrl, cat, _ := setup(t)
		composeReady(t, ctrl, cat)

		require.NoError(t, ctrl.SetDetails(models.CustomerDetails{Name: "Ravi", Phone: "777"}, nil, ""))

		assert.True(t, dinner.Equal(*ctrl.View().DineInTime))
	})

	t.Run("Not allowed outside Composing", func(t *testing.T) {
		ctrl, _, _ := setup(t)

		err := ctrl.SetDetails(models.CustomerDetails{Name: "Ravi"}, nil, "")

		assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	})
}

func TestView_Loading(t *testing.T) {
	// Arrange
	ctrl, cat, _ := setup(t)
	started := make(chan struct{})
	release := make(chan struct{})

	cat.On("ListRestaurants", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]models.Restaurant{spiceRoute}).Once()

	done := make(chan error, 1)
	go func() { done <- ctrl.LoadRestaurants(context.Background()) }()
	<-started

	// Act & Assert
	assert.True(t, ctrl.View().Loading)

	close(release)
	require.NoError(t, <-done)

	view := ctrl.View()
	assert.False(t, view.Loading)
	assert.Equal(t, []models.Restaurant{spiceRoute}, view.Restaurants)
}

func TestBack_DiscardsSession(t *testing.T) {
	// Arrange
	ctrl, cat, _ := setup(t)
	composeReady(t, ctrl, cat)
	require.NoError(t, ctrl.SetSpecialRequests("birthday"))

	// Act
	require.NoError(t, ctrl.Back())
	require.NoError(t, ctrl.SelectRestaurant(spiceRoute))

	// Assert
	view := ctrl.View()
	assert.Equal(t, controller.KindComposing, view.State)
	assert.Empty(t, view.Cart.Lines)
	assert.True(t, view.Cart.Total.IsZero())
	assert.Empty(t, view.Menu)
	assert.Equal(t, models.CustomerDetails{}, *view.Customer)
	assert.Nil(t, view.DineInTime)
	assert.Empty(t, view.SpecialRequests)
}

func TestReset_AfterConfirmation(t *testing.T) {
	ctrl, cat, submitter := setup(t)
	confirm(t, ctrl, cat, submitter)

	require.NoError(t, ctrl.Reset())

	view := ctrl.View()
	assert.Equal(t, controller.KindBrowsing, view.State)
	assert.Nil(t, view.Confirmation)

	require.NoError(t, ctrl.SelectRestaurant(nonna))
	assert.Empty(t, ctrl.View().Cart.Lines)
}

func TestLoadMenu_LateResponseIsDiscarded(t *testing.T) {
	t.Run("Different session", func(t *testing.T) {
		// Arrange
		ctrl, cat, _ := setup(t)
		started := make(chan struct{})
		release := make(chan struct{})

		cat.On("GetMenu", mock.Anything, spiceRoute.ID).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(spiceMenu).Once()
		cat.On("GetMenu", mock.Anything, nonna.ID).Return(nonnaMenu).Once()

		require.NoError(t, ctrl.SelectRestaurant(spiceRoute))

		done := make(chan error, 1)
		go func() { done <- ctrl.LoadMenu(context.Background()) }()
		<-started

		// Act
		require.NoError(t, ctrl.Back())
		require.NoError(t, ctrl.SelectRestaurant(nonna))
		require.NoError(t, ctrl.LoadMenu(t.Context()))
		require.NoError(t, ctrl.Increment("P"))

		close(release)
		require.NoError(t, <-done)

		// Assert
		view := ctrl.View()
		assert.Equal(t, nonna, *view.Restaurant)
		assert.Equal(t, nonnaMenu, view.Menu)
		require.Len(t, view.Cart.Lines, 1)
		assert.Equal(t, "P", view.Cart.Lines[0].ID)
		assert.Equal(t, "11", view.Cart.Total.String())
	})

	t.Run("Same restaurant re-entered", func(t *testing.T) {
		ctrl, cat, _ := setup(t)
		started := make(chan struct{})
		release := make(chan struct{})

		staleMenu := []models.MenuItem{{ID: "A", Name: "Old Dosa", Price: decimal.NewFromInt(1)}}

		cat.On("GetMenu", mock.Anything, spiceRoute.ID).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(staleMenu).Once()

		require.NoError(t, ctrl.SelectRestaurant(spiceRoute))

		done := make(chan error, 1)
		go func() { done <- ctrl.LoadMenu(context.Background()) }()
		<-started

		require.NoError(t, ctrl.Back())
		require.NoError(t, ctrl.SelectRestaurant(spiceRoute))

		close(release)
		require.NoError(t, <-done)

		assert.Empty(t, ctrl.View().Menu)
	})

	t.Run("No session", func(t *testing.T) {
		ctrl, cat, _ := setup(t)
		started := make(chan struct{})
		release := make(chan struct{})

		cat.On("GetMenu", mock.Anything, spiceRoute.ID).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(spiceMenu).Once()

		require.NoError(t, ctrl.SelectRestaurant(spiceRoute))

		done := make(chan error, 1)
		go func() { done <- ctrl.LoadMenu(context.Background()) }()
		<-started

		require.NoError(t, ctrl.Back())
		close(release)
		require.NoError(t, <-done)

		view := ctrl.View()
		assert.Equal(t, controller.KindBrowsing, view.State)
		assert.Nil(t, view.Menu)
		assert.Nil(t, view.Cart)
	})
}
