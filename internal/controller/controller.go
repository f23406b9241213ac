// Package controller implements the view-state machine of one browser session:
// which screen is active, the composition session behind the detail screen,
// and the order placement flow.
package controller

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/cart"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/catalog"
	appErrors "github.com/aaravmahajanofficial/dine-in-preorder/internal/errors"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/models"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/orders"
)

// composition is the data owned by one Composing state. It is dropped as a whole
// on Back and on confirmation.
type composition struct {
	cart            *cart.Cart
	menu            []models.MenuItem
	customer        models.CustomerDetails
	dineInTime      time.Time
	specialRequests string
}

// Controller is safe for concurrent use. The lock is never held across a call
// to the catalog or the order service.
type Controller struct {
	mu sync.Mutex

	catalog   catalog.Catalog
	submitter orders.Submitter
	logger    *slog.Logger

	state       State
	restaurants []models.Restaurant
	session     *composition

	// epoch changes on every transition; results of calls started under an
	// older epoch are discarded.
	epoch   uint64
	placing bool
	loading int
	message string
}

// Gate is consulted once the order form is complete and before the order
// service is called. A non-nil error aborts the attempt with the session intact.
type Gate func(ctx context.Context) error

func New(catalogClient catalog.Catalog, submitter orders.Submitter) *Controller {
	return &Controller{
		catalog:     catalogClient,
		submitter:   submitter,
		logger:      slog.Default().With(slog.String("component", "controller")),
		state:       Browsing{},
		restaurants: []models.Restaurant{},
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// transition must be called with the lock held.
func (c *Controller) transition(next State, session *composition) {
	c.state = next
	c.session = session
	c.epoch++
	c.placing = false
	c.message = ""
}

// beginLoad marks a catalog read in flight and returns the epoch it belongs to.
// Must be called with the lock held.
func (c *Controller) beginLoad() uint64 {
	c.loading++

	return c.epoch
}

// endLoad reports whether a read started under epoch may still be applied.
// Must be called with the lock held.
func (c *Controller) endLoad(epoch uint64) bool {
	c.loading--

	return c.epoch == epoch
}

// LoadRestaurants replaces the restaurant list shown while browsing.
func (c *Controller) LoadRestaurants(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Kind() != KindBrowsing {
		c.mu.Unlock()
		return appErrors.ErrInvalidTransition
	}
	epoch := c.beginLoad()
	c.mu.Unlock()

	restaurants := c.catalog.ListRestaurants(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.endLoad(epoch) {
		c.logger.Debug("Discarding restaurant list for a view that is gone")
		return nil
	}

	c.restaurants = restaurants

	return nil
}

// FindRestaurant looks up a restaurant in the last loaded list.
func (c *Controller) FindRestaurant(id string) (models.Restaurant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.restaurants {
		if r.ID == id {
			return r, true
		}
	}

	return models.Restaurant{}, false
}

// SelectRestaurant moves Browsing to Composing with an empty cart and no details.
func (c *Controller) SelectRestaurant(r models.Restaurant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind() != KindBrowsing {
		return appErrors.ErrInvalidTransition
	}

	c.transition(Composing{Restaurant: r}, &composition{
		cart: cart.New(),
		menu: []models.MenuItem{},
	})

	return nil
}

// Back abandons the composition session and returns to Browsing. It is allowed
// while an order is in flight; that order's result is then discarded.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind() != KindComposing {
		return appErrors.ErrInvalidTransition
	}

	c.transition(Browsing{}, nil)

	return nil
}

// Reset is "place another order": Confirmed back to Browsing.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind() != KindConfirmed {
		return appErrors.ErrInvalidTransition
	}

	c.transition(Browsing{}, nil)

	return nil
}

// LoadMenu fetches the menu of the restaurant being composed and replaces the
// session menu. A response that arrives after the session was left is dropped.
func (c *Controller) LoadMenu(ctx context.Context) error {
	c.mu.Lock()
	composing, ok := c.state.(Composing)
	if !ok {
		c.mu.Unlock()
		return appErrors.ErrInvalidTransition
	}
	epoch := c.beginLoad()
	c.mu.Unlock()

	menu := c.catalog.GetMenu(ctx, composing.Restaurant.ID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.endLoad(epoch) {
		c.logger.Debug("Discarding menu for an abandoned session",
			slog.String("restaurantId", composing.Restaurant.ID))
		return nil
	}

	c.session.menu = menu

	return nil
}

// composingSession returns the live session for a mutation, with the lock held.
func (c *Controller) composingSession() (*composition, error) {
	if c.state.Kind() != KindComposing {
		return nil, appErrors.ErrInvalidTransition
	}

	if c.placing {
		return nil, appErrors.ErrSubmissionInFlight
	}

	return c.session, nil
}

func (c *Controller) Increment(itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.composingSession()
	if err != nil {
		return err
	}

	s.cart.Increment(itemID)

	return nil
}

func (c *Controller) Decrement(itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.composingSession()
	if err != nil {
		return err
	}

	s.cart.Decrement(itemID)

	return nil
}

func (c *Controller) SetCustomer(name, phone string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.composingSession()
	if err != nil {
		return err
	}

	s.customer = models.CustomerDetails{Name: name, Phone: phone}

	return nil
}

func (c *Controller) SetDineInTime(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.composingSession()
	if err != nil {
		return err
	}

	s.dineInTime = t

	return nil
}

func (c *Controller) SetSpecialRequests(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.composingSession()
	if err != nil {
		return err
	}

	s.specialRequests = text

	return nil
}

// SetDetails replaces customer, special requests and, when dineInTime is
// non-nil, the dine-in time in one step.
func (c *Controller) SetDetails(customer models.CustomerDetails, dineInTime *time.Time, specialRequests string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.composingSession()
	if err != nil {
		return err
	}

	s.customer = customer
	if dineInTime != nil {
		s.dineInTime = *dineInTime
	}
	s.specialRequests = specialRequests

	return nil
}

// Summary prices the session cart against the session menu.
func (c *Controller) Summary() (cart.Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind() != KindComposing {
		return cart.Summary{}, appErrors.ErrInvalidTransition
	}

	return c.session.cart.Summarize(c.session.menu), nil
}

func (s *composition) ready() bool {
	return s.customer.Complete() &&
		!s.dineInTime.IsZero() &&
		!s.cart.IsEmpty()
}

// PlaceOrder submits the composed order. Only a successful submission moves the
// controller to Confirmed; every failure leaves the session as it was and sets
// a user-facing message. Gates run only for a complete form.
func (c *Controller) PlaceOrder(ctx context.Context, gates ...Gate) (*models.OrderConfirmation, error) {
	c.mu.Lock()

	composing, ok := c.state.(Composing)
	if !ok {
		c.mu.Unlock()
		return nil, appErrors.ErrInvalidTransition
	}

	s := c.session
	if !s.ready() {
		c.message = orders.MsgIncomplete
		c.mu.Unlock()
		return nil, appErrors.ValidationIncompleteError(orders.MsgIncomplete)
	}

	if c.placing {
		c.mu.Unlock()
		return nil, appErrors.ErrSubmissionInFlight
	}

	req := &models.OrderRequest{
		RestaurantID:    composing.Restaurant.ID,
		CustomerName:    s.customer.Name,
		CustomerPhone:   s.customer.Phone,
		DineInTime:      s.dineInTime,
		Items:           s.cart.Items(),
		SpecialRequests: s.specialRequests,
	}

	epoch := c.epoch
	c.placing = true
	c.message = ""
	c.mu.Unlock()

	for _, gate := range gates {
		if err := gate(ctx); err != nil {
			return nil, c.abortPlacing(epoch, err)
		}
	}

	confirmation, err := c.submitter.Submit(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return nil, c.abandoned(composing.Restaurant.ID, confirmation, err)
	}

	c.placing = false

	if err != nil {
		c.message = failureMessage(err)
		return nil, err
	}

	c.transition(Confirmed{Confirmation: *confirmation}, nil)

	return confirmation, nil
}

// abortPlacing releases the placing flag after a gate refused the attempt.
func (c *Controller) abortPlacing(epoch uint64, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch == epoch {
		c.placing = false
		if appErr, ok := appErrors.IsAppError(err); ok {
			c.message = appErr.Message
		}
	}

	return err
}

// abandoned handles a submission result for a session that was left while the
// order was in flight. Must be called with the lock held.
func (c *Controller) abandoned(restaurantID string, confirmation *models.OrderConfirmation, err error) error {
	abandonedErr := appErrors.SessionAbandonedError("The order session was left before the order service answered")

	if err != nil {
		c.logger.Info("Discarding failed submission for an abandoned session",
			slog.String("restaurantId", restaurantID), slog.Any("error", err))
		return abandonedErr.WithError(err)
	}

	c.logger.Warn("Order confirmed after its session was left",
		slog.String("restaurantId", restaurantID), slog.String("orderId", confirmation.OrderID))

	return abandonedErr.WithDetail("order " + confirmation.OrderID + " was accepted")
}

func failureMessage(err error) string {
	switch {
	case appErrors.HasCode(err, appErrors.ErrCodeSubmissionUnreachable):
		return orders.MsgUnreachable
	case appErrors.HasCode(err, appErrors.ErrCodeValidationIncomplete):
		return orders.MsgIncomplete
	default:
		return orders.MsgRejected
	}
}

// View is a snapshot for rendering. It shares no memory with the controller.
type View struct {
	State           Kind                      `json:"state"`
	Restaurants     []models.Restaurant       `json:"restaurants,omitempty"`
	Restaurant      *models.Restaurant        `json:"restaurant,omitempty"`
	Menu            []models.MenuItem         `json:"menu,omitempty"`
	Cart            *cart.Summary             `json:"cart,omitempty"`
	Customer        *models.CustomerDetails   `json:"customer,omitempty"`
	DineInTime      *time.Time                `json:"dine_in_time,omitempty"`
	SpecialRequests string                    `json:"special_requests,omitempty"`
	Placing         bool                      `json:"placing"`
	Loading         bool                      `json:"loading"`
	Message         string                    `json:"message,omitempty"`
	Confirmation    *models.OrderConfirmation `json:"confirmation,omitempty"`
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:   c.state.Kind(),
		Placing: c.placing,
		Loading: c.loading > 0,
		Message: c.message,
	}

	switch st := c.state.(type) {
	case Browsing:
		v.Restaurants = slices.Clone(c.restaurants)
	case Composing:
		r := st.Restaurant
		s := c.session
		summary := s.cart.Summarize(s.menu)
		customer := s.customer

		v.Restaurant = &r
		v.Menu = slices.Clone(s.menu)
		v.Cart = &summary
		v.Customer = &customer
		v.SpecialRequests = s.specialRequests

		if !s.dineInTime.IsZero() {
			t := s.dineInTime
			v.DineInTime = &t
		}
	case Confirmed:
		conf := st.Confirmation
		v.Confirmation = &conf
	}

	return v
}
