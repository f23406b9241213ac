package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/api/middleware"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/controller"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/errors"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/metrics"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/models"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/ratelimit"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/utils"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type SessionStore interface {
	Create() (uuid.UUID, *controller.Controller, error)
	Get(id uuid.UUID) (*controller.Controller, error)
	Delete(id uuid.UUID)
}

type SessionHandler struct {
	sessions      SessionStore
	validator     *validator.Validate
	submitTimeout time.Duration
	orderLimiter  ratelimit.Limiter
}

type HandlerOption func(*SessionHandler)

// WithOrderLimiter bounds order attempts per session.
func WithOrderLimiter(l ratelimit.Limiter) HandlerOption {
	return func(h *SessionHandler) {
		h.orderLimiter = l
	}
}

// SessionResponse is the body of every session endpoint.
type SessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	controller.View
}

func NewSessionHandler(sessions SessionStore, submitTimeout time.Duration, opts ...HandlerOption) *SessionHandler {
	h := &SessionHandler{
		sessions:      sessions,
		validator:     utils.NewValidator(),
		submitTimeout: submitTimeout,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/sessions", h.CreateSession())
	mux.HandleFunc("GET /api/v1/sessions/{id}", h.GetSession())
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.DeleteSession())
	mux.HandleFunc("POST /api/v1/sessions/{id}/restaurants/refresh", h.RefreshRestaurants())
	mux.HandleFunc("POST /api/v1/sessions/{id}/select", h.SelectRestaurant())
	mux.HandleFunc("POST /api/v1/sessions/{id}/menu/refresh", h.RefreshMenu())
	mux.HandleFunc("POST /api/v1/sessions/{id}/cart/increment", h.Increment())
	mux.HandleFunc("POST /api/v1/sessions/{id}/cart/decrement", h.Decrement())
	mux.HandleFunc("PUT /api/v1/sessions/{id}/details", h.UpdateDetails())
	mux.HandleFunc("POST /api/v1/sessions/{id}/order", h.PlaceOrder())
	mux.HandleFunc("POST /api/v1/sessions/{id}/back", h.Back())
	mux.HandleFunc("POST /api/v1/sessions/{id}/reset", h.Reset())
}

// session resolves the {id} path value. On failure the error response is
// already written.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (uuid.UUID, *controller.Controller, *slog.Logger, bool) {
	logger := middleware.LoggerFromContext(r.Context())

	id, err := utils.ParseID(r, "id")
	if err != nil {
		logger.Warn("Invalid session id", slog.String("error", err.Error()))
		response.Error(w, err)
		return uuid.Nil, nil, logger, false
	}

	logger = logger.With(slog.String("sessionId", id.String()))

	ctrl, err := h.sessions.Get(id)
	if err != nil {
		logger.Warn("Unknown session")
		response.Error(w, err)
		return id, nil, logger, false
	}

	return id, ctrl, logger, true
}

func respond(w http.ResponseWriter, status int, id uuid.UUID, ctrl *controller.Controller) {
	response.Success(w, status, SessionResponse{SessionID: id, View: ctrl.View()})
}

// fail writes err together with the current view, which carries the
// user-facing message where the controller set one.
func fail(w http.ResponseWriter, logger *slog.Logger, err error, id uuid.UUID, ctrl *controller.Controller) {
	if appErr, ok := errors.IsAppError(err); ok && appErr.StatusCode < http.StatusInternalServerError {
		logger.Warn("Session action refused", slog.String("code", appErr.Code))
	} else {
		logger.Error("Session action failed", slog.Any("error", err))
	}

	response.ErrorWithData(w, err, SessionResponse{SessionID: id, View: ctrl.View()})
}

// CreateSession godoc
//
//	@Summary		Start a browsing session
//	@Description	Creates a view-state session in Browsing and loads the restaurant list. The list is empty when the catalog is unavailable.
//	@Tags			Sessions
//	@Produce		json
//	@Success		201	{object}	SessionResponse			"New session"
//	@Failure		503	{object}	response.ErrorResponse	"Session capacity reached"
//	@Router			/sessions [post]
func (h *SessionHandler) CreateSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, ctrl, err := h.sessions.Create()
		if err != nil {
			logger.Warn("Session not created", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger = logger.With(slog.String("sessionId", id.String()))

		if err := ctrl.LoadRestaurants(r.Context()); err != nil {
			logger.Warn("Initial restaurant load skipped", slog.Any("error", err))
		}

		logger.Info("Session created")
		respond(w, http.StatusCreated, id, ctrl)
	}
}

// GetSession godoc
//
//	@Summary		Get the current view
//	@Tags			Sessions
//	@Produce		json
//	@Param			id	path		string					true	"Session ID (UUID)"	Format(uuid)
//	@Success		200	{object}	SessionResponse			"Current view"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid session ID format"
//	@Failure		404	{object}	response.ErrorResponse	"Session not found"
//	@Router			/sessions/{id} [get]
func (h *SessionHandler) GetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, ctrl, _, ok := h.session(w, r)
		if !ok {
			return
		}

		respond(w, http.StatusOK, id, ctrl)
	}
}

// DeleteSession godoc
//
//	@Summary		Drop a session
//	@Description	Forgets the session and any composition state it held.
//	@Tags			Sessions
//	@Param			id	path	string	true	"Session ID (UUID)"	Format(uuid)
//	@Success		204
//	@Failure		404	{object}	response.ErrorResponse	"Session not found"
//	@Router			/sessions/{id} [delete]
func (h *SessionHandler) DeleteSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, _, logger, ok := h.session(w, r)
		if !ok {
			return
		}

		h.sessions.Delete(id)

		logger.Info("Session deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

// RefreshRestaurants godoc
//
//	@Summary		Reload the restaurant list
//	@Tags			Sessions
//	@Produce		json
//	@Param			id	path		string					true	"Session ID (UUID)"	Format(uuid)
//	@Success		200	{object}	SessionResponse			"Browsing view with the new list"
//	@Failure		409	{object}	response.ErrorResponse	"Session is not browsing"
//	@Router			/sessions/{id}/restaurants/refresh [post]
func (h *SessionHandler) RefreshRestaurants() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, ctrl, logger, ok := h.session(w, r)
		if !ok {
			return
		}

		if err := ctrl.LoadRestaurants(r.Context()); err != nil {
			fail(w, logger, err, id, ctrl)
			return
		}

		respond(w, http.StatusOK, id, ctrl)
	}
}

// SelectRestaurant godoc
//
//	@Summary		Open a restaurant
//	@Description	Moves from Browsing to Composing with an empty cart and fetches the restaurant's menu.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string							true	"Session ID (UUID)"	Format(uuid)
//	@Param			restaurant	body		models.SelectRestaurantRequest	true	"Restaurant to open"
//	@Success		200			{object}	SessionResponse					"Composing view"
//	@Failure		400			{object}	response.ErrorResponse			"Invalid body"
//	@Failure		404			{object}	response.ErrorResponse			"Unknown session or restaurant"
//	@Failure		409			{object}	response.ErrorResponse			"Session is not browsing"
//	@Router			/sessions/{id}/select [post]
func (h *SessionHandler) SelectRestaurant() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, ctrl, logger, ok := h.session(w, r)
		if !ok {
			return
		}

		var req models.SelectRestaurantRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid select restaurant input")
			return
		}

		restaurant, found := ctrl.FindRestaurant(req.RestaurantID)
		if !found {
			// the list may be stale or never loaded
			if err := ctrl.LoadRestaurants(r.Context()); err != nil {
				fail(w, logger, err, id, ctrl)
				return
			}

			restaurant, found = ctrl.FindRestaurant(req.RestaurantID)
		}

		if !found {
			fail(w, logger, errors.NotFoundError("Restaurant not found").WithDetail(req.RestaurantID), id, ctrl)
			return
		}

		if err := ctrl.SelectRestaurant(restaurant); err != nil {
			fail(w, logger, err, id, ctrl)
			return
		}

		if err := ctrl.LoadMenu(r.Context()); err != nil {
			logger.Warn("Menu load skipped", slog.Any("error", err))
		}

		logger.Info("Restaurant selected", slog.String("restaurantId", restaurant.ID))
		respond(w, http.StatusOK, id, ctrl)
	}
}

// RefreshMenu godoc
//
//	@Summary		Reload the menu of the open restaurant
//	@Tags			Sessions
//	@Produce		json
//	@Param			id	path		string					true	"Session ID (UUID)"	Format(uuid)
//	@Success		200	{object}	SessionResponse			"Composing view"
//	@Failure		409	{object}	response.ErrorResponse	"Session is not composing"
//	@Router			/sessions/{id}/menu/refresh [post]
func (h *SessionHandler) RefreshMenu() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, ctrl, logger, ok := h.session(w, r)
		if !ok {
			return
		}

		if err := ctrl.LoadMenu(r.Context()); err != nil {
			fail(w, logger, err, id, ctrl)
			return
		}

		respond(w, http.StatusOK, id, ctrl)
	}
}

// Increment godoc
//
//	@Summary		Add one of a menu item to the cart
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Session ID (UUID)"	Format(uuid)
//	@Param			item	body		models.CartItemRequest	true	"Menu item"
//	@Success		200		{object}	SessionResponse			"Composing view"
//	@Failure		409		{object}	response.ErrorResponse	"Not composing, or an order is being placed"
//	@Router			/sessions/{id}/cart/increment [post]
func (h *SessionHandler) Increment() http.HandlerFunc {
	return h.cartAction(func(ctrl *controller.Controller, itemID string) error {
		return ctrl.Increment(itemID)
	})
}

// Decrement godoc
//
//	@Summary		Remove one of a menu item from the cart
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Session ID (UUID)"	Format(uuid)
//	@Param			item	body		models.CartItemRequest	true	"Menu item"
//	@Success		200		{object}	SessionResponse			"Composing view"
//	@Failure		409		{object}	response.ErrorResponse	"Not composing, or an order is being placed"
//	@Router			/sessions/{id}/cart/decrement [post]
func (h *SessionHandler) Decrement() http.HandlerFunc {
	return h.cartAction(func(ctrl *controller.Controller, itemID string) error {
		return ctrl.Decrement(itemID)
	})
}

func (h *SessionHandler) cartAction(apply func(ctrl *controller.Controller, itemID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, ctrl, logger, ok := h.session(w, r)
		if !ok {
			return
		}

		var req models.CartItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid cart item input")
			return
		}

		if err := apply(ctrl, req.MenuItemID); err != nil {
			fail(w, logger, err, id, ctrl)
			return
		}

		respond(w, http.StatusOK, id, ctrl)
	}
}

// UpdateDetails godoc
//
//	@Summary		Set customer details, dine-in time and special requests
//	@Description	Name, phone and special requests are replaced. The dine-in time is replaced only when present.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Session ID (UUID)"	Format(uuid)
//	@Param			details	body		models.UpdateDetailsRequest	true	"Visit details"
//	@Success		200		{object}	SessionResponse				"Composing view"
//	@Failure		400		{object}	response.ErrorResponse		"Invalid body"
//	@Failure		409		{object}	response.ErrorResponse		"Not composing, or an order is being placed"
//	@Router			/sessions/{id}/details [put]
func (h *SessionHandler) UpdateDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, ctrl, logger, ok := h.session(w, r)
		if !ok {
			return
		}

		var req models.UpdateDetailsRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid details input")
			return
		}

		customer := models.CustomerDetails{
			Name:  strings.TrimSpace(req.CustomerName),
			Phone: strings.TrimSpace(req.CustomerPhone),
		}

		if err := ctrl.SetDetails(customer, req.DineInTime, req.SpecialRequests); err != nil {
			fail(w, logger, err, id, ctrl)
			return
		}

		respond(w, http.StatusOK, id, ctrl)
	}
}

// PlaceOrder godoc
//
//	@Summary		Place the composed order
//	@Description	Submits the cart to the order service. On success the session moves to Confirmed with the server's order id, total and ETA. On failure the session stays in Composing with the cart unchanged, and the view carries a message.
//	@Tags			Sessions
//	@Produce		json
//	@Param			id	path		string					true	"Session ID (UUID)"	Format(uuid)
//	@Success		201	{object}	SessionResponse			"Confirmed view"
//	@Failure		409	{object}	response.ErrorResponse	"Not composing, an order is already being placed, or the session was left mid-submission"
//	@Failure		422	{object}	response.ErrorResponse	"Customer details, time or cart missing"
//	@Failure		429	{object}	response.ErrorResponse	"Too many order attempts"
//	@Failure		502	{object}	response.ErrorResponse	"Order service rejected the order"
//	@Failure		503	{object}	response.ErrorResponse	"Order service unreachable"
//	@Router			/sessions/{id}/order [post]
func (h *SessionHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, ctrl, logger, ok := h.session(w, r)
		if !ok {
			return
		}

		// a dropped browser connection must not abandon a submission the
		// order service may already have accepted
		ctx, cancel := utils.WithUpstreamTimeout(context.WithoutCancel(r.Context()), h.submitTimeout)
		defer cancel()

		var gates []controller.Gate
		if h.orderLimiter != nil {
			gates = append(gates, h.orderAttemptGate(w, logger, id))
		}

		confirmation, err := ctrl.PlaceOrder(ctx, gates...)
		if err != nil {
			fail(w, logger, err, id, ctrl)
			return
		}

		logger.Info("Order placed", slog.String("orderId", confirmation.OrderID))
		respond(w, http.StatusCreated, id, ctrl)
	}
}

// orderAttemptGate counts only complete order attempts. It fails open when the
// limiter store is unavailable.
func (h *SessionHandler) orderAttemptGate(w http.ResponseWriter, logger *slog.Logger, id uuid.UUID) controller.Gate {
	return func(ctx context.Context) error {
		decision, err := h.orderLimiter.Allow(ctx, ratelimit.Key(id.String()))
		if err != nil {
			logger.Warn("Order rate limit check failed", slog.Any("error", err))
			return nil
		}

		if decision.Allowed {
			return nil
		}

		metrics.OrderSubmission(metrics.OutcomeThrottled)

		seconds := int64(decision.RetryAfter.Round(time.Second) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(max(seconds, 1), 10))

		return errors.TooManyRequestsError("Too many order attempts, please wait before trying again")
	}
}

// Back godoc
//
//	@Summary		Leave the restaurant
//	@Description	Returns to Browsing, discards the cart and details, and reloads the restaurant list. An order still in flight is abandoned.
//	@Tags			Sessions
//	@Produce		json
//	@Param			id	path		string					true	"Session ID (UUID)"	Format(uuid)
//	@Success		200	{object}	SessionResponse			"Browsing view"
//	@Failure		409	{object}	response.ErrorResponse	"Not composing"
//	@Router			/sessions/{id}/back [post]
func (h *SessionHandler) Back() http.HandlerFunc {
	return h.transition(func(ctx context.Context, ctrl *controller.Controller) error {
		if err := ctrl.Back(); err != nil {
			return err
		}

		return ctrl.LoadRestaurants(ctx)
	})
}

// Reset godoc
//
//	@Summary		Place another order
//	@Description	Returns from Confirmed to Browsing and reloads the restaurant list.
//	@Tags			Sessions
//	@Produce		json
//	@Param			id	path		string					true	"Session ID (UUID)"	Format(uuid)
//	@Success		200	{object}	SessionResponse			"Browsing view"
//	@Failure		409	{object}	response.ErrorResponse	"Not confirmed"
//	@Router			/sessions/{id}/reset [post]
func (h *SessionHandler) Reset() http.HandlerFunc {
	return h.transition(func(ctx context.Context, ctrl *controller.Controller) error {
		if err := ctrl.Reset(); err != nil {
			return err
		}

		return ctrl.LoadRestaurants(ctx)
	})
}

func (h *SessionHandler) transition(apply func(ctx context.Context, ctrl *controller.Controller) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, ctrl, logger, ok := h.session(w, r)
		if !ok {
			return
		}

		if err := apply(r.Context(), ctrl); err != nil {
			fail(w, logger, err, id, ctrl)
			return
		}

		respond(w, http.StatusOK, id, ctrl)
	}
}
