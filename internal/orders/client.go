package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/aaravmahajanofficial/dine-in-preorder/internal/errors"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/metrics"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/models"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// User-facing messages; the controller shows the Message of the returned AppError.
const (
	MsgIncomplete  = "Please fill customer details, pick a time, and add items to cart."
	MsgRejected    = "Failed to place order."
	MsgUnreachable = "Network error while placing order."
)

const maxErrorBody = 512

type Submitter interface {
	Submit(ctx context.Context, req *models.OrderRequest) (*models.OrderConfirmation, error)
}

type Client struct {
	baseURL        string
	client         utils.HTTPClient
	validator      *validator.Validate
	sanitizer      *bluemonday.Policy
	retries        uint64
	initialBackoff time.Duration
	logger         *slog.Logger
}

type Option func(*Client)

// WithTransportRetries retries SUBMISSION_UNREACHABLE failures up to n times.
// The order service does not promise idempotent submission, so this is off by default.
func WithTransportRetries(n uint64, initial time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.initialBackoff = initial
	}
}

func NewClient(baseURL string, client utils.HTTPClient, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		client:    client,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		sanitizer: bluemonday.StrictPolicy(),
		logger:    slog.Default().With(slog.String("component", "orders")),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submit sends one order and returns the service's confirmation.
// The confirmed total and ETA are authoritative and are returned as received.
func (c *Client) Submit(ctx context.Context, req *models.OrderRequest) (*models.OrderConfirmation, error) {

	if err := c.validator.Struct(req); err != nil {
		metrics.OrderSubmission(metrics.OutcomeInvalid)
		return nil, appErrors.ValidationIncompleteError(MsgIncomplete).WithDetail(err.Error()).WithError(err)
	}

	payload := *req
	payload.DineInTime = req.DineInTime.UTC()
	payload.SpecialRequests = c.sanitize(req.SpecialRequests)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.InternalError("Failed to encode order").WithError(err)
	}

	logger := c.logger.With(slog.String("restaurantId", req.RestaurantID), slog.Int("lines", len(req.Items)))

	var confirmation *models.OrderConfirmation

	if c.retries == 0 {
		confirmation, err = c.post(ctx, body)
	} else {
		confirmation, err = c.postWithRetry(ctx, body, logger)
	}

	if err != nil {
		switch {
		case appErrors.HasCode(err, appErrors.ErrCodeSubmissionUnreachable):
			metrics.OrderSubmission(metrics.OutcomeUnreachable)
		default:
			metrics.OrderSubmission(metrics.OutcomeRejected)
		}

		logger.Warn("Order submission failed", slog.Any("error", err))
		return nil, err
	}

	metrics.OrderSubmission(metrics.OutcomeConfirmed)
	logger.Info("Order confirmed", slog.String("orderId", confirmation.OrderID))

	return confirmation, nil
}

func (c *Client) postWithRetry(ctx context.Context, body []byte, logger *slog.Logger) (*models.OrderConfirmation, error) {
	var confirmation *models.OrderConfirmation

	operation := func() error {
		conf, err := c.post(ctx, body)
		if err != nil {
			if appErrors.HasCode(err, appErrors.ErrCodeSubmissionUnreachable) {
				return err
			}

			return backoff.Permanent(err)
		}

		confirmation = conf
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	if c.initialBackoff > 0 {
		expBackoff.InitialInterval = c.initialBackoff
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, c.retries), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		logger.Warn("Order service unreachable, retrying", slog.Any("error", err), slog.Duration("wait", wait))
	})
	if err != nil {
		if _, ok := appErrors.IsAppError(err); !ok {
			return nil, appErrors.SubmissionUnreachableError(MsgUnreachable).WithError(err)
		}

		return nil, err
	}

	return confirmation, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*models.OrderConfirmation, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, utils.JoinURL(c.baseURL, "/orders"), bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.InternalError("Failed to build order request").WithError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, appErrors.SubmissionUnreachableError(MsgUnreachable).WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, appErrors.SubmissionRejectedError(MsgRejected).
			WithDetail(fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var confirmation models.OrderConfirmation
	if err := json.NewDecoder(resp.Body).Decode(&confirmation); err != nil {
		return nil, appErrors.SubmissionRejectedError(MsgRejected).WithDetail("malformed confirmation").WithError(err)
	}

	if confirmation.OrderID == "" {
		return nil, appErrors.SubmissionRejectedError(MsgRejected).WithDetail("malformed confirmation: missing id")
	}

	return &confirmation, nil
}

// sanitize strips markup from free text; bluemonday escapes entities, which are
// turned back into plain characters for the JSON body.
func (c *Client) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
}
