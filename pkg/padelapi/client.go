// Package padelapi is a client for the padel center booking API.
package padelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wolfman30/padel-booking/pkg/logging"
)

const defaultBaseURL = "http://localhost:8080/api"

// APIError is returned for any non-2xx response. Detail carries the server's
// human readable message when it sent one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("padelapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("padelapi: status %d: %s", e.StatusCode, e.Detail)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for non-2xx diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client calls the booking API rooted at baseURL (e.g. http://host/api).
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

// New constructs a client. An empty baseURL targets a local server. The
// default transport sets no timeout; callers bound requests through ctx or
// WithHTTPClient.
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// FetchSchedule returns the schedule snapshot.
func (c *Client) FetchSchedule(ctx context.Context) ([]ScheduleDay, error) {
	var days []ScheduleDay
	if err := c.doJSON(ctx, http.MethodGet, "/schedule", nil, &days); err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	return days, nil
}

// CreateBooking submits a reservation.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*Booking, error) {
	var booking Booking
	if err := c.doJSON(ctx, http.MethodPost, "/bookings", req, &booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return &booking, nil
}

// ListBookings returns every booking ordered by date and time.
func (c *Client) ListBookings(ctx context.Context) ([]Booking, error) {
	var list []Booking
	if err := c.doJSON(ctx, http.MethodGet, "/bookings", nil, &list); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}

// GetBooking fetches one booking by id.
func (c *Client) GetBooking(ctx context.Context, id string) (*Booking, error) {
	var booking Booking
	if err := c.doJSON(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id), nil, &booking); err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &booking, nil
}

// Stats returns the headline figures.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.doJSON(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &stats, nil
}

// Reviews returns the customer testimonials.
func (c *Client) Reviews(ctx context.Context) ([]Review, error) {
	var reviews []Review
	if err := c.doJSON(ctx, http.MethodGet, "/reviews", nil, &reviews); err != nil {
		return nil, fmt.Errorf("reviews: %w", err)
	}
	return reviews, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(respBody)}
		c.logger.Debug("padel API non-2xx response", "status", resp.StatusCode, "path", path, "detail", apiErr.Detail)
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseDetail extracts {"detail": "..."}; structured or missing details
// yield an empty string.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}
