package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"numba-booking-cli/model"
)

const (
	defaultBaseURL     = "https://hotel-numba-qlg2.onrender.com/api/v1"
	baseURLEnv         = "NUMBA_API_BASE_URL"
	clientUserAgent    = "numba-booking-cli/1.0"
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
	defaultCheckWait   = 10 * time.Second
)

// Client wraps HTTP access to the hotel booking API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	checkWait   time.Duration
	fanOutLimit int
}

// APIError is returned when the booking API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "booking api error"
	}
	return fmt.Sprintf("booking api error: %s: %s", e.Status, e.Body)
}

// Message extracts the server-provided error message from the response body,
// trying the shapes the API is known to emit. Empty when none is present.
func (e *APIError) Message() string {
	if e == nil || strings.TrimSpace(e.Body) == "" {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err != nil {
		return ""
	}
	for _, msg := range []string{payload.Error, payload.Message, payload.Detail} {
		if strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
	}
	return ""
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// ErrorMessage returns the server-provided message carried by err, or ""
// when the error holds none. Callers supply their own generic fallback.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return ""
}

// NewClient creates a new API client. If httpClient is nil, a default client
// is used. The remote base URL can be overridden with NUMBA_API_BASE_URL.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	baseURL := defaultBaseURL
	if override := strings.TrimSpace(os.Getenv(baseURLEnv)); override != "" {
		baseURL = strings.TrimRight(override, "/")
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		userAgent:   clientUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
		checkWait:   defaultCheckWait,
		fanOutLimit: 6,
	}
}

// ListRoomTypes fetches the full room-type catalog. The endpoint serves
// either a bare array or a paginated {count, results} envelope.
func (c *Client) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	endpoint := fmt.Sprintf("%s/rooms/room-types/", c.baseURL)

	var raw json.RawMessage
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	return decodeRoomTypeList(raw)
}

func decodeRoomTypeList(raw json.RawMessage) ([]model.RoomType, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var types []model.RoomType
		if err := json.Unmarshal(trimmed, &types); err != nil {
			return nil, fmt.Errorf("decode room types: %w", err)
		}
		return types, nil
	}
	var page struct {
		Results []model.RoomType `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decode room types: %w", err)
	}
	return page.Results, nil
}

// CheckRoomAvailability queries availability for one room type over a stay
// window. The call is read-only, so transient failures are retried.
func (c *Client) CheckRoomAvailability(ctx context.Context, roomTypeID int64, window model.StayWindow) (model.AvailabilityPayload, error) {
	if roomTypeID == 0 {
		return model.AvailabilityPayload{}, errors.New("room type id is required")
	}
	endpoint := fmt.Sprintf("%s/bookings/check-availability/", c.baseURL)
	body := map[string]any{
		"room_type_id": roomTypeID,
		"check_in":     window.CheckInISO(),
		"check_out":    window.CheckOutISO(),
	}

	var payload model.AvailabilityPayload
	if err := c.postJSON(ctx, endpoint, body, &payload, c.maxAttempts); err != nil {
		return model.AvailabilityPayload{}, err
	}
	return payload, nil
}

// CreateReservation submits a reservation request. Never retried at the
// transport level: the call is not idempotent, and one confirm action must
// produce at most one reservation.
func (c *Client) CreateReservation(ctx context.Context, req model.ReservationRequest) (model.ReservationConfirmation, error) {
	endpoint := fmt.Sprintf("%s/bookings/create/", c.baseURL)

	var envelope struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, endpoint, req, &envelope, 1); err != nil {
		return model.ReservationConfirmation{}, err
	}
	return model.ReservationConfirmation{
		ID:      envelope.Data.ID,
		Message: envelope.Message,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, nil, out, c.maxAttempts)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any, out any, maxAttempts int) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, endpoint, payload, out, maxAttempts)
}

func (c *Client) doJSON(ctx context.Context, method string, endpoint string, body []byte, out any, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
			_ = res.Body.Close()

			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Endpoint:   endpoint,
				Body:       strings.TrimSpace(string(snippet)),
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
