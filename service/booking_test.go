package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"numba-booking-cli/model"
)

func testWindow() model.StayWindow {
	return model.StayWindow{
		CheckIn:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestListRoomTypes_BareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms/room-types/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
  {"id": 1, "name": "Standard", "base_price": "90.00", "capacity": 2},
  {"id": 2, "name": "Deluxe", "base_price": 150.0, "capacity": 3}
]`))
	}))
	defer server.Close()

	client := NewClient(server.Client())
	client.baseURL = server.URL

	types, err := client.ListRoomTypes(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("expected 2 room types, got %d", len(types))
	}
	if types[0].Name != "Standard" || types[0].BasePrice.Float() != 90 {
		t.Fatalf("unexpected first room type: %+v", types[0])
	}
}

func TestListRoomTypes_PaginatedEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 1, "next": null, "previous": null, "results": [
  {"id": 3, "name": "Suite", "base_price": "240.00", "capacity": 4}
]}`))
	}))
	defer server.Close()

	client := NewClient(server.Client())
	client.baseURL = server.URL

	types, err := client.ListRoomTypes(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(types) != 1 || types[0].Name != "Suite" {
		t.Fatalf("unexpected room types: %+v", types)
	}
}

func TestCheckRoomAvailability_SendsWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bookings/check-availability/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["check_in"] != "2026-03-02" || body["check_out"] != "2026-03-05" {
			t.Fatalf("unexpected window in request: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available": true, "available_count": 2, "room_type": "Deluxe", "nights": 3, "total_price": "450.00", "price_per_night": "150.00"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client())
	client.baseURL = server.URL

	payload, err := client.CheckRoomAvailability(context.Background(), 2, testWindow())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !payload.Available || payload.AvailableCount != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.TotalPrice.Float() != 450 {
		t.Fatalf("unexpected total: %v", payload.TotalPrice)
	}
}

func TestCheckRoomAvailability_RetriesTransientServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&attempts, 1)
		if current < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("retry later"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available": false, "available_count": 0}`))
	}))
	defer server.Close()

	client := NewClient(server.Client())
	client.baseURL = server.URL
	client.retryBase = time.Millisecond
	client.retryCap = 2 * time.Millisecond

	if _, err := client.CheckRoomAvailability(context.Background(), 1, testWindow()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestCheckRoomAvailability_DoesNotRetryOnClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Invalid date format"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client())
	client.baseURL = server.URL
	client.retryBase = time.Millisecond
	client.retryCap = 2 * time.Millisecond

	_, err := client.CheckRoomAvailability(context.Background(), 1, testWindow())
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if got := ErrorMessage(err); got != "Invalid date format" {
		t.Fatalf("expected server message, got %q", got)
	}
}

func TestCreateReservation_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bookings/create/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req model.ReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Email != "ada@example.com" || req.RoomType != 2 {
			t.Fatalf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status": "success", "message": "Booking request submitted!", "data": {"id": 42}}`))
	}))
	defer server.Close()

	client := NewClient(server.Client())
	client.baseURL = server.URL

	req := model.ReservationRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		RoomType: 2,
		CheckIn:  "2026-03-02",
		CheckOut: "2026-03-05",
		Guests:   2,
	}
	confirmation, err := client.CreateReservation(context.Background(), req)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if confirmation.ID != 42 {
		t.Fatalf("unexpected reservation id: %d", confirmation.ID)
	}
	if confirmation.Message != "Booking request submitted!" {
		t.Fatalf("unexpected message: %q", confirmation.Message)
	}
}

func TestCreateReservation_NeverRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down for maintenance"))
	}))
	defer server.Close()

	client := NewClient(server.Client())
	client.baseURL = server.URL
	client.retryBase = time.Millisecond
	client.retryCap = 2 * time.Millisecond

	if _, err := client.CreateReservation(context.Background(), model.ReservationRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestCreateReservation_SurfacesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "No rooms of this type are available for the selected dates"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client())
	client.baseURL = server.URL

	_, err := client.CreateReservation(context.Background(), model.ReservationRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := ErrorMessage(err); !strings.Contains(got, "No rooms of this type") {
		t.Fatalf("expected server message, got %q", got)
	}
}

func TestAPIErrorMessage_Shapes(t *testing.T) {
	cases := []struct {
		body     string
		expected string
	}{
		{`{"error": "boom"}`, "boom"},
		{`{"message": "accepted"}`, "accepted"},
		{`{"detail": "Not found."}`, "Not found."},
		{`not json`, ""},
		{``, ""},
	}
	for _, tc := range cases {
		apiErr := &APIError{StatusCode: 400, Status: "400 Bad Request", Body: tc.body}
		if got := apiErr.Message(); got != tc.expected {
			t.Fatalf("body %q: expected %q, got %q", tc.body, tc.expected, got)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&APIError{StatusCode: http.StatusNotFound}) {
		t.Fatal("expected 404 to be reported as not found")
	}
	if IsNotFound(&APIError{StatusCode: http.StatusBadRequest}) {
		t.Fatal("expected 400 not to be reported as not found")
	}
}
