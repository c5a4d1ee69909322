package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func validGuest() GuestInfo {
	return GuestInfo{FullName: "Ada Lovelace", Email: "ada@example.com", GuestCount: 2}
}

func TestGuestInfoValidate_OK(t *testing.T) {
	if err := validGuest().Validate(2); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestGuestInfoValidate_RequiresName(t *testing.T) {
	guest := validGuest()
	guest.FullName = "   "
	if err := guest.Validate(2); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func TestGuestInfoValidate_RequiresEmail(t *testing.T) {
	guest := validGuest()
	guest.Email = ""
	if err := guest.Validate(2); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected ErrEmailRequired, got %v", err)
	}
}

func TestGuestInfoValidate_EmailShape(t *testing.T) {
	guest := validGuest()
	for _, bad := range []string{"ada", "ada@", "ada@host", "ada @host.com", "@host.com"} {
		guest.Email = bad
		if err := guest.Validate(2); !errors.Is(err, ErrEmailInvalid) {
			t.Fatalf("expected ErrEmailInvalid for %q, got %v", bad, err)
		}
	}
}

func TestGuestInfoValidate_CountWithinCapacity(t *testing.T) {
	guest := validGuest()
	guest.GuestCount = 3
	if err := guest.Validate(2); err == nil {
		t.Fatal("expected error for guest count above capacity")
	}
	guest.GuestCount = 0
	if err := guest.Validate(2); err == nil {
		t.Fatal("expected error for zero guests")
	}
}

func TestNewReservationRequest_TrimsAndFormats(t *testing.T) {
	guest := GuestInfo{
		FullName:        "  Ada Lovelace ",
		Email:           " ada@example.com ",
		GuestCount:      2,
		SpecialRequests: " late arrival ",
	}
	window := StayWindow{
		CheckIn:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	}
	req := NewReservationRequest(guest, RoomType{ID: 7}, window)

	if req.FullName != "Ada Lovelace" || req.Email != "ada@example.com" {
		t.Fatalf("expected trimmed contact fields, got %+v", req)
	}
	if req.RoomType != 7 || req.CheckIn != "2026-03-02" || req.CheckOut != "2026-03-05" {
		t.Fatalf("unexpected payload: %+v", req)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if strings.Contains(string(payload), "phone") {
		t.Fatalf("expected empty phone to be omitted, got %s", payload)
	}
	if !strings.Contains(string(payload), `"special_requests":"late arrival"`) {
		t.Fatalf("expected trimmed special requests, got %s", payload)
	}
}
