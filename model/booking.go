package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNameRequired  = errors.New("full name is required")
	ErrEmailRequired = errors.New("email is required")
	ErrEmailInvalid  = errors.New("enter a valid email address")
)

// emailPattern is a permissive shape check; full RFC validation is the
// server's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// GuestInfo holds the guest-details form values.
type GuestInfo struct {
	FullName        string
	Email           string
	Phone           string
	GuestCount      int
	SpecialRequests string
}

// Validate checks the guest details against the selected room type's
// capacity. All checks are local; nothing is sent upstream on failure.
func (g GuestInfo) Validate(capacity int) error {
	if strings.TrimSpace(g.FullName) == "" {
		return ErrNameRequired
	}
	email := strings.TrimSpace(g.Email)
	if email == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	if capacity < 1 {
		capacity = 1
	}
	if g.GuestCount < 1 || g.GuestCount > capacity {
		return fmt.Errorf("guest count must be between 1 and %d", capacity)
	}
	return nil
}

// ReservationRequest is the create-reservation payload.
type ReservationRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	RoomType        int64  `json:"room_type"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Guests          int    `json:"guests"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// NewReservationRequest assembles the payload from the wizard's draft state.
func NewReservationRequest(guest GuestInfo, rt RoomType, window StayWindow) ReservationRequest {
	return ReservationRequest{
		FullName:        strings.TrimSpace(guest.FullName),
		Email:           strings.TrimSpace(guest.Email),
		Phone:           strings.TrimSpace(guest.Phone),
		RoomType:        rt.ID,
		CheckIn:         window.CheckInISO(),
		CheckOut:        window.CheckOutISO(),
		Guests:          guest.GuestCount,
		SpecialRequests: strings.TrimSpace(guest.SpecialRequests),
	}
}

// ReservationConfirmation is the accepted-reservation outcome.
type ReservationConfirmation struct {
	ID      int64
	Message string
}
