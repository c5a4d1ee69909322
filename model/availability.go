package model

// AvailabilityPayload is the raw per-room-type response from the
// check-availability endpoint.
type AvailabilityPayload struct {
	Available      bool    `json:"available"`
	AvailableCount int     `json:"available_count"`
	RoomTypeName   string  `json:"room_type"`
	Nights         int     `json:"nights"`
	TotalPrice     Decimal `json:"total_price"`
	PricePerNight  Decimal `json:"price_per_night"`
}

// AvailabilityResult is the normalized availability record for one room type
// and one stay window. A failed check always resolves to Available=false with
// the reason in ErrorMessage; Available is true only when the server asserted
// both the flag and a positive count.
type AvailabilityResult struct {
	RoomType       RoomType
	Available      bool
	AvailableCount int
	Nights         int
	PricePerNight  Decimal
	TotalPrice     Decimal
	ErrorMessage   string
}
