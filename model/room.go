package model

// RoomType is one bookable category of accommodation, as published by the
// room catalog endpoint. The catalog serializes the description field as
// "describtion"; the tag matches the wire, not the spelling.
type RoomType struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"describtion"`
	BasePrice   Decimal `json:"base_price"`
	Capacity    int     `json:"capacity"`
	ImageURL    string  `json:"image"`
}

// MaxGuests returns the guest capacity, treating an unset capacity as one.
func (rt RoomType) MaxGuests() int {
	if rt.Capacity < 1 {
		return 1
	}
	return rt.Capacity
}
