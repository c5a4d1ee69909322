package service

import (
	"context"
	"errors"
	"sync"

	"numba-booking-cli/model"
)

// QueryAvailability resolves availability for every published room type over
// the given stay window: one catalog fetch, then an independent availability
// check per room type. An invalid window is rejected locally before any
// request; a catalog failure fails the whole batch.
func (c *Client) QueryAvailability(ctx context.Context, window model.StayWindow) ([]model.AvailabilityResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	types, err := c.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, errors.New("no room types published")
	}
	return c.CheckAvailabilityForTypes(ctx, window, types), nil
}

// CheckAvailabilityForTypes fans out one availability check per room type and
// waits for every check to settle. One room type failing or stalling degrades
// only that room type's record; the batch always resolves with one result per
// input, in catalog order.
func (c *Client) CheckAvailabilityForTypes(ctx context.Context, window model.StayWindow, types []model.RoomType) []model.AvailabilityResult {
	results := make([]model.AvailabilityResult, len(types))
	sem := make(chan struct{}, c.fanOutLimit)
	var wg sync.WaitGroup

	for i, rt := range types {
		wg.Add(1)
		go func(i int, rt model.RoomType) {
			defer wg.Done()
			sem <- struct{}{}
			results[i] = c.checkOne(ctx, window, rt)
			<-sem
		}(i, rt)
	}

	wg.Wait()
	return results
}

func (c *Client) checkOne(ctx context.Context, window model.StayWindow, rt model.RoomType) model.AvailabilityResult {
	result := model.AvailabilityResult{
		RoomType:      rt,
		Nights:        window.Nights(),
		PricePerNight: rt.BasePrice,
	}

	checkCtx, cancel := context.WithTimeout(ctx, c.checkWait)
	defer cancel()

	payload, err := c.CheckRoomAvailability(checkCtx, rt.ID, window)
	if err != nil {
		result.ErrorMessage = checkFailureReason(err)
		return result
	}

	// The server asserts both a flag and a count; trust neither alone.
	result.Available = payload.Available && payload.AvailableCount > 0
	if result.Available {
		result.AvailableCount = payload.AvailableCount
	}
	if payload.Nights > 0 {
		result.Nights = payload.Nights
	}
	if payload.PricePerNight > 0 {
		result.PricePerNight = payload.PricePerNight
	}
	result.TotalPrice = payload.TotalPrice
	if result.TotalPrice <= 0 {
		result.TotalPrice = model.Decimal(float64(result.Nights) * result.PricePerNight.Float())
	}
	return result
}

func checkFailureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "availability check timed out"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
		return apiErr.Status
	}
	return err.Error()
}
