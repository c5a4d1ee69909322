package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"numba-booking-cli/model"
)

const (
	catalogCacheTTL = time.Hour
	maxRecentGuests = 4
	appDirName      = "numba-booking-cli"
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

// RecentGuest is remembered contact info used to prefill the guest form.
// Contact fields only; stay dates and room selection never persist.
type RecentGuest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type guestHistory struct {
	Guests []RecentGuest `json:"guests"`
}

// LoadRoomTypeCache returns the cached room-type catalog and whether it is
// still fresh.
func LoadRoomTypeCache() ([]model.RoomType, bool, error) {
	path, err := cachePath("room_types.json")
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.RoomType](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= catalogCacheTTL, nil
}

func SaveRoomTypeCache(types []model.RoomType) error {
	path, err := cachePath("room_types.json")
	if err != nil {
		return err
	}
	return saveCache(path, types)
}

func LoadRecentGuests() ([]RecentGuest, error) {
	path, err := configPath("guests.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history guestHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.New("invalid guest history format")
	}
	return history.Guests, nil
}

// RememberGuest records contact info after a successful reservation, most
// recent first, deduplicated by email.
func RememberGuest(guest RecentGuest) error {
	guest.FullName = strings.TrimSpace(guest.FullName)
	guest.Email = strings.TrimSpace(guest.Email)
	guest.Phone = strings.TrimSpace(guest.Phone)
	if guest.Email == "" {
		return errors.New("guest email is required")
	}

	history, _ := LoadRecentGuests()
	next := []RecentGuest{guest}
	for _, existing := range history {
		if strings.EqualFold(existing.Email, guest.Email) {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentGuests {
			break
		}
	}
	return saveRecentGuests(next)
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	payload, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func saveRecentGuests(guests []RecentGuest) error {
	path, err := configPath("guests.json")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	history := guestHistory{Guests: guests}
	payload, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, name), nil
}
