// Package clinic holds the clinic-wide settings singleton and its store.
package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// settingsKey is the fixed Redis key for the settings singleton. There is
// exactly one clinic; settings are never keyed per-entity.
const settingsKey = "clinic:settings"

// Settings is the operator-managed clinic configuration. It gates booking
// intake and feeds the public pages.
type Settings struct {
	// HolidayMode suspends all new bookings while set.
	HolidayMode bool   `json:"holiday_mode"`
	OpenTime    string `json:"open_time"`  // "09:00" in 24-hour format
	CloseTime   string `json:"close_time"` // "21:00" in 24-hour format
	// WorkDays lists the lowercase English weekday names the clinic operates.
	WorkDays []string `json:"work_days"`
}

// DefaultSettings returns the configuration used until an operator saves one.
func DefaultSettings() *Settings {
	return &Settings{
		HolidayMode: false,
		OpenTime:    "09:00",
		CloseTime:   "21:00",
		WorkDays:    []string{"sunday", "monday", "tuesday", "wednesday", "thursday"},
	}
}

// AllowsWeekday reports whether the clinic operates on the given weekday.
func (s *Settings) AllowsWeekday(day time.Weekday) bool {
	if s == nil {
		return false
	}
	name := strings.ToLower(day.String())
	for _, d := range s.WorkDays {
		if strings.ToLower(strings.TrimSpace(d)) == name {
			return true
		}
	}
	return false
}

// Validate checks operator input before it is persisted.
func (s *Settings) Validate() error {
	if _, err := time.Parse("15:04", s.OpenTime); err != nil {
		return fmt.Errorf("clinic: invalid open_time %q", s.OpenTime)
	}
	if _, err := time.Parse("15:04", s.CloseTime); err != nil {
		return fmt.Errorf("clinic: invalid close_time %q", s.CloseTime)
	}
	for _, d := range s.WorkDays {
		if !validWeekday(d) {
			return fmt.Errorf("clinic: invalid work day %q", d)
		}
	}
	return nil
}

func validWeekday(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday":
		return true
	}
	return false
}

// SettingsReader is the read-side dependency handed to booking intake and
// the public pages.
type SettingsReader interface {
	Get(ctx context.Context) (*Settings, error)
}

// Store persists the settings singleton in Redis.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new clinic settings store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

// Get retrieves the settings, returning defaults when nothing is saved yet.
func (s *Store) Get(ctx context.Context) (*Settings, error) {
	data, err := s.redis.Get(ctx, settingsKey).Bytes()
	if err == redis.Nil {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal settings: %w", err)
	}
	return &settings, nil
}

// Set saves the settings singleton.
func (s *Store) Set(ctx context.Context, settings *Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}
	if err := s.redis.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set settings: %w", err)
	}
	return nil
}
