// Package model defines the core data structures for morning-cli.
package model

import (
	"errors"
	"fmt"
	"time"
)

// FeedbackType is a user's reaction to a recommended menu item.
type FeedbackType string

const (
	FeedbackLike    FeedbackType = "like"
	FeedbackDislike FeedbackType = "dislike"
)

// ParseFeedbackType converts a string to a FeedbackType.
func ParseFeedbackType(s string) (FeedbackType, error) {
	switch FeedbackType(s) {
	case FeedbackLike:
		return FeedbackLike, nil
	case FeedbackDislike:
		return FeedbackDislike, nil
	}
	return "", fmt.Errorf("invalid feedback type: %q (expected like or dislike)", s)
}

// Valid reports whether the feedback type is one of the known values.
func (f FeedbackType) Valid() bool {
	return f == FeedbackLike || f == FeedbackDislike
}

// Mode is the situational context for a recommendation.
// Commute mornings are time-constrained; holidays are not.
type Mode string

const (
	ModeCommute Mode = "commute"
	ModeHoliday Mode = "holiday"
)

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCommute:
		return ModeCommute, nil
	case ModeHoliday:
		return ModeHoliday, nil
	}
	return "", fmt.Errorf("invalid mode: %q (expected commute or holiday)", s)
}

// MenuItem is one entry in the breakfast catalog.
// Name is the natural key joining the catalog to feedback history.
type MenuItem struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
	// Time is the prep/cook duration in minutes.
	Time int `json:"time"`
	// WeatherMatch holds condition indicator letters the item pairs
	// well with, e.g. "CR" for clear and rain.
	WeatherMatch string `json:"weather_match,omitempty"`
}

// Validate checks if the menu item has required fields.
func (m *MenuItem) Validate() error {
	if m.Name == "" {
		return errors.New("menu item name is required")
	}
	if m.Time < 0 {
		return fmt.Errorf("menu item %q has negative prep time", m.Name)
	}
	return nil
}

// FeedbackEvent is one recorded like/dislike. Events are append-only;
// conflicting events for the same item are all retained and counted.
type FeedbackEvent struct {
	UserID   string       `json:"user_id"`
	MenuName string       `json:"menu_name"`
	Feedback FeedbackType `json:"feedback"`
	Date     time.Time    `json:"date"`
}

// User is a provisioned account. The password is stored only as a
// bcrypt hash, never in plaintext.
type User struct {
	UserID       string `json:"user_id"`
	PasswordHash string `json:"-"`
}

// Validate checks if the user has required fields.
func (u *User) Validate() error {
	if u.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}
