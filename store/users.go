package store

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CreateUser provisions a new account. The password is stored as a
// bcrypt hash; the plaintext is never persisted.
func (s *Store) CreateUser(userID, password string) error {
	if userID == "" {
		return errors.New("user ID is required")
	}
	if password == "" {
		return errors.New("password is required")
	}

	exists, err := s.userExists(userID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("user %q already exists", userID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO users (user_id, password_hash) VALUES (?, ?)",
		userID, string(hash),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert user: %v", ErrUnavailable, err)
	}
	return nil
}

// EnsureUser creates the account if it does not exist yet. Used for
// seed accounts at provisioning time; an existing account is left alone.
func (s *Store) EnsureUser(userID, password string) error {
	exists, err := s.userExists(userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.CreateUser(userID, password)
}

// Authenticate checks a credential pair. A mismatch or unknown user
// returns (false, nil); an error is returned only for store failures.
func (s *Store) Authenticate(userID, password string) (bool, error) {
	var hash string
	err := s.db.QueryRow(
		"SELECT password_hash FROM users WHERE user_id = ?",
		userID,
	).Scan(&hash)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to query user: %v", ErrUnavailable, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return false, nil
	}
	return true, nil
}

func (s *Store) userExists(userID string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM users WHERE user_id = ?", userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to query user: %v", ErrUnavailable, err)
	}
	return true, nil
}
