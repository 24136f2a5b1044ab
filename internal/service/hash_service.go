package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHashService implements ports.HashService for transaction PINs.
type BcryptHashService struct {
	cost int
}

// NewBcryptHashService creates a bcrypt hash service with the default cost.
func NewBcryptHashService() *BcryptHashService {
	return &BcryptHashService{cost: bcrypt.DefaultCost}
}

// Hash generates a bcrypt hash of the PIN.
func (s *BcryptHashService) Hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing pin: %w", err)
	}
	return string(hash), nil
}

// Verify checks a candidate PIN against a stored hash. A mismatch is
// reported as (false, nil); only unexpected failures return an error.
func (s *BcryptHashService) Verify(pin string, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("verifying pin: %w", err)
	}
	return true, nil
}
