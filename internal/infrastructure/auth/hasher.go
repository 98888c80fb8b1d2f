package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptAPIKeyHasher hashes long-lived API keys before they are stored.
type BcryptAPIKeyHasher struct {
	cost int
}

func NewBcryptAPIKeyHasher(cost int) *BcryptAPIKeyHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptAPIKeyHasher{cost: cost}
}

func (h *BcryptAPIKeyHasher) Hash(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to generate key hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptAPIKeyHasher) Verify(key, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		// Same message for mismatch and malformed hash.
		return fmt.Errorf("api key verification failed")
	}
	return nil
}
