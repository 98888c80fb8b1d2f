// Package id generates Stripe-style prefixed identifiers. SIDs are the only
// identifiers that leave the service; numeric primary keys stay internal.
package id

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the random part of a generated SID.
	DefaultLength = 12
)

// Entity prefixes.
const (
	PrefixCompany      = "cmp"
	PrefixPlan         = "plan"
	PrefixSubscription = "sub"
	PrefixUsagePeriod  = "usg"
	PrefixReservation  = "rsv"
)

// Generate returns a cryptographically random base62 string of the given
// length.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	out := make([]byte, length)
	for i, b := range raw {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

// GenerateWithPrefix returns "prefix_<random>".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	random, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + random, nil
}

// Split breaks a prefixed SID into its prefix and random part.
func Split(sid string) (prefix, random string, err error) {
	parts := strings.SplitN(sid, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed SID %q", sid)
	}
	return parts[0], parts[1], nil
}

// HasPrefix reports whether sid carries the expected entity prefix.
func HasPrefix(sid, expected string) bool {
	prefix, _, err := Split(sid)
	return err == nil && prefix == expected
}

func NewCompanyID() (string, error) {
	return GenerateWithPrefix(PrefixCompany, DefaultLength)
}

func NewPlanID() (string, error) {
	return GenerateWithPrefix(PrefixPlan, DefaultLength)
}

func NewSubscriptionID() (string, error) {
	return GenerateWithPrefix(PrefixSubscription, DefaultLength)
}

// NewReservationToken mints the single-use token handed back by Authorize.
func NewReservationToken() (string, error) {
	return GenerateWithPrefix(PrefixReservation, DefaultLength)
}
