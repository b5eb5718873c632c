package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PublicKeyLength is the size of an Ed25519 account public key.
const PublicKeyLength = 32

// AddressSuffix terminates every account address.
const AddressSuffix = "L"

var (
	// ErrEmptyPublicKey is returned when no public key was supplied.
	ErrEmptyPublicKey = errors.New("public key required")
	// ErrInvalidAddress is returned by ValidateAddress for malformed input.
	ErrInvalidAddress = errors.New("invalid address")
)

// AddressFromPublicKey derives the account address for a hex encoded public key.
// The address is the first eight bytes of SHA-256(publicKey), read little-endian,
// rendered in decimal and suffixed with "L".
func AddressFromPublicKey(publicKey string) (string, error) {
	trimmed := strings.TrimSpace(publicKey)
	if trimmed == "" {
		return "", ErrEmptyPublicKey
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return "", fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != PublicKeyLength {
		return "", fmt.Errorf("public key must be %d bytes, got %d", PublicKeyLength, len(raw))
	}
	digest := sha256.Sum256(raw)
	value := binary.LittleEndian.Uint64(digest[:8])
	return strconv.FormatUint(value, 10) + AddressSuffix, nil
}

// ValidateAddress checks the textual shape of an address.
func ValidateAddress(address string) error {
	trimmed := strings.TrimSpace(address)
	if len(trimmed) < 2 || !strings.HasSuffix(trimmed, AddressSuffix) {
		return ErrInvalidAddress
	}
	if _, err := strconv.ParseUint(strings.TrimSuffix(trimmed, AddressSuffix), 10, 64); err != nil {
		return ErrInvalidAddress
	}
	return nil
}

// NormalizeAddress folds user-entered addresses to canonical form: NFKC maps
// full-width digits to ASCII and the suffix is upper-cased. The result is
// validated.
func NormalizeAddress(address string) (string, error) {
	normalized := strings.TrimSpace(norm.NFKC.String(address))
	if strings.HasSuffix(normalized, "l") {
		normalized = strings.TrimSuffix(normalized, "l") + AddressSuffix
	}
	if err := ValidateAddress(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
