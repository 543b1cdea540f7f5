package models

import (
	"encoding/hex"
	"fmt"
)

// AddressLength is the size of an identity in bytes
const AddressLength = 32

// Address identifies a house, bet, user or ledger account
type Address [AddressLength]byte

// ZeroAddress is never a valid identity
var ZeroAddress Address

// ParseAddress parses the 64 character hex form of an address
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(b) != AddressLength {
		return a, fmt.Errorf("invalid address %q: expected %d bytes, got %d", s, AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromBytes copies a 32 byte slice into an Address
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("invalid address length %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns a copy of the address bytes
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// IsZero reports whether the address is unset
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// MarshalText implements encoding.TextMarshaler
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
