// Package derivation computes deterministic identities for houses, bets and
// their custody accounts, and issues the capabilities that let the engine
// move funds out of accounts owned by those identities.
package derivation

import (
	"crypto/sha256"
	"encoding/binary"

	"coinflip/models"
)

// Namespaces used as the first derivation part
const (
	NamespaceHouse    = "house"
	NamespaceBet      = "bet"
	NamespaceEscrow   = "escrow"
	NamespaceTreasury = "treasury"
	NamespaceWallet   = "wallet"
)

// CanonicalBump is stored in the persisted layouts. Hash derivation never
// needs a bump search, so every derived identity records the first candidate.
const CanonicalBump uint8 = 255

// Derive hashes a namespace and its key material into an address. Every part
// is length prefixed so ("ab", "c") and ("a", "bc") never collide.
func Derive(namespace string, parts ...[]byte) models.Address {
	h := sha256.New()
	writePart(h, []byte(namespace))
	for _, p := range parts {
		writePart(h, p)
	}

	var addr models.Address
	copy(addr[:], h.Sum(nil))
	return addr
}

func writePart(h interface{ Write([]byte) (int, error) }, part []byte) {
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(part)))
	_, _ = h.Write(length[:])
	_, _ = h.Write(part)
}

// SeedBytes encodes a seed as 8 little endian bytes
func SeedBytes(seed uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, seed)
	return b
}

// HouseAddress returns the singleton house identity
func HouseAddress() models.Address {
	return Derive(NamespaceHouse)
}

// BetAddress returns the identity of the bet placed by user with seed
func BetAddress(user models.Address, userSeed uint64) models.Address {
	return Derive(NamespaceBet, user[:], SeedBytes(userSeed))
}

// EscrowAddress returns the custody account identity of a bet
func EscrowAddress(bet models.Address) models.Address {
	return Derive(NamespaceEscrow, bet[:])
}

// TreasuryAddress returns the treasury funds account identity of a house
func TreasuryAddress(house models.Address) models.Address {
	return Derive(NamespaceTreasury, house[:])
}

// WalletAddress returns the personal funds account identity of an owner
func WalletAddress(owner models.Address) models.Address {
	return Derive(NamespaceWallet, owner[:])
}
