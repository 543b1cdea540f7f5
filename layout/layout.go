// Package layout encodes houses and bets in their fixed binary account form.
// Every encoding starts with an 8 byte discriminator naming the account type,
// followed by little endian fields.
package layout

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"coinflip/models"
)

// Encoded sizes in bytes
const (
	// DiscriminatorLength is the size of the account type prefix
	DiscriminatorLength = 8

	// HouseBodyLength covers bump, authority, treasury account and both counters
	HouseBodyLength = 1 + models.AddressLength + models.AddressLength + 8 + 8
	// BetBodyLength covers user, house, amount, guess, both seeds, result,
	// settled flag, escrow account and bump
	BetBodyLength = models.AddressLength + models.AddressLength + 8 + 1 + 8 + 8 + 1 + 1 + models.AddressLength + 1

	// HouseLength is a full house encoding including the discriminator
	HouseLength = DiscriminatorLength + HouseBodyLength
	// BetLength is a full bet encoding including the discriminator
	BetLength = DiscriminatorLength + BetBodyLength
)

// Discriminators are the first 8 bytes of sha256("account:<Name>")
var (
	HouseDiscriminator = discriminator("House")
	BetDiscriminator   = discriminator("Bet")
)

// Decode errors
var (
	// ErrWrongLength means the input is not exactly one account long
	ErrWrongLength = errors.New("layout has wrong length")
	// ErrWrongDiscriminator means the input encodes a different account type
	ErrWrongDiscriminator = errors.New("layout has wrong discriminator")
	// ErrInvalidBool means a bool field holds a byte other than 0 or 1
	ErrInvalidBool = errors.New("layout holds an invalid bool")
)

func discriminator(name string) [DiscriminatorLength]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [DiscriminatorLength]byte
	copy(d[:], sum[:DiscriminatorLength])
	return d
}

// EncodeHouse returns the binary account form of a house
func EncodeHouse(h *models.HouseTreasury) []byte {
	w := newWriter(HouseLength)
	w.bytes(HouseDiscriminator[:])
	w.u8(h.Bump)
	w.address(h.Authority)
	w.address(h.TreasuryAccount)
	w.u64(h.WinCount)
	w.u64(h.LossCount)
	return w.buf
}

// DecodeHouse parses a house account. The address and timestamps are not part
// of the layout and are left zero.
func DecodeHouse(data []byte) (*models.HouseTreasury, error) {
	r, err := newReader(data, HouseLength, HouseDiscriminator)
	if err != nil {
		return nil, fmt.Errorf("failed to decode house: %w", err)
	}

	h := &models.HouseTreasury{}
	h.Bump = r.u8()
	h.Authority = r.address()
	h.TreasuryAccount = r.address()
	h.WinCount = r.u64()
	h.LossCount = r.u64()
	return h, nil
}

// EncodeBet returns the binary account form of a bet
func EncodeBet(b *models.BetRecord) []byte {
	w := newWriter(BetLength)
	w.bytes(BetDiscriminator[:])
	w.address(b.User)
	w.address(b.House)
	w.u64(b.Amount)
	w.bool(b.UserGuess)
	w.u64(b.UserSeed)
	w.u64(b.HouseSeed())
	w.bool(b.Result())
	w.bool(b.IsSettled())
	w.address(b.EscrowAccount)
	w.u8(b.Bump)
	return w.buf
}

// DecodeBet parses a bet account. A settled flag yields a Settlement with a
// zero SettledAt since the layout carries no timestamps.
func DecodeBet(data []byte) (*models.BetRecord, error) {
	r, err := newReader(data, BetLength, BetDiscriminator)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bet: %w", err)
	}

	b := &models.BetRecord{}
	b.User = r.address()
	b.House = r.address()
	b.Amount = r.u64()
	b.UserGuess = r.bool()
	b.UserSeed = r.u64()
	houseSeed := r.u64()
	result := r.bool()
	settled := r.bool()
	b.EscrowAccount = r.address()
	b.Bump = r.u8()

	if r.err != nil {
		return nil, fmt.Errorf("failed to decode bet: %w", r.err)
	}
	if settled {
		b.Settlement = &models.Settlement{HouseSeed: houseSeed, Result: result}
	} else if houseSeed != 0 || result {
		return nil, fmt.Errorf("failed to decode bet: unsettled bet carries an outcome")
	}
	return b, nil
}

type writer struct {
	buf []byte
}

func newWriter(size int) *writer {
	return &writer{buf: make([]byte, 0, size)}
}

func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) address(a models.Address) { w.buf = append(w.buf, a[:]...) }

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *writer) bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

type reader struct {
	data []byte
	off  int
	err  error
}

func newReader(data []byte, length int, disc [DiscriminatorLength]byte) (*reader, error) {
	if len(data) != length {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrWrongLength, length, len(data))
	}
	if !bytes.Equal(data[:DiscriminatorLength], disc[:]) {
		return nil, ErrWrongDiscriminator
	}
	return &reader{data: data, off: DiscriminatorLength}, nil
}

func (r *reader) next(n int) []byte {
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) address() models.Address {
	var a models.Address
	copy(a[:], r.next(models.AddressLength))
	return a
}

func (r *reader) u8() uint8 { return r.next(1)[0] }

func (r *reader) u64() uint64 { return binary.LittleEndian.Uint64(r.next(8)) }

func (r *reader) bool() bool {
	switch v := r.next(1)[0]; v {
	case 0:
		return false
	case 1:
		return true
	default:
		if r.err == nil {
			r.err = fmt.Errorf("%w: %d at offset %d", ErrInvalidBool, v, r.off-1)
		}
		return false
	}
}
