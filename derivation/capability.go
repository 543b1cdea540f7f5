package derivation

import (
	"fmt"

	"coinflip/models"
)

// Entity is a derived identity together with the inputs that produced it
type Entity struct {
	Address   models.Address
	Namespace string
	Parts     [][]byte
}

// ForHouse describes the house singleton as a derived entity
func ForHouse(h *models.HouseTreasury) Entity {
	return Entity{
		Address:   h.Address,
		Namespace: NamespaceHouse,
	}
}

// ForBet describes a bet record as a derived entity
func ForBet(b *models.BetRecord) Entity {
	return Entity{
		Address:   b.Address,
		Namespace: NamespaceBet,
		Parts:     [][]byte{b.User.Bytes(), SeedBytes(b.UserSeed)},
	}
}

// Capability authorizes debits from one account on behalf of the derived
// identity that owns it. Only Authorize can produce a non-zero Capability.
type Capability struct {
	signer    models.Address
	account   models.Address
	namespace string
}

// Authorize checks that entity really derives from its seeds and that it owns
// account, and returns the capability for debiting that account.
func Authorize(entity Entity, account *models.TokenAccount) (Capability, error) {
	if account == nil {
		return Capability{}, fmt.Errorf("%w: no account to authorize", models.ErrUnauthorized)
	}

	derived := Derive(entity.Namespace, entity.Parts...)
	if derived != entity.Address {
		return Capability{}, fmt.Errorf("%w: %s entity %s does not match its derivation %s",
			models.ErrUnauthorized, entity.Namespace, entity.Address, derived)
	}
	if account.Owner != entity.Address {
		return Capability{}, fmt.Errorf("%w: account %s is not owned by %s %s",
			models.ErrUnauthorized, account.Address, entity.Namespace, entity.Address)
	}

	return Capability{
		signer:    entity.Address,
		account:   account.Address,
		namespace: entity.Namespace,
	}, nil
}

// Signer returns the derived identity acting as signer
func (c Capability) Signer() models.Address {
	return c.signer
}

// Account returns the only account this capability may debit
func (c Capability) Account() models.Address {
	return c.account
}

// Namespace returns the namespace of the signing entity
func (c Capability) Namespace() string {
	return c.namespace
}

// IsZero reports whether the capability was never issued
func (c Capability) IsZero() bool {
	return c.signer.IsZero()
}

// Permits reports whether the capability may debit account
func (c Capability) Permits(account *models.TokenAccount) bool {
	return !c.IsZero() &&
		account != nil &&
		c.account == account.Address &&
		c.signer == account.Owner
}
