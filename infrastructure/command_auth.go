package infrastructure

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"coinflip/models"
)

const (
	signingDomain  = "coinflip-command"
	maxNonceLength = 64
)

// SignedCommand is the body of a command that acts for an identity. The
// signer's address is its ed25519 public key; Signature covers
// SigningMessage(subject, Signer, Nonce, Timestamp, Payload).
type SignedCommand struct {
	Signer    models.Address  `json:"signer"`
	Nonce     string          `json:"nonce"`
	Timestamp int64           `json:"timestamp"` // unix seconds
	Payload   json.RawMessage `json:"payload"`
	Signature []byte          `json:"signature"`
}

// NonceStore claims a signer's nonce once until it expires
type NonceStore interface {
	Claim(ctx context.Context, signer models.Address, nonce string, expiresAt time.Time) (bool, error)
}

// SigningMessage returns the bytes a client signs for one command
func SigningMessage(subject string, signer models.Address, nonce string, timestamp int64, payload []byte) []byte {
	msg := make([]byte, 0, len(signingDomain)+len(subject)+len(nonce)+len(payload)+96)
	msg = append(msg, signingDomain...)
	msg = append(msg, '\n')
	msg = append(msg, subject...)
	msg = append(msg, '\n')
	msg = append(msg, signer.String()...)
	msg = append(msg, '\n')
	msg = append(msg, nonce...)
	msg = append(msg, '\n')
	msg = strconv.AppendInt(msg, timestamp, 10)
	msg = append(msg, '\n')
	return append(msg, payload...)
}

// SignCommand wraps payload in a SignedCommand signed with key
func SignCommand(key ed25519.PrivateKey, subject, nonce string, at time.Time, payload []byte) ([]byte, error) {
	signer, err := models.AddressFromBytes(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	// The encoder compacts raw payloads, so sign the compact form
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	cmd := SignedCommand{
		Signer:    signer,
		Nonce:     nonce,
		Timestamp: at.Unix(),
		Payload:   compact.Bytes(),
	}
	cmd.Signature = ed25519.Sign(key, SigningMessage(subject, cmd.Signer, cmd.Nonce, cmd.Timestamp, cmd.Payload))

	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cmd); err != nil {
		return nil, err
	}
	return bytes.TrimRight(out.Bytes(), "\n"), nil
}

// CommandAuthenticator verifies signed commands and refuses replays
type CommandAuthenticator struct {
	nonces  NonceStore
	maxSkew time.Duration
	now     func() time.Time
}

// NewCommandAuthenticator accepts commands whose timestamp lies within
// maxSkew of the local clock
func NewCommandAuthenticator(nonces NonceStore, maxSkew time.Duration) *CommandAuthenticator {
	return &CommandAuthenticator{
		nonces:  nonces,
		maxSkew: maxSkew,
		now:     time.Now,
	}
}

// Authenticate checks the envelope for subject and returns the verified
// signer and the inner payload
func (a *CommandAuthenticator) Authenticate(ctx context.Context, subject string, data []byte) (models.Address, []byte, error) {
	var cmd SignedCommand
	if err := decode(data, &cmd); err != nil {
		return models.Address{}, nil, err
	}
	if cmd.Signer.IsZero() || len(cmd.Payload) == 0 {
		return models.Address{}, nil, &invalidRequestError{cause: fmt.Errorf("signed command needs signer and payload")}
	}
	if cmd.Nonce == "" || len(cmd.Nonce) > maxNonceLength {
		return models.Address{}, nil, &invalidRequestError{cause: fmt.Errorf("nonce must be 1 to %d bytes", maxNonceLength)}
	}

	issued := time.Unix(cmd.Timestamp, 0)
	if skew := a.now().Sub(issued); skew > a.maxSkew || skew < -a.maxSkew {
		return models.Address{}, nil, fmt.Errorf("%w: command timestamp outside the accepted window", models.ErrUnauthorized)
	}

	message := SigningMessage(subject, cmd.Signer, cmd.Nonce, cmd.Timestamp, cmd.Payload)
	if len(cmd.Signature) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(cmd.Signer.Bytes()), message, cmd.Signature) {
		return models.Address{}, nil, fmt.Errorf("%w: bad signature for %s", models.ErrUnauthorized, cmd.Signer)
	}

	claimed, err := a.nonces.Claim(ctx, cmd.Signer, cmd.Nonce, issued.Add(a.maxSkew))
	if err != nil {
		return models.Address{}, nil, err
	}
	if !claimed {
		return models.Address{}, nil, fmt.Errorf("%w: nonce %q already used by %s", models.ErrUnauthorized, cmd.Nonce, cmd.Signer)
	}

	return cmd.Signer, cmd.Payload, nil
}

// bindCaller ties an identity field of a request to the verified signer. An
// empty field takes the signer; a different identity is refused.
func bindCaller(field *models.Address, caller models.Address) error {
	if field.IsZero() {
		*field = caller
		return nil
	}
	if *field != caller {
		return fmt.Errorf("%w: request acts for %s but was signed by %s", models.ErrUnauthorized, *field, caller)
	}
	return nil
}
