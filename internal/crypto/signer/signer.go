package signer

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrInvalidPublicKey is returned when the envelope's public key cannot be parsed
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidSignature is returned when the signature does not verify
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMissingSignature is returned when an envelope carries no signature
	ErrMissingSignature = errors.New("missing signature")
)

// Signer produces envelopes over canonical call messages.
type Signer interface {
	KeyType() KeyType
	Identity() solana.PublicKey
	Sign(msg []byte) (Envelope, error)
}

// Envelope carries the proof that an identity authorized a message.
type Envelope struct {
	KeyType   KeyType `json:"key_type"`
	PublicKey []byte  `json:"public_key"`
	Signature []byte  `json:"signature"`
}

// IsZero reports whether the envelope is empty.
func (e Envelope) IsZero() bool {
	return len(e.PublicKey) == 0 && len(e.Signature) == 0
}

// Identity returns the identity the envelope claims, without verifying it.
func (e Envelope) Identity() (solana.PublicKey, error) {
	switch e.KeyType {
	case KeyTypeEd25519:
		if len(e.PublicKey) != publicKeyLength {
			return solana.PublicKey{}, ErrInvalidPublicKey
		}
		return solana.PublicKeyFromBytes(e.PublicKey), nil
	case KeyTypeSecp256k1:
		return secp256k1Identity(e.PublicKey)
	default:
		return solana.PublicKey{}, fmt.Errorf("%w: unsupported key type %s", ErrInvalidPublicKey, e.KeyType)
	}
}

// Verify checks the envelope signature over msg and returns the signing identity.
func (e Envelope) Verify(msg []byte) (solana.PublicKey, error) {
	if len(e.Signature) == 0 {
		return solana.PublicKey{}, ErrMissingSignature
	}
	id, err := e.Identity()
	if err != nil {
		return solana.PublicKey{}, err
	}

	var ok bool
	switch e.KeyType {
	case KeyTypeEd25519:
		ok = verifyEd25519(id, msg, e.Signature)
	case KeyTypeSecp256k1:
		ok, err = verifySecp256k1(e.PublicKey, msg, e.Signature)
		if err != nil {
			return solana.PublicKey{}, err
		}
	}
	if !ok {
		return solana.PublicKey{}, ErrInvalidSignature
	}
	return id, nil
}
