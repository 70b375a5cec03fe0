package signer

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Ed25519Signer signs with an ed25519 keypair; its identity is the public key.
type Ed25519Signer struct {
	key solana.PrivateKey
}

// NewEd25519Signer wraps an existing private key.
func NewEd25519Signer(key solana.PrivateKey) (*Ed25519Signer, error) {
	if len(key) != 64 {
		return nil, fmt.Errorf("ed25519 private key must be 64 bytes, got %d", len(key))
	}
	return &Ed25519Signer{key: key}, nil
}

// GenerateEd25519 creates a signer with a fresh random key.
func GenerateEd25519() (*Ed25519Signer, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return &Ed25519Signer{key: key}, nil
}

func (s *Ed25519Signer) KeyType() KeyType { return KeyTypeEd25519 }

func (s *Ed25519Signer) Identity() solana.PublicKey { return s.key.PublicKey() }

// PrivateKey exposes the key for persistence.
func (s *Ed25519Signer) PrivateKey() solana.PrivateKey { return s.key }

func (s *Ed25519Signer) Sign(msg []byte) (Envelope, error) {
	sig, err := s.key.Sign(msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("ed25519 sign: %w", err)
	}
	pub := s.key.PublicKey()
	return Envelope{
		KeyType:   KeyTypeEd25519,
		PublicKey: pub.Bytes(),
		Signature: sig[:],
	}, nil
}

func verifyEd25519(pub solana.PublicKey, msg, sig []byte) bool {
	if len(sig) != signatureLength {
		return false
	}
	var s solana.Signature
	copy(s[:], sig)
	return s.Verify(pub, msg)
}

const (
	publicKeyLength = 32
	signatureLength = 64
)
