package signer

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/gagliardetto/solana-go"

	crypto "github.com/LeJamon/poolgovd/internal/crypto/common"
)

// Secp256k1Signer signs with a secp256k1 keypair. The identity is the
// SHA-512-half of the compressed public key.
type Secp256k1Signer struct {
	privateKey *btcec.PrivateKey
}

// GenerateSecp256k1 creates a signer with a fresh random key.
func GenerateSecp256k1() (*Secp256k1Signer, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return &Secp256k1Signer{privateKey: privateKey}, nil
}

// NewSecp256k1SignerFromHex loads a signer from a hex-encoded 32-byte secret.
func NewSecp256k1SignerFromHex(secretHex string) (*Secp256k1Signer, error) {
	raw, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("invalid secp256k1 secret: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("secp256k1 secret must be 32 bytes, got %d", len(raw))
	}
	privateKey, _ := btcec.PrivKeyFromBytes(raw)
	return &Secp256k1Signer{privateKey: privateKey}, nil
}

func (s *Secp256k1Signer) KeyType() KeyType { return KeyTypeSecp256k1 }

func (s *Secp256k1Signer) Identity() solana.PublicKey {
	id, _ := secp256k1Identity(s.privateKey.PubKey().SerializeCompressed())
	return id
}

// SecretHex returns the hex-encoded private scalar.
func (s *Secp256k1Signer) SecretHex() string {
	return hex.EncodeToString(s.privateKey.Serialize())
}

// Sign signs the SHA-512-half of msg and returns a DER encoded signature.
func (s *Secp256k1Signer) Sign(msg []byte) (Envelope, error) {
	digest := crypto.Sha512Half(msg)
	sig := btcecdsa.Sign(s.privateKey, digest[:])
	return Envelope{
		KeyType:   KeyTypeSecp256k1,
		PublicKey: s.privateKey.PubKey().SerializeCompressed(),
		Signature: sig.Serialize(),
	}, nil
}

func secp256k1Identity(pubKey []byte) (solana.PublicKey, error) {
	if PublicKeyType(pubKey) != KeyTypeSecp256k1 {
		return solana.PublicKey{}, ErrInvalidPublicKey
	}
	if _, err := secp256k1.ParsePubKey(pubKey); err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	h := crypto.Sha512Half(pubKey)
	return solana.PublicKeyFromBytes(h[:]), nil
}

func verifySecp256k1(pubKey, msg, sig []byte) (bool, error) {
	pub, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false, nil
	}
	digest := crypto.Sha512Half(msg)
	return parsed.Verify(digest[:], pub), nil
}
