package signer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"

	crypto "github.com/LeJamon/poolgovd/internal/crypto/common"
)

// KeyFile is the on-disk form of a signing key.
type KeyFile struct {
	KeyType string `json:"key_type"`
	Secret  string `json:"secret"`
}

// Encode converts a signer into its key file form.
func Encode(s Signer) (KeyFile, error) {
	switch k := s.(type) {
	case *Ed25519Signer:
		return KeyFile{KeyType: KeyTypeEd25519.String(), Secret: k.PrivateKey().String()}, nil
	case *Secp256k1Signer:
		return KeyFile{KeyType: KeyTypeSecp256k1.String(), Secret: k.SecretHex()}, nil
	default:
		return KeyFile{}, fmt.Errorf("unsupported signer %T", s)
	}
}

// Decode rebuilds a signer from its key file form.
func (kf KeyFile) Decode() (Signer, error) {
	switch ParseKeyType(kf.KeyType) {
	case KeyTypeEd25519:
		key, err := solana.PrivateKeyFromBase58(kf.Secret)
		if err != nil {
			return nil, fmt.Errorf("invalid ed25519 secret: %w", err)
		}
		return NewEd25519Signer(key)
	case KeyTypeSecp256k1:
		return NewSecp256k1SignerFromHex(kf.Secret)
	default:
		return nil, fmt.Errorf("unsupported key type %q", kf.KeyType)
	}
}

// Generate creates a random signer of the given type.
func Generate(kt KeyType) (Signer, error) {
	switch kt {
	case KeyTypeEd25519:
		return GenerateEd25519()
	case KeyTypeSecp256k1:
		return GenerateSecp256k1()
	default:
		return nil, fmt.Errorf("unsupported key type %s", kt)
	}
}

// LoadKeyFile reads and decodes a key file.
func LoadKeyFile(path string) (Signer, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	defer crypto.Erase(content)
	var kf KeyFile
	if err := json.Unmarshal(content, &kf); err != nil {
		return nil, fmt.Errorf("failed to parse key file %s: %w", path, err)
	}
	return kf.Decode()
}

// SaveKeyFile writes a signer to path with owner-only permissions.
func SaveKeyFile(path string, s Signer) error {
	kf, err := Encode(s)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	defer crypto.Erase(content)
	return os.WriteFile(path, content, 0o600)
}
