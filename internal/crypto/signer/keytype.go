// Package signer verifies the signatures that authorize governance calls and
// maps signing keys onto 32-byte identities.
package signer

// KeyType identifies the signature scheme of an envelope.
type KeyType byte

const (
	// KeyTypeUnknown indicates an unknown or invalid key type.
	KeyTypeUnknown KeyType = 0x00
	// KeyTypeSecp256k1 indicates a secp256k1 (ECDSA) key.
	KeyTypeSecp256k1 KeyType = 0x02
	// KeyTypeEd25519 indicates an Ed25519 key.
	KeyTypeEd25519 KeyType = 0xED
)

// String returns the string representation of the key type.
func (kt KeyType) String() string {
	switch kt {
	case KeyTypeSecp256k1:
		return "secp256k1"
	case KeyTypeEd25519:
		return "ed25519"
	default:
		return "unknown"
	}
}

// ParseKeyType maps a textual key type onto a KeyType.
func ParseKeyType(s string) KeyType {
	switch s {
	case "secp256k1":
		return KeyTypeSecp256k1
	case "ed25519":
		return KeyTypeEd25519
	default:
		return KeyTypeUnknown
	}
}

// PublicKeyType determines the key type from a public key's raw bytes.
//
// Public key formats:
//   - Ed25519: 32 bytes
//   - secp256k1: 33 bytes, first byte is 0x02 or 0x03 (compressed format)
func PublicKeyType(pubKey []byte) KeyType {
	switch len(pubKey) {
	case 32:
		return KeyTypeEd25519
	case 33:
		if pubKey[0] == 0x02 || pubKey[0] == 0x03 {
			return KeyTypeSecp256k1
		}
	}
	return KeyTypeUnknown
}
