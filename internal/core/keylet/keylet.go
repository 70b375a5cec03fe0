package keylet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Type identifies the kind of record stored at a keylet.
type Type uint8

const (
	TypeAccount Type = iota
	TypeSystemState
	TypeMainTreasury
	TypePool
	TypePlatformData
)

func (t Type) String() string {
	switch t {
	case TypeAccount:
		return "Account"
	case TypeSystemState:
		return "SystemState"
	case TypeMainTreasury:
		return "MainTreasury"
	case TypePool:
		return "Pool"
	case TypePlatformData:
		return "PlatformData"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// Seed prefixes for derived records.
var (
	seedSystemState  = []byte("system_state")
	seedMainTreasury = []byte("main_treasury")
	seedPoolState    = []byte("pool_state_v2")
)

// Keylet represents an addressable location in the ledger state. Derived
// keylets also carry the bump that moved the address off the curve.
type Keylet struct {
	Type Type
	Key  solana.PublicKey
	Bump uint8
}

func (k Keylet) String() string {
	return fmt.Sprintf("%s(%s)", k.Type, k.Key)
}

// derive computes a seed-derived address under owner. Derivation only fails
// when no bump yields an off-curve point, which is unreachable for the fixed
// seeds used here.
func derive(t Type, owner solana.PublicKey, seeds ...[]byte) Keylet {
	key, bump, err := solana.FindProgramAddress(seeds, owner)
	if err != nil {
		panic(fmt.Sprintf("keylet: cannot derive %s address: %v", t, err))
	}
	return Keylet{Type: t, Key: key, Bump: bump}
}

// Account returns the keylet for a plain value-bearing account.
func Account(id solana.PublicKey) Keylet {
	return Keylet{Type: TypeAccount, Key: id}
}

// SystemState returns the keylet for the singleton system state record.
func SystemState(programID solana.PublicKey) Keylet {
	return derive(TypeSystemState, programID, seedSystemState)
}

// MainTreasury returns the keylet for the singleton treasury account.
func MainTreasury(programID solana.PublicKey) Keylet {
	return derive(TypeMainTreasury, programID, seedMainTreasury)
}

// Pool returns the keylet for the pool record of poolID.
func Pool(programID, poolID solana.PublicKey) Keylet {
	return derive(TypePool, programID, seedPoolState, poolID.Bytes())
}

// PlatformData returns the keylet of the platform record that holds the
// program's upgrade authority. It is derived under the platform loader, so
// only the loader can write it.
func PlatformData(loaderID, programID solana.PublicKey) Keylet {
	return derive(TypePlatformData, loaderID, programID.Bytes())
}
