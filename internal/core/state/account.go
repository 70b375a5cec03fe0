// Package state holds the persisted records of the governance plane and
// their encodings.
package state

import (
	"github.com/gagliardetto/solana-go"
)

// NativeMint identifies the base currency. Accounts holding the base
// currency carry the zero mint.
var NativeMint = solana.PublicKey{}

// Account is a value-bearing ledger account. Records owned by the program
// keep their state in Data.
type Account struct {
	Owner   solana.PublicKey `codec:"owner"`
	Mint    solana.PublicKey `codec:"mint"`
	Balance uint64           `codec:"balance"`
	Frozen  bool             `codec:"frozen"`
	Data    []byte           `codec:"data"`
}

// NewAccount returns a native account holding balance.
func NewAccount(owner solana.PublicKey, balance uint64) *Account {
	return &Account{Owner: owner, Mint: NativeMint, Balance: balance}
}

// IsNative reports whether the account holds the base currency.
func (a *Account) IsNative() bool {
	return a.Mint.IsZero()
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	c := *a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return &c
}

// EncodeAccount serializes an account envelope.
func EncodeAccount(a *Account) ([]byte, error) {
	return encodeRecord(recordAccount, a)
}

// DecodeAccount parses an account envelope.
func DecodeAccount(data []byte) (*Account, error) {
	var a Account
	if err := decodeRecord(recordAccount, data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
