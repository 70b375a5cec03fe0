package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/genesis"
)

// GenesisJSON represents the JSON genesis file format
type GenesisJSON struct {
	ProgramID        string               `json:"program_id,omitempty"`
	LoaderID         string               `json:"loader_id,omitempty"`
	UpgradeAuthority string               `json:"upgrade_authority,omitempty"`
	Slot             uint64               `json:"slot,omitempty"`
	TotalSupply      string               `json:"total_supply,omitempty"`
	Accounts         []GenesisAccountJSON `json:"accounts"`
}

// GenesisAccountJSON funds one account. Balance is a decimal string so that
// values above 2^53 survive JSON tooling.
type GenesisAccountJSON struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// LoadGenesisJSON loads and parses a genesis JSON file
func LoadGenesisJSON(path string) (*GenesisJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}

	var g GenesisJSON
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse genesis JSON: %w", err)
	}

	return &g, nil
}

// Validate validates the genesis file
func (g *GenesisJSON) Validate() error {
	_, err := g.ToGenesisConfig(solana.PublicKey{}, solana.PublicKey{})
	return err
}

// ToGenesisConfig converts the file to a genesis.Config. The program and
// loader fall back to the given keys when the file leaves them empty.
func (g *GenesisJSON) ToGenesisConfig(programID, loaderID solana.PublicKey) (genesis.Config, error) {
	cfg := genesis.Config{ProgramID: programID, LoaderID: loaderID, Slot: g.Slot}

	var err error
	if g.ProgramID != "" {
		if cfg.ProgramID, err = solana.PublicKeyFromBase58(g.ProgramID); err != nil {
			return cfg, fmt.Errorf("invalid program_id: %w", err)
		}
	}
	if g.LoaderID != "" {
		if cfg.LoaderID, err = solana.PublicKeyFromBase58(g.LoaderID); err != nil {
			return cfg, fmt.Errorf("invalid loader_id: %w", err)
		}
	}
	if g.UpgradeAuthority != "" {
		ua, err := solana.PublicKeyFromBase58(g.UpgradeAuthority)
		if err != nil {
			return cfg, fmt.Errorf("invalid upgrade_authority: %w", err)
		}
		cfg.UpgradeAuthority = &ua
	}

	seen := make(map[solana.PublicKey]bool, len(g.Accounts))
	var total uint64
	for i, acc := range g.Accounts {
		addr, err := solana.PublicKeyFromBase58(acc.Address)
		if err != nil {
			return cfg, fmt.Errorf("invalid address for account %d: %w", i, err)
		}
		if seen[addr] {
			return cfg, fmt.Errorf("duplicate account %s", addr)
		}
		seen[addr] = true

		balance, err := strconv.ParseUint(acc.Balance, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid balance for account %s: %w", acc.Address, err)
		}
		if total+balance < total {
			return cfg, errors.New("account balances overflow")
		}
		total += balance
		cfg.Allocations = append(cfg.Allocations, genesis.Allocation{Account: addr, Balance: balance})
	}

	if g.TotalSupply != "" {
		supply, err := strconv.ParseUint(g.TotalSupply, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid total_supply: %w", err)
		}
		if supply != total {
			return cfg, fmt.Errorf("account balances (%d) don't match total_supply (%d)", total, supply)
		}
	}

	return cfg, nil
}
