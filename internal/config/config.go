package config

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/poolgovd/internal/core/fees"
	"github.com/LeJamon/poolgovd/internal/core/treasury"
	"github.com/LeJamon/poolgovd/internal/journal"
)

// DefaultProgramID is the program address used when none is configured.
const DefaultProgramID = "HXLF2jsaoJoa8HvEGSLdqcsDrJdoabFfYi5K5VFPkfwk"

// Config represents the complete poolgovd configuration
type Config struct {
	Program  ProgramConfig   `toml:"program" mapstructure:"program"`
	Storage  StorageConfig   `toml:"storage" mapstructure:"storage"`
	Fees     fees.Schedule   `toml:"fees" mapstructure:"fees"`
	Treasury treasury.Config `toml:"treasury" mapstructure:"treasury"`
	Journal  journal.Config  `toml:"journal" mapstructure:"journal"`
	RPC      RPCConfig       `toml:"rpc" mapstructure:"rpc"`
	Log      LogConfig       `toml:"log" mapstructure:"log"`

	// GenesisFile points to a JSON genesis used by the genesis command.
	GenesisFile string `toml:"genesis_file" mapstructure:"genesis_file"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ProgramConfig identifies the governed program.
type ProgramConfig struct {
	// ID is the base58 program address that owns every governance record
	ID string `toml:"id" mapstructure:"id"`
	// LoaderID is the base58 address of the loader owning the platform record
	LoaderID string `toml:"loader_id" mapstructure:"loader_id"`
}

// ProgramID parses the program address.
func (p ProgramConfig) ProgramID() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(p.ID)
}

// Loader parses the loader address.
func (p ProgramConfig) Loader() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(p.LoaderID)
}

// StorageConfig selects the account store backend.
type StorageConfig struct {
	// Backend is one of pebble, leveldb, bbolt, memory
	Backend string `toml:"backend" mapstructure:"backend"`
	// Path is the data directory
	Path string `toml:"path" mapstructure:"path"`
	// CacheSize is the number of decoded accounts kept in memory
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
	// Compression names the value codec ("none", "lz4")
	Compression string `toml:"compression" mapstructure:"compression"`
	// BlockCacheMB sizes the engine block cache (pebble, leveldb)
	BlockCacheMB int `toml:"block_cache_mb" mapstructure:"block_cache_mb"`
	// NoSync skips fsync on commit; only for disposable data
	NoSync bool `toml:"no_sync" mapstructure:"no_sync"`
}

// RPCConfig configures the read-only JSON-RPC and websocket server.
type RPCConfig struct {
	Enabled                bool          `toml:"enabled" mapstructure:"enabled"`
	Listen                 string        `toml:"listen" mapstructure:"listen"`
	ReadTimeout            time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout           time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
	WebsocketPingFrequency time.Duration `toml:"websocket_ping_frequency" mapstructure:"websocket_ping_frequency"`
	MaxTail                int           `toml:"max_tail" mapstructure:"max_tail"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string   `toml:"level" mapstructure:"level"`
	Encoding    string   `toml:"encoding" mapstructure:"encoding"`
	OutputPaths []string `toml:"output_paths" mapstructure:"output_paths"`
}

// GetConfigPath returns the path the configuration was loaded from, if any.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Keys returns the parsed program and loader addresses.
func (c *Config) Keys() (programID, loaderID solana.PublicKey, err error) {
	if programID, err = c.Program.ProgramID(); err != nil {
		return programID, loaderID, fmt.Errorf("invalid program.id: %w", err)
	}
	if loaderID, err = c.Program.Loader(); err != nil {
		return programID, loaderID, fmt.Errorf("invalid program.loader_id: %w", err)
	}
	return programID, loaderID, nil
}
