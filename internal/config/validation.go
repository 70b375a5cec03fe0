package config

import (
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap/zapcore"

	"github.com/LeJamon/poolgovd/internal/storage/compression"
	"github.com/LeJamon/poolgovd/internal/storage/database/backend"
)

var (
	ErrUnknownBackend  = errors.New("unknown storage backend")
	ErrMissingPath     = errors.New("storage path is required")
	ErrInvalidListen   = errors.New("invalid rpc listen address")
	ErrInvalidEncoding = errors.New("log encoding must be json or console")
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if _, _, err := config.Keys(); err != nil {
		return fmt.Errorf("program config validation failed: %w", err)
	}
	if err := config.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config validation failed: %w", err)
	}
	if err := config.Fees.Validate(); err != nil {
		return fmt.Errorf("fees config validation failed: %w", err)
	}
	if err := validateTreasury(config); err != nil {
		return fmt.Errorf("treasury config validation failed: %w", err)
	}
	if err := config.Journal.Validate(); err != nil {
		return fmt.Errorf("journal config validation failed: %w", err)
	}
	if err := config.RPC.Validate(); err != nil {
		return fmt.Errorf("rpc config validation failed: %w", err)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	return nil
}

// Validate checks the storage section.
func (s *StorageConfig) Validate() error {
	known := false
	for _, name := range backend.Names() {
		if s.Backend == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, s.Backend)
	}
	if s.Backend != backend.Memory && s.Path == "" {
		return ErrMissingPath
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("cache_size must be >= 0, got %d", s.CacheSize)
	}
	if s.BlockCacheMB < 0 {
		return fmt.Errorf("block_cache_mb must be >= 0, got %d", s.BlockCacheMB)
	}
	if _, err := compression.Get(s.Compression); err != nil {
		return err
	}
	return nil
}

func validateTreasury(config *Config) error {
	t := config.Treasury
	if t.RestartPenalty < 0 {
		return fmt.Errorf("restart_penalty must be >= 0, got %d", t.RestartPenalty)
	}
	if t.MaxPoolsPerConsolidation <= 0 {
		return fmt.Errorf("max_pools_per_consolidation must be > 0, got %d", t.MaxPoolsPerConsolidation)
	}
	return nil
}

// Validate checks the rpc section.
func (r *RPCConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(r.Listen); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidListen, err)
	}
	if r.ReadTimeout < 0 || r.WriteTimeout < 0 || r.WebsocketPingFrequency < 0 {
		return fmt.Errorf("rpc timeouts must be >= 0")
	}
	if r.MaxTail <= 0 {
		return fmt.Errorf("max_tail must be > 0, got %d", r.MaxTail)
	}
	return nil
}

// Validate checks the log section.
func (l *LogConfig) Validate() error {
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return err
	}
	switch l.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEncoding, l.Encoding)
	}
	return nil
}
