package config

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/LeJamon/poolgovd/internal/core/fees"
	"github.com/LeJamon/poolgovd/internal/core/treasury"
	"github.com/LeJamon/poolgovd/internal/journal"
	"github.com/LeJamon/poolgovd/internal/storage/compression"
)

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	// Program
	v.SetDefault("program.id", DefaultProgramID)
	v.SetDefault("program.loader_id", solana.BPFLoaderUpgradeableProgramID.String())

	// Storage
	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.path", "data/accounts")
	v.SetDefault("storage.cache_size", 1024)
	v.SetDefault("storage.compression", compression.Default)
	v.SetDefault("storage.block_cache_mb", 8)
	v.SetDefault("storage.no_sync", false)

	// Fees
	sched := fees.DefaultSchedule()
	v.SetDefault("fees.pool_creation", sched.PoolCreation)
	v.SetDefault("fees.liquidity", sched.Liquidity)
	v.SetDefault("fees.swap", sched.Swap)
	v.SetDefault("fees.min_liquidity", sched.MinLiquidity)
	v.SetDefault("fees.max_liquidity", sched.MaxLiquidity)
	v.SetDefault("fees.min_swap", sched.MinSwap)
	v.SetDefault("fees.max_swap", sched.MaxSwap)

	// Treasury
	tc := treasury.DefaultConfig()
	v.SetDefault("treasury.rent_exempt_minimum", tc.RentExemptMinimum)
	v.SetDefault("treasury.pool_rent_exempt_minimum", tc.PoolRentExemptMinimum)
	v.SetDefault("treasury.restart_penalty", tc.RestartPenalty)
	v.SetDefault("treasury.max_pools_per_consolidation", tc.MaxPoolsPerConsolidation)

	// Journal
	jc := journal.NewConfig()
	v.SetDefault("journal.driver", journal.DriverSQLite)
	v.SetDefault("journal.path", "data/journal.db")
	v.SetDefault("journal.host", jc.Host)
	v.SetDefault("journal.port", jc.Port)
	v.SetDefault("journal.database", jc.Database)
	v.SetDefault("journal.username", jc.Username)
	v.SetDefault("journal.ssl_mode", jc.SSLMode)
	v.SetDefault("journal.max_open_conns", jc.MaxOpenConns)
	v.SetDefault("journal.default_timeout", jc.DefaultTimeout)
	v.SetDefault("journal.subscriber_buffer", jc.SubscriberBuffer)

	// RPC
	v.SetDefault("rpc.enabled", true)
	v.SetDefault("rpc.listen", "127.0.0.1:8899")
	v.SetDefault("rpc.read_timeout", 10*time.Second)
	v.SetDefault("rpc.write_timeout", 10*time.Second)
	v.SetDefault("rpc.websocket_ping_frequency", 30*time.Second)
	v.SetDefault("rpc.max_tail", 1000)

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stderr"})
}
