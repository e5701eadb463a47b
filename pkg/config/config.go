// Package config holds the plain-data configuration shape for the
// scanner. Its behavior is limited to defaulting, validation and a
// YAML-only LoadFromFile; the format-sniffing loader lives in
// internal/config.
package config

import (
	"fmt"
	"time"

	"github.com/liquidityfi/position-scanner/internal/common"
)

// Config is the complete configuration for a scanner process.
type Config struct {
	// PollIntervalMS is the tick period per chain, in milliseconds.
	PollIntervalMS uint64 `yaml:"poll_interval_ms" json:"poll_interval_ms" toml:"poll_interval_ms"`

	// WindowBlocks is the size of the recent window used for reorg
	// detection (W in spec.md).
	WindowBlocks uint64 `yaml:"window_blocks" json:"window_blocks" toml:"window_blocks"`

	// SafetyBuffer is subtracted from minAffected when choosing the
	// rollback ancestor (B in spec.md).
	SafetyBuffer uint64 `yaml:"safety_buffer" json:"safety_buffer" toml:"safety_buffer"`

	// ChunkMin/ChunkMax bound the adaptive fetcher's span.
	ChunkMin uint64 `yaml:"chunk_min" json:"chunk_min" toml:"chunk_min"`
	ChunkMax uint64 `yaml:"chunk_max" json:"chunk_max" toml:"chunk_max"`

	// TargetLogsPerCall is the desired log count per sub-range; drives
	// span adaptation.
	TargetLogsPerCall uint64 `yaml:"target_logs_per_call" json:"target_logs_per_call" toml:"target_logs_per_call"`

	// ScanChains restricts scanning to this subset of Chains' keys.
	// Empty means "scan every configured chain".
	ScanChains []string `yaml:"scan_chains" json:"scan_chains" toml:"scan_chains"`

	// LogLevel is the zap level name ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level" json:"log_level" toml:"log_level"`

	// Chains maps a chain identifier to its endpoint/contract config.
	Chains map[string]ChainConfig `yaml:"chains" json:"chains" toml:"chains"`

	// Retry configures the RPC backoff policy shared by all chains.
	Retry RetryConfig `yaml:"retry" json:"retry" toml:"retry"`

	// DB configures the reference SQLite-backed ledger/watermark store.
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// Metrics configures the Prometheus/health HTTP surface.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" toml:"metrics"`

	// Maintenance configures background SQLite upkeep (WAL checkpoint,
	// VACUUM). Nil disables it.
	Maintenance *MaintenanceConfig `yaml:"maintenance" json:"maintenance" toml:"maintenance"`
}

// ChainConfig is the per-chain configuration table entry (spec.md §6).
type ChainConfig struct {
	// NFPMAddress is the Non-Fungible Position Manager contract address.
	NFPMAddress string `yaml:"nfpm_address" json:"nfpm_address" toml:"nfpm_address"`

	// RPCURL is the RPC/HTTP endpoint used by the log-fetching backend.
	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// SupportsFinalizedTag indicates whether the backend understands the
	// "finalized"/"safe" block tags.
	SupportsFinalizedTag bool `yaml:"supports_finalized_tag" json:"supports_finalized_tag" toml:"supports_finalized_tag"`
}

// RetryConfig configures the RPC client's exponential-backoff policy.
type RetryConfig struct {
	MaxAttempts       int             `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`
	InitialBackoff    common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`
	MaxBackoff        common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`
	BackoffMultiplier float64         `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// DatabaseConfig configures the reference SQLite store. Mirrors the
// pragmas a production SQLite-backed service tunes for concurrent access.
type DatabaseConfig struct {
	Path                string `yaml:"path" json:"path" toml:"path"`
	JournalMode         string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`
	Synchronous         string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`
	BusyTimeout         int    `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`
	CacheSize           int    `yaml:"cache_size" json:"cache_size" toml:"cache_size"`
	MaxOpenConnections  int    `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`
	MaxIdleConnections  int    `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`
	EnableForeignKeys   bool   `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`
}

// MaintenanceConfig configures the background SQLite maintenance worker.
type MaintenanceConfig struct {
	Enabled           bool            `yaml:"enabled" json:"enabled" toml:"enabled"`
	VacuumOnStartup   bool            `yaml:"vacuum_on_startup" json:"vacuum_on_startup" toml:"vacuum_on_startup"`
	CheckInterval     common.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`
	WALCheckpointMode string          `yaml:"wal_checkpoint_mode" json:"wal_checkpoint_mode" toml:"wal_checkpoint_mode"`
}

// ApplyDefaults fills in maintenance defaults.
func (m *MaintenanceConfig) ApplyDefaults() {
	if m.CheckInterval.Duration == 0 {
		m.CheckInterval = common.NewDuration(1 * time.Hour)
	}
	if m.WALCheckpointMode == "" {
		m.WALCheckpointMode = "TRUNCATE"
	}
}

// MetricsConfig configures the health/metrics HTTP surface.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled" toml:"enabled"`
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`
	Path          string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults fills in unset optional fields with production-sane
// defaults.
func (c *Config) ApplyDefaults() {
	if c.PollIntervalMS == 0 {
		c.PollIntervalMS = 12_000
	}
	if c.WindowBlocks == 0 {
		c.WindowBlocks = 64
	}
	if c.SafetyBuffer == 0 {
		c.SafetyBuffer = 5
	}
	if c.ChunkMin == 0 {
		c.ChunkMin = 500
	}
	if c.ChunkMax == 0 {
		c.ChunkMax = 10_000
	}
	if c.TargetLogsPerCall == 0 {
		c.TargetLogsPerCall = 1_000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.Retry.ApplyDefaults()
	c.DB.ApplyDefaults()
	c.Metrics.ApplyDefaults()
	if c.Maintenance != nil {
		c.Maintenance.ApplyDefaults()
	}
}

// ApplyDefaults fills in retry defaults.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(250 * time.Millisecond)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second)
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// ApplyDefaults fills in database defaults.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
}

// ApplyDefaults fills in metrics-server defaults.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// EffectiveChains returns the chain identifiers to scan: ScanChains if
// non-empty, otherwise every key of Chains.
func (c *Config) EffectiveChains() []string {
	if len(c.ScanChains) > 0 {
		return c.ScanChains
	}
	ids := make([]string, 0, len(c.Chains))
	for id := range c.Chains {
		ids = append(ids, id)
	}
	return ids
}

// Validate checks structural and cross-field invariants of the config.
func (c *Config) Validate() error {
	if c.ChunkMin == 0 || c.ChunkMax == 0 || c.ChunkMin > c.ChunkMax {
		return fmt.Errorf("chunk_min (%d) must be > 0 and <= chunk_max (%d)", c.ChunkMin, c.ChunkMax)
	}

	if len(c.Chains) == 0 {
		return fmt.Errorf("at least one chain must be configured")
	}

	for _, id := range c.EffectiveChains() {
		chainCfg, ok := c.Chains[id]
		if !ok {
			return fmt.Errorf("scan_chains references unconfigured chain %q", id)
		}
		if chainCfg.NFPMAddress == "" {
			return fmt.Errorf("chains.%s.nfpm_address is required", id)
		}
		if chainCfg.RPCURL == "" {
			return fmt.Errorf("chains.%s.rpc_url is required", id)
		}
	}

	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}

	switch c.DB.JournalMode {
	case "WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY":
	default:
		return fmt.Errorf("db.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}

	switch c.DB.Synchronous {
	case "FULL", "NORMAL", "OFF":
	default:
		return fmt.Errorf("db.synchronous must be one of: FULL, NORMAL, OFF")
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1")
	}

	return nil
}
