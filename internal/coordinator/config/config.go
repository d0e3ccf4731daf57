package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/anthanhphan/gosdk/conflux"
	"github.com/anthanhphan/gosdk/logger"
)

// Config holds coordinator configuration.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	Metadata MetadataConfig `json:"metadata" yaml:"metadata"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Gossip   GossipConfig   `json:"gossip" yaml:"gossip"`
	Logger   logger.Config  `json:"logger" yaml:"logger"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

type EngineConfig struct {
	NodeID int64 `json:"node_id" yaml:"node_id"`

	DefaultChunkSize   int64 `json:"default_chunk_size" yaml:"default_chunk_size"`
	MaxFileSize        int64 `json:"max_file_size" yaml:"max_file_size"`
	DefaultReplication int   `json:"default_replication" yaml:"default_replication"`

	// MinActiveNodes gates uploads before any chunk is written.
	MinActiveNodes int `json:"min_active_nodes" yaml:"min_active_nodes"`

	// WorkerCap bounds per-operation fan-out together with the active
	// node count, whichever is smaller.
	WorkerCap int `json:"worker_cap" yaml:"worker_cap"`

	NodeCallTimeoutMS int `json:"node_call_timeout_ms" yaml:"node_call_timeout_ms"`

	// RepairAlternates is how many alternate nodes a repair placement
	// tries before recording an unresolved deficiency.
	RepairAlternates int `json:"repair_alternates" yaml:"repair_alternates"`

	// NodeCriticalThreshold is the corrupt+failed fraction at which a
	// node classifies critical instead of warning.
	NodeCriticalThreshold float64 `json:"node_critical_threshold" yaml:"node_critical_threshold"`
}

type MetadataConfig struct {
	Path string `json:"path" yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type GossipConfig struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	BindAddr string   `json:"bind_addr" yaml:"bind_addr"`
	BindPort int      `json:"bind_port" yaml:"bind_port"`
	Seeds    []string `json:"seeds" yaml:"seeds"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8090",
		},
		Engine: EngineConfig{
			NodeID:                1,
			DefaultChunkSize:      8 * 1024 * 1024,
			MaxFileSize:           2 * 1024 * 1024 * 1024,
			DefaultReplication:    2,
			MinActiveNodes:        2,
			WorkerCap:             8,
			NodeCallTimeoutMS:     5000,
			RepairAlternates:      3,
			NodeCriticalThreshold: 0.10,
		},
		Metadata: MetadataConfig{
			Path: "chunkvault.db",
		},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "localhost:6379",
		},
		Gossip: GossipConfig{
			Enabled:  true,
			BindAddr: "0.0.0.0",
			BindPort: 7946,
		},
		Logger: logger.Config{
			LogLevel:    logger.LevelInfo,
			LogEncoding: logger.EncodingJSON,
		},
	}
}

// Load loads configuration from file, falling back to defaults when no
// explicit path was given.
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		env := os.Getenv("ENV")
		if env == "" {
			env = "local"
		}
		configPath = filepath.Join("internal", "coordinator", "config", env+".yaml")
	}

	cfg := DefaultConfig()
	parsedCfg, err := conflux.ParseConfig(configPath, cfg)
	if err != nil {
		log.Printf("Config file not usable, falling back to defaults. Path: %s, Error: %v", configPath, err)
		if path != "" {
			return nil, err
		}
		return cfg, nil
	}
	return parsedCfg, nil
}

// MustLoad loads configuration or exits on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}
