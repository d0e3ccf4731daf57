package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/anthanhphan/gosdk/conflux"
	"github.com/anthanhphan/gosdk/logger"
)

// Config holds storage node configuration.
type Config struct {
	Server ServerConfig  `json:"server" yaml:"server"`
	Gossip GossipConfig  `json:"gossip" yaml:"gossip"`
	Disk   DiskConfig    `json:"disk" yaml:"disk"`
	Logger logger.Config `json:"logger" yaml:"logger"`
}

type ServerConfig struct {
	NodeID   string `json:"node_id" yaml:"node_id"`
	Hostname string `json:"hostname" yaml:"hostname"`
	Port     int    `json:"port" yaml:"port"`

	// Priority breaks placement ties on the coordinator; lower wins.
	Priority int `json:"priority" yaml:"priority"`
}

// Addr is the listen address for the chunk HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type GossipConfig struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	BindAddr string   `json:"bind_addr" yaml:"bind_addr"`
	Port     int      `json:"port" yaml:"port"`
	Seeds    []string `json:"seeds" yaml:"seeds"`
}

type DiskConfig struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`
	FSync   bool   `json:"fsync" yaml:"fsync"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Hostname: "127.0.0.1",
			Port:     8081,
		},
		Gossip: GossipConfig{
			Enabled:  true,
			BindAddr: "0.0.0.0",
			Port:     7947,
		},
		Disk: DiskConfig{
			DataDir: "./data",
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
		configPath = filepath.Join("internal", "node", "config", env+".yaml")
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
