package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig is the application configuration.
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Ingest IngestConfig `toml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig holds data directory settings.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	// SimilarityThreshold is the floor for review candidates.
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	// CreateUnseen lets an import run mint entities for clearly-new rows.
	CreateUnseen bool `toml:"create_unseen"`
	// StaleRuns is how many recent runs an entity may miss before the
	// staleness report lists it.
	StaleRuns int `toml:"stale_runs"`
	// DefaultActor is recorded on audit entries when no actor is given.
	DefaultActor string `toml:"default_actor"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20410,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Ingest: IngestConfig{
			SimilarityThreshold: 0.70,
			CreateUnseen:        false,
			StaleRuns:           3,
			DefaultActor:        "system",
		},
	}
}

// GetExeDir returns the directory of the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig reads config.toml next to the executable; a missing file
// yields the defaults. Environment variables override afterwards.
func LoadConfig() (*AppConfig, error) {
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(config)
			return config, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	applyEnv(config)
	return config, nil
}

// applyEnv applies environment overrides used by E2E and local runs.
func applyEnv(config *AppConfig) {
	if v := os.Getenv("SIMPILOT_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("SIMPILOT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("SIMPILOT_ACTOR"); v != "" {
		config.Ingest.DefaultActor = v
	}
}

// SaveConfig writes config.toml next to the executable.
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	configPath := filepath.Join(exeDir, "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir creates the data directory and its subdirectories.
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	for _, subdir := range []string{"uploads", "db"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
