// Package config provides YAML-based configuration loading for the reversi servers and CLI.
package config

import (
    _ "embed"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/charmbracelet/log"
    "gopkg.in/yaml.v3"
)

//go:embed defaults/reversi.yaml
var defaultYAML []byte

// Config is the full application configuration.
type Config struct {
    HTTP    HTTPConfig    `yaml:"http"`
    SSH     SSHConfig     `yaml:"ssh"`
    Storage StorageConfig `yaml:"storage"`
    Log     LogConfig     `yaml:"log"`
}

// HTTPConfig configures the web host.
type HTTPConfig struct {
    Addr      string        `yaml:"addr"`
    Heartbeat time.Duration `yaml:"heartbeat"` // SSE and websocket idle ping interval
}

// SSHConfig configures the terminal host served over SSH.
type SSHConfig struct {
    Addr        string        `yaml:"addr"`
    HostKeyPath string        `yaml:"host_key"` // empty = ~/.reversi/host_key
    IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
    DBPath string `yaml:"db"` // empty disables persistence
}

// LogConfig configures the logger.
type LogConfig struct {
    Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the hardcoded configuration used when nothing else loads.
func Default() Config {
    return Config{
        HTTP: HTTPConfig{
            Addr:      ":8080",
            Heartbeat: 15 * time.Second,
        },
        SSH: SSHConfig{
            Addr:        ":23235",
            IdleTimeout: 30 * time.Minute,
        },
        Storage: StorageConfig{
            DBPath: "~/.reversi/reversi.db",
        },
        Log: LogConfig{
            Level: "info",
        },
    }
}

// Load loads the configuration.
// Search order: customPath -> ~/.reversi/config.yaml -> ./configs/reversi.yaml -> embedded default
func Load(customPath string) (Config, error) {
    if customPath != "" {
        data, err := os.ReadFile(customPath)
        if err != nil {
            return Config{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
        }
        cfg, err := parse(data)
        if err != nil {
            return Config{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
        }
        return cfg, nil
    }

    if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
        if data, err := os.ReadFile(userCfgPath); err == nil {
            if cfg, err := parse(data); err == nil {
                return cfg, nil
            }
        }
    }

    if data, err := os.ReadFile("configs/reversi.yaml"); err == nil {
        if cfg, err := parse(data); err == nil {
            return cfg, nil
        }
    }

    cfg, err := parse(defaultYAML)
    if err != nil {
        return Default(), nil // Fallback to hardcoded if embed fails
    }
    return cfg, nil
}

// parse overlays YAML on top of Default so partial files keep the remaining defaults.
func parse(data []byte) (Config, error) {
    cfg := Default()
    if err := yaml.Unmarshal(data, &cfg); err != nil {
        return Config{}, err
    }
    if err := cfg.Validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c Config) Validate() error {
    var errs []error
    if c.HTTP.Heartbeat <= 0 {
        errs = append(errs, errors.New("http.heartbeat must be positive"))
    }
    if c.SSH.IdleTimeout < 0 {
        errs = append(errs, errors.New("ssh.idle_timeout must not be negative"))
    }
    if _, err := log.ParseLevel(c.Log.Level); err != nil {
        errs = append(errs, fmt.Errorf("log.level: %w", err))
    }
    return errors.Join(errs...)
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
    home, err := os.UserHomeDir()
    if err != nil {
        return ""
    }
    return filepath.Join(home, ".reversi", filename)
}

// NewLogger builds the application logger at the configured level.
func (c Config) NewLogger(prefix string) *log.Logger {
    logger := log.NewWithOptions(os.Stderr, log.Options{
        ReportTimestamp: true,
        Prefix:          prefix,
    })
    if lvl, err := log.ParseLevel(c.Log.Level); err == nil {
        logger.SetLevel(lvl)
    }
    return logger
}
