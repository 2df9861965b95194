package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/veilock/veilock/internal/logger"
)

// BlurConfig tunes the backdrop blur.
type BlurConfig struct {
	// Radius overrides the derived blur radius; 0 means 32 × scale.
	// Must be a power of two when set.
	Radius int `json:"radius" yaml:"radius"`

	// Workers is the total number of blur workers including the calling
	// goroutine; 0 means one per CPU.
	Workers int `json:"workers" yaml:"workers"`
}

// OutputConfig selects the display region to capture.
type OutputConfig struct {
	Name   string `json:"name" yaml:"name"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Scale  int    `json:"scale" yaml:"scale"`
}

// Config represents the application configuration
type Config struct {
	LogLevel string       `json:"log_level" yaml:"log_level"`
	Backend  string       `json:"backend" yaml:"backend"` // "", "x11" or "portal"
	Blur     BlurConfig   `json:"blur" yaml:"blur"`
	Output   OutputConfig `json:"output" yaml:"output"`
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configFile string) (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "veilock")
	actualConfigPath := filepath.Join(configDir, "config.yaml")
	if configFile != "" {
		actualConfigPath = configFile
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Debug().
				Str("path", m.configPath).
				Msg("Config file not found, using defaults")
			m.config = m.getDefaults()
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return m, nil
}

// getDefaults returns default configuration
func (m *Manager) getDefaults() *Config {
	return &Config{
		LogLevel: "info",
		Output: OutputConfig{
			Scale: 1,
		},
	}
}

// load reads the configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Output.Scale == 0 {
		cfg.Output.Scale = 1
	}

	m.config = &cfg
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// GetConfigPath returns the path of the backing config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// SetLogLevel overrides the configured log level
func (m *Manager) SetLogLevel(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.LogLevel = level
}

// SetBackend overrides the configured capture backend
func (m *Manager) SetBackend(backend string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Backend = backend
}

// SetBlur overrides the blur settings
func (m *Manager) SetBlur(blur BlurConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Blur = blur
}
