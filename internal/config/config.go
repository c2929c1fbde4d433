// Package config provides configuration management for the wallet core.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport kinds for the chain RPC connection.
const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	DataDir string        `yaml:"data_dir"`
	Network NetworkConfig `yaml:"network"`
	Gas     GasConfig     `yaml:"gas"`
	Tx      TxConfig      `yaml:"tx"`
	Logging LoggingConfig `yaml:"logging"`
}

// NetworkConfig defines the chain connection settings.
type NetworkConfig struct {
	// ID is the chain network identifier (e.g. 42 for the dev network).
	ID uint64 `yaml:"id"`

	// Transport selects the RPC transport kind: "http" or "websocket".
	Transport string `yaml:"transport"`

	// HTTPEndpoint is the HTTP JSON-RPC endpoint.
	HTTPEndpoint string `yaml:"http_endpoint"`

	// WebSocketEndpoint is the WebSocket JSON-RPC endpoint.
	WebSocketEndpoint string `yaml:"websocket_endpoint"`

	// Contracts maps network id to deployed contract addresses.
	Contracts map[uint64]ContractSet `yaml:"contracts"`
}

// ContractSet holds the deployed contract addresses for one network.
type ContractSet struct {
	Token        string `yaml:"token"`
	Identity     string `yaml:"identity"`
	Claim        string `yaml:"claim"`
	Reserve      string `yaml:"reserve"`
	PaymentLinks string `yaml:"payment_links"`
}

// GasConfig defines gas pricing behavior.
type GasConfig struct {
	// FallbackPriceWei is used when the network gas price query fails
	// or reports zero. A send is never blocked on the price oracle.
	FallbackPriceWei string `yaml:"fallback_price_wei"`
}

// TxConfig defines transaction submission behavior.
type TxConfig struct {
	// ConfirmationTimeout bounds how long the client waits for a
	// submitted transaction before giving up locally.
	ConfirmationTimeout time.Duration `yaml:"confirmation_timeout"`

	// ReceiptPollInterval is how often a pending transaction's receipt
	// is polled after broadcast.
	ReceiptPollInterval time.Duration `yaml:"receipt_poll_interval"`

	// EventPollInterval is how often Transfer logs are polled when the
	// transport cannot push subscriptions (HTTP).
	EventPollInterval time.Duration `yaml:"event_poll_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file, applying defaults
// for any fields the file omits.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

// Endpoint returns the RPC endpoint matching the configured transport.
func (c *Config) Endpoint() string {
	if c.Network.Transport == TransportWebSocket {
		return c.Network.WebSocketEndpoint
	}
	return c.Network.HTTPEndpoint
}

// ContractsForNetwork returns the contract set bound to the configured
// network id.
func (c *Config) ContractsForNetwork() (ContractSet, bool) {
	set, ok := c.Network.Contracts[c.Network.ID]
	return set, ok
}

// DefaultDataDir returns the default wallet data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".goodwallet"
	}
	return filepath.Join(home, ".goodwallet")
}
