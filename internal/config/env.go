package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvDataDir           = "GOODWALLET_DATA_DIR"
	EnvNetworkID         = "GOODWALLET_NETWORK_ID"
	EnvTransport         = "GOODWALLET_TRANSPORT"
	EnvHTTPEndpoint      = "GOODWALLET_HTTP_ENDPOINT"
	EnvWebSocketEndpoint = "GOODWALLET_WS_ENDPOINT"
	EnvGasFallback       = "GOODWALLET_GAS_FALLBACK_WEI"
	EnvConfirmTimeout    = "GOODWALLET_CONFIRM_TIMEOUT"
	EnvLogLevel          = "GOODWALLET_LOG_LEVEL"
	EnvLogJSON           = "GOODWALLET_LOG_JSON"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv(EnvNetworkID); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Network.ID = id
		}
	}

	if v := os.Getenv(EnvTransport); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case TransportHTTP, TransportWebSocket:
			cfg.Network.Transport = strings.ToLower(strings.TrimSpace(v))
		}
	}

	if v := os.Getenv(EnvHTTPEndpoint); v != "" {
		cfg.Network.HTTPEndpoint = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvWebSocketEndpoint); v != "" {
		cfg.Network.WebSocketEndpoint = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvGasFallback); v != "" {
		cfg.Gas.FallbackPriceWei = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvConfirmTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Tx.ConfirmationTimeout = d
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvLogJSON); v != "" {
		cfg.Logging.JSON = parseBool(v)
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
