package config

import "time"

// DefaultNetworkID is the network the wallet binds to out of the box.
const DefaultNetworkID uint64 = 42

// DefaultGasPriceWei is the cached gas price fallback: 1 gwei.
const DefaultGasPriceWei = "1000000000"

// DefaultConfirmationTimeout bounds client-side waiting for confirmation.
// Chain confirmation latency is unbounded; callers must not hang forever.
const DefaultConfirmationTimeout = 15 * time.Second

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		DataDir: DefaultDataDir(),
		Network: NetworkConfig{
			ID:                DefaultNetworkID,
			Transport:         TransportHTTP,
			HTTPEndpoint:      "https://rpc.fuse.io",
			WebSocketEndpoint: "wss://rpc.fuse.io/ws",
			Contracts: map[uint64]ContractSet{
				DefaultNetworkID: {
					Token:        "0x603B8C0F110E037b51A381CBCacAbb8d6c6E4543",
					Identity:     "0x76e76e10Ac308A1D54a00f9df27EdCE4801F288b",
					Claim:        "0xD7fDD54cBA9eB0A0035A9cD0F1C42017024f38aE",
					Reserve:      "0x5C749189d0B1d2C25403D5645D0B7ae1D3B0ae4a",
					PaymentLinks: "0xEe3F7206c1524697F9C69c37a2E6a32c701971c0",
				},
			},
		},
		Gas: GasConfig{
			FallbackPriceWei: DefaultGasPriceWei,
		},
		Tx: TxConfig{
			ConfirmationTimeout: DefaultConfirmationTimeout,
			ReceiptPollInterval: time.Second,
			EventPollInterval:   5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
			File:  "",
		},
	}
}
