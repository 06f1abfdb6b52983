package infra

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// TokenSeed declares one marketplace token in the config file. Decimals must
// match the on-chain token contract; the deal calculator trusts this value.
type TokenSeed struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals int32  `yaml:"decimals"`
}

// Config holds all engine settings. Sensitive values (RPC endpoint, webhook)
// can be overridden through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Ledger struct {
		RPCURL          string `yaml:"rpc_url"` // must be ws:// or wss:// (live subscriptions)
		ContractAddress string `yaml:"contract_address"`
		BatchSize       int    `yaml:"batch_size"`
		RangeStart      uint64 `yaml:"range_start"`
	} `yaml:"ledger"`

	PriceFeed struct {
		WSURL string `yaml:"ws_url"`
	} `yaml:"price_feed"`

	Tokens []TokenSeed `yaml:"tokens"`

	Governor struct {
		MaxInFlight         int `yaml:"max_in_flight"`
		MinIntervalMS       int `yaml:"min_interval_ms"`
		MaxAttempts         int `yaml:"max_attempts"`
		RateLimitCooldownMS int `yaml:"rate_limit_cooldown_ms"`
		RateLimitRetries    int `yaml:"rate_limit_retries"`
	} `yaml:"governor"`

	Supervisor struct {
		MaxReconnectAttempts int `yaml:"max_reconnect_attempts"`
		BaseDelaySec         int `yaml:"base_delay_sec"`
		MaxDelaySec          int `yaml:"max_delay_sec"`
	} `yaml:"supervisor"`

	Alert struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"alert"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	// Ledger
	if !hasPrefix(c.Ledger.RPCURL, "ws://") && !hasPrefix(c.Ledger.RPCURL, "wss://") {
		return fmt.Errorf("invalid ledger RPC URL (websocket required for live events): %s", c.Ledger.RPCURL)
	}
	if !common.IsHexAddress(c.Ledger.ContractAddress) {
		return fmt.Errorf("invalid escrow contract address: %s", c.Ledger.ContractAddress)
	}
	if c.Ledger.BatchSize <= 0 {
		return fmt.Errorf("ledger batch size must be positive")
	}

	// Price feed
	if c.PriceFeed.WSURL != "" && !hasPrefix(c.PriceFeed.WSURL, "ws://") && !hasPrefix(c.PriceFeed.WSURL, "wss://") {
		return fmt.Errorf("invalid price feed WS URL: %s", c.PriceFeed.WSURL)
	}

	// Tokens
	if len(c.Tokens) == 0 {
		return fmt.Errorf("at least one token is required")
	}
	for _, t := range c.Tokens {
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("invalid token address: %s", t.Address)
		}
		if t.Decimals < 0 || t.Decimals > 77 {
			return fmt.Errorf("invalid decimals for token %s: %d", t.Symbol, t.Decimals)
		}
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variable overrides when present.
func overrideWithEnv(cfg *Config) {
	if rpc := os.Getenv("SWAP_LEDGER_RPC"); rpc != "" {
		cfg.Ledger.RPCURL = rpc
	}
	if addr := os.Getenv("SWAP_LEDGER_CONTRACT"); addr != "" {
		cfg.Ledger.ContractAddress = addr
	}
	if url := os.Getenv("SWAP_PRICEFEED_URL"); url != "" {
		cfg.PriceFeed.WSURL = url
	}
	if hook := os.Getenv("SWAP_ALERT_WEBHOOK"); hook != "" {
		cfg.Alert.WebhookURL = hook
	}
}
