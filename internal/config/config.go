// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	OneInch   OneInchConfig   `mapstructure:"oneinch"`
	CoinGecko CoinGeckoConfig `mapstructure:"coingecko"`
	Staking   StakingConfig   `mapstructure:"staking"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds node connection configuration.
type EthereumConfig struct {
	WebSocketURL   string        `mapstructure:"websocket_url"`
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// ExchangeConfig holds quoting and rate refresh configuration.
type ExchangeConfig struct {
	RefreshInterval      time.Duration `mapstructure:"refresh_interval"`
	BridgeFeeBps         float64       `mapstructure:"bridge_fee_bps"`
	DefaultSlippageBps   float64       `mapstructure:"default_slippage_bps"`
	EthSlippageBps       float64       `mapstructure:"eth_slippage_bps"`
	AdditionalCurrencies []string      `mapstructure:"additional_currencies"`
}

// BridgeFeeDecimal returns the bridge swap fee as a fraction (bps / 10000).
func (c *ExchangeConfig) BridgeFeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.BridgeFeeBps).Div(decimal.NewFromInt(10000))
}

// DefaultSlippageDecimal returns the default slippage tolerance as a fraction.
func (c *ExchangeConfig) DefaultSlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultSlippageBps).Div(decimal.NewFromInt(10000))
}

// EthSlippageDecimal returns the slippage tolerance for ETH legs as a fraction.
func (c *ExchangeConfig) EthSlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.EthSlippageBps).Div(decimal.NewFromInt(10000))
}

// OneInchConfig holds 1inch aggregator API configuration.
type OneInchConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
	ReferralAddress   string  `mapstructure:"referral_address"`
	ReferralFeePct    float64 `mapstructure:"referral_fee_pct"`
}

// ReferralAddressHex returns the referral address as common.Address.
func (c *OneInchConfig) ReferralAddressHex() common.Address {
	return common.HexToAddress(c.ReferralAddress)
}

// CoinGeckoConfig holds CoinGecko API configuration.
type CoinGeckoConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// StakingConfig holds staking data aggregation configuration.
type StakingConfig struct {
	WalletAddress string        `mapstructure:"wallet_address"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	MaxVestingIDs uint64        `mapstructure:"max_vesting_ids"`
}

// WalletAddressHex returns the watched wallet as common.Address.
func (c *StakingConfig) WalletAddressHex() common.Address {
	return common.HexToAddress(c.WalletAddress)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("KWENTA")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Config file not found is OK, env vars cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "KWENTA_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "KWENTA_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "KWENTA_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.websocket_url", "KWENTA_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.http_url", "KWENTA_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "KWENTA_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Exchange
	v.BindEnv("exchange.refresh_interval", "KWENTA_REFRESH_INTERVAL")
	v.BindEnv("exchange.additional_currencies", "KWENTA_ADDITIONAL_CURRENCIES")

	// 1inch
	v.BindEnv("oneinch.base_url", "KWENTA_ONEINCH_URL")
	v.BindEnv("oneinch.api_key", "KWENTA_ONEINCH_API_KEY", "ONEINCH_API_KEY")
	v.BindEnv("oneinch.referral_address", "KWENTA_ONEINCH_REFERRAL")

	// CoinGecko
	v.BindEnv("coingecko.base_url", "KWENTA_COINGECKO_URL")

	// Staking
	v.BindEnv("staking.wallet_address", "KWENTA_WALLET_ADDRESS", "WALLET_ADDRESS")
	v.BindEnv("staking.poll_interval", "KWENTA_STAKING_POLL_INTERVAL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "KWENTA_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "KWENTA_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "KWENTA_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "kwentad")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults (Optimism mainnet)
	v.SetDefault("ethereum.chain_id", 10)
	v.SetDefault("ethereum.max_reconnects", 0) // infinite
	v.SetDefault("ethereum.initial_backoff", "1s")
	v.SetDefault("ethereum.max_backoff", "30s")

	// Exchange defaults
	v.SetDefault("exchange.refresh_interval", "15s")
	v.SetDefault("exchange.bridge_fee_bps", 60) // 0.6% synthswap bridge fee
	v.SetDefault("exchange.default_slippage_bps", 100)
	v.SetDefault("exchange.eth_slippage_bps", 300)
	v.SetDefault("exchange.additional_currencies", []string{})

	// 1inch defaults
	v.SetDefault("oneinch.base_url", "https://api.1inch.io/v5.0")
	v.SetDefault("oneinch.requests_per_minute", 60)
	v.SetDefault("oneinch.referral_address", "0x08e30BFEE9B73c18F9770288DDd13203A4887460")
	v.SetDefault("oneinch.referral_fee_pct", 0.3)

	// CoinGecko defaults
	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.requests_per_minute", 30)

	// Staking defaults
	v.SetDefault("staking.poll_interval", "30s")
	v.SetDefault("staking.max_vesting_ids", 1000)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "kwentad")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if c.Ethereum.ChainID == 0 {
		return fmt.Errorf("ethereum.chain_id is required")
	}
	if c.OneInch.ReferralAddress != "" && !common.IsHexAddress(c.OneInch.ReferralAddress) {
		return fmt.Errorf("invalid oneinch.referral_address: %s", c.OneInch.ReferralAddress)
	}
	if c.Staking.WalletAddress != "" && !common.IsHexAddress(c.Staking.WalletAddress) {
		return fmt.Errorf("invalid staking.wallet_address: %s", c.Staking.WalletAddress)
	}
	if c.Exchange.BridgeFeeBps < 0 || c.Exchange.BridgeFeeBps > 10000 {
		return fmt.Errorf("exchange.bridge_fee_bps out of range: %v", c.Exchange.BridgeFeeBps)
	}
	return nil
}
