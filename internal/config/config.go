// Package config loads the application configuration from environment
// variables, with defaults pointing at the Base Sepolia deployment.
package config

import (
	"github.com/foresightmkt/foresight/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
)

// Redis is optional. The pool directory cache is skipped entirely when no
// address is configured.
type Redis struct {
	Addr     string `envconfig:"ADDR"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB"`
}

// Config holds every tunable of the application. All variables are prefixed
// with FORESIGHT_, e.g. FORESIGHT_RPC_ENDPOINT.
type Config struct {
	RPCEndpoint string `envconfig:"RPC_ENDPOINT" default:"https://sepolia.base.org" validate:"required,url"`
	ChainID     uint64 `envconfig:"CHAIN_ID" default:"84532" validate:"required"`
	PrivateKey  string `envconfig:"PRIVATE_KEY" validate:"required"`

	PredictionMarketAddress string `envconfig:"PREDICTION_MARKET_ADDRESS" default:"0x1d8A4f3abacfE2eD80dd576db7f5c62239F25c98" validate:"required,eth_addr"`
	AMMAddress              string `envconfig:"AMM_ADDRESS" default:"0x34b5Fe022535Ff7d82dD44fe63eBd1135A9eB2C5" validate:"required,eth_addr"`
	CollateralAddress       string `envconfig:"COLLATERAL_ADDRESS" default:"0x036CbD53842c5426634e7929541eC2318f3dCF7e" validate:"required,eth_addr"`

	ExplorerBaseURL string `envconfig:"EXPLORER_BASE_URL" default:"https://sepolia.basescan.org" validate:"required,url"`

	LogLevel         string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	Redis Redis `envconfig:"REDIS"`
}

// Load reads and validates the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("foresight", &cfg); err != nil {
		return Config{}, err
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
