package gateway

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/support/config"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/modules"
)

// GatewayConfig represents the configuration params for the gateway. Values come from the defaults,
// then the toml file, then the environment (a .env file in the working directory is loaded first).
type GatewayConfig struct {
	HorizonURL        string `valid:"-" toml:"HORIZON_URL" env:"HORIZON_URL"`
	NetworkPassphrase string `valid:"-" toml:"NETWORK_PASSPHRASE" env:"NETWORK_PASSPHRASE"`
	USDCIssuer        string `valid:"-" toml:"USDC_ISSUER" env:"USDC_ISSUER"`
	CustomAssetCode   string `valid:"-" toml:"CUSTOM_ASSET_CODE" env:"CUSTOM_ASSET_CODE"`
	// base URL of a server exposing /friendbot; empty means HORIZON_URL
	FriendbotURL string `valid:"-" toml:"FRIENDBOT_URL" env:"FRIENDBOT_URL"`
	// empty means a fresh issuer for every process
	IssuerSecretSeed string `valid:"-" toml:"ISSUER_SECRET_SEED" env:"ISSUER_SECRET_SEED"`
	FallbackRate     string `valid:"-" toml:"FALLBACK_RATE" env:"FALLBACK_RATE"`
	FallbackBaseFee  int64  `valid:"-" toml:"FALLBACK_BASE_FEE" env:"FALLBACK_BASE_FEE"`

	Port                      int    `valid:"-" toml:"PORT" env:"PORT"`
	LogLevel                  string `valid:"-" toml:"LOG_LEVEL" env:"LOG_LEVEL"`
	HTTPTimeoutSeconds        int    `valid:"-" toml:"HTTP_TIMEOUT_SECONDS" env:"HTTP_TIMEOUT_SECONDS"`
	RateStreamIntervalSeconds int    `valid:"-" toml:"RATE_STREAM_INTERVAL_SECONDS" env:"RATE_STREAM_INTERVAL_SECONDS"`

	BootstrapPollIntervalMillis int `valid:"-" toml:"BOOTSTRAP_POLL_INTERVAL_MILLIS" env:"BOOTSTRAP_POLL_INTERVAL_MILLIS"`
	BootstrapPollAttempts       int `valid:"-" toml:"BOOTSTRAP_POLL_ATTEMPTS" env:"BOOTSTRAP_POLL_ATTEMPTS"`

	logLevel     logrus.Level
	fallbackRate decimal.Decimal
}

// DefaultConfig targets the public testnet
func DefaultConfig() GatewayConfig {
	return GatewayConfig{
		HorizonURL:                  "https://horizon-testnet.stellar.org",
		NetworkPassphrase:           network.TestNetworkPassphrase,
		USDCIssuer:                  modules.TestnetUSDCIssuer,
		CustomAssetCode:             "TZS",
		FallbackRate:                "1000",
		FallbackBaseFee:             modules.DefaultBaseFee,
		Port:                        3000,
		LogLevel:                    "info",
		HTTPTimeoutSeconds:          30,
		RateStreamIntervalSeconds:   5,
		BootstrapPollIntervalMillis: 1000,
		BootstrapPollAttempts:       15,
	}
}

// LoadConfig reads path (optional) over the defaults, overlays the environment and validates the result
func LoadConfig(path string) (*GatewayConfig, error) {
	if e := godotenv.Load(); e != nil && !errors.Is(e, fs.ErrNotExist) {
		return nil, errors.Wrap(e, "unable to load .env")
	}

	cfg := DefaultConfig()
	if path != "" {
		if e := config.Read(path, &cfg); e != nil {
			return nil, errors.Wrapf(e, "unable to read config file %s", path)
		}
	}

	if e := envdecode.Decode(&cfg); e != nil && e != envdecode.ErrNoTargetFieldsAreSet {
		return nil, errors.Wrap(e, "unable to read config from the environment")
	}

	if e := cfg.Init(); e != nil {
		return nil, e
	}
	return &cfg, nil
}

// Init validates and initializes this config
func (c *GatewayConfig) Init() error {
	c.HorizonURL = strings.TrimRight(strings.TrimSpace(c.HorizonURL), "/")
	if c.HorizonURL == "" {
		return fmt.Errorf("HORIZON_URL is required")
	}
	c.FriendbotURL = strings.TrimRight(strings.TrimSpace(c.FriendbotURL), "/")
	if c.NetworkPassphrase == "" {
		return fmt.Errorf("NETWORK_PASSPHRASE is required")
	}
	if !strkey.IsValidEd25519PublicKey(c.USDCIssuer) {
		return fmt.Errorf("invalid USDC_ISSUER %q", c.USDCIssuer)
	}
	if c.CustomAssetCode == "" || len(c.CustomAssetCode) > 12 || c.CustomAssetCode == modules.NativeCode || c.CustomAssetCode == modules.SymbolUSDC {
		return fmt.Errorf("invalid CUSTOM_ASSET_CODE %q", c.CustomAssetCode)
	}
	if c.IssuerSecretSeed != "" {
		if _, e := keypair.ParseFull(c.IssuerSecretSeed); e != nil {
			return fmt.Errorf("invalid ISSUER_SECRET_SEED: %s", e)
		}
	}

	rate, e := decimal.NewFromString(c.FallbackRate)
	if e != nil || !rate.IsPositive() {
		return fmt.Errorf("FALLBACK_RATE must be a positive number, was %q", c.FallbackRate)
	}
	c.fallbackRate = rate

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.HTTPTimeoutSeconds <= 0 || c.RateStreamIntervalSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS and RATE_STREAM_INTERVAL_SECONDS must be positive")
	}
	if c.BootstrapPollIntervalMillis <= 0 || c.BootstrapPollAttempts <= 0 {
		return fmt.Errorf("BOOTSTRAP_POLL_INTERVAL_MILLIS and BOOTSTRAP_POLL_ATTEMPTS must be positive")
	}

	level, e := logrus.ParseLevel(c.LogLevel)
	if e != nil {
		return errors.Wrap(e, "invalid LOG_LEVEL")
	}
	c.logLevel = level
	return nil
}

// Level is the parsed LOG_LEVEL
func (c *GatewayConfig) Level() logrus.Level {
	return c.logLevel
}

// Fallback is the fixed XLM to custom asset rate used when that book is empty
func (c *GatewayConfig) Fallback() *modules.FallbackRate {
	return &modules.FallbackRate{
		Pair: modules.TradingPair{Base: modules.SymbolXLM, Counter: c.CustomAssetCode},
		Rate: c.fallbackRate,
	}
}

// FriendbotBaseURL is where the faucet sends /friendbot requests
func (c *GatewayConfig) FriendbotBaseURL() string {
	if c.FriendbotURL == "" {
		return c.HorizonURL
	}
	return c.FriendbotURL
}

// HTTPTimeout applies to horizon and friendbot calls
func (c *GatewayConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// RateStreamInterval is the push interval of the market rate stream
func (c *GatewayConfig) RateStreamInterval() time.Duration {
	return time.Duration(c.RateStreamIntervalSeconds) * time.Second
}

// BootstrapConfig is the liquidity bootstrap pacing on top of its fixed amounts
func (c *GatewayConfig) BootstrapConfig() modules.BootstrapConfig {
	cfg := modules.DefaultBootstrapConfig()
	cfg.PollInterval = time.Duration(c.BootstrapPollIntervalMillis) * time.Millisecond
	cfg.PollAttempts = c.BootstrapPollAttempts
	return cfg
}

// String impl. The issuer seed is shown as its public key.
func (c GatewayConfig) String() string {
	issuer := "<generated>"
	if c.IssuerSecretSeed != "" {
		issuer = "<invalid>"
		if kp, e := keypair.ParseFull(c.IssuerSecretSeed); e == nil {
			issuer = kp.Address()
		}
	}

	return fmt.Sprintf(
		"GatewayConfig{HORIZON_URL: %s, NETWORK_PASSPHRASE: %s, FRIENDBOT_URL: %s, USDC_ISSUER: %s, CUSTOM_ASSET_CODE: %s, ISSUER_SECRET_SEED: %s, FALLBACK_RATE: %s, FALLBACK_BASE_FEE: %d, PORT: %d, LOG_LEVEL: %s}",
		c.HorizonURL, c.NetworkPassphrase, c.FriendbotURL, c.USDCIssuer, c.CustomAssetCode, issuer, c.FallbackRate, c.FallbackBaseFee, c.Port, c.LogLevel,
	)
}
