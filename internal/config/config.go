package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Config holds every runtime knob of the platform. Values come from the
// environment first and fall back to command-line flags for the fields that
// have one.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"5s"`
	CommissionRate string        `env:"COMMISSION_RATE"`
	BidRetryLimit  int           `env:"BID_RETRY_LIMIT" envDefault:"3"`

	// Settlement policy. The platform historically lets a winner's balance
	// go negative and keeps the seller's credit on refunds; both stay the
	// default until the policy decision says otherwise.
	AllowNegativeBalance bool `env:"ALLOW_NEGATIVE_BALANCE" envDefault:"true"`
	RefundSellerClawback bool `env:"REFUND_SELLER_CLAWBACK" envDefault:"false"`

	JWTSecret    string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	SeedDemoData bool          `env:"SEED_DEMO_DATA" envDefault:"false"`
}

// Commission parses the configured commission rate. An empty value means
// the engine default applies.
func (c *Config) Commission() (decimal.Decimal, error) {
	if c.CommissionRate == "" {
		return decimal.Decimal{}, nil
	}
	rate, err := decimal.NewFromString(c.CommissionRate)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse commission rate %q: %s", c.CommissionRate, err.Error())
	}
	if rate.IsNegative() || rate.Cmp(decimal.NewFromInt(1)) > 0 {
		return decimal.Decimal{}, fmt.Errorf("commission rate %q out of range [0,1]", c.CommissionRate)
	}
	return rate, nil
}

// LoadConfig merges environment variables over command-line flags
func LoadConfig() (*Config, error) {
	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	loadFlags(&flagsConfig)

	conf := mergeConfig(&envConfig, &flagsConfig)
	if _, err := conf.Commission(); err != nil {
		return nil, err
	}
	return conf, nil
}

// MustLoadConfig panics when the configuration cannot be loaded
func MustLoadConfig() *Config {
	conf, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return conf
}

func loadFlags(flagConfig *Config) {
	flag.StringVar(&flagConfig.RunAddress, "a", ":8080", "Run address in format host:port")
	flag.DurationVar(&flagConfig.SweepInterval, "i", 0, "Auction expiry sweep interval")
	flag.StringVar(&flagConfig.CommissionRate, "c", "", "Commission rate, e.g. 0.10")

	flag.Parse()
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	merged := *envConfig
	merged.RunAddress = defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress)
	merged.CommissionRate = defaultIfBlank(envConfig.CommissionRate, flagsConfig.CommissionRate)
	if flagsConfig.SweepInterval > 0 {
		merged.SweepInterval = flagsConfig.SweepInterval
	}
	return &merged
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
