package cliparse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            int           `yaml:"port"            envconfig:"PORT"`
	DatabaseURL     string        `yaml:"databaseUrl"     envconfig:"DATABASE_URL"`
	DatabaseType    string        `yaml:"databaseType"    envconfig:"DATABASE_TYPE"`
	AdminKeySalt    string        `yaml:"adminKeySalt"    envconfig:"ADMIN_KEY_SALT"`
	RPCURL          string        `yaml:"rpcUrl"          envconfig:"MASSA_RPC_URL"`
	PollsContract   string        `yaml:"pollsContract"   envconfig:"POLLS_CONTRACT"`
	TokenContract   string        `yaml:"tokenContract"   envconfig:"TOKEN_CONTRACT"`
	SyncInterval    time.Duration `yaml:"syncInterval"    envconfig:"SYNC_INTERVAL"`
	ConfirmInterval time.Duration `yaml:"confirmInterval" envconfig:"CONFIRM_INTERVAL"`
	ConfirmTimeout  time.Duration `yaml:"confirmTimeout"  envconfig:"CONFIRM_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"  envconfig:"REQUEST_TIMEOUT"`
	TokenDecimals   uint8         `yaml:"tokenDecimals"   envconfig:"TOKEN_DECIMALS"`
	SpreadBps       int64         `yaml:"spreadBps"       envconfig:"SPREAD_BPS"`
	Debug           bool          `yaml:"debug"           envconfig:"DEBUG"`
}

const DefaultRPCURL = "https://buildnet.massa.net/api/v2"

// Defaults returns the configuration used when nothing else is set
func Defaults() Config {
	return Config{
		Port:            3318,
		DatabaseType:    "sqlite",
		RPCURL:          DefaultRPCURL,
		SyncInterval:    30 * time.Second,
		ConfirmInterval: 2 * time.Second,
		ConfirmTimeout:  60 * time.Second,
		RequestTimeout:  15 * time.Second,
		TokenDecimals:   9,
		SpreadBps:       250,
	}
}

// RegisterFlags adds the configuration flags to fs. Only flags the user
// actually sets override the other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()

	// Network config (can be CLI args or env)
	fs.IntP("port", "p", d.Port, "Server port")
	fs.StringP("database-url", "d", "", "Database URL")
	fs.StringP("database-type", "t", d.DatabaseType, "Database type (sqlite or postgres)")

	// Chain
	fs.String("rpc-url", d.RPCURL, "Massa node JSON-RPC URL")
	fs.String("polls-contract", "", "Address of the polls contract")
	fs.String("token-contract", "", "Address of the token/swap contract")
	fs.Duration("sync-interval", d.SyncInterval, "Interval between indexer passes")
	fs.Duration("confirm-interval", d.ConfirmInterval, "Interval between confirmation polls")
	fs.Duration("confirm-timeout", d.ConfirmTimeout, "Maximum wait for a confirmation")
	fs.Duration("request-timeout", d.RequestTimeout, "Timeout of one node request")
	fs.Uint8("token-decimals", d.TokenDecimals, "Token decimals")
	fs.Int64("spread-bps", d.SpreadBps, "Swap spread in basis points")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.String("admin-salt", "", "Admin key salt (prefer env)")
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML config file, a .env file, the environment, and flags set in fs.
// fs may be nil.
func Load(configFile string, fs *pflag.FlagSet) (Config, error) {
	cfg := Defaults()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// Existing environment variables win over the file
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading %s: %w", envFile, err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error reading environment: %w", err)
	}

	if fs != nil {
		if err := applyFlags(fs, &cfg); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func applyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var errs []error
	set := func(name string, apply func() error) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			errs = append(errs, apply())
		}
	}
	set("port", func() (err error) { cfg.Port, err = fs.GetInt("port"); return })
	set("database-url", func() (err error) { cfg.DatabaseURL, err = fs.GetString("database-url"); return })
	set("database-type", func() (err error) { cfg.DatabaseType, err = fs.GetString("database-type"); return })
	set("rpc-url", func() (err error) { cfg.RPCURL, err = fs.GetString("rpc-url"); return })
	set("polls-contract", func() (err error) { cfg.PollsContract, err = fs.GetString("polls-contract"); return })
	set("token-contract", func() (err error) { cfg.TokenContract, err = fs.GetString("token-contract"); return })
	set("sync-interval", func() (err error) { cfg.SyncInterval, err = fs.GetDuration("sync-interval"); return })
	set("confirm-interval", func() (err error) { cfg.ConfirmInterval, err = fs.GetDuration("confirm-interval"); return })
	set("confirm-timeout", func() (err error) { cfg.ConfirmTimeout, err = fs.GetDuration("confirm-timeout"); return })
	set("request-timeout", func() (err error) { cfg.RequestTimeout, err = fs.GetDuration("request-timeout"); return })
	set("token-decimals", func() (err error) { cfg.TokenDecimals, err = fs.GetUint8("token-decimals"); return })
	set("spread-bps", func() (err error) { cfg.SpreadBps, err = fs.GetInt64("spread-bps"); return })
	set("admin-salt", func() (err error) { cfg.AdminKeySalt, err = fs.GetString("admin-salt"); return })
	set("debug", func() (err error) { cfg.Debug, err = fs.GetBool("debug"); return })
	return errors.Join(errs...)
}

// Validate checks the settings every command needs
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("RPC URL required (use --rpc-url or MASSA_RPC_URL env)")
	}
	if c.PollsContract == "" {
		return errors.New("polls contract required (use --polls-contract or POLLS_CONTRACT env)")
	}
	if c.SpreadBps < 0 || c.SpreadBps >= 10_000 {
		return fmt.Errorf("spread must be in [0, 10000) bps, got %d", c.SpreadBps)
	}
	if c.TokenDecimals > 18 {
		return fmt.Errorf("token decimals must be at most 18, got %d", c.TokenDecimals)
	}
	if c.SyncInterval <= 0 || c.ConfirmInterval <= 0 || c.ConfirmTimeout <= 0 {
		return errors.New("intervals and timeouts must be positive")
	}
	return nil
}

// ValidateServe additionally checks what the API server needs
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	// Secrets - MUST be provided
	if c.AdminKeySalt == "" {
		return errors.New("ADMIN_KEY_SALT required")
	}
	return nil
}

type contextKey struct{}

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(contextKey{}).(*Config)
	if !ok {
		return nil
	}
	return cfg
}
