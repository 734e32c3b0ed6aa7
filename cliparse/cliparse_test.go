// cliparse/cliparse_test.go
package cliparse

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// requiredEnv sets what serve needs to pass validation
func requiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("ADMIN_KEY_SALT", "test-salt")
	t.Setenv("POLLS_CONTRACT", "AS1polls")
}

// loadServe parses args the way the root command does and validates the
// result for serve
func loadServe(args []string) (Config, error) {
	fs := pflag.NewFlagSet("massa-polls", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg, err := Load("", fs)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.ValidateServe()
}

func TestLoad_EnvVars(t *testing.T) {
	requiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SYNC_INTERVAL", "45s")
	t.Setenv("TOKEN_DECIMALS", "6")

	cfg, err := loadServe([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.SyncInterval != 45*time.Second {
		t.Errorf("expected sync interval 45s, got %s", cfg.SyncInterval)
	}
	if cfg.TokenDecimals != 6 {
		t.Errorf("expected 6 decimals, got %d", cfg.TokenDecimals)
	}
	if cfg.SpreadBps != 250 {
		t.Errorf("expected default spread 250, got %d", cfg.SpreadBps)
	}
}

func TestLoad_CLIOverridesEnv(t *testing.T) {
	requiredEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := loadServe([]string{"-p", "8080", "-d", "file:test.db", "--admin-salt", "s1", "--spread-bps", "30"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:test.db" {
		t.Errorf("expected database URL from flag, got %q", cfg.DatabaseURL)
	}
	if cfg.AdminKeySalt != "s1" {
		t.Errorf("expected admin salt from flag, got %q", cfg.AdminKeySalt)
	}
	if cfg.SpreadBps != 30 {
		t.Errorf("expected spread 30, got %d", cfg.SpreadBps)
	}
}

func TestLoad_UnsetFlagKeepsEnv(t *testing.T) {
	requiredEnv(t)
	t.Setenv("DATABASE_TYPE", "postgres")

	cfg, err := loadServe([]string{})
	if err != nil {
		t.Fatal(err)
	}

	// The flag default must not clobber the environment
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres from env, got %q", cfg.DatabaseType)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"database url", "DATABASE_URL"},
		{"admin salt", "ADMIN_KEY_SALT"},
		{"polls contract", "POLLS_CONTRACT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requiredEnv(t)
			t.Setenv(tt.unset, "")
			os.Unsetenv(tt.unset)

			if _, err := loadServe([]string{}); err == nil {
				t.Errorf("expected error without %s", tt.unset)
			}
		})
	}
}

func TestLoad_ConfigFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(configFile, []byte(`
port: 7000
rpcUrl: http://localhost:33035
pollsContract: AS1fromfile
confirmTimeout: 90s
spreadBps: 100
`), 0o600)
	if err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("SPREAD_BPS=120\nADMIN_KEY_SALT=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("ADMIN_KEY_SALT", "from-env")
	// godotenv sets these; make sure they are cleared afterwards
	t.Setenv("SPREAD_BPS", "")
	os.Unsetenv("SPREAD_BPS")

	cfg, err := Load(configFile, nil)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 7000 {
		t.Errorf("expected port from file, got %d", cfg.Port)
	}
	if cfg.PollsContract != "AS1fromfile" {
		t.Errorf("expected contract from file, got %q", cfg.PollsContract)
	}
	if cfg.ConfirmTimeout != 90*time.Second {
		t.Errorf("expected 90s timeout from file, got %s", cfg.ConfirmTimeout)
	}
	if cfg.SpreadBps != 120 {
		t.Errorf(".env should override file: expected 120, got %d", cfg.SpreadBps)
	}
	if cfg.AdminKeySalt != "from-env" {
		t.Errorf("environment should win over .env: got %q", cfg.AdminKeySalt)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Errorf("expected default sync interval, got %s", cfg.SyncInterval)
	}
}

func TestLoad_BadConfigFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := Defaults()
	base.PollsContract = "AS1polls"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with contract", func(c *Config) {}, false},
		{"negative spread", func(c *Config) { c.SpreadBps = -1 }, true},
		{"full spread", func(c *Config) { c.SpreadBps = 10_000 }, true},
		{"too many decimals", func(c *Config) { c.TokenDecimals = 19 }, true},
		{"no rpc", func(c *Config) { c.RPCURL = "" }, true},
		{"zero timeout", func(c *Config) { c.ConfirmTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterFlagsOnlyChangedApply(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("CONFIRM_INTERVAL", "5s")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--confirm-timeout", "2m"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ConfirmTimeout != 2*time.Minute {
		t.Errorf("expected 2m from flag, got %s", cfg.ConfirmTimeout)
	}
	if cfg.ConfirmInterval != 5*time.Second {
		t.Errorf("expected 5s from env, got %s", cfg.ConfirmInterval)
	}
}

func TestConfigContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("expected nil config from empty context")
	}
	cfg := Defaults()
	ctx := WithContext(context.Background(), &cfg)
	if got := FromContext(ctx); got == nil || got.Port != cfg.Port {
		t.Errorf("expected config back from context, got %+v", got)
	}
}
