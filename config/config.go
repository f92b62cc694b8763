// Package config handles YAML configuration for Leima.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Account is one row of the account/region scan matrix.
type Account struct {
	AccountID   string   `yaml:"account_id"`
	AccountName string   `yaml:"account_name"`
	Regions     []string `yaml:"regions"`
}

// AccountOverride carries per-account settings that beat the defaults.
type AccountOverride struct {
	RoleARN string `yaml:"role_arn"`
}

// OTELConfig holds OpenTelemetry export settings.
type OTELConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the root configuration structure.
type Config struct {
	Accounts              []Account                  `yaml:"accounts"`
	RequiredTags          []string                   `yaml:"required_tags"`
	ExcludedResourceTypes []string                   `yaml:"excluded_resource_types"`
	RefreshIntervalSecs   int                        `yaml:"refresh_interval"`
	AssumeRoleTemplate    string                     `yaml:"assume_role_template"`
	AccountOverrides      map[string]AccountOverride `yaml:"account_overrides"`
	ListenAddr            string                     `yaml:"listen_addr"`
	OTEL                  OTELConfig                 `yaml:"otel"`
	Log                   LogConfig                  `yaml:"log"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RefreshIntervalSecs == 0 {
		cfg.RefreshIntervalSecs = 300
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "leima"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	for i := range cfg.Accounts {
		if cfg.Accounts[i].AccountName == "" {
			cfg.Accounts[i].AccountName = cfg.Accounts[i].AccountID
		}
		if len(cfg.Accounts[i].Regions) == 0 {
			cfg.Accounts[i].Regions = []string{"us-east-1"}
		}
	}
}

// Validate checks the configuration is valid. An empty required-tag list is
// legal here; the validator surfaces it as a warning downstream.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("accounts: at least one account required")
	}
	for i, acct := range c.Accounts {
		if acct.AccountID == "" {
			return fmt.Errorf("accounts[%d]: account_id is required", i)
		}
	}
	if c.RefreshIntervalSecs < 0 {
		return fmt.Errorf("refresh_interval must not be negative (got %d)", c.RefreshIntervalSecs)
	}
	return nil
}

// RefreshInterval returns the scan interval as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSecs) * time.Second
}

// RoleARN resolves the role to assume for an account: the per-account
// override wins, then the template with {account_id} substituted. Empty
// means ambient credentials.
func (c *Config) RoleARN(accountID string) string {
	if o, ok := c.AccountOverrides[accountID]; ok && o.RoleARN != "" {
		return o.RoleARN
	}
	if c.AssumeRoleTemplate != "" {
		role := strings.ReplaceAll(c.AssumeRoleTemplate, "{account_id}", accountID)
		return fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, role)
	}
	return ""
}
