package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Site is one domain under validation. Loaded once from config and treated
// as immutable for the duration of a run.
type Site struct {
	Domain      string    `mapstructure:"domain" json:"domain"`
	Type        string    `mapstructure:"type" json:"type"`
	Framework   Framework `mapstructure:"-" json:"framework,omitempty"`
	HealthCheck string    `mapstructure:"health_check" json:"health_check,omitempty"`
	LoginPath   string    `mapstructure:"login_path" json:"login_path,omitempty"`
	Auth        string    `mapstructure:"auth" json:"auth,omitempty"`
	Port        int       `mapstructure:"port" json:"port,omitempty"`
	Protocol    string    `mapstructure:"protocol" json:"protocol,omitempty"`

	// RawFramework keeps the config string so unknown values surface in
	// reports instead of disappearing into the enum.
	RawFramework string `mapstructure:"framework" json:"-"`
}

// BaseURL returns the site's origin, honoring protocol/port overrides.
func (s Site) BaseURL() string {
	proto := s.Protocol
	if proto == "" {
		proto = "https"
	}
	if s.Port > 0 {
		return fmt.Sprintf("%s://%s:%d", proto, s.Domain, s.Port)
	}
	return fmt.Sprintf("%s://%s", proto, s.Domain)
}

// HasLogin reports whether the site exposes a local login surface worth
// probing. SSO and auth-less sites have no form of ours to test.
func (s Site) HasLogin() bool {
	switch strings.ToLower(s.Auth) {
	case "sso", "none":
		return false
	}
	if s.LoginPath != "" {
		return true
	}
	switch strings.ToLower(s.Type) {
	case "platform", "admin", "n8n":
		return true
	}
	return false
}

// ResolvedLoginPath returns the explicit login path or the framework default.
func (s Site) ResolvedLoginPath() string {
	if s.LoginPath != "" {
		return s.LoginPath
	}
	return s.Framework.DefaultLoginPath()
}

// ResolvedHealthPath returns the explicit health path or the framework
// default.
func (s Site) ResolvedHealthPath() string {
	if s.HealthCheck != "" {
		return s.HealthCheck
	}
	return s.Framework.DefaultHealthPath()
}

// TestConfig is the per-category toggle block. Categories absent from the
// config default to enabled with no extra options; a present block is
// enabled unless it opts out explicitly.
type TestConfig struct {
	Enabled bool
	Options map[string]any
}

// APIConfig is the merged base-config + resolved-secret bag for one named
// integration. Secrets win over base values on key collision.
type APIConfig struct {
	Enabled bool
	APIURL  string
	Secrets map[string]string
	Extra   map[string]string
}

// Secret returns the named secret, falling back to the base config value.
func (a APIConfig) Secret(key string) string {
	if v, ok := a.Secrets[key]; ok && v != "" {
		return v
	}
	return a.Extra[key]
}

// ReportingConfig controls where and in which formats reports are written.
type ReportingConfig struct {
	OutputDir string   `mapstructure:"output_dir"`
	Formats   []string `mapstructure:"formats"`
}

// Config is the loaded site/test/api/reporting document plus resolved
// secrets. Read-only after Load.
type Config struct {
	sites     []Site
	tests     map[string]TestConfig
	apis      map[string]map[string]string
	secrets   map[string]map[string]string
	reporting ReportingConfig
	defaults  map[string]any
	env       string
}

// Load reads the configuration document at path (or the default search
// locations when path is empty) and resolves secrets from the environment.
// A malformed document is a fatal setup error surfaced to the caller.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sitecheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{
		tests:   make(map[string]TestConfig),
		apis:    make(map[string]map[string]string),
		secrets: make(map[string]map[string]string),
	}

	var sites []Site
	if err := v.UnmarshalKey("sites", &sites); err != nil {
		return nil, fmt.Errorf("parse sites: %w", err)
	}
	for i := range sites {
		if sites[i].Domain == "" {
			return nil, fmt.Errorf("parse sites: entry %d has no domain", i)
		}
		sites[i].Framework = ParseFramework(sites[i].RawFramework)
	}
	cfg.sites = sites

	for name, raw := range v.GetStringMap("tests") {
		cfg.tests[name] = parseTestConfig(raw)
	}

	rawAPIs := v.GetStringMap("apis")
	for name := range rawAPIs {
		block := v.GetStringMapString("apis." + name)
		cfg.apis[name] = block
		cfg.secrets[name] = resolveSecrets(block)
	}

	cfg.defaults = v.GetStringMap("defaults")

	if err := v.UnmarshalKey("reporting", &cfg.reporting); err != nil {
		return nil, fmt.Errorf("parse reporting: %w", err)
	}
	if cfg.reporting.OutputDir == "" {
		cfg.reporting.OutputDir = "./reports"
	}
	if len(cfg.reporting.Formats) == 0 {
		cfg.reporting.Formats = []string{"json"}
	}

	return cfg, nil
}

// parseTestConfig reads one category block. A present block is enabled
// unless it says `enabled: false` explicitly; setting only an option never
// disables the category.
func parseTestConfig(raw any) TestConfig {
	tc := TestConfig{Enabled: true}
	block, ok := raw.(map[string]any)
	if !ok {
		return tc
	}
	options := make(map[string]any)
	for key, value := range block {
		if key == "enabled" {
			tc.Enabled = enabledValue(value)
			continue
		}
		options[key] = value
	}
	if len(options) > 0 {
		tc.Options = options
	}
	return tc
}

func enabledValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return !strings.EqualFold(b, "false")
	default:
		return true
	}
}

// resolveSecrets maps "<key>_env: NAME" entries to "<key>: $NAME" values.
// Unset environment variables simply leave the secret absent; whether that
// is fatal is the consuming checker's call.
func resolveSecrets(block map[string]string) map[string]string {
	secrets := make(map[string]string)
	for key, value := range block {
		if !strings.HasSuffix(key, "_env") || value == "" {
			continue
		}
		if env := os.Getenv(value); env != "" {
			secrets[strings.TrimSuffix(key, "_env")] = env
		}
	}
	return secrets
}

// Sites returns the configured sites in document order. Duplicate domains
// are the caller's responsibility.
func (c *Config) Sites() []Site {
	return c.sites
}

// TestConfig returns the toggle block for a category, defaulting to enabled.
func (c *Config) TestConfig(category string) TestConfig {
	if tc, ok := c.tests[category]; ok {
		return tc
	}
	return TestConfig{Enabled: true}
}

// APIConfig returns the merged base + secret configuration for a named
// integration.
func (c *Config) APIConfig(name string) APIConfig {
	base := c.apis[name]
	out := APIConfig{
		Enabled: true,
		Secrets: make(map[string]string),
		Extra:   make(map[string]string),
	}
	for k, v := range base {
		switch {
		case k == "enabled":
			out.Enabled = !strings.EqualFold(v, "false")
		case k == "api_url":
			out.APIURL = v
		case strings.HasSuffix(k, "_env"):
			// consumed by resolveSecrets
		default:
			out.Extra[k] = v
		}
	}
	for k, v := range c.secrets[name] {
		out.Secrets[k] = v
	}
	return out
}

// Reporting returns the output directory and formats for report artifacts.
func (c *Config) Reporting() ReportingConfig {
	return c.reporting
}

// Defaults returns the raw `defaults` block, used by the CLI to seed flags
// the user did not set explicitly.
func (c *Config) Defaults() map[string]any {
	return c.defaults
}

// OverrideOutputDir replaces the configured report directory. Used for the
// CLI -o flag.
func (c *Config) OverrideOutputDir(dir string) {
	if dir != "" {
		c.reporting.OutputDir = dir
	}
}

// SetEnvironment records the environment selector passed on the CLI.
func (c *Config) SetEnvironment(env string) { c.env = env }

// Environment returns the selected environment name ("production" default).
func (c *Config) Environment() string {
	if c.env == "" {
		return "production"
	}
	return c.env
}

// ApplySiteFilter permanently narrows the run to one domain. An empty
// filter is a no-op. Called once from the CLI before any module runs.
func (c *Config) ApplySiteFilter(domain string) {
	c.sites = c.FilterSites(domain)
}

// FilterSites narrows the site list to a single domain. An empty filter
// returns all sites.
func (c *Config) FilterSites(domain string) []Site {
	if domain == "" {
		return c.sites
	}
	filtered := make([]Site, 0, 1)
	for _, s := range c.sites {
		if strings.EqualFold(s.Domain, domain) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
