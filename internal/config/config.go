package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	// PublicURL is the externally visible root used for Location headers and
	// Bundle fullUrl values. Always ends with a slash.
	PublicURL string `mapstructure:"PUBLIC_URL"`

	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`

	OAuthAuthorizeURL  string `mapstructure:"OAUTH_AUTHORIZE_URL"`
	OAuthTokenURL      string `mapstructure:"OAUTH_TOKEN_URL"`
	OAuthRevokeURL     string `mapstructure:"OAUTH_REVOKE_URL"`
	OAuthIntrospectURL string `mapstructure:"OAUTH_INTROSPECT_URL"`

	LogFormat            string        `mapstructure:"LOG_FORMAT"`
	JurisdictionCacheTTL time.Duration `mapstructure:"JURISDICTION_CACHE_TTL"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"PUBLIC_URL", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL", "AUTH_SIGNING_KEY",
	"OAUTH_AUTHORIZE_URL", "OAUTH_TOKEN_URL", "OAUTH_REVOKE_URL", "OAUTH_INTROSPECT_URL",
	"LOG_FORMAT", "JURISDICTION_CACHE_TTL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("PUBLIC_URL", "http://localhost:8000/")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("JURISDICTION_CACHE_TTL", "5m")

	// Bind explicitly so Unmarshal sees variables that only exist in the environment.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.PublicURL != "" && !strings.HasSuffix(c.PublicURL, "/") {
		c.PublicURL += "/"
	}
	base := strings.TrimSuffix(c.PublicURL, "/")
	if c.OAuthAuthorizeURL == "" {
		c.OAuthAuthorizeURL = base + "/oauth/authorize"
	}
	if c.OAuthTokenURL == "" {
		c.OAuthTokenURL = base + "/oauth/token"
	}
	if c.OAuthRevokeURL == "" {
		c.OAuthRevokeURL = base + "/oauth/revoke"
	}
	if c.OAuthIntrospectURL == "" {
		c.OAuthIntrospectURL = base + "/oauth/introspect"
	}
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate refuses configurations that would accept bearer tokens without
// being able to verify them.
func (c *Config) Validate() error {
	if c.AuthSigningKey == "" && c.AuthJWKSURL == "" {
		if !c.IsDev() {
			return fmt.Errorf("one of AUTH_SIGNING_KEY or AUTH_JWKS_URL must be set (ENV=%q)", c.Env)
		}
	}
	if c.PublicURL == "" {
		return fmt.Errorf("PUBLIC_URL is required")
	}
	switch c.LogFormat {
	case "json", "ecs", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be \"json\", \"ecs\" or \"console\", got %q", c.LogFormat)
	}
	return nil
}
