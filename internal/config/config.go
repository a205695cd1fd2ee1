package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	DBConnLifetime int      `mapstructure:"DB_CONN_LIFETIME_MINUTES"`
	DBConnIdleTime int      `mapstructure:"DB_CONN_IDLE_MINUTES"`
	DBHealthCheck  int      `mapstructure:"DB_HEALTHCHECK_SECONDS"`
	AuthMode       string   `mapstructure:"AUTH_MODE"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	JWTIssuer      string   `mapstructure:"JWT_ISSUER"`
	JWTTTLHours    int      `mapstructure:"JWT_TTL_HOURS"`
	AuthJWKSURL    string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string   `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	SMTPHost       string   `mapstructure:"SMTP_HOST"`
	SMTPPort       int      `mapstructure:"SMTP_PORT"`
	SMTPFrom       string   `mapstructure:"SMTP_FROM"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // auto-detect: "" -> inferred from AUTH_JWKS_URL
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_CONN_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_CONN_IDLE_MINUTES", 15)
	v.SetDefault("DB_HEALTHCHECK_SECONDS", 60)
	v.SetDefault("JWT_ISSUER", "mydrreferral")
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "noreply@mydrreferral.com")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("DB_CONN_LIFETIME_MINUTES")
	v.BindEnv("DB_CONN_IDLE_MINUTES")
	v.BindEnv("DB_HEALTHCHECK_SECONDS")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_ISSUER")
	v.BindEnv("JWT_TTL_HOURS")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("SMTP_HOST")
	v.BindEnv("SMTP_PORT")
	v.BindEnv("SMTP_FROM")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.JWTSecret == "" {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode with a generated")
		log.Println("WARNING: JWT secret. Sessions will not survive a restart.")
		log.Println("WARNING: Set JWT_SECRET for stable logins, and ENV=production")
		log.Println("WARNING: before deploying.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise the mode is inferred:
//   - AUTH_JWKS_URL set → "external" (Keycloak, Auth0, etc.)
//   - Otherwise         → "standalone" (tokens issued by our own login endpoint)
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.AuthJWKSURL != "" {
		return "external"
	}
	return "standalone"
}

// Validate checks that the configuration is safe to run. Standalone mode
// outside development requires a JWT secret so issued tokens survive
// restarts; external mode requires a JWKS endpoint.
func (c *Config) Validate() error {
	mode := c.ResolvedAuthMode()
	switch mode {
	case "standalone":
		if !c.IsDev() && c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in %s mode (ENV=%q); refusing to start "+
				"with an ephemeral signing key", mode, c.Env)
		}
	case "external":
		if c.AuthJWKSURL == "" {
			return fmt.Errorf("AUTH_JWKS_URL must be set when AUTH_MODE is \"external\"")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"standalone\" or \"external\", got %q", mode)
	}

	if c.JWTTTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive, got %d", c.JWTTTLHours)
	}
	return nil
}
