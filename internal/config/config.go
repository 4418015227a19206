package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderSession = "session"
	ProviderKratos  = "kratos"
)

type Config struct {
	AppPort  string
	LogLevel string

	// AuthProvider selects where the guard looks up the current user.
	AuthProvider string

	KratosPublicURL string
	KratosTimeout   time.Duration

	RedisAddr     string
	RedisPassword string

	DatabaseDSN string

	LoginPath    string
	HomePath     string
	EnforceAdmin bool

	SessionTTL         time.Duration
	SessionIdleTimeout time.Duration
	CookieSecure       bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	KeycloakIssuer        string
	KeycloakClientID      string
	KeycloakRedirectURL   string
	KeycloakPublicBaseURL string

	LoginRatePerSec float64
	LoginRateBurst  int
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_PROVIDER", ProviderSession)
	v.SetDefault("KRATOS_TIMEOUT", "3s")
	v.SetDefault("GUARD_LOGIN_PATH", "/auth/login")
	v.SetDefault("GUARD_HOME_PATH", "/")
	v.SetDefault("GUARD_ENFORCE_ADMIN", true)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "2h")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("LOGIN_RATE_PER_SEC", 5.0)
	v.SetDefault("LOGIN_RATE_BURST", 10)
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		AppPort:  v.GetString("APP_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		AuthProvider: v.GetString("AUTH_PROVIDER"),

		KratosPublicURL: v.GetString("KRATOS_PUBLIC_URL"),
		KratosTimeout:   v.GetDuration("KRATOS_TIMEOUT"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		DatabaseDSN: v.GetString("DATABASE_DSN"),

		LoginPath:    v.GetString("GUARD_LOGIN_PATH"),
		HomePath:     v.GetString("GUARD_HOME_PATH"),
		EnforceAdmin: v.GetBool("GUARD_ENFORCE_ADMIN"),

		SessionTTL:         v.GetDuration("SESSION_TTL"),
		SessionIdleTimeout: v.GetDuration("SESSION_IDLE_TIMEOUT"),
		CookieSecure:       v.GetBool("COOKIE_SECURE"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),

		KeycloakIssuer:        v.GetString("KEYCLOAK_ISSUER"),
		KeycloakClientID:      v.GetString("KEYCLOAK_CLIENT_ID"),
		KeycloakRedirectURL:   v.GetString("KEYCLOAK_REDIRECT_URL"),
		KeycloakPublicBaseURL: v.GetString("KEYCLOAK_PUBLIC_BASE_URL"),

		LoginRatePerSec: v.GetFloat64("LOGIN_RATE_PER_SEC"),
		LoginRateBurst:  v.GetInt("LOGIN_RATE_BURST"),
	}
}

func (c Config) Validate() error {
	var errs []error

	switch c.AuthProvider {
	case ProviderSession:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the session provider"))
		}
	case ProviderKratos:
		if c.KratosPublicURL == "" {
			errs = append(errs, errors.New("KRATOS_PUBLIC_URL is required for the kratos provider"))
		}
		if c.KratosTimeout <= 0 {
			errs = append(errs, errors.New("KRATOS_TIMEOUT must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER %q is not one of %q, %q",
			c.AuthProvider, ProviderSession, ProviderKratos))
	}

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}
	if c.AppPort == "" {
		errs = append(errs, errors.New("APP_PORT cannot be empty"))
	}
	if c.LoginPath == "" || c.HomePath == "" {
		errs = append(errs, errors.New("GUARD_LOGIN_PATH and GUARD_HOME_PATH cannot be empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SessionIdleTimeout <= 0 || c.SessionIdleTimeout > c.SessionTTL {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive and at most SESSION_TTL"))
	}
	if c.LoginRatePerSec <= 0 || c.LoginRateBurst <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_SEC and LOGIN_RATE_BURST must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
