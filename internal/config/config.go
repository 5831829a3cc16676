package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix             = "GAEILGE"
	defaultHTTPAddress    = "0.0.0.0:3004"
	defaultDatabaseDriver = "sqlite"
	defaultDatabaseDSN    = "gaeilge.db"
	defaultLogLevel       = "info"
	defaultCookieName     = "access_token"
	defaultJWKSURL        = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	DatabaseDriver    string
	DatabaseDSN       string
	LogLevel          string
	SessionCookieName string
	FirebaseProjectID string
	FirebaseJWKSURL   string
	FirebaseAPIKey    string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.driver", defaultDatabaseDriver)
	configViper.SetDefault("database.dsn", defaultDatabaseDSN)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("session.cookie_name", defaultCookieName)
	configViper.SetDefault("firebase.jwks_url", defaultJWKSURL)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabaseDriver:    configViper.GetString("database.driver"),
		DatabaseDSN:       configViper.GetString("database.dsn"),
		LogLevel:          configViper.GetString("log.level"),
		SessionCookieName: configViper.GetString("session.cookie_name"),
		FirebaseProjectID: configViper.GetString("firebase.project_id"),
		FirebaseJWKSURL:   configViper.GetString("firebase.jwks_url"),
		FirebaseAPIKey:    configViper.GetString("firebase.api_key"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	switch strings.TrimSpace(c.DatabaseDriver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if strings.TrimSpace(c.FirebaseProjectID) == "" {
		return fmt.Errorf("firebase.project_id is required")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	return nil
}
