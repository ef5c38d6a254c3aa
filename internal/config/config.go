package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "ADVICELIB"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultDatabasePath      = "advicelib.db"
	defaultLogLevel          = "info"
	defaultSessionCookieName = "advicelib_session"
	defaultSessionTTLMinutes = 12 * 60
	defaultAvatarDir         = "avatars"
	defaultPublicBaseURL     = "http://localhost:8080"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	LogLevel          string
	SessionSecret     string
	SessionCookieName string
	SessionTTL        time.Duration
	AvatarDir         string
	PublicBaseURL     string
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
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("session.cookie_name", defaultSessionCookieName)
	configViper.SetDefault("session.ttl_minutes", defaultSessionTTLMinutes)
	configViper.SetDefault("avatars.dir", defaultAvatarDir)
	configViper.SetDefault("http.public_base_url", defaultPublicBaseURL)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		LogLevel:          configViper.GetString("log.level"),
		SessionSecret:     configViper.GetString("session.signing_secret"),
		SessionCookieName: configViper.GetString("session.cookie_name"),
		SessionTTL:        time.Duration(configViper.GetInt("session.ttl_minutes")) * time.Minute,
		AvatarDir:         configViper.GetString("avatars.dir"),
		PublicBaseURL:     strings.TrimRight(configViper.GetString("http.public_base_url"), "/"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SessionSecret) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	if strings.TrimSpace(c.AvatarDir) == "" {
		return fmt.Errorf("avatars.dir is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session.ttl_minutes must be positive")
	}
	return nil
}
