package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries the full runtime configuration for the API process.
// It is constructed once in main and handed to each component explicitly.
type Config struct {
	Server struct {
		Addr            string        `mapstructure:"addr"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Mongo struct {
		URI      string `mapstructure:"uri"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mongo"`
	JWT struct {
		Secret     string        `mapstructure:"secret"`
		Issuer     string        `mapstructure:"issuer"`
		AccessTTL  time.Duration `mapstructure:"access_ttl"`
		RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	} `mapstructure:"jwt"`
	Cookie struct {
		Name     string `mapstructure:"name"`
		Secure   bool   `mapstructure:"secure"`
		SameSite string `mapstructure:"samesite"`
	} `mapstructure:"cookie"`
}

// Load reads an optional config.yml from path plus VITALIA_-prefixed
// environment variables. Environment wins over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if path != "" {
		v.AddConfigPath(path)
	}

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("mongo.database", "vitalia")
	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("mongo.uri", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "vitalia")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 14*24*time.Hour)
	v.SetDefault("cookie.name", "refresh_token")
	v.SetDefault("cookie.secure", false)
	v.SetDefault("cookie.samesite", "lax")

	v.SetEnvPrefix("VITALIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret is required (VITALIA_JWT_SECRET)")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return errors.New("config: access TTL must be shorter than refresh TTL")
	}
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("config: cookie name must not be empty")
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("config: unknown samesite mode %q", c.Cookie.SameSite)
	}
	return nil
}

// CookieSameSite maps the configured mode onto the http package constant.
func (c *Config) CookieSameSite() http.SameSite {
	switch strings.ToLower(c.Cookie.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
