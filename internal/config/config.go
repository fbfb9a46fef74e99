package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Shop   ShopConfig
	CORS   CORSConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port int
}

// ShopConfig points the upstream client at one shop. Credentials are not
// validated here; a missing token simply fails at the first upstream call.
type ShopConfig struct {
	Slug    string
	Token   string
	BaseURL string
	Timeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SHOP_SLUG", "")
	viper.SetDefault("API_TOKEN", "")
	viper.SetDefault("API_BASE_URL", "https://api.storefront.dev/v1")
	viper.SetDefault("UPSTREAM_TIMEOUT", "20s")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("LOG_LEVEL", "info")

	timeout, err := time.ParseDuration(viper.GetString("UPSTREAM_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("parsing UPSTREAM_TIMEOUT: %w", err)
	}

	slug := viper.GetString("SHOP_SLUG")
	baseURL := strings.TrimRight(viper.GetString("API_BASE_URL"), "/")
	if slug != "" {
		baseURL = baseURL + "/" + slug
	}

	origins := []string{}
	for _, o := range strings.Split(viper.GetString("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("SERVER_PORT"),
		},
		Shop: ShopConfig{
			Slug:    slug,
			Token:   viper.GetString("API_TOKEN"),
			BaseURL: baseURL,
			Timeout: timeout,
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}
