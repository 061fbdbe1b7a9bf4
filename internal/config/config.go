package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is everything the server reads at startup. The schema variant is the
// only knob that changes pipeline behavior; the rest is serving surface.
type Config struct {
	Addr           string
	MaxUploadMB    int
	AllowedOrigins []string
	SchemaVariant  string
	RunTTL         time.Duration
}

// DefaultConfig returns the settings used when no config file or environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		MaxUploadMB:    32,
		AllowedOrigins: []string{"http://localhost:3000"},
		SchemaVariant:  "current",
		RunTTL:         30 * time.Minute,
	}
}

// Load reads config.yaml from configPath with environment overrides mapped
// through the HVD prefix (HVD_SERVER_ADDR, HVD_DEDUPE_SCHEMA_VARIANT, ...).
func Load(configPath string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("HVD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("server.addr")
	v.BindEnv("server.max_upload_mb")
	v.BindEnv("server.allowed_origins")
	v.BindEnv("dedupe.schema_variant")
	v.BindEnv("dedupe.run_ttl")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.max_upload_mb") {
		cfg.MaxUploadMB = v.GetInt("server.max_upload_mb")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("dedupe.schema_variant") {
		cfg.SchemaVariant = v.GetString("dedupe.schema_variant")
	}
	if v.IsSet("dedupe.run_ttl") {
		cfg.RunTTL = v.GetDuration("dedupe.run_ttl")
	}

	if cfg.MaxUploadMB <= 0 {
		return cfg, fmt.Errorf("server.max_upload_mb must be positive, got %d", cfg.MaxUploadMB)
	}
	if cfg.RunTTL <= 0 {
		return cfg, fmt.Errorf("dedupe.run_ttl must be positive, got %s", cfg.RunTTL)
	}

	return cfg, nil
}
