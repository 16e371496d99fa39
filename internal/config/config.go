package config

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	CounterBackendMemory = "memory"
	CounterBackendRedis  = "redis"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	AccessCode         string
	ContactDestination string
	CatalogSeed        string

	CounterBackend string
	CounterKey     string
	RedisAddr      string
}

// Load reads configuration from the environment. Every knob has a default
// except the access code and contact destination, which gate and address the
// outbound order flow and so must be set deliberately.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_NAME", "orderlink")
	v.SetDefault("ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("COUNTER_BACKEND", CounterBackendMemory)
	v.SetDefault("COUNTER_KEY", "order_counters")
	v.SetDefault("REDIS_ADDR", "localhost:6379")

	cfg := &Config{
		ServiceName:        v.GetString("SERVICE_NAME"),
		Env:                v.GetString("ENV"),
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		AccessCode:         v.GetString("ACCESS_CODE"),
		ContactDestination: v.GetString("CONTACT_DESTINATION"),
		CatalogSeed:        v.GetString("CATALOG_SEED"),
		CounterBackend:     v.GetString("COUNTER_BACKEND"),
		CounterKey:         v.GetString("COUNTER_KEY"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
	}

	switch cfg.CounterBackend {
	case CounterBackendMemory, CounterBackendRedis:
	default:
		return nil, fmt.Errorf("config: COUNTER_BACKEND must be %q or %q, got %q",
			CounterBackendMemory, CounterBackendRedis, cfg.CounterBackend)
	}
	if cfg.CounterBackend == CounterBackendRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("config: REDIS_ADDR is required for the redis counter backend")
	}

	return cfg, nil
}
