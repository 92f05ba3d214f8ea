package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	ProductCacheTTLSeconds int
	AuthSecret             string
	AccessTokenTTLMinutes  int
	WebhookURL             string
	WebhookSecret          string
	WebhookTimeoutSeconds  int
	KafkaBrokers           string
	KafkaTopic             string
	LedgerPath             string
	DashboardLimit         int
	OverdueDays            int
}

// WEBHOOK_URL has no default; unset or empty leaves the webhook off.
var defaults = map[string]any{
	"PORT":                      "8080",
	"ALLOWED_ORIGIN":            "http://127.0.0.1:3000",
	"REDIS_DB":                  0,
	"PRODUCT_CACHE_TTL_SECONDS": 300,
	"ACCESS_TOKEN_TTL_MINUTES":  480,
	"WEBHOOK_TIMEOUT_SECONDS":   5,
	"KAFKA_TOPIC":               "waybill-events",
	"DASHBOARD_LIMIT":           10,
	"OVERDUE_DAYS":              7,
}

// Load reads configuration from the environment. When CONFIG_FILE names a
// file (any format viper understands) its keys are read first and the
// environment still wins.
func Load() (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:                   v.GetString("PORT"),
		AllowedOrigin:          v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisDB:                v.GetInt("REDIS_DB"),
		ProductCacheTTLSeconds: positiveOr(v.GetInt("PRODUCT_CACHE_TTL_SECONDS"), 300),
		AuthSecret:             strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes:  positiveOr(v.GetInt("ACCESS_TOKEN_TTL_MINUTES"), 480),
		WebhookURL:             strings.TrimSpace(v.GetString("WEBHOOK_URL")),
		WebhookSecret:          v.GetString("WEBHOOK_SECRET"),
		WebhookTimeoutSeconds:  positiveOr(v.GetInt("WEBHOOK_TIMEOUT_SECONDS"), 5),
		KafkaBrokers:           strings.TrimSpace(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:             strings.TrimSpace(v.GetString("KAFKA_TOPIC")),
		LedgerPath:             strings.TrimSpace(v.GetString("LEDGER_PATH")),
		DashboardLimit:         positiveOr(v.GetInt("DASHBOARD_LIMIT"), 10),
		OverdueDays:            positiveOr(v.GetInt("OVERDUE_DAYS"), 7),
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func positiveOr(value int, fallback int) int {
	if value < 1 {
		return fallback
	}
	return value
}
