package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Stock    StockConfig
	Order    OrderConfig
	Cron     CronConfig
	Payment  PaymentConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

type LogConfig struct {
	Level string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	LowStockTopic string
	MovementTopic string
}

type StockConfig struct {
	ReservationTTL    time.Duration
	MaxReservationTTL time.Duration
	LowStockThreshold int
	LazySweepInterval time.Duration
	NotificationTTL   time.Duration
	PublishTimeout    time.Duration
}

type OrderConfig struct {
	AbandonAfter     time.Duration
	MaxRetryAttempts int
	TxTimeout        time.Duration
}

type CronConfig struct {
	Secret        string
	SweepInterval time.Duration
	LockTTL       time.Duration
}

type PaymentConfig struct {
	BaseURL         string
	AccessToken     string
	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string
	Timeout         time.Duration
}

type AuthConfig struct {
	UserHeader    string
	WebhookSecret string
}

var defaults = map[string]any{
	"SERVER_PORT":             8080,
	"SERVER_REQUEST_TIMEOUT":  "15s",
	"SERVER_SHUTDOWN_TIMEOUT": "10s",

	"DB_HOST":              "localhost",
	"DB_PORT":              3306,
	"DB_USER":              "pasmino",
	"DB_PASSWORD":          "secret",
	"DB_NAME":              "pasmino",
	"DB_MAX_OPEN_CONNS":    25,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_CONN_MAX_LIFETIME": "5m",
	"DB_MIGRATE_ON_START":  true,

	"LOG_LEVEL": "info",

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"KAFKA_BROKERS":         "localhost:9092",
	"KAFKA_LOW_STOCK_TOPIC": "stock.low",
	"KAFKA_MOVEMENT_TOPIC":  "stock.movement",

	"STOCK_RESERVATION_TTL":     "15m",
	"STOCK_MAX_RESERVATION_TTL": "1h",
	"STOCK_LOW_THRESHOLD":       5,
	"STOCK_LAZY_SWEEP_INTERVAL": "30s",
	"STOCK_NOTIFICATION_TTL":    "6h",
	"STOCK_PUBLISH_TIMEOUT":     "2s",

	"ORDER_ABANDON_AFTER":      "2h",
	"ORDER_MAX_RETRY_ATTEMPTS": 3,
	"ORDER_TX_TIMEOUT":         "5s",

	"CRON_SECRET":         "",
	"CRON_SWEEP_INTERVAL": "1m",
	"CRON_LOCK_TTL":       "30s",

	"PAYMENT_BASE_URL":         "https://api.mercadopago.com",
	"PAYMENT_ACCESS_TOKEN":     "",
	"PAYMENT_SUCCESS_URL":      "http://localhost:3000/checkout/success",
	"PAYMENT_FAILURE_URL":      "http://localhost:3000/checkout/failure",
	"PAYMENT_PENDING_URL":      "http://localhost:3000/checkout/pending",
	"PAYMENT_NOTIFICATION_URL": "",
	"PAYMENT_TIMEOUT":          "10s",

	"AUTH_USER_HEADER":    "X-Clerk-User-Id",
	"AUTH_WEBHOOK_SECRET": "",
}

// Load reads configuration from the environment. Values in overrides replace
// the built-in defaults but are still superseded by environment variables.
func Load(overrides map[string]any) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, value := range overrides {
		v.SetDefault(strings.ToUpper(key), value)
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"SERVER_REQUEST_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT", "DB_CONN_MAX_LIFETIME",
		"STOCK_RESERVATION_TTL", "STOCK_MAX_RESERVATION_TTL", "STOCK_LAZY_SWEEP_INTERVAL",
		"STOCK_NOTIFICATION_TTL", "STOCK_PUBLISH_TIMEOUT", "ORDER_ABANDON_AFTER", "ORDER_TX_TIMEOUT",
		"CRON_SWEEP_INTERVAL", "CRON_LOCK_TTL", "PAYMENT_TIMEOUT",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			RequestTimeout:  durations["SERVER_REQUEST_TIMEOUT"],
			ShutdownTimeout: durations["SERVER_SHUTDOWN_TIMEOUT"],
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
			MigrateOnStart:  v.GetBool("DB_MIGRATE_ON_START"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitCSV(v.GetString("KAFKA_BROKERS")),
			LowStockTopic: v.GetString("KAFKA_LOW_STOCK_TOPIC"),
			MovementTopic: v.GetString("KAFKA_MOVEMENT_TOPIC"),
		},
		Stock: StockConfig{
			ReservationTTL:    durations["STOCK_RESERVATION_TTL"],
			MaxReservationTTL: durations["STOCK_MAX_RESERVATION_TTL"],
			LowStockThreshold: v.GetInt("STOCK_LOW_THRESHOLD"),
			LazySweepInterval: durations["STOCK_LAZY_SWEEP_INTERVAL"],
			NotificationTTL:   durations["STOCK_NOTIFICATION_TTL"],
			PublishTimeout:    durations["STOCK_PUBLISH_TIMEOUT"],
		},
		Order: OrderConfig{
			AbandonAfter:     durations["ORDER_ABANDON_AFTER"],
			MaxRetryAttempts: v.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
			TxTimeout:        durations["ORDER_TX_TIMEOUT"],
		},
		Cron: CronConfig{
			Secret:        v.GetString("CRON_SECRET"),
			SweepInterval: durations["CRON_SWEEP_INTERVAL"],
			LockTTL:       durations["CRON_LOCK_TTL"],
		},
		Payment: PaymentConfig{
			BaseURL:         v.GetString("PAYMENT_BASE_URL"),
			AccessToken:     v.GetString("PAYMENT_ACCESS_TOKEN"),
			SuccessURL:      v.GetString("PAYMENT_SUCCESS_URL"),
			FailureURL:      v.GetString("PAYMENT_FAILURE_URL"),
			PendingURL:      v.GetString("PAYMENT_PENDING_URL"),
			NotificationURL: v.GetString("PAYMENT_NOTIFICATION_URL"),
			Timeout:         durations["PAYMENT_TIMEOUT"],
		},
		Auth: AuthConfig{
			UserHeader:    v.GetString("AUTH_USER_HEADER"),
			WebhookSecret: v.GetString("AUTH_WEBHOOK_SECRET"),
		},
	}

	if cfg.Stock.MaxReservationTTL < cfg.Stock.ReservationTTL {
		return nil, fmt.Errorf("STOCK_MAX_RESERVATION_TTL (%s) must not be lower than STOCK_RESERVATION_TTL (%s)",
			cfg.Stock.MaxReservationTTL, cfg.Stock.ReservationTTL)
	}
	if cfg.Order.MaxRetryAttempts < 1 {
		cfg.Order.MaxRetryAttempts = 1
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
