package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 15*time.Minute, cfg.Stock.ReservationTTL)
	assert.Equal(t, time.Hour, cfg.Stock.MaxReservationTTL)
	assert.Equal(t, 5, cfg.Stock.LowStockThreshold)
	assert.Equal(t, 3, cfg.Order.MaxRetryAttempts)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "X-Clerk-User-Id", cfg.Auth.UserHeader)
	assert.Empty(t, cfg.Cron.Secret)
	assert.Empty(t, cfg.Auth.WebhookSecret)
	assert.Equal(t, 2*time.Second, cfg.Stock.PublishTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load(map[string]any{
		"server_port":         7070,
		"stock_low_threshold": 8,
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Stock.LowStockThreshold)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STOCK_RESERVATION_TTL", "soon")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STOCK_RESERVATION_TTL")
}

func TestLoad_MaxTTLBelowDefaultTTL(t *testing.T) {
	t.Setenv("STOCK_RESERVATION_TTL", "2h")

	_, err := Load(nil)
	require.Error(t, err)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV("a, ,b,"))
	assert.Empty(t, splitCSV(""))
}
