package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		k := k
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { _ = os.Setenv(k, v) })
			require.NoError(t, os.Unsetenv(k))
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "ENV", "JWT_SECRET", "PORT", "MONGO_DB", "PICKUP_HOUR",
		"DOMESTIC_LEAD_TIME", "INTERNATIONAL_LEAD_TIME", "CONFIRM_LOCK_TTL", "KAFKA_BROKERS")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "colisapp", cfg.Mongo.Database)
	assert.Equal(t, 9, cfg.Schedule.PickupHour)
	assert.Equal(t, 48*time.Hour, cfg.Schedule.DomesticLeadTime)
	assert.Equal(t, 120*time.Hour, cfg.Schedule.InternationalLeadTime)
	assert.Equal(t, 30*time.Second, cfg.ConfirmLockTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PICKUP_HOUR", "18")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CONFIRM_LOCK_TTL", "1m")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 18, cfg.Schedule.PickupHour)
	assert.Equal(t, "kafka-1:9092,kafka-2:9092", cfg.Kafka.Brokers)
	assert.Equal(t, time.Minute, cfg.ConfirmLockTTL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PICKUP_HOUR", "25")

	_, err := Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "PICKUP_HOUR")
}

func TestLoad_MidnightPickup(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("PICKUP_HOUR", "0")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Schedule.PickupHour)
}

func TestLoad_AdminBootstrapNeedsBothFields(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("ADMIN_EMAIL", "ops@example.com")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD")

	t.Setenv("ADMIN_PASSWORD", "adminpass")
	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", cfg.Admin.Email)
}
