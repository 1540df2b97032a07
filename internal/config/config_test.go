package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-batches/internal/pkg/validate"
)

func env(m map[string]string) Getenv {
	return func(k string) string { return m[k] }
}

func TestLoadInventory_Defaults(t *testing.T) {
	cfg, err := LoadInventory(env(nil))

	require.NoError(t, err)
	assert.Equal(t, "inventory-service", cfg.ServiceName)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "FIFO", cfg.SelectionStrategy)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.PGURL)
}

func TestLoadInventory_Overrides(t *testing.T) {
	cfg, err := LoadInventory(env(map[string]string{
		"HTTP_ADDR":  ":9000",
		"KAFKA_ADDR": "kafka-1:9092, kafka-2:9092",
		"SEED_FILE":  "seed/inventory.csv",
		"LOG_LEVEL":  "DEBUG",
	}))

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "seed/inventory.csv", cfg.SeedFile)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadOrder_Defaults(t *testing.T) {
	cfg, err := LoadOrder(env(nil))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "http://localhost:8081", cfg.InventoryURL)
	assert.Equal(t, 5*time.Second, cfg.InventoryTimeout)
	assert.Equal(t, 10*time.Minute, cfg.IdempotencyTTL)
}

func TestLoadOrder_RejectsInvalidValues(t *testing.T) {
	_, err := LoadOrder(env(map[string]string{"INVENTORY_TIMEOUT": "soon"}))
	assert.Error(t, err)

	_, err = LoadOrder(env(map[string]string{"INVENTORY_URL": "not a url"}))
	assert.ErrorIs(t, err, validate.ErrInvalid)

	_, err = LoadOrder(env(map[string]string{"LOG_LEVEL": "loud"}))
	assert.ErrorIs(t, err, validate.ErrInvalid)
}
