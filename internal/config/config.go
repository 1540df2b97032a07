package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-batches/internal/pkg/validate"
)

// Common holds the settings every service reads.
type Common struct {
	ServiceName    string `env:"SERVICE_NAME" validate:"required"`
	ServiceVersion string `env:"SERVICE_VERSION"`
	Env            string `env:"ENV" validate:"required"`
	HTTPAddr       string `env:"HTTP_ADDR" validate:"required"`
	LogLevel       string `env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	LogFile        string `env:"LOG_FILE"`
	PGURL          string `env:"PG_URL"`
	KafkaBrokers   []string
	KafkaTopic     string `env:"KAFKA_TOPIC" validate:"required_with=KafkaBrokers"`
	OTelEndpoint   string `env:"OTEL_ENDPOINT"`
	OTelInsecure   bool
}

type Inventory struct {
	Common
	SeedFile          string `env:"SEED_FILE"`
	SelectionStrategy string `env:"SELECTION_STRATEGY" validate:"required"`
}

type Order struct {
	Common
	InventoryURL     string        `env:"INVENTORY_URL" validate:"required,url"`
	InventoryTimeout time.Duration `env:"INVENTORY_TIMEOUT" validate:"gt=0"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	IdempotencyTTL   time.Duration `env:"IDEMPOTENCY_TTL" validate:"gt=0"`
}

// Getenv matches os.Getenv; tests pass a map lookup.
type Getenv func(key string) string

func LoadInventory(getenv Getenv) (Inventory, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Inventory{
		Common:            loadCommon(getenv, "inventory-service", ":8081"),
		SeedFile:          getenvDefault(getenv, "SEED_FILE", ""),
		SelectionStrategy: getenvDefault(getenv, "SELECTION_STRATEGY", "FIFO"),
	}
	if err := validate.StructFields(cfg); err != nil {
		return Inventory{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func LoadOrder(getenv Getenv) (Order, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Order{
		Common:       loadCommon(getenv, "order-service", ":8080"),
		InventoryURL: getenvDefault(getenv, "INVENTORY_URL", "http://localhost:8081"),
		RedisAddr:    getenvDefault(getenv, "REDIS_ADDR", ""),
	}

	var err error
	if cfg.InventoryTimeout, err = time.ParseDuration(getenvDefault(getenv, "INVENTORY_TIMEOUT", "5s")); err != nil {
		return Order{}, fmt.Errorf("config: INVENTORY_TIMEOUT: %w", err)
	}
	if cfg.IdempotencyTTL, err = time.ParseDuration(getenvDefault(getenv, "IDEMPOTENCY_TTL", "10m")); err != nil {
		return Order{}, fmt.Errorf("config: IDEMPOTENCY_TTL: %w", err)
	}

	if err := validate.StructFields(cfg); err != nil {
		return Order{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func loadCommon(getenv Getenv, service, addr string) Common {
	return Common{
		ServiceName:    getenvDefault(getenv, "SERVICE_NAME", service),
		ServiceVersion: getenvDefault(getenv, "SERVICE_VERSION", "dev"),
		Env:            getenvDefault(getenv, "ENV", "dev"),
		HTTPAddr:       getenvDefault(getenv, "HTTP_ADDR", addr),
		LogLevel:       strings.ToLower(getenvDefault(getenv, "LOG_LEVEL", "info")),
		LogFile:        getenvDefault(getenv, "LOG_FILE", ""),
		PGURL:          getenvDefault(getenv, "PG_URL", ""),
		KafkaBrokers:   splitList(getenvDefault(getenv, "KAFKA_ADDR", "")),
		KafkaTopic:     getenvDefault(getenv, "KAFKA_TOPIC", "minishop.events"),
		OTelEndpoint:   getenvDefault(getenv, "OTEL_ENDPOINT", ""),
		OTelInsecure:   getenvDefault(getenv, "OTEL_INSECURE", "true") == "true",
	}
}

func getenvDefault(getenv Getenv, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
