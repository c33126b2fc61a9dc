package config

import (
	"time"
)

type ShippingConfig struct {
	Shiprocket   *ShiprocketConfig `yaml:"shiprocket"`
	PollInterval time.Duration     `yaml:"poll_interval"`
	Warehouse    *WarehouseConfig  `yaml:"warehouse"`
}

type ShiprocketConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Email          string        `yaml:"email"`
	Password       string        `yaml:"password"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

type WarehouseConfig struct {
	Name       string `yaml:"name"`
	Phone      string `yaml:"phone"`
	Address    string `yaml:"address"`
	City       string `yaml:"city"`
	State      string `yaml:"state"`
	PostalCode string `yaml:"postal_code"`
	Country    string `yaml:"country"`
}

func loadShippingConfig() *ShippingConfig {
	return &ShippingConfig{
		Shiprocket: &ShiprocketConfig{
			BaseURL:        getEnv("SHIPROCKET_BASE_URL", "https://apiv2.shiprocket.in/v1/external"),
			Email:          getEnv("SHIPROCKET_EMAIL", ""),
			Password:       getEnv("SHIPROCKET_PASSWORD", ""),
			TokenTTL:       getEnvAsDuration("SHIPROCKET_TOKEN_TTL", 9*24*time.Hour),
			RequestTimeout: getEnvAsDuration("SHIPROCKET_REQUEST_TIMEOUT", 15*time.Second),
			MaxRetries:     getEnvAsInt("SHIPROCKET_MAX_RETRIES", 3),
		},
		PollInterval: getEnvAsDuration("DELIVERY_POLL_INTERVAL", 4*time.Hour),
		Warehouse: &WarehouseConfig{
			Name:       getEnv("WAREHOUSE_NAME", "Primary"),
			Phone:      getEnv("WAREHOUSE_PHONE", ""),
			Address:    getEnv("WAREHOUSE_ADDRESS", ""),
			City:       getEnv("WAREHOUSE_CITY", ""),
			State:      getEnv("WAREHOUSE_STATE", ""),
			PostalCode: getEnv("WAREHOUSE_POSTAL_CODE", ""),
			Country:    getEnv("WAREHOUSE_COUNTRY", "India"),
		},
	}
}
