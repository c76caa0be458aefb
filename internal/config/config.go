package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config defines bridge configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"HTTP_PORT"`
	} `yaml:"http"`
	MQTT struct {
		URL      string `yaml:"url" env:"MQTT_URL"`
		Topic    string `yaml:"topic" env:"MQTT_TOPIC"`
		ClientID string `yaml:"client_id" env:"MQTT_CLIENT_ID"`
	} `yaml:"mqtt"`
	Influx struct {
		URL    string `yaml:"url" env:"INFLUX_URL"`
		Token  string `yaml:"token" env:"INFLUX_TOKEN"`
		Org    string `yaml:"org" env:"INFLUX_ORG"`
		Bucket string `yaml:"bucket" env:"INFLUX_BUCKET"`
		// Write disables point writes when another ingester already feeds
		// the bucket, so live fan-out keeps working without double-writing.
		Write bool `yaml:"write" env:"INFLUX_WRITE"`
	} `yaml:"influx"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
	} `yaml:"redis"`
	Ingest struct {
		IgnoreSynthetic bool `yaml:"ignore_synthetic" env:"INGEST_IGNORE_SYNTHETIC"`
	} `yaml:"ingest"`
}

// Load configuration from optional YAML file plus environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.MQTT.URL = "tcp://localhost:1883"
	cfg.MQTT.Topic = "scooter/+/telemetry"
	cfg.MQTT.ClientID = "m365-bridge"
	cfg.Influx.Bucket = "scooter"
	cfg.Influx.Write = true

	if err := loadInto(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Influx.URL) == "" {
		return nil, errors.New("config: influx url required")
	}
	if strings.TrimSpace(cfg.Influx.Token) == "" {
		return nil, errors.New("config: influx token required")
	}
	if strings.TrimSpace(cfg.Influx.Org) == "" {
		return nil, errors.New("config: influx org required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
