package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Station StationConfig `yaml:"station"`
	Scan    ScanConfig    `yaml:"scan"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	API     APIConfig     `yaml:"api"`
	NATS    NATSConfig    `yaml:"nats"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Log     LogConfig     `yaml:"log"`
}

// StationConfig identifies the weather station and tunes the
// measurement engine. An empty MAC makes the bridge discover a station
// by scanning at startup.
type StationConfig struct {
	MAC           string        `yaml:"mac"`
	Adapter       string        `yaml:"adapter"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	MaxAttempts   int           `yaml:"max_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// ScanConfig tunes station discovery.
type ScanConfig struct {
	Names   []string      `yaml:"names"`
	Timeout time.Duration `yaml:"timeout"`
}

// BridgeConfig tunes the bridge daemon's poll loop.
type BridgeConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// APIConfig represents REST API configuration. An empty AuthSecret
// disables authentication.
type APIConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	AuthSecret string        `yaml:"auth_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

// NATSConfig represents NATS publishing configuration. An empty URL
// disables NATS.
type NATSConfig struct {
	URL               string        `yaml:"url"`
	Subject           string        `yaml:"subject"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// MQTTConfig represents MQTT publishing configuration. An empty
// BrokerURL disables MQTT.
type MQTTConfig struct {
	BrokerURL string `yaml:"broker_url"`
	Topic     string `yaml:"topic"`
	ClientID  string `yaml:"client_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	QoS       byte   `yaml:"qos"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if mac := os.Getenv("STATION_MAC"); mac != "" {
		c.Station.MAC = mac
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}

	if brokerURL := os.Getenv("MQTT_BROKER_URL"); brokerURL != "" {
		c.MQTT.BrokerURL = brokerURL
	}

	if secret := os.Getenv("API_AUTH_SECRET"); secret != "" {
		c.API.AuthSecret = secret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}
}

func (c *Config) setDefaults() {
	if c.Station.IdleTimeout == 0 {
		c.Station.IdleTimeout = time.Second
	}
	if c.Station.MaxAttempts == 0 {
		c.Station.MaxAttempts = 10
	}
	if c.Station.RetryInterval == 0 {
		c.Station.RetryInterval = 3 * time.Second
	}

	if c.Scan.Timeout == 0 {
		c.Scan.Timeout = 2 * time.Second
	}

	if c.Bridge.PollInterval == 0 {
		c.Bridge.PollInterval = time.Minute
	}

	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.TokenTTL == 0 {
		c.API.TokenTTL = 24 * time.Hour
	}

	if c.NATS.Subject == "" {
		c.NATS.Subject = "weather.station.snapshot"
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = 10
	}
	if c.NATS.ReconnectInterval == 0 {
		c.NATS.ReconnectInterval = 5 * time.Second
	}

	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "weather/station/snapshot"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "weather-bridge"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}
