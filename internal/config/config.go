package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/plane_tilt/internal/link"
	"github.com/relabs-tech/plane_tilt/internal/orientation"
)

// Link sources.
const (
	SourceSerial = "serial"
	SourceMock   = "mock"
	SourceReplay = "replay"
)

// Config holds all application configuration values.
// Every field can be overridden with the PLANE_* environment variable named
// in its env tag.
type Config struct {
	Link   LinkConfig   `yaml:"link"`
	Flight FlightConfig `yaml:"flight"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Web    WebConfig    `yaml:"web"`
	Log    LogConfig    `yaml:"log"`
}

type LinkConfig struct {
	// Source is one of "serial", "mock" or "replay".
	Source         string        `yaml:"source" env:"PLANE_LINK_SOURCE"`
	Port           string        `yaml:"port" env:"PLANE_SERIAL_PORT"`
	BaudRate       uint          `yaml:"baud_rate" env:"PLANE_SERIAL_BAUD"`
	Framing        string        `yaml:"framing" env:"PLANE_FRAMING"`
	Delimiter      string        `yaml:"delimiter" env:"PLANE_DELIMITER"`
	ReplayPath     string        `yaml:"replay_path" env:"PLANE_REPLAY_PATH"`
	ReopenInterval time.Duration `yaml:"reopen_interval" env:"PLANE_REOPEN_INTERVAL"`
}

type FlightConfig struct {
	// TickRate is a frequency such as "50Hz".
	TickRate       string  `yaml:"tick_rate" env:"PLANE_TICK_RATE"`
	SpeedScale     float64 `yaml:"speed_scale" env:"PLANE_SPEED_SCALE"`
	DirectionScale float64 `yaml:"direction_scale" env:"PLANE_DIRECTION_SCALE"`

	tickRate physic.Frequency
}

type MQTTConfig struct {
	// Broker may be empty to disable publishing.
	Broker          string `yaml:"broker" env:"PLANE_MQTT_BROKER"`
	ClientIDFlight  string `yaml:"client_id_flight" env:"PLANE_MQTT_CLIENT_ID_FLIGHT"`
	ClientIDConsole string `yaml:"client_id_console" env:"PLANE_MQTT_CLIENT_ID_CONSOLE"`
	ClientIDWeb     string `yaml:"client_id_web" env:"PLANE_MQTT_CLIENT_ID_WEB"`
	TopicTick       string `yaml:"topic_tick" env:"PLANE_TOPIC_TICK"`
}

type WebConfig struct {
	Port int `yaml:"port" env:"PLANE_WEB_PORT"`
}

type LogConfig struct {
	// EveryTicks controls how often the flight loop logs a summary line.
	EveryTicks int `yaml:"every_ticks" env:"PLANE_LOG_EVERY_TICKS"`
}

// Package-level singleton: InitGlobal sets it once, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the YAML file at configPath, applies environment overrides and
// defaults, then validates the result. An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	return load(configPath, nil)
}

// LoadReplay is Load with the link source forced to the replay file at
// framesPath.
func LoadReplay(configPath, framesPath string) (*Config, error) {
	return load(configPath, func(c *Config) {
		c.Link.Source = SourceReplay
		c.Link.ReplayPath = framesPath
	})
}

func load(configPath string, override func(*Config)) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		b, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if override != nil {
		override(cfg)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Link.Source == "" {
		c.Link.Source = SourceSerial
	}
	if c.Link.BaudRate == 0 {
		c.Link.BaudRate = link.DefaultBaudRate
	}
	if c.Link.Framing == "" {
		c.Link.Framing = string(link.FramingPlain)
	}
	if c.Link.ReopenInterval <= 0 {
		c.Link.ReopenInterval = 2 * time.Second
	}
	if c.Flight.TickRate == "" {
		c.Flight.TickRate = "50Hz"
	}
	if c.Flight.SpeedScale == 0 {
		c.Flight.SpeedScale = orientation.DefaultSpeedScale
	}
	if c.Flight.DirectionScale == 0 {
		c.Flight.DirectionScale = orientation.DefaultDirectionScale
	}
	if c.MQTT.ClientIDFlight == "" {
		c.MQTT.ClientIDFlight = "plane-flight"
	}
	if c.MQTT.ClientIDConsole == "" {
		c.MQTT.ClientIDConsole = "plane-console"
	}
	if c.MQTT.ClientIDWeb == "" {
		c.MQTT.ClientIDWeb = "plane-web"
	}
	if c.MQTT.TopicTick == "" {
		c.MQTT.TopicTick = "plane/tick"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Log.EveryTicks <= 0 {
		c.Log.EveryTicks = 50
	}
}

// Validate checks that required fields are set and values are usable.
// Call it again after changing fields of a loaded Config.
func (c *Config) Validate() error {
	switch c.Link.Source {
	case SourceSerial:
		if c.Link.Port == "" {
			return fmt.Errorf("link.port is required")
		}
	case SourceReplay:
		if c.Link.ReplayPath == "" {
			return fmt.Errorf("link.replay_path is required")
		}
	case SourceMock:
	default:
		return fmt.Errorf("link.source must be one of serial, mock, replay, got %q", c.Link.Source)
	}

	switch link.Framing(c.Link.Framing) {
	case link.FramingPlain, link.FramingNMEA:
	default:
		return fmt.Errorf("link.framing must be plain or nmea, got %q", c.Link.Framing)
	}

	var f physic.Frequency
	if err := f.Set(c.Flight.TickRate); err != nil {
		return fmt.Errorf("invalid flight.tick_rate %q: %w", c.Flight.TickRate, err)
	}
	if f <= 0 {
		return fmt.Errorf("flight.tick_rate must be positive, got %q", c.Flight.TickRate)
	}
	c.Flight.tickRate = f

	if err := c.Tuning().Validate(); err != nil {
		return fmt.Errorf("flight: %w", err)
	}
	return nil
}

// Tuning returns the orientation scale factors.
func (c *Config) Tuning() orientation.Tuning {
	return orientation.Tuning{
		SpeedScale:     c.Flight.SpeedScale,
		DirectionScale: c.Flight.DirectionScale,
	}
}

// TickRate returns the parsed flight.tick_rate.
func (c *Config) TickRate() physic.Frequency { return c.Flight.tickRate }

// TickInterval returns the period of flight.tick_rate.
func (c *Config) TickInterval() time.Duration { return c.Flight.tickRate.Period() }

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
