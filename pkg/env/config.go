// Package env provides common configuration of the receiver daemon.
package env

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/robotalks/ibus.go/pkg/ibus"
	"github.com/robotalks/ibus.go/pkg/mqtt"
	"github.com/robotalks/ibus.go/pkg/serial"
)

// DefaultType is the receiver type.
const DefaultType = "ibus"

// Config provides options to run a receiver.
type Config struct {
	Ref    mqtt.Ref
	Meta   mqtt.Meta
	Serial serial.Config

	// Timeout of a partial frame and of the signal.
	Timeout time.Duration

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// WebSocketAddr is the listen address streaming events, disabled if empty.
	WebSocketAddr string
	// MetricsAddr is the listen address of /metrics, disabled if empty.
	MetricsAddr string

	// PublishRate limits RCChannels events per second, 0 for unlimited.
	PublishRate float64
	// StatusInterval is the period of publishing RCStatus.
	StatusInterval time.Duration
}

var defaultConfig = Config{
	Ref:            mqtt.Ref{Type: DefaultType},
	Serial:         *serial.DefaultConfig(""),
	Timeout:        ibus.DefaultTimeout,
	MQTTBrokerURL:  "mqtt://localhost:1883/robo/",
	PublishRate:    0,
	StatusInterval: time.Second,
}

func init() {
	defaultConfig.Ref.ID = MachineID()
	if val := os.Getenv("IBUS_DEVICE"); val != "" {
		defaultConfig.Serial.Device = val
	}
	if val := os.Getenv("IBUS_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("IBUS_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
}

var configFile string

// SetupFlags sets command line flags.
func SetupFlags() {
	defaultConfig.BindFlags(flag.CommandLine)
	flag.StringVar(&configFile, "config", "", "TOML config file")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load builds the config from the command line after flag.Parse.
func Load() (*Config, error) {
	return defaultConfig.Resolve(configFile, flag.CommandLine)
}

// Resolve copies c and overlays the TOML file at path. Flags explicitly
// set in fs win over the file.
func (c *Config) Resolve(path string, fs *flag.FlagSet) (*Config, error) {
	conf := *c
	if path != "" {
		if err := conf.LoadFile(path); err != nil {
			return nil, err
		}
		target := flag.NewFlagSet("", flag.ContinueOnError)
		conf.BindFlags(target)
		var err error
		fs.Visit(func(f *flag.Flag) {
			if err == nil && target.Lookup(f.Name) != nil {
				err = target.Set(f.Name, f.Value.String())
			}
		})
		if err != nil {
			return nil, err
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// BindFlags binds fields to flags in fs.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Ref.Type, "type", c.Ref.Type, "Receiver type")
	fs.StringVar(&c.Ref.ID, "id", c.Ref.ID, "Receiver ID")
	fs.StringVar(&c.Meta.Description, "desc", c.Meta.Description, "Receiver description")
	fs.StringVar(&c.Serial.Device, "dev", c.Serial.Device, "Serial device, - for stdin")
	fs.IntVar(&c.Serial.Baud, "baud", c.Serial.Baud, "Serial baud rate")
	fs.DurationVar(&c.Serial.ReadTimeout, "read-timeout", c.Serial.ReadTimeout, "Serial read timeout")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Frame and signal timeout")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	fs.StringVar(&c.WebSocketAddr, "ws", c.WebSocketAddr, "WebSocket listen address")
	fs.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "Metrics listen address")
	fs.Float64Var(&c.PublishRate, "rate", c.PublishRate, "Max channel events per second, 0 for unlimited")
	fs.DurationVar(&c.StatusInterval, "status-interval", c.StatusInterval, "Status publishing interval")
}

type fileConfig struct {
	Type           string            `toml:"type"`
	ID             string            `toml:"id"`
	Description    string            `toml:"description"`
	Labels         map[string]string `toml:"labels"`
	Device         string            `toml:"device"`
	Baud           int               `toml:"baud"`
	ReadTimeout    time.Duration     `toml:"read_timeout"`
	Timeout        time.Duration     `toml:"timeout"`
	MQTT           string            `toml:"mqtt"`
	WebSocketAddr  string            `toml:"websocket_addr"`
	MetricsAddr    string            `toml:"metrics_addr"`
	PublishRate    float64           `toml:"publish_rate"`
	StatusInterval time.Duration     `toml:"status_interval"`
}

// LoadFile overlays the keys defined in a TOML file.
func (c *Config) LoadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	if meta.IsDefined("type") {
		c.Ref.Type = strings.TrimSpace(raw.Type)
	}
	if meta.IsDefined("id") {
		c.Ref.ID = strings.TrimSpace(raw.ID)
	}
	if meta.IsDefined("description") {
		c.Meta.Description = raw.Description
	}
	if meta.IsDefined("labels") {
		c.Meta.Labels = raw.Labels
	}
	if meta.IsDefined("device") {
		c.Serial.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("baud") {
		c.Serial.Baud = raw.Baud
	}
	if meta.IsDefined("read_timeout") {
		c.Serial.ReadTimeout = raw.ReadTimeout
	}
	if meta.IsDefined("timeout") {
		c.Timeout = raw.Timeout
	}
	if meta.IsDefined("mqtt") {
		c.MQTTBrokerURL = strings.TrimSpace(raw.MQTT)
	}
	if meta.IsDefined("websocket_addr") {
		c.WebSocketAddr = strings.TrimSpace(raw.WebSocketAddr)
	}
	if meta.IsDefined("metrics_addr") {
		c.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("publish_rate") {
		c.PublishRate = raw.PublishRate
	}
	if meta.IsDefined("status_interval") {
		c.StatusInterval = raw.StatusInterval
	}
	return nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if !c.Ref.IsValid() {
		return fmt.Errorf("invalid receiver type/id %q", c.Ref.Name())
	}
	if c.Serial.Device == "" {
		return serial.ErrNoDevice
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Serial.Baud)
	}
	if c.Serial.ReadTimeout < 0 || c.Timeout < 0 || c.StatusInterval < 0 {
		return errors.New("durations must not be negative")
	}
	if c.PublishRate < 0 {
		return fmt.Errorf("invalid publish rate %v", c.PublishRate)
	}
	return nil
}

// Info returns the information announced to the broker.
func (c *Config) Info() mqtt.Info {
	info := mqtt.Info{Ref: c.Ref, Meta: c.Meta}
	if info.Meta.Device == "" {
		info.Meta.Device = c.Serial.Device
	}
	return info
}
