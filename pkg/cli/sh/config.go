package sh

import (
	"flag"
	"os"
	"time"

	"github.com/robotalks/ibus.go/pkg/mqtt"
)

// Config provides options to connect receivers.
type Config struct {
	Ref mqtt.Ref

	// MQTTBrokerURL specifies the broker receivers publish to.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string

	DiscoverTimeout time.Duration
}

var defaultConfig = Config{
	MQTTBrokerURL:   "mqtt://localhost:1883/robo/",
	DiscoverTimeout: mqtt.DefaultDiscoverTimeout,
}

func init() {
	if val := os.Getenv("IBUS_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("IBUS_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("IBUS_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "type", defaultConfig.Ref.Type, "Receiver type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "id", defaultConfig.Ref.ID, "Receiver ID to connect.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL.")
	flag.DurationVar(&defaultConfig.DiscoverTimeout, "discover-timeout", defaultConfig.DiscoverTimeout, "Time to wait for announcements.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
