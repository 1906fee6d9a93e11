// Package serial opens the serial line an iBus receiver is attached to.
package serial

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tarm/serial"
)

// StdinDevice reads the byte stream from stdin, e.g. a captured stream
// piped into the process.
const StdinDevice = "-"

// DefaultBaud is the iBus line speed.
const DefaultBaud = 115200

// DefaultReadTimeout is the default read timeout of a serial port.
const DefaultReadTimeout = 50 * time.Millisecond

// ErrNoDevice indicates the device is not specified.
var ErrNoDevice = errors.New("serial device not specified")

// Port is an opened serial line.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyUSB0", "COM3") or StdinDevice.
	Device string
	// Baud rate.
	Baud int
	// ReadTimeout for Read, 0 blocks until data arrives.
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration for an iBus receiver.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: DefaultReadTimeout,
	}
}

// TimesOut indicates Read on the opened Port returns with no data after
// ReadTimeout.
func (c *Config) TimesOut() bool {
	return c.Device != StdinDevice && c.ReadTimeout > 0
}

// Open opens the device.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	switch cfg.Device {
	case "":
		return nil, ErrNoDevice
	case StdinDevice:
		return stdin{}, nil
	}
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return port, nil
}

// stdin never closes os.Stdin.
type stdin struct{}

func (stdin) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdin) Write(p []byte) (int, error) { return len(p), nil }
func (stdin) Close() error                { return nil }
