// Package env builds the running device from configuration.
//
// Settings come from, in increasing priority: built-in defaults,
// environment variables, the TOML file given by -config, and explicitly
// set command line flags.
package env

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	fx "github.com/robotalks/uartlink/pkg/framework"
	"github.com/robotalks/uartlink/pkg/l0/comm"
	"github.com/robotalks/uartlink/pkg/l0/link"
)

// Receive modes.
const (
	ModePolled   = "polled"
	ModeBlocking = "blocking"
)

// Config provides options to setup a device Env.
type Config struct {
	ID           string
	Port         string
	Baud         int
	Mode         string
	Capacity     int
	Threshold    int
	FIFOSize     int
	PollInterval time.Duration
	// ReadTimeout bounds the wait for each byte in blocking mode, zero
	// waits forever.
	ReadTimeout time.Duration
	LEDs        int
	// MQTTURL is the broker for events, e.g. mqtt://host:1883/uart/
	MQTTURL     string
	MetricsAddr string
}

type fileConfig struct {
	ID           string        `toml:"id"`
	Port         string        `toml:"port"`
	Baud         int           `toml:"baud"`
	Mode         string        `toml:"mode"`
	Capacity     int           `toml:"capacity"`
	Threshold    int           `toml:"threshold"`
	FIFOSize     int           `toml:"fifo_size"`
	PollInterval time.Duration `toml:"poll_interval"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	LEDs         int           `toml:"leds"`
	MQTTURL      string        `toml:"mqtt_url"`
	MetricsAddr  string        `toml:"metrics_addr"`
}

var (
	defaultConfig = Config{
		Port:         "/dev/ttyUSB0",
		Baud:         link.DefaultBaudRate,
		Mode:         ModePolled,
		Capacity:     comm.DefaultCapacity,
		Threshold:    comm.DefaultThreshold,
		FIFOSize:     comm.DefaultFIFOSize,
		PollInterval: 5 * time.Millisecond,
		LEDs:         comm.DefaultCapacity / 3,
	}

	configFile string
)

func init() {
	if val := os.Getenv("UARTLINK_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("UARTLINK_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
}

func bindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.ID, "id", c.ID, "Device ID, defaults to the machine ID")
	fs.StringVar(&c.Port, "port", c.Port, "Link: serial device, tcp://host:port or ws://host:port/path")
	fs.IntVar(&c.Baud, "baud", c.Baud, "Serial baud rate")
	fs.StringVar(&c.Mode, "mode", c.Mode, "Receive mode: polled or blocking")
	fs.IntVar(&c.Capacity, "capacity", c.Capacity, "Frame payload capacity in bytes")
	fs.IntVar(&c.Threshold, "threshold", c.Threshold, "Polls tolerated with an unfinished frame")
	fs.IntVar(&c.FIFOSize, "fifo-size", c.FIFOSize, "Receive buffer size in bytes")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "Polling interval")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "Blocking mode: max wait per byte, 0 waits forever")
	fs.IntVar(&c.LEDs, "leds", c.LEDs, "Number of LEDs")
	fs.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL for events, empty to disable")
	fs.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "Listen address serving /metrics, empty to disable")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	bindFlags(flag.CommandLine, &defaultConfig)
	flag.StringVar(&configFile, "config", configFile, "TOML config file")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config from defaults, the config file and
// explicitly set flags.
func NewConfig() (*Config, error) {
	conf := defaultConfig
	if configFile == "" {
		return &conf, nil
	}
	if err := conf.LoadFile(configFile); err != nil {
		return nil, err
	}
	// flags on the command line win over the file.
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	bindFlags(fs, &conf)
	var err error
	flag.Visit(func(f *flag.Flag) {
		if fs.Lookup(f.Name) != nil && err == nil {
			err = fs.Set(f.Name, f.Value.String())
		}
	})
	return &conf, err
}

// MustNewConfig creates a Config and fails on error.
func MustNewConfig() *Config {
	conf, err := NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}

// LoadFile overlays settings defined in a TOML file.
func (c *Config) LoadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}
	if meta.IsDefined("id") {
		c.ID = strings.TrimSpace(raw.ID)
	}
	if meta.IsDefined("port") {
		c.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") {
		c.Baud = raw.Baud
	}
	if meta.IsDefined("mode") {
		c.Mode = strings.TrimSpace(raw.Mode)
	}
	if meta.IsDefined("capacity") {
		c.Capacity = raw.Capacity
	}
	if meta.IsDefined("threshold") {
		c.Threshold = raw.Threshold
	}
	if meta.IsDefined("fifo_size") {
		c.FIFOSize = raw.FIFOSize
	}
	if meta.IsDefined("poll_interval") {
		c.PollInterval = raw.PollInterval
	}
	if meta.IsDefined("read_timeout") {
		c.ReadTimeout = raw.ReadTimeout
	}
	if meta.IsDefined("leds") {
		c.LEDs = raw.LEDs
	}
	if meta.IsDefined("mqtt_url") {
		c.MQTTURL = strings.TrimSpace(raw.MQTTURL)
	}
	if meta.IsDefined("metrics_addr") {
		c.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	var errs fx.AggregatedError
	if c.Port == "" {
		errs.Add(errors.New("port is required"))
	}
	if c.Mode != ModePolled && c.Mode != ModeBlocking {
		errs.Add(fmt.Errorf("invalid mode %q", c.Mode))
	}
	if c.Capacity <= 0 || c.Capacity > math.MaxUint16 {
		errs.Add(fmt.Errorf("capacity out of range: %d", c.Capacity))
	}
	if c.Threshold < 0 {
		errs.Add(fmt.Errorf("negative threshold: %d", c.Threshold))
	}
	if c.ReadTimeout < 0 {
		errs.Add(fmt.Errorf("negative read timeout: %v", c.ReadTimeout))
	}
	if c.FIFOSize <= 0 {
		errs.Add(fmt.Errorf("invalid fifo size: %d", c.FIFOSize))
	}
	if c.LEDs < 0 || c.LEDs*3 > c.Capacity {
		errs.Add(fmt.Errorf("%d LEDs don't fit the capacity", c.LEDs))
	}
	return errs.Aggregate()
}
