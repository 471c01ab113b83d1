package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the YAML file.
const (
	EnvSerialPort    = "SENSMON_SERIAL_PORT"
	EnvBaudRate      = "SENSMON_BAUD_RATE"
	EnvOutputDir     = "SENSMON_OUTPUT_DIR"
	EnvSQLitePath    = "SENSMON_SQLITE_PATH"
	EnvInfluxURL     = "SENSMON_INFLUX_URL"
	EnvInfluxToken   = "SENSMON_INFLUX_TOKEN"
	EnvInfluxOrg     = "SENSMON_INFLUX_ORG"
	EnvInfluxBucket  = "SENSMON_INFLUX_BUCKET"
	EnvDotEnvDisable = "SENSMON_NO_DOTENV"
)

// Config represents the capture host configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Storage StorageConfig `yaml:"storage"`
	Display DisplayConfig `yaml:"display"`
	Mock    MockConfig    `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port       string `yaml:"port"`
	BaudRate   int    `yaml:"baud_rate"`
	BufferSize int    `yaml:"buffer_size"` // Lines buffered between reader and session
}

// StorageConfig selects where received data is persisted.
type StorageConfig struct {
	OutputDir string       `yaml:"output_dir"` // Directory for the CSV and alerts files
	SQLite    SQLiteConfig `yaml:"sqlite"`
	Influx    InfluxConfig `yaml:"influx"`
}

// SQLiteConfig enables the SQLite mirror when Path is set.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// InfluxConfig enables the InfluxDB mirror when URL is set.
type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// DisplayConfig contains live view parameters.
type DisplayConfig struct {
	WindowSeconds float64 `yaml:"window_seconds"` // Visible history
	MaxPoints     int     `yaml:"max_points"`     // Points drawn per trace
}

// MockConfig contains simulated device configuration.
type MockConfig struct {
	Interval    time.Duration `yaml:"interval"`     // Tick interval of the simulated device
	BaseTemp    float64       `yaml:"base_temp"`    // °C
	TempSwing   float64       `yaml:"temp_swing"`   // °C amplitude of the slow drift
	BaseHumid   float64       `yaml:"base_humid"`   // %RH
	HumidSwing  float64       `yaml:"humid_swing"`  // %RH amplitude
	ShakeLevel  float64       `yaml:"shake_level"`  // g amplitude of random vibration
	ShakePeriod time.Duration `yaml:"shake_period"` // Time between vibration bursts
	Seed        int64         `yaml:"seed"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:       "/dev/ttyUSB0", // "COM3" on Windows
			BaudRate:   115200,
			BufferSize: 100,
		},
		Storage: StorageConfig{
			OutputDir: ".",
			Influx: InfluxConfig{
				Org:    "sensmon",
				Bucket: "sensmon",
			},
		},
		Display: DisplayConfig{
			WindowSeconds: 300,
			MaxPoints:     1000,
		},
		Mock: MockConfig{
			Interval:    3 * time.Second,
			BaseTemp:    24.0,
			TempSwing:   14.0,
			BaseHumid:   50.0,
			HumidSwing:  40.0,
			ShakeLevel:  3.5,
			ShakePeriod: time.Minute,
			Seed:        1,
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides.
// Variables from a .env file in the working directory are loaded first unless
// SENSMON_NO_DOTENV is set. If the YAML file doesn't exist defaults are used.
func Load(filename string) (*Config, error) {
	if os.Getenv(EnvDotEnvDisable) == "" {
		// A missing .env file is not an error.
		_ = godotenv.Load()
	}

	cfg := Default()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString(EnvSerialPort, &c.Serial.Port)
	setString(EnvOutputDir, &c.Storage.OutputDir)
	setString(EnvSQLitePath, &c.Storage.SQLite.Path)
	setString(EnvInfluxURL, &c.Storage.Influx.URL)
	setString(EnvInfluxToken, &c.Storage.Influx.Token)
	setString(EnvInfluxOrg, &c.Storage.Influx.Org)
	setString(EnvInfluxBucket, &c.Storage.Influx.Bucket)

	if v := os.Getenv(EnvBaudRate); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvBaudRate, err)
		}
		c.Serial.BaudRate = baud
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.BufferSize == 0 {
		c.Serial.BufferSize = def.Serial.BufferSize
	}

	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = def.Storage.OutputDir
	}
	if c.Storage.Influx.Org == "" {
		c.Storage.Influx.Org = def.Storage.Influx.Org
	}
	if c.Storage.Influx.Bucket == "" {
		c.Storage.Influx.Bucket = def.Storage.Influx.Bucket
	}

	if c.Display.WindowSeconds == 0 {
		c.Display.WindowSeconds = def.Display.WindowSeconds
	}
	if c.Display.MaxPoints == 0 {
		c.Display.MaxPoints = def.Display.MaxPoints
	}

	if c.Mock.Interval == 0 {
		c.Mock.Interval = def.Mock.Interval
	}
	if c.Mock.ShakePeriod == 0 {
		c.Mock.ShakePeriod = def.Mock.ShakePeriod
	}
}
