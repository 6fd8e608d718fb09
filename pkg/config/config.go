package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// RemotePathPlain is the remote store path used when no waveform is mixed in.
	RemotePathPlain = "arduino_data"
	// RemotePathCombined is the remote store path used when a waveform is mixed in.
	RemotePathCombined = "sensor_data"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Waveform    WaveformConfig    `yaml:"waveform"`
	Log         LogConfig         `yaml:"log"`
	Remote      RemoteConfig      `yaml:"remote"`
	Plot        PlotConfig        `yaml:"plot"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port       string `yaml:"port"`       // Empty means autodetect
	BaudRate   int    `yaml:"baud_rate"`
	Autodetect bool   `yaml:"autodetect"` // Detect the port even when Port is set
}

// AcquisitionConfig contains read loop parameters.
type AcquisitionConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"` // Wait between polls when no line is buffered
	Echo         bool          `yaml:"echo"`          // Print every accepted sample to stdout
}

// WaveformConfig describes the waveform table that is added to live readings,
// and the parameters used by wavegen to produce one.
type WaveformConfig struct {
	File      string        `yaml:"file"`      // Empty disables mixing
	Amplitude float64       `yaml:"amplitude"` // Generator amplitude (V)
	Points    int           `yaml:"points"`    // Generator point count
	Step      time.Duration `yaml:"step"`      // Generator time step
}

// LogConfig contains durable log sink configuration.
type LogConfig struct {
	File   string `yaml:"file"`   // CSV log file, truncated at run start
	SQLite string `yaml:"sqlite"` // Optional SQLite database, empty disables
}

// RemoteConfig contains remote log sink configuration.
type RemoteConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DatabaseURL     string        `yaml:"database_url"`
	Path            string        `yaml:"path"`             // Empty picks arduino_data or sensor_data
	CredentialsEnv  string        `yaml:"credentials_env"`  // Environment variable holding the credentials path
	CredentialsFile string        `yaml:"credentials_file"` // Fallback credentials path
	QueueSize       int           `yaml:"queue_size"`       // 0 pushes synchronously from the read loop
	Retries         int           `yaml:"retries"`          // Extra attempts per record, 0 drops on failure
	Timeout         time.Duration `yaml:"timeout"`          // Per push timeout
}

// PlotConfig contains live plot configuration.
type PlotConfig struct {
	File            string        `yaml:"file"`             // Headless PNG output, empty disables
	RefreshInterval time.Duration `yaml:"refresh_interval"` // Minimum time between redraws
	MaxPoints       int           `yaml:"max_points"`       // Points drawn after downsampling
	WindowSeconds   float64       `yaml:"window_seconds"`   // Minimum visible time span
}

// MetricsConfig contains the status server configuration.
type MetricsConfig struct {
	Address string `yaml:"address"` // Empty disables the server
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Offset       float64       `yaml:"offset"`        // DC offset (V)
	Amplitude    float64       `yaml:"amplitude"`     // Sine amplitude (V)
	Frequency    float64       `yaml:"frequency"`     // Sine frequency (Hz)
	NoiseLevel   float64       `yaml:"noise_level"`   // Noise level (V)
	SampleRate   time.Duration `yaml:"sample_rate"`   // Time between lines
	GarbageEvery int           `yaml:"garbage_every"` // Emit a malformed line every N lines, 0 disables
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "",
			BaudRate: 9600,
		},
		Acquisition: AcquisitionConfig{
			PollInterval: 20 * time.Millisecond,
			Echo:         true,
		},
		Waveform: WaveformConfig{
			File:      "",
			Amplitude: 45,
			Points:    1000,
			Step:      10 * time.Millisecond,
		},
		Log: LogConfig{
			File: "arduino_data.csv",
		},
		Remote: RemoteConfig{
			Enabled:         false,
			CredentialsEnv:  "GOOGLE_APPLICATION_CREDENTIALS",
			CredentialsFile: "firebase-adminsdk.json",
			QueueSize:       0,
			Retries:         0,
			Timeout:         5 * time.Second,
		},
		Plot: PlotConfig{
			File:            "",
			RefreshInterval: 500 * time.Millisecond,
			MaxPoints:       1000,
			WindowSeconds:   10,
		},
		Mock: MockConfig{
			Offset:       2.5,
			Amplitude:    1.0,
			Frequency:    0.5,
			NoiseLevel:   0.01,
			SampleRate:   50 * time.Millisecond,
			GarbageEvery: 0,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
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

// Validate reports settings that cannot start a run.
func (c *Config) Validate() error {
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d: must be positive", c.Serial.BaudRate)
	}
	if c.Remote.Enabled && c.Remote.DatabaseURL == "" {
		return fmt.Errorf("remote log enabled but database_url is empty")
	}
	if c.Remote.QueueSize < 0 || c.Remote.Retries < 0 {
		return fmt.Errorf("remote queue_size and retries must not be negative")
	}
	return nil
}

// RemotePath returns the remote store path, picking the default that matches
// whether a waveform is mixed in.
func (c *Config) RemotePath() string {
	if c.Remote.Path != "" {
		return c.Remote.Path
	}
	if c.Waveform.File != "" {
		return RemotePathCombined
	}
	return RemotePathPlain
}

// CredentialsPath returns the credentials file for the remote store. The
// environment variable named by CredentialsEnv wins over CredentialsFile.
func (r RemoteConfig) CredentialsPath() string {
	if r.CredentialsEnv != "" {
		if path := os.Getenv(r.CredentialsEnv); path != "" {
			return path
		}
	}
	return r.CredentialsFile
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Acquisition.PollInterval == 0 {
		c.Acquisition.PollInterval = def.Acquisition.PollInterval
	}

	if c.Waveform.Amplitude == 0 {
		c.Waveform.Amplitude = def.Waveform.Amplitude
	}
	if c.Waveform.Points == 0 {
		c.Waveform.Points = def.Waveform.Points
	}
	if c.Waveform.Step == 0 {
		c.Waveform.Step = def.Waveform.Step
	}

	if c.Log.File == "" {
		c.Log.File = def.Log.File
	}

	if c.Remote.CredentialsEnv == "" {
		c.Remote.CredentialsEnv = def.Remote.CredentialsEnv
	}
	if c.Remote.CredentialsFile == "" {
		c.Remote.CredentialsFile = def.Remote.CredentialsFile
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = def.Remote.Timeout
	}

	if c.Plot.RefreshInterval == 0 {
		c.Plot.RefreshInterval = def.Plot.RefreshInterval
	}
	if c.Plot.MaxPoints == 0 {
		c.Plot.MaxPoints = def.Plot.MaxPoints
	}
	if c.Plot.WindowSeconds == 0 {
		c.Plot.WindowSeconds = def.Plot.WindowSeconds
	}

	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.Frequency == 0 {
		c.Mock.Frequency = def.Mock.Frequency
	}
}
