// Package config loads the service tuning file. Fields are pointers so a
// partial JSON config is safe: anything omitted falls back to the defaults
// exposed by the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults applied when the config file omits a field.
const (
	DefaultFrameWindow      = 10
	DefaultListen           = ":5001"
	DefaultDBFile           = "streampose.db"
	DefaultModelsDir        = "data/trained_models"
	DefaultActuator         = "none"
	DefaultSerialPort       = "/dev/rfcomm0"
	DefaultSerialBaud       = 9600
	DefaultAckTimeout       = 2 * time.Second
	DefaultActuationCommand = "a"
)

// Config is the configuration surface consumed at service startup. The
// transformer flags and window capacity are fixed per deployment; they never
// vary frame to frame within a session.
type Config struct {
	Listen    *string `json:"listen,omitempty"`
	DBFile    *string `json:"db_file,omitempty"`
	ModelsDir *string `json:"models_dir,omitempty"`

	// Window params
	FrameWindow *int `json:"frame_window,omitempty"`

	// Transformer feature-inclusion flags
	IncludeGeometry   *bool `json:"include_geometry,omitempty"`
	IncludeJoints     *bool `json:"include_joints,omitempty"`
	IncludeNormalized *bool `json:"include_normalized,omitempty"`
	IncludeAngles     *bool `json:"include_angles,omitempty"`
	IncludeDistances  *bool `json:"include_distances,omitempty"`

	// Actuator params
	Actuator         *string `json:"actuator,omitempty"`     // "none", "mock" or "serial"
	SerialPort       *string `json:"serial_port,omitempty"`
	SerialBaud       *int    `json:"serial_baud,omitempty"`
	AckTimeout       *string `json:"ack_timeout,omitempty"` // duration string like "2s"
	ActuationCommand *string `json:"actuation_command,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for malformed values.
func (c *Config) Validate() error {
	if c.FrameWindow != nil && *c.FrameWindow < 1 {
		return fmt.Errorf("frame_window must be a positive integer, got %d", *c.FrameWindow)
	}
	if c.Actuator != nil {
		switch *c.Actuator {
		case "none", "mock", "serial":
		default:
			return fmt.Errorf("actuator must be one of none, mock, serial; got %q", *c.Actuator)
		}
	}
	if c.SerialBaud != nil && *c.SerialBaud <= 0 {
		return fmt.Errorf("serial_baud must be positive, got %d", *c.SerialBaud)
	}
	if c.AckTimeout != nil {
		d, err := time.ParseDuration(*c.AckTimeout)
		if err != nil {
			return fmt.Errorf("ack_timeout is not a valid duration: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("ack_timeout must be positive, got %s", d)
		}
	}
	return nil
}

func (c *Config) GetListen() string {
	if c.Listen != nil {
		return *c.Listen
	}
	return DefaultListen
}

func (c *Config) GetDBFile() string {
	if c.DBFile != nil {
		return *c.DBFile
	}
	return DefaultDBFile
}

func (c *Config) GetModelsDir() string {
	if c.ModelsDir != nil {
		return *c.ModelsDir
	}
	return DefaultModelsDir
}

func (c *Config) GetFrameWindow() int {
	if c.FrameWindow != nil {
		return *c.FrameWindow
	}
	return DefaultFrameWindow
}

func (c *Config) GetIncludeGeometry() bool {
	if c.IncludeGeometry != nil {
		return *c.IncludeGeometry
	}
	// Geometry enrichment is required whenever angle or distance features
	// are selected.
	return c.GetIncludeAngles() || c.GetIncludeDistances()
}

func (c *Config) GetIncludeJoints() bool {
	if c.IncludeJoints != nil {
		return *c.IncludeJoints
	}
	return true
}

func (c *Config) GetIncludeNormalized() bool {
	if c.IncludeNormalized != nil {
		return *c.IncludeNormalized
	}
	return false
}

func (c *Config) GetIncludeAngles() bool {
	if c.IncludeAngles != nil {
		return *c.IncludeAngles
	}
	return true
}

func (c *Config) GetIncludeDistances() bool {
	if c.IncludeDistances != nil {
		return *c.IncludeDistances
	}
	return false
}

func (c *Config) GetActuator() string {
	if c.Actuator != nil {
		return *c.Actuator
	}
	return DefaultActuator
}

func (c *Config) GetSerialPort() string {
	if c.SerialPort != nil {
		return *c.SerialPort
	}
	return DefaultSerialPort
}

func (c *Config) GetSerialBaud() int {
	if c.SerialBaud != nil {
		return *c.SerialBaud
	}
	return DefaultSerialBaud
}

func (c *Config) GetAckTimeout() time.Duration {
	if c.AckTimeout != nil {
		if d, err := time.ParseDuration(*c.AckTimeout); err == nil {
			return d
		}
	}
	return DefaultAckTimeout
}

func (c *Config) GetActuationCommand() string {
	if c.ActuationCommand != nil {
		return *c.ActuationCommand
	}
	return DefaultActuationCommand
}
