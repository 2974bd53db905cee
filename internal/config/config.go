// Package config loads gesturemouse settings from YAML, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/gesturemouse/internal/capture"
	"github.com/ayusman/gesturemouse/internal/detector"
	"github.com/ayusman/gesturemouse/internal/profile"
)

// Environment variables that override the file.
const (
	EnvCamera = "GESTUREMOUSE_CAMERA"
	EnvMode   = "GESTUREMOUSE_MODE"
	EnvDB     = "GESTUREMOUSE_DB"
	EnvDryRun = "GESTUREMOUSE_DRY_RUN"
)

// DefaultExitGrace is the pause after an exit gesture before the run ends.
const DefaultExitGrace = time.Second

// Config is the complete gesturemouse configuration.
type Config struct {
	// Mode starts that mode headless; empty shows the tray launcher.
	Mode      string                       `yaml:"mode"`
	DBPath    string                       `yaml:"db_path"`
	DryRun    bool                         `yaml:"dry_run"`
	ExitGrace time.Duration                `yaml:"exit_grace"`
	Camera    CameraConfig                 `yaml:"camera"`
	Reacquire ReacquireConfig              `yaml:"reacquire"`
	Detector  DetectorConfig               `yaml:"detector"`
	Screen    ScreenConfig                 `yaml:"screen"`
	Profiles  map[string]profile.Overrides `yaml:"profiles"`
}

// CameraConfig selects the webcam and the idle throttle.
type CameraConfig struct {
	Devices         []int         `yaml:"devices"` // tried in order
	Width           int           `yaml:"width"`
	Height          int           `yaml:"height"`
	FPS             int           `yaml:"fps"`
	IdleThrottle    bool          `yaml:"idle_throttle"`
	MotionThreshold float64       `yaml:"motion_threshold"` // percent of pixels
	IdleFPS         int           `yaml:"idle_fps"`
	IdleAfter       time.Duration `yaml:"idle_after"`
}

// ReacquireConfig bounds camera recovery.
type ReacquireConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
}

// DetectorConfig tunes the landmark model.
type DetectorConfig struct {
	MinConfidence         float64 `yaml:"min_confidence"`
	MinTrackingConfidence float64 `yaml:"min_tracking_confidence"`
	Script                string  `yaml:"script"`
	Python                string  `yaml:"python"`
}

// ScreenConfig overrides the detected screen size when both are set.
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	re := capture.DefaultReacquireConfig()
	det := detector.DefaultConfig()

	return &Config{
		DBPath:    filepath.Join(home, ".gesturemouse", "history.db"),
		ExitGrace: DefaultExitGrace,
		Camera: CameraConfig{
			Devices:         append([]int(nil), capture.DefaultDeviceIDs...),
			Width:           capture.DefaultWidth,
			Height:          capture.DefaultHeight,
			FPS:             capture.DefaultFPS,
			MotionThreshold: capture.DefaultMotionThreshold,
			IdleFPS:         capture.DefaultIdleFPS,
			IdleAfter:       capture.DefaultIdleAfter,
		},
		Reacquire: ReacquireConfig{
			MaxRetries:    re.MaxRetries,
			RetryDelay:    re.RetryDelay,
			MaxRetryDelay: re.MaxRetryDelay,
		},
		Detector: DetectorConfig{
			MinConfidence:         det.MinConfidence,
			MinTrackingConfidence: det.MinTrackingConf,
		},
		Profiles: map[string]profile.Overrides{},
	}
}

// DefaultPath returns ~/.gesturemouse/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".gesturemouse", "config.yaml")
}

// LoadDotEnv loads the given .env files (or ./.env) into the environment.
// Missing files are not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("config: .env not loaded: %v", err)
		}
		return
	}
	log.Println("config: loaded environment from .env")
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvCamera); ok && v != "" {
		ids, err := ParseDevices(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCamera, err)
		}
		c.Camera.Devices = ids
	}
	if v, ok := lookup(EnvMode); ok && strings.TrimSpace(v) != "" {
		c.Mode = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		c.DBPath = v
	}
	if v, ok := lookup(EnvDryRun); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDryRun, err)
		}
		c.DryRun = b
	}
	return nil
}

// ParseDevices parses a comma separated list of camera indices such as "1,0".
func ParseDevices(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad camera index %q", part)
		}
		if id < 0 {
			return nil, fmt.Errorf("camera index %d is negative", id)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("no camera index given")
	}
	return ids, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Mode != "" {
		if _, err := profile.Lookup(c.Mode); err != nil {
			return err
		}
	}
	if c.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.ExitGrace < 0 {
		return fmt.Errorf("exit_grace must not be negative, got %v", c.ExitGrace)
	}

	if len(c.Camera.Devices) == 0 {
		return errors.New("camera.devices must list at least one device")
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS)
	}
	if c.Camera.IdleThrottle && c.Camera.IdleFPS <= 0 {
		return fmt.Errorf("camera.idle_fps must be positive, got %d", c.Camera.IdleFPS)
	}

	if c.Reacquire.MaxRetries < 0 {
		return fmt.Errorf("reacquire.max_retries must not be negative, got %d", c.Reacquire.MaxRetries)
	}
	if c.Reacquire.RetryDelay <= 0 {
		return fmt.Errorf("reacquire.retry_delay must be positive, got %v", c.Reacquire.RetryDelay)
	}

	for _, v := range []float64{c.Detector.MinConfidence, c.Detector.MinTrackingConfidence} {
		if v < 0 || v > 1 {
			return fmt.Errorf("detector confidence must be within [0, 1], got %v", v)
		}
	}

	if (c.Screen.Width == 0) != (c.Screen.Height == 0) || c.Screen.Width < 0 || c.Screen.Height < 0 {
		return fmt.Errorf("screen override must set both width and height, got %dx%d", c.Screen.Width, c.Screen.Height)
	}

	for id, o := range c.Profiles {
		if _, err := profile.Lookup(id); err != nil {
			return fmt.Errorf("profiles: %w", err)
		}
		if err := o.Validate(); err != nil {
			return fmt.Errorf("profiles.%s: %w", id, err)
		}
	}

	return nil
}

// CaptureConfig converts the camera section for the capture package.
func (c *Config) CaptureConfig() capture.Config {
	return capture.Config{
		DeviceIDs: append([]int(nil), c.Camera.Devices...),
		Width:     c.Camera.Width,
		Height:    c.Camera.Height,
		FPS:       c.Camera.FPS,
	}
}

// ReacquireConfig converts the reacquire section for the capture package.
func (c *Config) ReacquireConfig() capture.ReacquireConfig {
	return capture.ReacquireConfig{
		MaxRetries:    c.Reacquire.MaxRetries,
		RetryDelay:    c.Reacquire.RetryDelay,
		MaxRetryDelay: c.Reacquire.MaxRetryDelay,
	}
}

// DetectorConfig converts the detector section for the detector package.
func (c *Config) DetectorConfig() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.MinConfidence = c.Detector.MinConfidence
	cfg.MinTrackingConf = c.Detector.MinTrackingConfidence
	cfg.ScriptPath = c.Detector.Script
	cfg.Python = c.Detector.Python
	return cfg
}

// Profile returns the named profile with its configured overrides applied.
func (c *Config) Profile(id string) (profile.Profile, error) {
	p, err := profile.Lookup(id)
	if err != nil {
		return profile.Profile{}, err
	}
	if o, ok := c.Profiles[id]; ok {
		p = p.With(o)
	}
	return p, nil
}
