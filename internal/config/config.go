// Package config loads the console configuration.
//
// Values are resolved in order, later sources winning:
//   - built-in defaults (poll every 100ms against http://localhost:8000)
//   - the YAML file named by --config or SWARMVIEW_CONFIG
//   - a .env file in the working directory, then the process environment
//   - command line flags that were explicitly set
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Feed modes.
const (
	FeedPoll   = "poll"
	FeedStream = "stream"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig   = "SWARMVIEW_CONFIG"
	EnvBaseURL  = "SWARMVIEW_BASE_URL"
	EnvUsername = "SWARMVIEW_USERNAME"
	EnvPassword = "SWARMVIEW_PASSWORD"
	EnvFeedMode = "SWARMVIEW_FEED_MODE"
	EnvLogLevel = "SWARMVIEW_LOG_LEVEL"
)

// Config is the full console configuration.
type Config struct {
	Remote   RemoteConfig   `yaml:"remote"`
	Feed     FeedConfig     `yaml:"feed"`
	Operator OperatorConfig `yaml:"operator"`
	Window   WindowConfig   `yaml:"window"`
	Audio    AudioConfig    `yaml:"audio"`
	Log      LogConfig      `yaml:"log"`
}

// RemoteConfig locates the remote simulation.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// FeedConfig selects how snapshots arrive.
type FeedConfig struct {
	// Mode is "poll" (fixed-period GET /state) or "stream" (WebSocket push).
	Mode       string        `yaml:"mode"`
	Interval   time.Duration `yaml:"interval"`
	StreamPath string        `yaml:"stream_path"`
}

// OperatorConfig holds the login credentials.
type OperatorConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WindowConfig sizes the desktop window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// AudioConfig controls announcements.
type AudioConfig struct {
	Speech        bool   `yaml:"speech"`
	SpeechCommand string `yaml:"speech_command"`
	Notifications bool   `yaml:"notifications"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Remote: RemoteConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 2 * time.Second,
		},
		Feed: FeedConfig{
			Mode:       FeedPoll,
			Interval:   100 * time.Millisecond,
			StreamPath: "/stream",
		},
		Operator: OperatorConfig{
			Username: "admin",
			Password: "password",
		},
		Window: WindowConfig{
			Width:  1440,
			Height: 900,
			Title:  "Swarm Mission Control",
		},
		Audio: AudioConfig{
			Speech:        true,
			Notifications: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFile overlays the YAML file at path onto c. A missing path is an
// error; an empty path is a no-op.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment values found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Remote.BaseURL = v
	}
	if v, ok := lookup(EnvUsername); ok && v != "" {
		c.Operator.Username = v
	}
	if v, ok := lookup(EnvPassword); ok && v != "" {
		c.Operator.Password = v
	}
	if v, ok := lookup(EnvFeedMode); ok && v != "" {
		c.Feed.Mode = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate rejects configurations the console cannot run with.
func (c Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return errors.New("remote.base_url is required")
	}
	if c.Feed.Interval <= 0 {
		return fmt.Errorf("feed.interval must be positive, got %s", c.Feed.Interval)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be positive, got %s", c.Remote.Timeout)
	}
	switch c.Feed.Mode {
	case FeedPoll, FeedStream:
	default:
		return fmt.Errorf("feed.mode must be %q or %q, got %q", FeedPoll, FeedStream, c.Feed.Mode)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

// Flags are the command line overrides shared by the binaries.
type Flags struct {
	ConfigPath string
	baseURL    string
	feedMode   string
	interval   time.Duration
	username   string
	password   string
	logLevel   string
	logFile    string
	noSpeech   bool
}

// Register adds the shared flags to fs.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "path to YAML config (default: $"+EnvConfig+")")
	fs.StringVar(&f.baseURL, "base-url", "", "remote simulation base URL")
	fs.StringVar(&f.feedMode, "feed", "", "snapshot feed: poll or stream")
	fs.DurationVar(&f.interval, "interval", 0, "poll period")
	fs.StringVarP(&f.username, "username", "u", "", "operator username")
	fs.StringVar(&f.password, "password", "", "operator password")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.logFile, "log-file", "", "also append logs to this file")
	fs.BoolVar(&f.noSpeech, "no-speech", false, "disable spoken announcements")
}

// Apply overlays the flags that were explicitly set on fs.
func (f *Flags) Apply(fs *pflag.FlagSet, c *Config) {
	if fs.Changed("base-url") {
		c.Remote.BaseURL = f.baseURL
	}
	if fs.Changed("feed") {
		c.Feed.Mode = strings.ToLower(f.feedMode)
	}
	if fs.Changed("interval") {
		c.Feed.Interval = f.interval
	}
	if fs.Changed("username") {
		c.Operator.Username = f.username
	}
	if fs.Changed("password") {
		c.Operator.Password = f.password
	}
	if fs.Changed("log-level") {
		c.Log.Level = f.logLevel
	}
	if fs.Changed("log-file") {
		c.Log.File = f.logFile
	}
	if f.noSpeech {
		c.Audio.Speech = false
	}
}

// Resolve builds the effective configuration for a parsed flag set.
func Resolve(fs *pflag.FlagSet, f *Flags) (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	cfg := Default()
	path := f.ConfigPath
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if err := cfg.LoadFile(path); err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	f.Apply(fs, &cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
