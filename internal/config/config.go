// Package config loads and saves the gptrecap TOML configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds all gptrecap configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Outputs    OutputsConfig    `toml:"outputs"`
	Story      StoryConfig      `toml:"story"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`

	// OutputOverride comes from the command line and is never saved.
	OutputOverride string `toml:"-"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	OutputDir    string `toml:"output_dir"`
	LogLevel     string `toml:"log_level"`
	SQLiteExport bool   `toml:"sqlite_export"`
}

// OutputsConfig toggles the generated artefacts.
type OutputsConfig struct {
	CSV     bool `toml:"csv"`
	Charts  bool `toml:"charts"`
	Story   bool `toml:"story"`
	Metrics bool `toml:"metrics"`
}

// StoryConfig tunes the story recap.
type StoryConfig struct {
	TopConversations int `toml:"top_conversations"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds settings of the serve command.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	DebounceMS   int    `toml:"debounce_ms"`
	EventsBuffer int    `toml:"events_buffer"`
	LogFile      string `toml:"log_file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			OutputDir:    "outputs",
			LogLevel:     "warn",
			SQLiteExport: true,
		},
		Outputs: OutputsConfig{
			CSV:     true,
			Charts:  true,
			Story:   true,
			Metrics: true,
		},
		Story: StoryConfig{
			TopConversations: 5,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8788",
			DebounceMS:   500,
			EventsBuffer: 200,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gptrecap")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gptrecap")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config at path. Keys absent from the file keep their
// defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "reading config")
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing config")
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(path string, cfg Config) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating config dir")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // see LoadFile
	if err != nil {
		return errors.Wrap(err, "creating config file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing config file")
		}
	}()

	return toml.NewEncoder(f).Encode(cfg)
}

// OutputDirEnv overrides general.output_dir when set.
const OutputDirEnv = "GPTRECAP_OUTPUT_DIR"

// OutputDir returns the output directory from the command line override,
// the env var or the config file, in that order.
func OutputDir(cfg Config) string {
	if cfg.OutputOverride != "" {
		return cfg.OutputOverride
	}
	if dir := os.Getenv(OutputDirEnv); dir != "" {
		return dir
	}
	return cfg.General.OutputDir
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}
