package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the archiver configuration.
type Config struct {
	// InputDir is the exported WeChat document folder containing DB/MM.sqlite
	// and the attachment subfolders.
	InputDir string `yaml:"input_dir"`
	// OutputDir receives the rendered archive pages and json/ exports. The
	// attachment folders are expected to have been copied (and transcoded)
	// into it out-of-band.
	OutputDir string `yaml:"output_dir"`
	// ChatTable is the per-conversation message table, e.g.
	// Chat_28228f7a9f1a43c84f9045374383c8a4.
	ChatTable string `yaml:"chat_table"`

	Owner Owner `yaml:"owner"`

	// TimeBiasSeconds reconciles store-native CreateTime values with local
	// wall time. It is subtracted before querying and added back when
	// presenting timestamps.
	TimeBiasSeconds int64 `yaml:"time_bias_seconds"`
	// GraphThresholdMinutes is the recency window for two speakers to count
	// as graph-adjacent.
	GraphThresholdMinutes int `yaml:"graph_threshold_minutes"`
	// MergeWindowMinutes is the gap under which consecutive same-speaker,
	// same-type messages coalesce into one displayed entry. Kept separate
	// from GraphThresholdMinutes: one measures textual continuation, the
	// other conversational co-presence.
	MergeWindowMinutes int `yaml:"merge_window_minutes"`

	Folders Folders `yaml:"folders"`
}

// Owner identifies the export subject, who posts without a speaker prefix.
type Owner struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// Folders names the per-type attachment subfolders of the export layout.
type Folders struct {
	Image    string `yaml:"image"`
	Audio    string `yaml:"audio"`
	Video    string `yaml:"video"`
	OpenData string `yaml:"opendata"`
	Emoticon string `yaml:"emoticon"`
}

// Default returns the configuration defaults matching the iPhone export
// layout.
func Default() *Config {
	return &Config{
		InputDir:              "DB_export",
		OutputDir:             "html",
		TimeBiasSeconds:       13 * 60 * 60,
		GraphThresholdMinutes: 1,
		MergeWindowMinutes:    10,
		Folders: Folders{
			Image:    "Img",
			Audio:    "Audio",
			Video:    "Video",
			OpenData: "OpenData",
			Emoticon: "emoticon1",
		},
	}
}

// StorePath returns the path to the sqlite message store inside the export.
func (c *Config) StorePath() string {
	return filepath.Join(c.InputDir, "DB", "MM.sqlite")
}

// GetConfigDir returns the config directory, honoring an explicit override
// (useful for tests and portable installs) before falling back to XDG.
func GetConfigDir() (string, error) {
	if override := os.Getenv("WXARCHIVE_CONFIG_DIR"); override != "" {
		return override, nil
	}

	var base string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		base = xdg
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "wxarchive"), nil
}

// Load loads config from the config file, returning defaults when the file
// does not exist yet.
func Load() (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves the config to the config file.
func (c *Config) Save() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
