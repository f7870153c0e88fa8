package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int          `mapstructure:"config_version" yaml:"config_version"`
	API           APIConfig    `mapstructure:"api" yaml:"api"`
	Models        ModelsConfig `mapstructure:"models" yaml:"models"`
	Chat          ChatConfig   `mapstructure:"chat" yaml:"chat"`
	Roles         RolesConfig  `mapstructure:"roles" yaml:"roles"`
	Safety        SafetyConfig `mapstructure:"safety" yaml:"safety"`
	Output        OutputConfig `mapstructure:"output" yaml:"output"`
	Shell         ShellConfig  `mapstructure:"shell" yaml:"shell"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// APIConfig configures the completion endpoint. An empty key falls back to
// the OPENAI_API_KEY environment variable at load time.
type APIConfig struct {
	Key            string `mapstructure:"key" yaml:"key"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ModelsConfig controls the default LLM model.
type ModelsConfig struct {
	Default string `mapstructure:"default" yaml:"default"`
}

// ChatConfig controls session persistence.
type ChatConfig struct {
	SessionsDir string `mapstructure:"sessions_dir" yaml:"sessions_dir"`
	MaxLength   int    `mapstructure:"max_length" yaml:"max_length"`
}

// RolesConfig controls custom role storage.
type RolesConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SafetyConfig locates the command safety record.
type SafetyConfig struct {
	ConfigPath string `mapstructure:"config_path" yaml:"config_path"`
}

// OutputConfig controls completion rendering.
type OutputConfig struct {
	PrettifyMarkdown bool `mapstructure:"prettify_markdown" yaml:"prettify_markdown"`
}

// ShellConfig controls the interactive shell-command flow.
type ShellConfig struct {
	Interaction    bool `mapstructure:"interaction" yaml:"interaction"`
	DefaultExecute bool `mapstructure:"default_execute" yaml:"default_execute"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	base := filepath.Join(home, ".config", "shellm")
	return Config{
		ConfigVersion: CurrentConfigVersion,
		API: APIConfig{
			Key:            "",
			BaseURL:        "",
			TimeoutSeconds: 60,
		},
		Models: ModelsConfig{
			Default: "gpt-4o",
		},
		Chat: ChatConfig{
			SessionsDir: filepath.Join(base, "sessions"),
			MaxLength:   100,
		},
		Roles: RolesConfig{
			Dir: filepath.Join(base, "roles"),
		},
		Safety: SafetyConfig{
			ConfigPath: filepath.Join(base, "command_safety.yaml"),
		},
		Output: OutputConfig{
			PrettifyMarkdown: true,
		},
		Shell: ShellConfig{
			Interaction:    true,
			DefaultExecute: false,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shellm", "config.yaml"), nil
}
