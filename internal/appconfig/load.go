package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults; a present but
// broken file is an error.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("api.key", cfg.API.Key)
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout_seconds", cfg.API.TimeoutSeconds)
	v.SetDefault("models.default", cfg.Models.Default)
	v.SetDefault("chat.sessions_dir", cfg.Chat.SessionsDir)
	v.SetDefault("chat.max_length", cfg.Chat.MaxLength)
	v.SetDefault("roles.dir", cfg.Roles.Dir)
	v.SetDefault("safety.config_path", cfg.Safety.ConfigPath)
	v.SetDefault("output.prettify_markdown", cfg.Output.PrettifyMarkdown)
	v.SetDefault("shell.interaction", cfg.Shell.Interaction)
	v.SetDefault("shell.default_execute", cfg.Shell.DefaultExecute)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		// With an explicit file viper surfaces the raw open error rather
		// than ConfigFileNotFoundError.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if cfg.API.Key == "" {
		cfg.API.Key = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	return cfg, nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Chat.SessionsDir = expandEnv(cfg.Chat.SessionsDir)
	cfg.Roles.Dir = expandEnv(cfg.Roles.Dir)
	cfg.Safety.ConfigPath = expandEnv(cfg.Safety.ConfigPath)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
