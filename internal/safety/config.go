package safety

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"pkt.systems/pslog"
)

// Config holds the two command lists that drive the classifier. The lists are
// advisory and not mutually exclusive in storage; precedence is decided by the
// classifier, not here.
type Config struct {
	AlwaysConfirm []string `yaml:"always-confirm"`
	AlwaysApprove []string `yaml:"always-approve"`
}

// DefaultConfig returns the built-in seed lists.
func DefaultConfig() Config {
	return Config{
		AlwaysConfirm: []string{
			"rm", "sudo", "chmod", "chown", "mv", "mkfs", "dd",
			">", "|", "wget", "curl", "apt", "apt-get",
			"yum", "brew", "pip", "npm", "yarn",
			"shutdown", "reboot", "eval",
		},
		AlwaysApprove: []string{
			"ls", "cd", "echo", "pwd", "grep",
		},
	}
}

// Store persists the safety config as a user-editable YAML record.
type Store struct {
	path string
	log  pslog.Logger
}

// NewStore constructs a safety config store backed by the given path.
func NewStore(path string, logger pslog.Logger) *Store {
	if logger != nil {
		logger = logger.With("safety_config", path)
	}
	return &Store{path: path, log: logger}
}

// Load reads the config record. A missing record yields the defaults and
// creates the record as a side effect; missing keys are back-filled. An
// unreadable or unparseable record is non-fatal: it logs a warning and falls
// back to the defaults.
func (s *Store) Load() Config {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := DefaultConfig()
			if err := s.Save(cfg); err != nil && s.log != nil {
				s.log.Warn("safety config seed failed", "err", err)
			}
			return cfg
		}
		if s.log != nil {
			s.log.Warn("safety config unreadable, using defaults", "err", err)
		}
		return DefaultConfig()
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		if s.log != nil {
			s.log.Warn("safety config unparseable, using defaults", "err", err)
		}
		return DefaultConfig()
	}
	defaults := DefaultConfig()
	if cfg.AlwaysConfirm == nil {
		cfg.AlwaysConfirm = defaults.AlwaysConfirm
	}
	if cfg.AlwaysApprove == nil {
		cfg.AlwaysApprove = defaults.AlwaysApprove
	}
	return cfg
}

// Save writes the config record.
func (s *Store) Save(cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// AddApprove adds commands to the always-approve list. Idempotent.
func (s *Store) AddApprove(commands []string) (Config, error) {
	cfg := s.Load()
	cfg.AlwaysApprove = union(cfg.AlwaysApprove, commands)
	return cfg, s.Save(cfg)
}

// AddConfirm adds commands to the always-confirm list. Idempotent.
func (s *Store) AddConfirm(commands []string) (Config, error) {
	cfg := s.Load()
	cfg.AlwaysConfirm = union(cfg.AlwaysConfirm, commands)
	return cfg, s.Save(cfg)
}

// RemoveApprove removes commands from the always-approve list. Idempotent.
func (s *Store) RemoveApprove(commands []string) (Config, error) {
	cfg := s.Load()
	cfg.AlwaysApprove = difference(cfg.AlwaysApprove, commands)
	return cfg, s.Save(cfg)
}

// RemoveConfirm removes commands from the always-confirm list. Idempotent.
func (s *Store) RemoveConfirm(commands []string) (Config, error) {
	cfg := s.Load()
	cfg.AlwaysConfirm = difference(cfg.AlwaysConfirm, commands)
	return cfg, s.Save(cfg)
}

// Describe renders the current lists for display.
func Describe(cfg Config) string {
	var b strings.Builder
	b.WriteString("Command Safety Configuration:\n\n")
	b.WriteString("Always Confirm (commands that require explicit approval):\n")
	for _, cmd := range sorted(cfg.AlwaysConfirm) {
		b.WriteString("  - " + cmd + "\n")
	}
	b.WriteString("\nAlways Approve (commands that bypass safety checks):\n")
	for _, cmd := range sorted(cfg.AlwaysApprove) {
		b.WriteString("  - " + cmd + "\n")
	}
	return b.String()
}

func union(list, add []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := append([]string(nil), list...)
	for _, v := range list {
		seen[v] = struct{}{}
	}
	for _, v := range add {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func difference(list, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, v := range remove {
		drop[v] = struct{}{}
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if _, ok := drop[v]; ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

func sorted(list []string) []string {
	out := append([]string(nil), list...)
	sort.Strings(out)
	return out
}
