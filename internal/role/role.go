// Package role manages system-role templates: the built-in assistant roles
// and user-created roles persisted as JSON records.
package role

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/shellm/schema"
)

// Built-in role names.
const (
	DefaultRoleName       schema.RoleName = "ShellM"
	ShellRoleName         schema.RoleName = "Shell Command Generator"
	DescribeShellRoleName schema.RoleName = "Shell Command Descriptor"
	CodeRoleName          schema.RoleName = "Code Generator"
)

// SystemRole is a named system prompt template.
type SystemRole struct {
	Name schema.RoleName `json:"name"`
	Role string          `json:"role"`
}

// Prompt returns the full system prompt for the role.
func (r SystemRole) Prompt() string {
	return r.Role
}

// Matches reports whether a stored system message belongs to this role.
func (r SystemRole) Matches(systemContent string) bool {
	return strings.Contains(systemContent, string(r.Name))
}

// IsShell reports whether the role generates executable shell commands.
func (r SystemRole) IsShell() bool {
	return r.Name == ShellRoleName
}

func compose(name schema.RoleName, text string) SystemRole {
	return SystemRole{Name: name, Role: fmt.Sprintf("You are %s\n%s", name, text)}
}

// Default returns the general-purpose assistant role.
func Default() SystemRole {
	return compose(DefaultRoleName, fmt.Sprintf(
		"You are a programming and system administration assistant.\n"+
			"You are managing the %s operating system with %s shell.\n"+
			"Provide short responses, unless you are specifically asked for details.\n"+
			"If you need to store any data, assume it will be stored in the conversation.",
		osName(), shellName()))
}

// Shell returns the shell-command-generating role.
func Shell() SystemRole {
	return compose(ShellRoleName, fmt.Sprintf(
		"Provide only %s commands for %s without any description.\n"+
			"If there is a lack of details, provide the most logical solution.\n"+
			"Ensure the output is a valid shell command.\n"+
			"If multiple steps are required, try to combine them using &&.\n"+
			"Provide only plain text without Markdown formatting such as ```.",
		shellName(), osName()))
}

// DescribeShell returns the command-description role.
func DescribeShell() SystemRole {
	return compose(DescribeShellRoleName,
		"Provide a terse, single sentence description of the given shell command.\n"+
			"Describe each argument and option of the command.\n"+
			"Provide short responses in about 80 words.")
}

// Code returns the code-only role.
func Code() SystemRole {
	return compose(CodeRoleName,
		"Provide only code as output without any description.\n"+
			"Provide only code in plain text format without Markdown formatting such as ```.\n"+
			"If there is a lack of details, provide the most logical solution.\n"+
			"You are not allowed to ask for more details.")
}

// DefaultRoleFor picks the built-in role matching the requested assistance mode.
func DefaultRoleFor(shell, describeShell, code bool) SystemRole {
	switch {
	case shell:
		return Shell()
	case describeShell:
		return DescribeShell()
	case code:
		return Code()
	default:
		return Default()
	}
}

// Manager stores user-created roles as JSON files under a directory.
type Manager struct {
	dir string
	log pslog.Logger
}

// NewManager constructs a role manager rooted at dir.
func NewManager(dir string, logger pslog.Logger) (*Manager, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("roles directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Manager{dir: dir, log: logger}, nil
}

// Create stores a new custom role. Creating an existing role is an error.
func (m *Manager) Create(name, text string) (SystemRole, error) {
	if strings.TrimSpace(name) == "" {
		return SystemRole{}, errors.New("role name is required")
	}
	path := m.pathFor(name)
	if _, err := os.Stat(path); err == nil {
		return SystemRole{}, fmt.Errorf("%w: %s", schema.ErrRoleExists, name)
	}
	role := SystemRole{Name: schema.RoleName(name), Role: text}
	data, err := json.MarshalIndent(role, "", "  ")
	if err != nil {
		return SystemRole{}, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return SystemRole{}, err
	}
	if m.log != nil {
		m.log.Debug("role created", "role", name)
	}
	return role, nil
}

// Get resolves a role by name: built-ins first, then stored custom roles.
func (m *Manager) Get(name string) (SystemRole, error) {
	for _, builtin := range builtins() {
		if string(builtin.Name) == name {
			return builtin, nil
		}
	}
	data, err := os.ReadFile(m.pathFor(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return SystemRole{}, fmt.Errorf("%w: %s", schema.ErrRoleNotFound, name)
		}
		return SystemRole{}, err
	}
	var role SystemRole
	if err := json.Unmarshal(data, &role); err != nil {
		return SystemRole{}, fmt.Errorf("role %s: %w", name, err)
	}
	return role, nil
}

// List returns built-in and stored role names, sorted.
func (m *Manager) List() ([]string, error) {
	var names []string
	for _, builtin := range builtins() {
		names = append(names, string(builtin.Name))
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Show renders a role for display.
func (m *Manager) Show(name string) (string, error) {
	role, err := m.Get(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n\n%s\n", role.Name, role.Role), nil
}

func builtins() []SystemRole {
	return []SystemRole{Default(), Shell(), DescribeShell(), Code()}
}

func (m *Manager) pathFor(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return filepath.Join(m.dir, b.String()+".json")
}

func osName() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS"
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	default:
		return runtime.GOOS
	}
}

func shellName() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "sh"
	}
	return filepath.Base(shell)
}
