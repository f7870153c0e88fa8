package safety

import (
	"strings"

	"github.com/google/shlex"
)

// Classifier decides whether a generated shell command may execute without
// interactive confirmation. The policy is deny-by-pattern, allow-by-exact-match:
// conservative by construction, not a sandboxing guarantee.
type Classifier struct {
	cfg Config
}

// NewClassifier builds a classifier over the given command lists.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// IsSafeToAutoExecute reports whether command may run unattended.
//
// An approve-list match on the base token wins over the confirm-list
// substring scan. Tokenization failure fails closed.
func (c *Classifier) IsSafeToAutoExecute(command string, autoApprove bool) bool {
	if !autoApprove {
		return false
	}
	if strings.TrimSpace(command) == "" {
		return true
	}
	tokens, err := shlex.Split(command)
	if err != nil {
		return false
	}
	if len(tokens) == 0 {
		return true
	}
	base := tokens[0]
	for _, approved := range c.cfg.AlwaysApprove {
		if base == approved {
			return true
		}
	}
	for _, confirm := range c.cfg.AlwaysConfirm {
		if base == confirm {
			return false
		}
	}
	// Literal substring scan catches pipe/redirect/secondary-command risk
	// such as "... | sudo ...".
	for _, pattern := range c.cfg.AlwaysConfirm {
		if pattern != "" && strings.Contains(command, pattern) {
			return false
		}
	}
	return true
}
