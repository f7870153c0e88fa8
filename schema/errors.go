package schema

import "errors"

var (
	// ErrEmptyPrompt indicates the prompt was empty.
	ErrEmptyPrompt = errors.New("empty prompt")
	// ErrSessionCorrupt indicates a session record exists but cannot be parsed.
	ErrSessionCorrupt = errors.New("session record corrupt")
	// ErrRoleExists indicates a role with the same name already exists.
	ErrRoleExists = errors.New("role already exists")
	// ErrRoleNotFound indicates a requested role could not be found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleMismatch indicates an existing session was started with a different role.
	ErrRoleMismatch = errors.New("session was started with a different role")
	// ErrConflictingOptions indicates mutually exclusive options were combined.
	ErrConflictingOptions = errors.New("conflicting options")
)
