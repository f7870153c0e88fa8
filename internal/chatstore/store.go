package chatstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"pkt.systems/pslog"
	"pkt.systems/shellm/schema"
)

// DefaultMaxLength bounds stored messages per session when no limit is configured.
const DefaultMaxLength = 100

// Store persists conversation sessions as JSON files, one per session id.
// Appends are whole-record read-modify-write operations without locking:
// concurrent processes sharing a session id may interleave and lose updates.
type Store struct {
	dir string
	max int
	log pslog.Logger
}

// NewStore constructs a session store at the given directory.
func NewStore(dir string, maxLength int) (*Store, error) {
	return NewStoreWithLogger(dir, maxLength, nil)
}

// NewStoreWithLogger constructs a session store with logging.
func NewStoreWithLogger(dir string, maxLength int, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("sessions directory is required")
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("sessions_dir", dir)
	}
	return &Store{dir: dir, max: maxLength, log: logger}, nil
}

// Exists reports whether a persisted record for id exists.
func (s *Store) Exists(id schema.SessionID) bool {
	if id == schema.EphemeralSessionID {
		return false
	}
	info, err := os.Stat(s.pathFor(id))
	return err == nil && info.Mode().IsRegular()
}

// Read returns the stored messages for id. A missing record yields an empty
// sequence, not an error. A record that exists but cannot be parsed is
// surfaced as ErrSessionCorrupt.
func (s *Store) Read(id schema.SessionID) ([]schema.Message, error) {
	data, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("session read miss", "session", id)
			}
			return nil, nil
		}
		if s.log != nil {
			s.log.Warn("session read failed", "session", id, "err", err)
		}
		return nil, fmt.Errorf("%w: %v", schema.ErrSessionCorrupt, err)
	}
	var messages []schema.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		if s.log != nil {
			s.log.Warn("session parse failed", "session", id, "err", err)
		}
		return nil, fmt.Errorf("%w: %v", schema.ErrSessionCorrupt, err)
	}
	return messages, nil
}

// Append adds a message to the session and trims it to the configured maximum.
// The ephemeral session id is a no-op: persistence is intentionally skipped.
func (s *Store) Append(id schema.SessionID, msg schema.Message) error {
	if id == schema.EphemeralSessionID {
		return nil
	}
	messages, err := s.Read(id)
	if err != nil {
		return err
	}
	messages = trim(append(messages, msg), s.max)
	return s.write(id, messages)
}

// ListIDs returns every persisted session id. The order is the sorted file
// listing, stable for a given directory state.
func (s *Store) ListIDs() ([]schema.SessionID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ids []schema.SessionID
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, schema.SessionID(strings.TrimSuffix(name, ".json")))
	}
	return ids, nil
}

// Render formats the stored session as one "<role>: <content>" line per message.
func (s *Store) Render(id schema.SessionID) (string, error) {
	messages, err := s.Read(id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Delete removes the backing record for id.
func (s *Store) Delete(id schema.SessionID) error {
	if id == schema.EphemeralSessionID {
		return nil
	}
	if err := os.Remove(s.pathFor(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) write(id schema.SessionID, messages []schema.Message) error {
	path := s.pathFor(id)
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "session-*.json")
	if err != nil {
		if s.log != nil {
			s.log.Warn("session save failed", "session", id, "err", err)
		}
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("session save failed", "session", id, "err", err)
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("session save failed", "session", id, "err", err)
		}
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		if s.log != nil {
			s.log.Warn("session save failed", "session", id, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("session save ok", "session", id, "messages", len(messages))
	}
	return nil
}

// trim bounds the sequence to max messages. A system message at index 0 is the
// anchor: it survives every trim, with the most recent max-1 messages kept in
// original relative order. Without an anchor the most recent max are kept.
func trim(messages []schema.Message, max int) []schema.Message {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	if messages[0].Role == schema.RoleSystem {
		out := make([]schema.Message, 0, max)
		out = append(out, messages[0])
		out = append(out, messages[len(messages)-(max-1):]...)
		return out
	}
	return messages[len(messages)-max:]
}

func (s *Store) pathFor(id schema.SessionID) string {
	name := sanitize(string(id))
	if name == "" {
		name = "unknown"
	}
	return filepath.Join(s.dir, name+".json")
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
