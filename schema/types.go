package schema

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem marks instructions and synthetic context messages.
	RoleSystem Role = "system"
	// RoleUser marks messages typed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks completions produced by the model.
	RoleAssistant Role = "assistant"
)

// SessionID identifies a stored conversation.
type SessionID string

// EphemeralSessionID is the reserved session id whose history is never persisted.
const EphemeralSessionID SessionID = "temp"

// ModelID identifies an LLM model.
type ModelID string

// RoleName identifies a system role template.
type RoleName string

// Message is a single chat message. Immutable once created; ordering within a
// session is append-only except for trimming in the chat store.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// FunctionSchema describes a callable function exposed to the model.
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatOptions carries per-turn completion parameters.
type ChatOptions struct {
	Model       ModelID
	Temperature float32
	TopP        float32
	NoStream    bool
	Functions   []FunctionSchema
}
