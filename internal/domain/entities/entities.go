// Package entities contains the core conversation entities.
// These are plain domain objects shared by every layer - no knowledge of HTTP,
// terminals or storage.
package entities

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryEntry is one past turn as returned by the backend history endpoint.
// Entries arrive oldest-first and are read-only to the client.
type HistoryEntry struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Intent    string `json:"intent"`
	Timestamp string `json:"timestamp,omitempty"`
}

// SourceItem is one retrieved evidence chunk backing an assistant answer.
// Scores are opaque ranking signals and are passed through untouched.
type SourceItem struct {
	Source      string  `json:"source"` // Chunk/document identifier
	Text        string  `json:"text"`   // Snippet
	HybridScore float64 `json:"hybrid_score"`
	DenseScore  float64 `json:"dense_score"`
	BM25Score   float64 `json:"bm25_score"`

	// Optional signals; nil when absent or null.
	Score         *float64 `json:"score,omitempty"`
	BM25RawScore  *float64 `json:"bm25_raw_score,omitempty"`
	DenseDistance *float64 `json:"dense_distance,omitempty"`
}

// GenerateResponse is the backend's answer to one user turn.
type GenerateResponse struct {
	Intent    string       `json:"intent"`
	Text      string       `json:"text"`
	Sources   []SourceItem `json:"sources,omitempty"`
	ToolCalls []string     `json:"tool_calls,omitempty"`
}

// Attachment is a file sent along with a turn.
type Attachment struct {
	Name string
	Data []byte
}

// GenerateRequest is the payload of a single generate call.
// Input may be empty when a file is attached.
type GenerateRequest struct {
	Input string
	File  *Attachment
}

// UiMessage is the normalized, renderable form of a conversation turn.
// Sources == nil means "no sources reported"; an empty slice means the backend
// reported an empty list.
type UiMessage struct {
	ID          string
	Role        Role
	Intent      string
	Content     string // Raw content as sent or stored
	DisplayText string // Content with document payloads stripped
	HasFile     bool
	Sources     []SourceItem
	ToolCalls   []string
	Timestamp   string
}

// IsUser reports whether the message was authored by the user.
func (m UiMessage) IsUser() bool {
	return m.Role == RoleUser
}
