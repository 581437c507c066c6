// Package usecases contains the client's application rules: turning backend
// payloads into renderable messages and driving the conversation.
// No HTTP or terminal code lives here; adapters come in through ports.
package usecases

import (
	"time"

	"github.com/Wccurate/NLP-Frontend/internal/domain/content"
	"github.com/Wccurate/NLP-Frontend/internal/domain/entities"
)

// FromHistoryEntry converts one stored turn into a UiMessage. The id is
// derived from index, so a batch yields distinct ids in input order.
func FromHistoryEntry(entry entities.HistoryEntry, index int) entities.UiMessage {
	display := content.ExtractDisplayText(entry.Content)
	return entities.UiMessage{
		ID:          historyID(index),
		Role:        entry.Role,
		Intent:      entry.Intent,
		Content:     entry.Content,
		DisplayText: display.Text,
		HasFile:     display.HasFile,
		Timestamp:   entry.Timestamp,
	}
}

// FromHistory converts a history batch, preserving order.
func FromHistory(entries []entities.HistoryEntry) []entities.UiMessage {
	msgs := make([]entities.UiMessage, len(entries))
	for i, e := range entries {
		msgs[i] = FromHistoryEntry(e, i)
	}
	return msgs
}

// Normalizer builds the message pair for a completed generate call.
type Normalizer struct {
	ids IDGenerator
	now func() time.Time
}

// NewNormalizer creates a Normalizer. Nil arguments select the defaults
// (random UUIDs, wall clock).
func NewNormalizer(ids IDGenerator, now func() time.Time) *Normalizer {
	if ids == nil {
		ids = NewRandomIDs()
	}
	if now == nil {
		now = time.Now
	}
	return &Normalizer{ids: ids, now: now}
}

// FromGenerateExchange returns the user and assistant messages for one
// exchange. The user text goes through the content parser; the assistant
// text is kept verbatim and never scanned for document payloads.
func (n *Normalizer) FromGenerateExchange(userInput string, hasAttachment bool, resp entities.GenerateResponse) (user, assistant entities.UiMessage) {
	stamp := n.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	display := content.ExtractDisplayText(userInput)

	user = entities.UiMessage{
		ID:          n.ids.NewID(string(entities.RoleUser)),
		Role:        entities.RoleUser,
		Intent:      resp.Intent,
		Content:     userInput,
		DisplayText: display.Text,
		HasFile:     hasAttachment || display.HasFile,
		Timestamp:   stamp,
	}

	var toolCalls []string
	if len(resp.ToolCalls) > 0 {
		toolCalls = resp.ToolCalls
	}

	assistant = entities.UiMessage{
		ID:          n.ids.NewID(string(entities.RoleAssistant)),
		Role:        entities.RoleAssistant,
		Intent:      resp.Intent,
		Content:     resp.Text,
		DisplayText: resp.Text,
		Sources:     resp.Sources,
		ToolCalls:   toolCalls,
		Timestamp:   stamp,
	}
	return user, assistant
}
