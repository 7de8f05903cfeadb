// Package knowledge persists conversation records in a vector store and
// answers "have we seen a question like this before" lookups.
package knowledge

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Source tags identify provenance for auditing. They never influence lookups.
const (
	SourceLiveChat    = "live_chat"
	SourceImported    = "imported_message"
	SourceVideoImport = "video_import"
	SourceGenerated   = "generated"
)

// Record is a single stored conversation entry. Records are immutable once
// persisted; deletion happens only through the explicit content-match
// administrative operation.
type Record struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Embedding is present only for user records. Assistant records are
	// vectorized by the store itself and carry no embedding property.
	Embedding []float32 `json:"embedding,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	SourceTag string    `json:"source_tag,omitempty"`
	// PairID links a user record to the assistant record answering it.
	// Empty on records imported before pair linking existed.
	PairID string `json:"pair_id,omitempty"`
}

// FormatTimestamp renders t the way the store expects: RFC3339, UTC,
// second precision, no fractional seconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
