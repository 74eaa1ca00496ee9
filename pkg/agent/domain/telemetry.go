package domain

import (
	"github.com/smoldhq/smold/pkg/message"
)

// TokenUsageProvider is an optional extension that LLM clients can implement
// to expose token accounting from the most recent API call.
//
// Implementations return (usage, true) when usage was reported for the last
// Chat/ChatWithToolChoice invocation. Best-effort only; backends may omit
// or delay usage reporting.
type TokenUsageProvider interface {
	LastTokenUsage() (message.TokenUsage, bool)
}

// ModelIdentifier is an optional extension that clients can implement to
// return a stable identifier for the underlying model.
type ModelIdentifier interface {
	ModelID() string
}
