// Package context maintains the bounded conversation memory of the agent:
// a FIFO log of user/assistant exchanges trimmed against a count cap and a
// token budget shared with the system prompt.
package context

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/smoldhq/smold/pkg/logger"
	"github.com/smoldhq/smold/pkg/message"
	"github.com/smoldhq/smold/pkg/tokenizer"
)

// Interaction is one completed user/assistant exchange. TokenCount is fixed
// at creation and includes per-message framing overhead for both halves.
type Interaction struct {
	UserQuery         string
	AssistantResponse string
	TokenCount        int
}

// ConversationHistory holds recent interactions oldest-first and evicts from
// the front whenever the count cap or the joint token budget is exceeded.
//
// Not safe for concurrent use; callers own the conversation loop in a single
// goroutine.
type ConversationHistory struct {
	interactions    []Interaction
	totalTokens     int
	maxInteractions int
	maxTokens       int

	accounting tokenizer.Accounting
	tok        tokenizer.Tokenizer
	logger     *logger.Logger
}

// NewConversationHistory creates a history with the given caps. Negative
// limits are a configuration error. Zero limits are valid and mean every add
// immediately evicts down to empty. tok may be nil, in which case the length
// heuristic is used for all counting. log may be nil.
func NewConversationHistory(maxInteractions, maxTokens int, tok tokenizer.Tokenizer, log *logger.Logger) (*ConversationHistory, error) {
	if maxInteractions < 0 {
		return nil, errors.Errorf("max interactions must not be negative, got %d", maxInteractions)
	}
	if maxTokens < 0 {
		return nil, errors.Errorf("max tokens must not be negative, got %d", maxTokens)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ConversationHistory{
		interactions:    make([]Interaction, 0, maxInteractions),
		maxInteractions: maxInteractions,
		maxTokens:       maxTokens,
		accounting:      tokenizer.DefaultAccounting,
		tok:             tok,
		logger:          log,
	}, nil
}

// CountTokens counts tokens in text. Never fails: when the tokenizer errors
// or is absent it falls back to the length/4 estimate and logs a warning.
func (h *ConversationHistory) CountTokens(text string) int {
	if h.tok == nil {
		return tokenizer.Estimate(text)
	}
	n, err := h.tok.CountTokens(text)
	if err != nil {
		h.logger.Warn("Token counting failed, using length estimate", "error", err)
		return tokenizer.Estimate(text)
	}
	return n
}

// CountMessagesTokens counts a transcript the way chat endpoints bill it:
// per-message framing overhead, name overhead where present, and the reply
// primer added once.
func (h *ConversationHistory) CountMessagesTokens(msgs []message.Message) int {
	total := 0
	for _, msg := range msgs {
		total += h.accounting.TokensPerMessage
		total += h.CountTokens(msg.Content())
		total += h.CountTokens(string(msg.Type()))
	}
	if len(msgs) > 0 {
		total += h.accounting.ReplyPrimer
	}
	return total
}

// AddInteraction records a completed exchange and trims. systemPromptTokens
// participates in the joint token budget but is not stored here.
func (h *ConversationHistory) AddInteraction(userQuery, assistantResponse string, systemPromptTokens int) {
	tokens := h.CountTokens(userQuery) + h.accounting.TokensPerMessage +
		h.CountTokens(assistantResponse) + h.accounting.TokensPerMessage

	h.interactions = append(h.interactions, Interaction{
		UserQuery:         userQuery,
		AssistantResponse: assistantResponse,
		TokenCount:        tokens,
	})
	h.totalTokens += tokens

	h.trim(systemPromptTokens)
}

// Trim re-applies the caps, typically after the system prompt changed
func (h *ConversationHistory) Trim(systemPromptTokens int) {
	h.trim(systemPromptTokens)
}

// trim evicts oldest-first until both caps hold. The count cap is strict.
// The token budget keeps the most recent interaction even when it alone
// exceeds the budget, except in the degenerate maxTokens==0 configuration.
func (h *ConversationHistory) trim(systemPromptTokens int) {
	for len(h.interactions) > h.maxInteractions {
		h.evictOldest("interaction limit")
	}

	for len(h.interactions) > 0 && systemPromptTokens+h.totalTokens > h.maxTokens {
		if len(h.interactions) == 1 && h.maxTokens > 0 {
			h.logger.Warn("Most recent interaction alone exceeds the token budget, keeping it",
				"interaction_tokens", h.interactions[0].TokenCount,
				"system_prompt_tokens", systemPromptTokens,
				"max_tokens", h.maxTokens)
			return
		}
		h.evictOldest("token budget")
	}
}

func (h *ConversationHistory) evictOldest(reason string) {
	evicted := h.interactions[0]
	h.interactions = h.interactions[1:]
	h.totalTokens -= evicted.TokenCount
	h.logger.Debug("Evicted oldest interaction", "reason", reason,
		"evicted_tokens", evicted.TokenCount, "remaining", len(h.interactions))
}

// MessagesForLLM returns the history as alternating user/assistant messages,
// oldest first. Never includes a system message.
func (h *ConversationHistory) MessagesForLLM() []message.Message {
	msgs := make([]message.Message, 0, len(h.interactions)*2)
	for _, it := range h.interactions {
		msgs = append(msgs, message.NewChatMessage(message.MessageTypeUser, it.UserQuery))
		msgs = append(msgs, message.NewChatMessage(message.MessageTypeAssistant, it.AssistantResponse))
	}
	return msgs
}

// Clear discards all interactions
func (h *ConversationHistory) Clear() {
	h.interactions = h.interactions[:0]
	h.totalTokens = 0
	h.logger.Debug("Conversation history cleared")
}

// IsEmpty reports whether no interactions are held
func (h *ConversationHistory) IsEmpty() bool { return len(h.interactions) == 0 }

// Len returns the number of retained interactions
func (h *ConversationHistory) Len() int { return len(h.interactions) }

// TotalTokens returns the token sum of retained interactions, excluding the
// system prompt
func (h *ConversationHistory) TotalTokens() int { return h.totalTokens }

// Interactions returns a copy of the retained interactions, oldest first
func (h *ConversationHistory) Interactions() []Interaction {
	out := make([]Interaction, len(h.interactions))
	copy(out, h.interactions)
	return out
}

// Summary renders a one-line description for status displays
func (h *ConversationHistory) Summary() string {
	if h.IsEmpty() {
		return "No conversation history"
	}
	return fmt.Sprintf("Conversation history: %d interactions, ~%d tokens", len(h.interactions), h.totalTokens)
}
