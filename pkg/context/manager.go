package context

import (
	"github.com/smoldhq/smold/pkg/logger"
	"github.com/smoldhq/smold/pkg/message"
	"github.com/smoldhq/smold/pkg/tokenizer"
)

// Manager owns the system prompt and the conversation history, and is the
// single place the LLM message list is produced. Nothing else in the agent
// assembles or rewrites that list.
//
// Not safe for concurrent use.
type Manager struct {
	history            *ConversationHistory
	systemPrompt       string
	systemPromptTokens int
	maxTokens          int
	logger             *logger.Logger
}

// ContextInfo is a snapshot of the current context occupancy
type ContextInfo struct {
	TotalMessages            int
	ConversationInteractions int
	TotalTokens              int
	SystemPromptTokens       int
	ConversationTokens       int
	UnderLimit               bool
}

// NewManager creates a context manager. Negative limits are a configuration
// error; zero limits are valid degenerate caps.
func NewManager(systemPrompt string, maxInteractions, maxTokens int, tok tokenizer.Tokenizer, log *logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	history, err := NewConversationHistory(maxInteractions, maxTokens, tok, log)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		history:   history,
		maxTokens: maxTokens,
		logger:    log,
	}
	m.SetSystemPrompt(systemPrompt)
	return m, nil
}

// SetSystemPrompt replaces the system prompt and recounts it. Existing
// history is left alone; RefreshWithSystemPrompt re-trims against the new
// joint budget.
func (m *Manager) SetSystemPrompt(prompt string) {
	m.systemPrompt = prompt
	m.systemPromptTokens = m.history.CountTokens(prompt)
	m.logger.Debug("System prompt set", "tokens", m.systemPromptTokens)
}

// RefreshWithSystemPrompt swaps in a newly generated system prompt, evicting
// history as needed to fit the joint budget. Used when the working directory
// or model changes mid-session.
func (m *Manager) RefreshWithSystemPrompt(prompt string) {
	before := m.history.Len()
	m.SetSystemPrompt(prompt)
	m.history.Trim(m.systemPromptTokens)
	if evicted := before - m.history.Len(); evicted > 0 {
		m.logger.InfoWithIcon("🔄", "Context refreshed", "evicted_interactions", evicted)
	}
}

// SystemPrompt returns the current system prompt
func (m *Manager) SystemPrompt() string { return m.systemPrompt }

// SystemPromptTokens returns the cached token count of the system prompt
func (m *Manager) SystemPromptTokens() int { return m.systemPromptTokens }

// History exposes the underlying conversation history
func (m *Manager) History() *ConversationHistory { return m.history }

// AddInteraction records a completed exchange under the joint budget
func (m *Manager) AddInteraction(userQuery, assistantResponse string) {
	m.history.AddInteraction(userQuery, assistantResponse, m.systemPromptTokens)
}

// FullContextForLLM composes the message list sent to the model: system
// message first when requested and non-empty, then the history pairs
// oldest-first.
func (m *Manager) FullContextForLLM(includeSystem bool) []message.Message {
	historyMsgs := m.history.MessagesForLLM()

	if !includeSystem || m.systemPrompt == "" {
		return historyMsgs
	}

	msgs := make([]message.Message, 0, len(historyMsgs)+1)
	msgs = append(msgs, message.NewSystemMessage(m.systemPrompt))
	return append(msgs, historyMsgs...)
}

// ClearConversation empties the history. The system prompt and its token
// count are untouched.
func (m *Manager) ClearConversation() {
	m.history.Clear()
}

// CountTokens counts tokens in text, never failing
func (m *Manager) CountTokens(text string) int {
	return m.history.CountTokens(text)
}

// ContextInfo reports current occupancy
func (m *Manager) ContextInfo() ContextInfo {
	conversationTokens := m.history.TotalTokens()
	totalMessages := m.history.Len() * 2
	if m.systemPrompt != "" {
		totalMessages++
	}

	return ContextInfo{
		TotalMessages:            totalMessages,
		ConversationInteractions: m.history.Len(),
		TotalTokens:              m.systemPromptTokens + conversationTokens,
		SystemPromptTokens:       m.systemPromptTokens,
		ConversationTokens:       conversationTokens,
		UnderLimit:               m.systemPromptTokens+conversationTokens <= m.maxTokens,
	}
}

// Summary renders a one-line description of the conversation state
func (m *Manager) Summary() string {
	return m.history.Summary()
}
