package context

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/smoldhq/smold/pkg/message"
)

// wordTokenizer counts whitespace-separated words, giving tests exact
// control over token totals without BPE data files.
type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(strings.Fields(text)), nil
}

// failingTokenizer always errors, to exercise the estimate fallback
type failingTokenizer struct{}

func (failingTokenizer) CountTokens(string) (int, error) {
	return 0, errors.New("no encoding data")
}

func newTestHistory(t *testing.T, maxInteractions, maxTokens int) *ConversationHistory {
	t.Helper()
	h, err := NewConversationHistory(maxInteractions, maxTokens, wordTokenizer{}, nil)
	if err != nil {
		t.Fatalf("NewConversationHistory failed: %v", err)
	}
	return h
}

func TestNewConversationHistoryRejectsNegativeLimits(t *testing.T) {
	if _, err := NewConversationHistory(-1, 100, wordTokenizer{}, nil); err == nil {
		t.Error("expected error for negative max interactions")
	}
	if _, err := NewConversationHistory(8, -1, wordTokenizer{}, nil); err == nil {
		t.Error("expected error for negative max tokens")
	}
	if _, err := NewConversationHistory(0, 0, wordTokenizer{}, nil); err != nil {
		t.Errorf("zero limits should be valid, got %v", err)
	}
}

func TestAddInteractionTokenCount(t *testing.T) {
	h := newTestHistory(t, 10, 1000)

	// 2 words + 3 overhead for the query, 3 words + 3 overhead for the response
	h.AddInteraction("hello there", "general kenobi indeed", 0)

	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	if got := h.TotalTokens(); got != 11 {
		t.Errorf("TotalTokens() = %d, want 11", got)
	}
	if got := h.Interactions()[0].TokenCount; got != 11 {
		t.Errorf("TokenCount = %d, want 11", got)
	}
}

func TestEvictionIsOldestFirst(t *testing.T) {
	h := newTestHistory(t, 2, 10000)

	h.AddInteraction("first", "a", 0)
	h.AddInteraction("second", "b", 0)
	h.AddInteraction("third", "c", 0)

	got := h.Interactions()
	if len(got) != 2 {
		t.Fatalf("Len() = %d, want 2", len(got))
	}
	if got[0].UserQuery != "second" || got[1].UserQuery != "third" {
		t.Errorf("retained queries = %q, %q; want second, third", got[0].UserQuery, got[1].UserQuery)
	}
}

func TestTokenBudgetIncludesSystemPrompt(t *testing.T) {
	h := newTestHistory(t, 100, 30)

	// Each interaction: 1+3 + 1+3 = 8 tokens. Without system prompt tokens
	// three interactions (24) fit; with 10 system tokens only two do.
	h.AddInteraction("a", "b", 10)
	h.AddInteraction("c", "d", 10)
	h.AddInteraction("e", "f", 10)

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (joint budget with system prompt)", h.Len())
	}
	if got := h.Interactions()[0].UserQuery; got != "c" {
		t.Errorf("oldest retained = %q, want \"c\"", got)
	}
}

func TestZeroLimitsEvictToEmpty(t *testing.T) {
	tests := []struct {
		name            string
		maxInteractions int
		maxTokens       int
	}{
		{"zero interactions", 0, 10000},
		{"zero tokens", 100, 0},
		{"both zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHistory(t, tt.maxInteractions, tt.maxTokens)
			h.AddInteraction("some query", "some answer", 0)
			if !h.IsEmpty() {
				t.Errorf("history not empty after add with %s", tt.name)
			}
			if h.TotalTokens() != 0 {
				t.Errorf("TotalTokens() = %d, want 0", h.TotalTokens())
			}
		})
	}
}

func TestOversizedSingleInteractionIsKept(t *testing.T) {
	// Budget 50, system prompt 20, interaction ~40 tokens: over budget but
	// it is the only (most recent) turn, so it survives.
	h := newTestHistory(t, 100, 50)

	longQuery := strings.Repeat("word ", 17) // 17 tokens + 3 overhead
	h.AddInteraction(strings.TrimSpace(longQuery), strings.TrimSpace(longQuery), 20)

	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (most recent turn kept)", h.Len())
	}
	if h.TotalTokens() != 40 {
		t.Errorf("TotalTokens() = %d, want 40", h.TotalTokens())
	}
}

func TestOversizedInteractionEvictsAllOlderTurns(t *testing.T) {
	h := newTestHistory(t, 100, 20)

	h.AddInteraction("a", "b", 0) // 8 tokens
	big := strings.Repeat("x ", 30)
	h.AddInteraction(strings.TrimSpace(big), "y", 0) // 37 tokens, alone over budget

	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	if !strings.HasPrefix(h.Interactions()[0].UserQuery, "x") {
		t.Errorf("retained the wrong interaction: %q", h.Interactions()[0].UserQuery)
	}
}

func TestMessagesForLLMAlternatesRoles(t *testing.T) {
	h := newTestHistory(t, 10, 10000)
	h.AddInteraction("q1", "a1", 0)
	h.AddInteraction("q2", "a2", 0)

	msgs := h.MessagesForLLM()
	if len(msgs) != 4 {
		t.Fatalf("len(msgs) = %d, want 4", len(msgs))
	}

	wantTypes := []message.MessageType{
		message.MessageTypeUser, message.MessageTypeAssistant,
		message.MessageTypeUser, message.MessageTypeAssistant,
	}
	wantContent := []string{"q1", "a1", "q2", "a2"}
	for i, msg := range msgs {
		if msg.Type() != wantTypes[i] {
			t.Errorf("msgs[%d].Type() = %s, want %s", i, msg.Type(), wantTypes[i])
		}
		if msg.Content() != wantContent[i] {
			t.Errorf("msgs[%d].Content() = %q, want %q", i, msg.Content(), wantContent[i])
		}
	}
}

func TestClearAndSummary(t *testing.T) {
	h := newTestHistory(t, 10, 10000)

	if h.Summary() != "No conversation history" {
		t.Errorf("empty Summary() = %q", h.Summary())
	}

	h.AddInteraction("hello", "world", 0)
	if want := "Conversation history: 1 interactions, ~8 tokens"; h.Summary() != want {
		t.Errorf("Summary() = %q, want %q", h.Summary(), want)
	}

	h.Clear()
	if !h.IsEmpty() || h.TotalTokens() != 0 {
		t.Errorf("after Clear: Len=%d TotalTokens=%d, want 0/0", h.Len(), h.TotalTokens())
	}
}

func TestCountTokensFallsBackOnError(t *testing.T) {
	h, err := NewConversationHistory(10, 1000, failingTokenizer{}, nil)
	if err != nil {
		t.Fatalf("NewConversationHistory failed: %v", err)
	}

	// 10 chars -> ceil(10/4) = 3
	if got := h.CountTokens("0123456789"); got != 3 {
		t.Errorf("CountTokens fallback = %d, want 3", got)
	}
	if got := h.CountTokens(""); got != 0 {
		t.Errorf("CountTokens(\"\") = %d, want 0", got)
	}
}

func TestCountTokensWithoutTokenizer(t *testing.T) {
	h, err := NewConversationHistory(10, 1000, nil, nil)
	if err != nil {
		t.Fatalf("NewConversationHistory failed: %v", err)
	}
	if got := h.CountTokens("abcdefgh"); got != 2 {
		t.Errorf("CountTokens = %d, want 2", got)
	}
}

func TestCountMessagesTokens(t *testing.T) {
	h := newTestHistory(t, 10, 1000)

	msgs := []message.Message{
		message.NewChatMessage(message.MessageTypeUser, "one two"),
		message.NewChatMessage(message.MessageTypeAssistant, "three"),
	}

	// Per message: 3 framing + content words + 1 for the role word.
	// user: 3+2+1=6, assistant: 3+1+1=5, reply primer 3 -> 14
	if got := h.CountMessagesTokens(msgs); got != 14 {
		t.Errorf("CountMessagesTokens = %d, want 14", got)
	}

	if got := h.CountMessagesTokens(nil); got != 0 {
		t.Errorf("CountMessagesTokens(nil) = %d, want 0", got)
	}
}
