package council

import (
	"context"
	"strings"
	"testing"

	"github.com/smoldhq/smold/internal/config"
)

func TestConsultRejectsEmptyPrompt(t *testing.T) {
	c := New(*config.DefaultRoster(), nil, nil)

	if _, err := c.Consult(context.Background(), "   ", ""); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestConsultRejectsOversizedContent(t *testing.T) {
	roster := config.Roster{
		MaxContextTokens: 10,
		Specialists:      config.DefaultRoster().Specialists,
	}
	c := New(roster, nil, nil)

	// ~25 tokens by the length estimate, well past the 10 token budget
	big := strings.Repeat("abcd ", 20)
	_, err := c.Consult(context.Background(), big, "")
	if err == nil {
		t.Fatal("expected error for oversized content")
	}
	if !strings.Contains(err.Error(), "token limit") {
		t.Errorf("error should mention the token limit, got: %v", err)
	}
}

func TestPrepareContent(t *testing.T) {
	got := prepareContent("How do I fix this?", "")
	if got != "Question/Request:\nHow do I fix this?" {
		t.Errorf("unexpected content without context: %q", got)
	}

	got = prepareContent("How do I fix this?", "func main() {}")
	if !strings.HasPrefix(got, "Context:\nfunc main() {}") {
		t.Errorf("context should come first, got: %q", got)
	}
	if !strings.Contains(got, strings.Repeat("=", 50)) {
		t.Error("expected separator rule between context and prompt")
	}
	if !strings.HasSuffix(got, "Question/Request:\nHow do I fix this?") {
		t.Errorf("prompt should come last, got: %q", got)
	}
}

func TestSpecialistSystemPrompt(t *testing.T) {
	withFocus := specialistSystemPrompt(config.Specialist{Name: "skeptic", Focus: "finding flaws"})
	if !strings.Contains(withFocus, "Emphasize finding flaws.") {
		t.Errorf("focus should be folded into the prompt, got: %q", withFocus)
	}

	without := specialistSystemPrompt(config.Specialist{Name: "plain"})
	if strings.Contains(without, "Emphasize") {
		t.Errorf("no focus clause expected, got: %q", without)
	}
}

func TestBuildSpecialistClientUnknownBackend(t *testing.T) {
	_, err := buildSpecialistClient(config.Specialist{Name: "x", Backend: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "carrier-pigeon") {
		t.Errorf("error should name the backend, got: %v", err)
	}
}

func TestFormatReport(t *testing.T) {
	opinions := []Opinion{
		{Specialist: "reasoner", Model: "o4-mini", Response: "Use a mutex."},
		{Specialist: "skeptic", Model: "deepseek-reasoner", Err: context.DeadlineExceeded},
	}

	report := formatReport(opinions)

	if !strings.Contains(report, "COUNCIL CONSULTATION REPORT") {
		t.Error("missing report header")
	}
	if !strings.Contains(report, "===== SPECIALIST 1: reasoner (o4-mini) =====") {
		t.Error("missing first specialist section")
	}
	if !strings.Contains(report, "Use a mutex.") {
		t.Error("missing first specialist response")
	}
	if !strings.Contains(report, "===== SPECIALIST 2: skeptic (deepseek-reasoner) =====") {
		t.Error("missing second specialist section")
	}
	if !strings.Contains(report, "Error consulting skeptic") {
		t.Error("failed seat should be reported inline")
	}
	if !strings.Contains(report, "COUNCIL SUMMARY:") {
		t.Error("missing summary footer")
	}
}

func TestCountTokensFallsBackToEstimate(t *testing.T) {
	c := New(*config.DefaultRoster(), nil, nil)

	text := strings.Repeat("a", 40)
	if got := c.countTokens(text); got != 10 {
		t.Errorf("countTokens(%q) = %d, want 10 via the length estimate", text, got)
	}
}
