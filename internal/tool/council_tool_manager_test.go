package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeConsultant struct {
	report string
	err    error
	called bool
}

func (f *fakeConsultant) Consult(ctx context.Context, prompt, contextText string) (string, error) {
	f.called = true
	return f.report, f.err
}

func TestCouncilConsultationRequiresConfirmation(t *testing.T) {
	consultant := &fakeConsultant{report: "do the thing"}
	m := NewCouncilToolManager(consultant, func(question string) (string, error) {
		return "no", nil
	})

	result, err := m.CallTool(context.Background(), "CouncilConsultation", map[string]any{"prompt": "advise me"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if consultant.called {
		t.Error("consultant should not be called when the user declines")
	}
	if !strings.Contains(result.Text, "cancelled") {
		t.Errorf("expected cancellation message, got: %q", result.Text)
	}
}

func TestCouncilConsultationRunsWhenConfirmed(t *testing.T) {
	consultant := &fakeConsultant{report: "council says yes"}
	m := NewCouncilToolManager(consultant, func(question string) (string, error) {
		return "yes", nil
	})

	result, err := m.CallTool(context.Background(), "CouncilConsultation", map[string]any{
		"prompt":  "advise me",
		"context": "some background",
	})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !consultant.called {
		t.Fatal("consultant was not called")
	}
	if result.Text != "council says yes" {
		t.Errorf("result = %q, want consultant report", result.Text)
	}
}

func TestCouncilConsultationWithoutConfirmFunc(t *testing.T) {
	consultant := &fakeConsultant{report: "ok"}
	m := NewCouncilToolManager(consultant, nil)

	result, err := m.CallTool(context.Background(), "CouncilConsultation", map[string]any{"prompt": "q"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !consultant.called {
		t.Fatal("consultant should be called directly when no confirm func is set")
	}
	if result.IsError() {
		t.Fatalf("unexpected error result: %s", result.Error)
	}
}

func TestCouncilConsultationPropagatesFailure(t *testing.T) {
	consultant := &fakeConsultant{err: errors.New("all specialists failed")}
	m := NewCouncilToolManager(consultant, nil)

	result, err := m.CallTool(context.Background(), "CouncilConsultation", map[string]any{"prompt": "q"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if !result.IsError() {
		t.Fatal("expected error result when consultation fails")
	}
}

func TestUserInputToolUsesPrompter(t *testing.T) {
	m := NewInputToolManager()
	m.prompter = func(question string) (string, error) {
		if question != "Proceed?" {
			t.Errorf("question = %q, want %q", question, "Proceed?")
		}
		return "  sure  ", nil
	}

	result, err := m.CallTool(context.Background(), "UserInput", map[string]any{"question": "Proceed?"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	if result.Text != "sure" {
		t.Errorf("result = %q, want trimmed answer", result.Text)
	}
}
