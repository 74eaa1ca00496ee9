// Package council runs a parallel consultation across several frontier models
// and merges their answers into a single report. It is exposed to the agent as
// a tool and to the user as a REPL command.
package council

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/smoldhq/smold/internal/config"
	"github.com/smoldhq/smold/pkg/agent/domain"
	"github.com/smoldhq/smold/pkg/client/gemini"
	"github.com/smoldhq/smold/pkg/client/openai"
	"github.com/smoldhq/smold/pkg/logger"
	"github.com/smoldhq/smold/pkg/message"
	"github.com/smoldhq/smold/pkg/tokenizer"
	"golang.org/x/sync/errgroup"
)

const specialistMaxTokens = 8192

// Opinion is one specialist's contribution to a consultation.
type Opinion struct {
	Specialist string
	Model      string
	Response   string
	Err        error
}

// Council consults every specialist in the roster in parallel.
type Council struct {
	roster config.Roster
	tok    tokenizer.Tokenizer
	logger *logger.Logger

	// logDir receives a markdown transcript per consultation; empty disables it.
	logDir string
}

// New creates a council from a roster. tok may be nil, in which case token
// prechecks fall back to a character estimate.
func New(roster config.Roster, tok tokenizer.Tokenizer, log *logger.Logger) *Council {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Council{
		roster: roster,
		tok:    tok,
		logger: log,
	}
}

// SetLogDir enables markdown consultation transcripts under dir.
func (c *Council) SetLogDir(dir string) {
	c.logDir = dir
}

// Consult sends the prompt to every specialist in parallel and returns the
// merged report. The content is rejected up front when it exceeds the
// roster's token budget.
func (c *Council) Consult(ctx context.Context, prompt, contextText string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("consultation prompt must not be empty")
	}

	content := prepareContent(prompt, contextText)

	tokens := c.countTokens(content)
	if tokens > c.roster.MaxContextTokens {
		return "", errors.Errorf("consultation content has ~%d tokens, exceeding the %d token limit", tokens, c.roster.MaxContextTokens)
	}
	c.logger.InfoWithIcon("🏛️", "Convening the council", "specialists", len(c.roster.Specialists), "tokens", tokens)

	opinions := make([]Opinion, len(c.roster.Specialists))
	g, gctx := errgroup.WithContext(ctx)
	for i, specialist := range c.roster.Specialists {
		g.Go(func() error {
			opinions[i] = c.consultSpecialist(gctx, specialist, content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	failures := 0
	for _, opinion := range opinions {
		if opinion.Err != nil {
			failures++
			c.logger.Warn("Specialist consultation failed", "specialist", opinion.Specialist, "error", opinion.Err)
		}
	}
	if failures == len(opinions) {
		return "", errors.New("all specialists failed to respond")
	}

	report := formatReport(opinions)
	c.saveTranscript(content, report)
	return report, nil
}

func (c *Council) consultSpecialist(ctx context.Context, specialist config.Specialist, content string) Opinion {
	opinion := Opinion{Specialist: specialist.Name, Model: specialist.Model}

	llm, err := buildSpecialistClient(specialist)
	if err != nil {
		opinion.Err = err
		return opinion
	}

	messages := []message.Message{
		message.NewSystemMessage(specialistSystemPrompt(specialist)),
		message.NewChatMessage(message.MessageTypeUser, content),
	}

	response, err := llm.Chat(ctx, messages)
	if err != nil {
		opinion.Err = err
		return opinion
	}
	opinion.Response = response.Content()
	return opinion
}

// specialistSystemPrompt frames one seat's role, folding in its focus area.
func specialistSystemPrompt(specialist config.Specialist) string {
	prompt := "You are a senior software engineer and technical architect on a council of AI specialists advising a coding agent. Provide expert technical guidance and be thorough, precise, and actionable in your recommendations."
	if specialist.Focus != "" {
		prompt += " Emphasize " + specialist.Focus + "."
	}
	return prompt
}

// buildSpecialistClient creates an LLM client for one roster seat.
func buildSpecialistClient(specialist config.Specialist) (domain.LLM, error) {
	switch specialist.Backend {
	case "openai":
		return openai.NewOpenAIClientWithTokens(specialist.Model, specialistMaxTokens)
	case "openai-compatible":
		return openai.NewCompatibleClient(specialist.Model, specialistMaxTokens, specialist.BaseURL, specialist.APIKeyEnv)
	case "gemini":
		return gemini.NewGeminiClientWithTokens(specialist.Model, specialistMaxTokens)
	default:
		return nil, errors.Errorf("unsupported council backend: %s", specialist.Backend)
	}
}

func (c *Council) countTokens(content string) int {
	if c.tok != nil {
		if n, err := c.tok.CountTokens(content); err == nil {
			return n
		}
	}
	return tokenizer.Estimate(content)
}

// prepareContent assembles the consultation body from context and prompt.
func prepareContent(prompt, contextText string) string {
	var parts []string
	if contextText != "" {
		parts = append(parts, "Context:\n"+contextText)
	}
	parts = append(parts, "Question/Request:\n"+prompt)
	return strings.Join(parts, "\n\n"+strings.Repeat("=", 50)+"\n\n")
}

// formatReport renders all opinions into a single markdown-ish report.
func formatReport(opinions []Opinion) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)

	b.WriteString(rule + "\n")
	b.WriteString("COUNCIL CONSULTATION REPORT\n")
	b.WriteString(rule + "\n")
	b.WriteString("Timestamp: " + time.Now().Format("2006-01-02 15:04:05") + "\n")

	for i, opinion := range opinions {
		b.WriteString(fmt.Sprintf("\n===== SPECIALIST %d: %s (%s) =====\n", i+1, opinion.Specialist, opinion.Model))
		if opinion.Err != nil {
			b.WriteString(fmt.Sprintf("Error consulting %s: %v\n", opinion.Specialist, opinion.Err))
			continue
		}
		b.WriteString(opinion.Response + "\n")
	}

	b.WriteString("\n" + rule + "\n")
	b.WriteString("COUNCIL SUMMARY:\n")
	b.WriteString("The specialists above have provided independent analysis. Synthesize their\n")
	b.WriteString("recommendations before acting; where they disagree, prefer the position with\n")
	b.WriteString("the strongest reasoning for this specific codebase.\n")
	b.WriteString(rule + "\n")
	return b.String()
}

// saveTranscript writes the consultation to a timestamped markdown file.
// Failures are logged and otherwise ignored.
func (c *Council) saveTranscript(content, report string) {
	if c.logDir == "" {
		return
	}
	if err := os.MkdirAll(c.logDir, 0755); err != nil {
		c.logger.Warn("Could not create consultation log directory", "dir", c.logDir, "error", err)
		return
	}

	path := filepath.Join(c.logDir, fmt.Sprintf("council_%s.md", time.Now().Format("20060102_150405")))
	var b strings.Builder
	b.WriteString("# Council Consultation Log\n\n")
	b.WriteString("## Original Request\n\n```\n" + content + "\n```\n\n")
	b.WriteString("## Council Responses\n\n" + report + "\n")

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		c.logger.Warn("Could not save consultation log", "path", path, "error", err)
		return
	}
	c.logger.DebugWithIcon("💾", "Consultation saved", "path", path)
}
