// Package tokenizer provides token counting for context budgeting.
package tokenizer

import (
	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding matches the o-series / gpt-4o model family
const DefaultEncoding = "o200k_base"

// Tokenizer counts tokens in text. Implementations may fail (missing
// encoding data, unknown model); callers that must not fail wrap the call
// with Estimate as a fallback.
type Tokenizer interface {
	CountTokens(text string) (int, error)
}

// Tiktoken counts tokens with a BPE encoding
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken creates a tokenizer for the given encoding name
// (e.g. "o200k_base", "cl100k_base")
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load encoding %q", encoding)
	}
	return &Tiktoken{enc: enc}, nil
}

// NewTiktokenForModel creates a tokenizer for a model name, falling back to
// the default encoding for models the tiktoken tables don't know
func NewTiktokenForModel(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return NewTiktoken(DefaultEncoding)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

// Estimate approximates a token count as ceil(len/4), the rough bytes-per-
// token ratio of English text. Used as the fallback when real counting fails.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// Accounting holds the per-message overhead constants used when counting a
// chat transcript the way OpenAI-style endpoints bill it.
type Accounting struct {
	TokensPerMessage int // framing overhead added per message
	TokensPerName    int // extra tokens when a message carries a name
	ReplyPrimer      int // priming tokens for the assistant reply, added once
}

// DefaultAccounting matches the published counting rules for gpt-4o-class
// chat models.
var DefaultAccounting = Accounting{
	TokensPerMessage: 3,
	TokensPerName:    1,
	ReplyPrimer:      3,
}
