package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// CharEncoding selects the character level tokenizer.
const CharEncoding = "char"

const (
	charPad = 0
	charEOS = 1
	charOff = 2
)

// Chars maps every rune to its own id. It needs no vocabulary file, which
// makes it usable offline and for small experiments.
type Chars struct{}

func (Chars) Encode(text string) ([]int, error) {
	if !utf8.ValidString(text) {
		return nil, &TokenizationError{Text: text, Reason: "invalid utf-8"}
	}
	out := make([]int, 0, len(text))
	for _, r := range text {
		out = append(out, int(r)+charOff)
	}
	return out, nil
}

func (Chars) Decode(ids []int) string {
	var sb strings.Builder
	for _, id := range ids {
		if id < charOff {
			continue
		}
		sb.WriteRune(rune(id - charOff))
	}
	return sb.String()
}

func (Chars) PadID() int { return charPad }
func (Chars) EOSID() int { return charEOS }

// New returns the tokenizer for cfg.Encoding.
func New(cfg Config) (Tokenizer, error) {
	if cfg.Encoding == CharEncoding {
		return Chars{}, nil
	}
	return NewBPE(cfg)
}
