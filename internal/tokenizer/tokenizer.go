package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultEncoding is the GPT-2 byte pair vocabulary.
	DefaultEncoding = "r50k_base"
	// EndOfText is the end of document token every tiktoken encoding carries.
	EndOfText = "<|endoftext|>"
	// EndOfTextID is the id of EndOfText in r50k_base.
	EndOfTextID = 50256
)

type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) string
	PadID() int
	EOSID() int
}

// TokenizationError is returned when a text cannot be encoded.
type TokenizationError struct {
	Text   string
	Reason string
}

func (e *TokenizationError) Error() string {
	text := e.Text
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return fmt.Sprintf("tokenize %q: %s", text, e.Reason)
}

// BPE is a byte pair encoding tokenizer backed by tiktoken. GPT-2 has no
// dedicated padding token, so padding reuses end of text unless configured.
type BPE struct {
	Encoding string
	enc      *tiktoken.Tiktoken
	pad      int
	eos      int
}

// Config selects an encoding. Nil token ids resolve to the encoding's own
// end of text token.
type Config struct {
	Encoding   string
	PadTokenID *int
	EOSTokenID *int
}

func NewBPE(cfg Config) (*BPE, error) {
	name := strings.TrimSpace(cfg.Encoding)
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", name, err)
	}
	ids := enc.Encode(EndOfText, []string{EndOfText}, nil)
	if len(ids) != 1 {
		return nil, fmt.Errorf("encoding %s has no %s token", name, EndOfText)
	}
	pad, eos := specialIDs(cfg, ids[0])
	return &BPE{
		Encoding: name,
		enc:      enc,
		pad:      pad,
		eos:      eos,
	}, nil
}

// specialIDs applies the configured overrides on top of the encoding's end of
// text id. Padding follows eos unless set.
func specialIDs(cfg Config, endOfText int) (pad int, eos int) {
	eos = endOfText
	if cfg.EOSTokenID != nil {
		eos = *cfg.EOSTokenID
	}
	pad = eos
	if cfg.PadTokenID != nil {
		pad = *cfg.PadTokenID
	}
	return pad, eos
}

func (t *BPE) Encode(text string) ([]int, error) {
	if !utf8.ValidString(text) {
		return nil, &TokenizationError{Text: text, Reason: "invalid utf-8"}
	}
	if strings.Contains(text, EndOfText) {
		return nil, &TokenizationError{Text: text, Reason: "contains special token " + EndOfText}
	}
	return t.enc.EncodeOrdinary(text), nil
}

// Decode skips special tokens.
func (t *BPE) Decode(ids []int) string {
	raw := make([]int, 0, len(ids))
	for _, id := range ids {
		if id == t.eos || id == t.pad || id < 0 {
			continue
		}
		raw = append(raw, id)
	}
	return t.enc.Decode(raw)
}

func (t *BPE) PadID() int { return t.pad }
func (t *BPE) EOSID() int { return t.eos }

// SkipSpecial removes special token literals from text that was decoded elsewhere.
func SkipSpecial(text string) string {
	return strings.ReplaceAll(text, EndOfText, "")
}
