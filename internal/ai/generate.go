package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modfin/megatune/internal/prompt"
	"github.com/modfin/megatune/internal/tokenizer"
)

var ErrEmptyQuestion = errors.New("question is empty")

// Options controls a single decoding call.
type Options struct {
	MaxNewTokens int
	StopToken    string
	N            int
}

func (o Options) stopSequences() []string {
	if o.StopToken == "" {
		return nil
	}
	return []string{o.StopToken}
}

// LanguageModel continues a prompt. Like a causal language model decoded in
// full, Generate returns the prompt followed by the continuation.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// GenerateSQL builds the prompt for question, lets the model continue it and
// turns the continuation into a query. maxLength bounds prompt and
// continuation together, counted in tokens.
func GenerateSQL(ctx context.Context, question string, model LanguageModel, tok tokenizer.Tokenizer, maxLength int) (string, error) {
	p := prompt.Build(prompt.Schema, question)

	ids, err := tok.Encode(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt: %w", err)
	}

	output := p
	if budget := maxLength - len(ids); budget > 0 {
		output, err = model.Generate(ctx, p, Options{
			MaxNewTokens: budget,
			StopToken:    tokenizer.EndOfText,
			N:            1,
		})
		if err != nil {
			return "", fmt.Errorf("failed to generate: %w", err)
		}
	}

	return Finish(p, tokenizer.SkipSpecial(output)), nil
}

// Finish strips the echoed prompt from decoded, counting characters, trims
// the rest and makes sure it ends with a semicolon. A model that produced
// nothing beyond the prompt yields ";".
func Finish(prompt string, decoded string) string {
	var sql string
	if rs, n := []rune(decoded), len([]rune(prompt)); len(rs) > n {
		sql = string(rs[n:])
	}
	sql = strings.TrimSpace(sql)
	if !strings.HasSuffix(sql, ";") {
		sql += ";"
	}
	return sql
}
