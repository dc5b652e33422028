package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/modfin/bellman/models/gen"
	"github.com/modfin/bellman/prompt"
)

// BellmanModel continues prompts with a hosted model reached through the
// provider proxy. Hosted models return only the continuation, so the prompt
// is put back in front of it.
type BellmanModel struct {
	Proxy *Proxy
	Model gen.Model
}

func NewBellmanModel(proxy *Proxy, fqn string) (*BellmanModel, error) {
	provider, name := SplitModel(fqn)
	if provider == "" || name == "" {
		return nil, fmt.Errorf("invalid model '%s', expected provider/name, %w", fqn, ErrNoModelProvided)
	}
	return &BellmanModel{
		Proxy: proxy,
		Model: gen.Model{Provider: provider, Name: name},
	}, nil
}

func (m *BellmanModel) Generate(ctx context.Context, text string, opts Options) (string, error) {
	llm, err := m.Proxy.Gen(m.Model)
	if err != nil {
		return "", fmt.Errorf("failed to create llm: %w", err)
	}

	req := llm.
		WithContext(ctx).
		Temperature(0).
		MaxTokens(opts.MaxNewTokens)
	if stop := opts.stopSequences(); len(stop) > 0 {
		req = req.StopAt(stop...)
	}

	res, err := req.Prompt(prompt.Prompt{
		Role: prompt.UserRole,
		Text: text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	completion, err := res.AsText()
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if strings.HasPrefix(completion, text) {
		return completion, nil
	}
	return text + completion, nil
}
