package ai

import (
	"context"
	"fmt"

	"github.com/modfin/bellman/models/embed"
)

// EmbedText embeds text with the "Provider/name" model. Queries and stored
// documents may be embedded differently by some providers.
func (p *Proxy) EmbedText(ctx context.Context, fqn string, text string, query bool) ([]float64, error) {
	provider, name := SplitModel(fqn)
	model := embed.Model{
		Provider: provider,
		Name:     name,
	}
	if query {
		model.Type = embed.TypeQuery
	}

	resp, err := p.Embed(embed.Request{
		Ctx:   ctx,
		Model: model,
		Text:  text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed: %w", err)
	}
	return resp.AsFloat64(), nil
}
