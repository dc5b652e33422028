package ai

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/modfin/bellman"
	"github.com/modfin/bellman/models/embed"
	"github.com/modfin/bellman/models/gen"
	"github.com/modfin/bellman/services/anthropic"
	"github.com/modfin/bellman/services/openai"
	"github.com/modfin/bellman/services/vertexai"
	"github.com/modfin/bellman/services/voyageai"
	"github.com/modfin/henry/mapz"
)

type APICredentials struct {
	BellmanURL     string `cli:"bellman-url"`
	BellmanKeyName string `cli:"bellman-key-name"`
	BellmanKey     string `cli:"bellman-key"`

	VertexAICredential string `cli:"vertexai-credential"`
	VertexAIProject    string `cli:"vertexai-project"`
	VertexAIRegion     string `cli:"vertexai-region"`

	OpenAIKey    string `cli:"openai-key"`
	AnthropicKey string `cli:"anthropic-key"`
	VoyageAIKey  string `cli:"voyageai-key"`
}

// New registers a client for every provider that has credentials.
func New(credentials APICredentials, logger *slog.Logger) (*Proxy, error) {
	proxy := newProxy()

	if credentials.AnthropicKey != "" {
		client := anthropic.New(credentials.AnthropicKey)
		proxy.RegisterGen(client)
		logger.Debug("adding llm provider", "provider", client.Provider())
	}

	if credentials.OpenAIKey != "" {
		client := openai.New(credentials.OpenAIKey)
		proxy.RegisterGen(client)
		proxy.RegisterEmbeder(client)
		logger.Debug("adding llm and embed provider", "provider", client.Provider())
	}

	if credentials.VertexAIRegion != "" && credentials.VertexAIProject != "" {
		client, err := vertexai.New(vertexai.GoogleConfig{
			Project:    credentials.VertexAIProject,
			Region:     credentials.VertexAIRegion,
			Credential: credentials.VertexAICredential,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create vertexai client: %w", err)
		}
		proxy.RegisterGen(client)
		proxy.RegisterEmbeder(client)
		logger.Debug("adding llm and embed provider", "provider", client.Provider())
	}

	if credentials.VoyageAIKey != "" {
		client := voyageai.New(credentials.VoyageAIKey)
		proxy.RegisterEmbeder(client)
		logger.Debug("adding embed provider", "provider", client.Provider())
	}

	if credentials.BellmanKey != "" && credentials.BellmanURL != "" {
		client := bellman.New(credentials.BellmanURL, bellman.Key{
			Name:  credentials.BellmanKeyName,
			Token: credentials.BellmanKey,
		})
		proxy.RegisterGen(client)
		proxy.RegisterEmbeder(client)
		logger.Debug("adding llm and embed provider", "provider", client.Provider())
	}

	return proxy, nil
}

var ErrNoModelProvided = errors.New("no model was provided")
var ErrClientNotFound = errors.New("client not found")

// Proxy routes requests to the client registered for the model's provider.
type Proxy struct {
	embeders map[string]embed.Embeder
	gens     map[string]gen.Gen
}

func newProxy() *Proxy {
	return &Proxy{
		embeders: map[string]embed.Embeder{},
		gens:     map[string]gen.Gen{},
	}
}

func (p *Proxy) RegisterEmbeder(embeder embed.Embeder) {
	p.embeders[embeder.Provider()] = embeder
}
func (p *Proxy) RegisterGen(llm gen.Gen) {
	p.gens[llm.Provider()] = llm
}

// GenProviders lists the providers that can generate, sorted.
func (p *Proxy) GenProviders() []string {
	keys := mapz.Keys(p.gens)
	sort.Strings(keys)
	return keys
}

// SplitModel splits "Provider/name". Names routed through a bellman proxy
// keep their own provider prefix, e.g. "Bellman/OpenAI/gpt-4o".
func SplitModel(fqn string) (provider string, name string) {
	provider, name, _ = strings.Cut(fqn, "/")
	return provider, name
}

// unwrap resolves a bellman proxied name into the upstream provider and name.
func unwrap(provider, name string) (string, string, error) {
	if provider != bellman.Provider {
		return provider, name, nil
	}
	upstream, rest, found := strings.Cut(name, "/")
	if !found {
		return "", "", fmt.Errorf("invalid bellman model name '%s', %w", name, ErrNoModelProvided)
	}
	return upstream, rest, nil
}

func (p *Proxy) Embed(req embed.Request) (*embed.Response, error) {
	client, ok := p.embeders[req.Model.Provider]
	if !ok || client == nil {
		return nil, fmt.Errorf("no client registerd for provider '%s', %w", req.Model.Provider, ErrClientNotFound)
	}

	var err error
	req.Model.Provider, req.Model.Name, err = unwrap(req.Model.Provider, req.Model.Name)
	if err != nil {
		return nil, err
	}
	if req.Model.Name == "" {
		return nil, fmt.Errorf("model name is not set, %w", ErrNoModelProvided)
	}
	return client.Embed(req)
}

func (p *Proxy) Gen(mod gen.Model) (*gen.Generator, error) {
	client, ok := p.gens[mod.Provider]
	if !ok || client == nil {
		return nil, fmt.Errorf("no client registerd for provider '%s', %w", mod.Provider, ErrClientNotFound)
	}

	var err error
	mod.Provider, mod.Name, err = unwrap(mod.Provider, mod.Name)
	if err != nil {
		return nil, err
	}
	if mod.Name == "" {
		return nil, fmt.Errorf("model name is not set, %w", ErrNoModelProvided)
	}
	return client.Generator(gen.WithModel(mod)), nil
}
