package ai

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/modfin/bellman/models/embed"
	"github.com/modfin/bellman/models/gen"
)

func TestNewWithoutCredentials(t *testing.T) {
	proxy, err := New(APICredentials{}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if got := proxy.GenProviders(); len(got) != 0 {
		t.Errorf("GenProviders() = %v, want none", got)
	}
}

func TestProxyClientNotFound(t *testing.T) {
	proxy := newProxy()

	_, err := proxy.Gen(gen.Model{Provider: "OpenAI", Name: "gpt-4o-mini"})
	if !errors.Is(err, ErrClientNotFound) {
		t.Errorf("Gen() error = %v, want ErrClientNotFound", err)
	}
	_, err = proxy.Embed(embed.Request{Model: embed.Model{Provider: "VoyageAI", Name: "voyage-3"}})
	if !errors.Is(err, ErrClientNotFound) {
		t.Errorf("Embed() error = %v, want ErrClientNotFound", err)
	}
}

func TestSplitModel(t *testing.T) {
	testCases := []struct {
		fqn, provider, name string
	}{
		{"OpenAI/gpt-4o-mini", "OpenAI", "gpt-4o-mini"},
		{"Bellman/OpenAI/gpt-4o", "Bellman", "OpenAI/gpt-4o"},
		{"gpt2", "gpt2", ""},
		{"", "", ""},
	}
	for _, tc := range testCases {
		provider, name := SplitModel(tc.fqn)
		if provider != tc.provider || name != tc.name {
			t.Errorf("SplitModel(%q) = %q, %q, want %q, %q", tc.fqn, provider, name, tc.provider, tc.name)
		}
	}
}

func TestNewBellmanModelValidates(t *testing.T) {
	_, err := NewBellmanModel(newProxy(), "gpt2")
	if !errors.Is(err, ErrNoModelProvided) {
		t.Errorf("NewBellmanModel() error = %v, want ErrNoModelProvided", err)
	}
}
