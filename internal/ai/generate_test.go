package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modfin/megatune/internal/prompt"
	"github.com/modfin/megatune/internal/tokenizer"
)

// echoModel returns the prompt followed by a fixed continuation.
type echoModel struct {
	continuation string
	err          error
	calls        int
	last         Options
}

func (m *echoModel) Generate(_ context.Context, p string, opts Options) (string, error) {
	m.calls++
	m.last = opts
	if m.err != nil {
		return "", m.err
	}
	return p + m.continuation, nil
}

func TestFinish(t *testing.T) {
	p := "PROMPT: "
	testCases := []struct {
		name    string
		prompt  string
		decoded string
		want    string
	}{
		{name: "Appends semicolon", decoded: p + " SELECT * FROM log_data ", want: "SELECT * FROM log_data;"},
		{name: "Keeps semicolon", decoded: p + "SELECT 1;", want: "SELECT 1;"},
		{name: "Prompt only", decoded: p, want: ";"},
		{name: "Shorter than prompt", decoded: "PRO", want: ";"},
		{name: "Empty", decoded: "", want: ";"},
		{name: "Whitespace continuation", decoded: p + "  \n ", want: ";"},
		{name: "Counts characters not bytes", prompt: "å:", decoded: "å: SELECT 'ö'", want: "SELECT 'ö';"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pr := p
			if tc.prompt != "" {
				pr = tc.prompt
			}
			got := Finish(pr, tc.decoded)
			if got != tc.want {
				t.Errorf("Finish() = %q, want %q", got, tc.want)
			}
			if !strings.HasSuffix(got, ";") {
				t.Errorf("Finish() = %q does not end with ';'", got)
			}
		})
	}
}

func TestGenerateSQL(t *testing.T) {
	model := &echoModel{continuation: " SELECT * FROM log_data WHERE log_level = 'ERROR'<|endoftext|>"}
	q := "Display errors from the last 3 months."
	maxLength := len(prompt.Build(prompt.Schema, q)) + 100

	got, err := GenerateSQL(context.Background(), q, model, tokenizer.Chars{}, maxLength)
	if err != nil {
		t.Fatal(err)
	}
	if want := "SELECT * FROM log_data WHERE log_level = 'ERROR';"; got != want {
		t.Errorf("GenerateSQL() = %q, want %q", got, want)
	}
	if model.last.MaxNewTokens != 100 || model.last.N != 1 || model.last.StopToken != tokenizer.EndOfText {
		t.Errorf("options = %+v", model.last)
	}
}

func TestGenerateSQLNoBudget(t *testing.T) {
	model := &echoModel{continuation: "SELECT 1;"}

	got, err := GenerateSQL(context.Background(), "q", model, tokenizer.Chars{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != ";" {
		t.Errorf("GenerateSQL() = %q, want %q", got, ";")
	}
	if model.calls != 0 {
		t.Errorf("model was called %d times without a token budget", model.calls)
	}
}

func TestGenerateSQLDegenerate(t *testing.T) {
	model := &echoModel{continuation: ""}
	got, err := GenerateSQL(context.Background(), "q", model, tokenizer.Chars{}, 1<<16)
	if err != nil {
		t.Fatal(err)
	}
	if got != ";" {
		t.Errorf("GenerateSQL() = %q, want %q", got, ";")
	}
}

func TestGenerateSQLModelError(t *testing.T) {
	boom := errors.New("out of memory")
	model := &echoModel{err: boom}
	_, err := GenerateSQL(context.Background(), "q", model, tokenizer.Chars{}, 1<<16)
	if !errors.Is(err, boom) {
		t.Errorf("GenerateSQL() error = %v, want %v", err, boom)
	}
}

func TestGenerateSQLTokenizationError(t *testing.T) {
	model := &echoModel{}
	_, err := GenerateSQL(context.Background(), "bad \xff", model, tokenizer.Chars{}, 1<<16)
	var tokErr *tokenizer.TokenizationError
	if !errors.As(err, &tokErr) {
		t.Errorf("GenerateSQL() error = %v, want *TokenizationError", err)
	}
	if model.calls != 0 {
		t.Errorf("model should not be called when the prompt cannot be encoded")
	}
}

func TestStopSequences(t *testing.T) {
	testCases := []struct {
		name string
		opts Options
		want []string
	}{
		{name: "No stop token", opts: Options{MaxNewTokens: 10}, want: nil},
		{name: "End of text", opts: Options{StopToken: tokenizer.EndOfText}, want: []string{tokenizer.EndOfText}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, tc.opts.stopSequences()); diff != "" {
				t.Errorf("stopSequences() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
