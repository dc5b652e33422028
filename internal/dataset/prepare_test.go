package dataset

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modfin/megatune/internal/prompt"
	"github.com/modfin/megatune/internal/tokenizer"
)

type failingTokenizer struct {
	tokenizer.Chars
	failOn string
}

func (f failingTokenizer) Encode(text string) ([]int, error) {
	if text == f.failOn {
		return nil, &tokenizer.TokenizationError{Text: text, Reason: "unsupported"}
	}
	return f.Chars.Encode(text)
}

func TestPrepareShape(t *testing.T) {
	examples, err := Builtin(Train)
	if err != nil {
		t.Fatal(err)
	}

	for _, maxLength := range []int{1, 16, 512, 4096} {
		records, err := Prepare(examples, tokenizer.Chars{}, maxLength)
		if err != nil {
			t.Fatalf("Prepare(%d) error = %v", maxLength, err)
		}
		if len(records) != len(examples) {
			t.Fatalf("Prepare(%d) returned %d records, want %d", maxLength, len(records), len(examples))
		}
		for i, rec := range records {
			if len(rec.InputIDs) != maxLength || len(rec.AttentionMask) != maxLength || len(rec.Labels) != maxLength {
				t.Errorf("record %d lengths = %d/%d/%d, want %d", i, len(rec.InputIDs), len(rec.AttentionMask), len(rec.Labels), maxLength)
			}
		}
	}
}

func TestPrepareIgnoreCountMatchesPadding(t *testing.T) {
	examples, err := Builtin(Validation)
	if err != nil {
		t.Fatal(err)
	}
	tok := tokenizer.Chars{}
	const maxLength = 128

	records, err := Prepare(examples, tok, maxLength)
	if err != nil {
		t.Fatal(err)
	}
	for i, rec := range records {
		raw, _ := tok.Encode(examples[i].SQL)
		padded, _ := pad(raw, maxLength, tok.PadID())

		var pads, ignored int
		for j := range padded {
			if padded[j] == tok.PadID() {
				pads++
			}
			if rec.Labels[j] == IgnoreIndex {
				ignored++
			} else if rec.Labels[j] != padded[j] {
				t.Errorf("record %d label %d = %d, want %d", i, j, rec.Labels[j], padded[j])
			}
		}
		if pads != ignored {
			t.Errorf("record %d has %d ignored labels and %d padding tokens", i, ignored, pads)
		}
	}
}

func TestPrepareSingleExample(t *testing.T) {
	tok := tokenizer.Chars{}
	ex := Example{Question: "q", SQL: "AB"}
	maxLength := len(prompt.Build(prompt.Schema, "q")) + 2

	records, err := Prepare([]Example{ex}, tok, maxLength)
	if err != nil {
		t.Fatal(err)
	}
	rec := records[0]

	a, _ := tok.Encode("A")
	b, _ := tok.Encode("B")
	wantLabels := make([]int, maxLength)
	for i := range wantLabels {
		wantLabels[i] = IgnoreIndex
	}
	wantLabels[0], wantLabels[1] = a[0], b[0]
	if diff := cmp.Diff(wantLabels, rec.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	if got := tok.Decode(rec.InputIDs); got != prompt.Build(prompt.Schema, "q") {
		t.Errorf("input decodes to %q", got)
	}
	if rec.AttentionMask[maxLength-3] != 1 || rec.AttentionMask[maxLength-2] != 0 || rec.AttentionMask[maxLength-1] != 0 {
		t.Errorf("attention mask tail = %v, want [1 0 0]", rec.AttentionMask[maxLength-3:])
	}
}

func TestPrepareTruncatesSilently(t *testing.T) {
	records, err := Prepare([]Example{{Question: "q", SQL: "SELECT 1;"}}, tokenizer.Chars{}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got := (tokenizer.Chars{}).Decode(records[0].Labels); got != "SELE" {
		t.Errorf("truncated labels decode to %q, want %q", got, "SELE")
	}
	for _, l := range records[0].Labels {
		if l == IgnoreIndex {
			t.Errorf("fully used target must not contain ignored positions")
		}
	}
}

func TestPrepareTokenizationError(t *testing.T) {
	examples := []Example{
		{Question: "ok", SQL: "SELECT 1;"},
		{Question: "bad", SQL: "SELECT ☃;"},
	}
	tok := failingTokenizer{failOn: "SELECT ☃;"}

	_, err := Prepare(examples, tok, 32)
	var tokErr *tokenizer.TokenizationError
	if !errors.As(err, &tokErr) {
		t.Fatalf("Prepare() error = %v, want *TokenizationError", err)
	}
}

func TestPrepareRejectsNonPositiveLength(t *testing.T) {
	if _, err := Prepare(nil, tokenizer.Chars{}, 0); err == nil {
		t.Errorf("Prepare() with max length 0 should fail")
	}
}

func TestPrepareEmpty(t *testing.T) {
	records, err := Prepare(nil, tokenizer.Chars{}, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("Prepare(nil) returned %d records", len(records))
	}
}

func TestMaskPadding(t *testing.T) {
	got := MaskPadding([]int{5, 0, 7, 0, 0}, 0)
	want := []int{5, IgnoreIndex, 7, IgnoreIndex, IgnoreIndex}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MaskPadding() mismatch (-want +got):\n%s", diff)
	}
}
