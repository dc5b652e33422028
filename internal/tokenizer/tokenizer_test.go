package tokenizer

import (
	"errors"
	"strings"
	"testing"
)

func TestSkipSpecial(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "No special", input: "SELECT 1;", want: "SELECT 1;"},
		{name: "Trailing end of text", input: "SELECT 1;<|endoftext|>", want: "SELECT 1;"},
		{name: "Repeated", input: "<|endoftext|>a<|endoftext|><|endoftext|>", want: "a"},
		{name: "Empty", input: "", want: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SkipSpecial(tc.input); got != tc.want {
				t.Errorf("SkipSpecial(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestEncodeRejectsBeforeTokenizing(t *testing.T) {
	// enc is never reached for rejected input, so no vocabulary is needed.
	tok := &BPE{pad: EndOfTextID, eos: EndOfTextID}

	testCases := []struct {
		name   string
		input  string
		reason string
	}{
		{name: "Invalid utf-8", input: "SELECT \xff", reason: "invalid utf-8"},
		{name: "Special token", input: "hello <|endoftext|>", reason: "special token"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tok.Encode(tc.input)
			var tokErr *TokenizationError
			if !errors.As(err, &tokErr) {
				t.Fatalf("Encode() error = %v, want *TokenizationError", err)
			}
			if !strings.Contains(tokErr.Reason, tc.reason) {
				t.Errorf("Reason = %q, want it to mention %q", tokErr.Reason, tc.reason)
			}
		})
	}
}

func TestTokenizationErrorTruncatesText(t *testing.T) {
	err := &TokenizationError{Text: strings.Repeat("a", 100), Reason: "r"}
	msg := err.Error()
	if strings.Count(msg, "a") > 40 {
		t.Errorf("Error() = %q, expected the text to be truncated", msg)
	}
}

func TestIDs(t *testing.T) {
	tok := &BPE{pad: 7, eos: 9}
	if tok.PadID() != 7 || tok.EOSID() != 9 {
		t.Errorf("PadID/EOSID = %d/%d, want 7/9", tok.PadID(), tok.EOSID())
	}
}

func TestSpecialIDs(t *testing.T) {
	zero, seven := 0, 7

	testCases := []struct {
		name    string
		cfg     Config
		native  int
		wantPad int
		wantEOS int
	}{
		{name: "GPT-2 defaults", native: EndOfTextID, wantPad: EndOfTextID, wantEOS: EndOfTextID},
		{name: "cl100k end of text", native: 100257, wantPad: 100257, wantEOS: 100257},
		{name: "Pad override", cfg: Config{PadTokenID: &seven}, native: 100257, wantPad: 7, wantEOS: 100257},
		{name: "Zero is a valid pad", cfg: Config{PadTokenID: &zero}, native: 100257, wantPad: 0, wantEOS: 100257},
		{name: "Eos override carries pad", cfg: Config{EOSTokenID: &seven}, native: 100257, wantPad: 7, wantEOS: 7},
		{name: "Zero is a valid eos", cfg: Config{EOSTokenID: &zero}, native: 100257, wantPad: 0, wantEOS: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pad, eos := specialIDs(tc.cfg, tc.native)
			if pad != tc.wantPad || eos != tc.wantEOS {
				t.Errorf("specialIDs() = %d/%d, want %d/%d", pad, eos, tc.wantPad, tc.wantEOS)
			}
		})
	}
}
