package dataset

import (
	"fmt"
	"log/slog"

	"github.com/modfin/megatune/internal/prompt"
	"github.com/modfin/megatune/internal/tokenizer"
)

// IgnoreIndex marks label positions the loss function skips.
const IgnoreIndex = -100

// Tokenized is a training record for the external trainer. All three
// sequences have the same fixed length.
type Tokenized struct {
	InputIDs      []int `json:"input_ids"`
	AttentionMask []int `json:"attention_mask"`
	Labels        []int `json:"labels"`
}

// Prepare tokenizes every example into a prompt input and a masked label
// sequence, each truncated or right padded to exactly maxLength. Overlong
// sequences are cut without warning.
func Prepare(examples []Example, tok tokenizer.Tokenizer, maxLength int) ([]Tokenized, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", maxLength)
	}

	out := make([]Tokenized, 0, len(examples))
	var truncated int
	for i, ex := range examples {
		input, err := tok.Encode(prompt.Build(prompt.Schema, ex.Question))
		if err != nil {
			return nil, fmt.Errorf("example %d input: %w", i, err)
		}
		target, err := tok.Encode(ex.SQL)
		if err != nil {
			return nil, fmt.Errorf("example %d target: %w", i, err)
		}
		if len(input) > maxLength || len(target) > maxLength {
			truncated++
		}

		ids, mask := pad(input, maxLength, tok.PadID())
		labels, _ := pad(target, maxLength, tok.PadID())

		out = append(out, Tokenized{
			InputIDs:      ids,
			AttentionMask: mask,
			Labels:        MaskPadding(labels, tok.PadID()),
		})
	}

	slog.Default().Debug("prepared examples", "count", len(out), "max_length", maxLength, "truncated", truncated)
	return out, nil
}

// MaskPadding replaces every pad id with IgnoreIndex, in place.
func MaskPadding(labels []int, padID int) []int {
	for i, l := range labels {
		if l == padID {
			labels[i] = IgnoreIndex
		}
	}
	return labels
}

func pad(ids []int, length int, padID int) ([]int, []int) {
	out := make([]int, length)
	mask := make([]int, length)
	n := copy(out, ids)
	for i := 0; i < n; i++ {
		mask[i] = 1
	}
	for i := n; i < length; i++ {
		out[i] = padID
	}
	return out, mask
}
