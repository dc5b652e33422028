package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/modfin/megatune/internal/prompt"
	"github.com/modfin/megatune/internal/tokenizer"
)

const CheckpointFile = "checkpoint.json"

const DefaultMaxLength = 600

var ErrPromptSkew = errors.New("checkpoint was prepared with a different instruction")

// Checkpoint is the part of a checkpoint directory megatune owns. The model
// weights next to it belong to the training framework. Absent token ids
// resolve to the encoding's end of text token.
type Checkpoint struct {
	Encoding    string    `json:"encoding"`
	PadTokenID  *int      `json:"pad_token_id,omitempty"`
	EOSTokenID  *int      `json:"eos_token_id,omitempty"`
	MaxLength   int       `json:"max_length"`
	Instruction string    `json:"instruction"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func DefaultCheckpoint() Checkpoint {
	return Checkpoint{
		Encoding:    tokenizer.DefaultEncoding,
		MaxLength:   DefaultMaxLength,
		Instruction: prompt.Instruction,
	}
}

// ReadCheckpoint reads the manifest in dir. A directory without one gets the
// defaults.
func ReadCheckpoint(dir string) (Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(dir, CheckpointFile))
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultCheckpoint(), nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to read checkpoint manifest: %w", err)
	}

	ckpt := DefaultCheckpoint()
	if err := json.Unmarshal(data, &ckpt); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to parse checkpoint manifest: %w", err)
	}
	if ckpt.Instruction != prompt.Instruction {
		return Checkpoint{}, fmt.Errorf("instruction %q, %w", ckpt.Instruction, ErrPromptSkew)
	}
	if ckpt.MaxLength <= 0 {
		return Checkpoint{}, fmt.Errorf("invalid checkpoint: max_length must be positive, got %d", ckpt.MaxLength)
	}
	return ckpt, nil
}

func WriteCheckpoint(dir string, ckpt Checkpoint) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	data, err := json.MarshalIndent(ckpt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, CheckpointFile), data, 0o644)
}

// Runtime owns the model and tokenizer for the lifetime of a process. It is
// loaded once at startup and closed at shutdown.
type Runtime struct {
	Model     LanguageModel
	Tokenizer tokenizer.Tokenizer
	MaxLength int
}

// LoadRuntime pairs model with the tokenizer described by the checkpoint
// in dir. A positive maxLength overrides the checkpoint's.
func LoadRuntime(dir string, model LanguageModel, maxLength int) (*Runtime, error) {
	if model == nil {
		return nil, ErrNoModelProvided
	}
	ckpt, err := ReadCheckpoint(dir)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.New(tokenizer.Config{
		Encoding:   ckpt.Encoding,
		PadTokenID: ckpt.PadTokenID,
		EOSTokenID: ckpt.EOSTokenID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	if maxLength <= 0 {
		maxLength = ckpt.MaxLength
	}

	slog.Default().Debug("runtime loaded", "checkpoint", dir, "encoding", ckpt.Encoding, "max_length", maxLength)
	return &Runtime{
		Model:     model,
		Tokenizer: tok,
		MaxLength: maxLength,
	}, nil
}

func (r *Runtime) GenerateSQL(ctx context.Context, question string) (string, error) {
	return GenerateSQL(ctx, question, r.Model, r.Tokenizer, r.MaxLength)
}

// Close releases the model if it holds resources.
func (r *Runtime) Close() error {
	if c, ok := r.Model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
