package train

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// ArgumentsFile is read by the external trainer next to the prepared datasets.
const ArgumentsFile = "training_args.json"

// Arguments are the trainer settings, named as the trainer expects them.
type Arguments struct {
	OutputDir                 string  `json:"output_dir"`
	EvaluationStrategy        string  `json:"evaluation_strategy"`
	EvalSteps                 int     `json:"eval_steps"`
	LearningRate              float64 `json:"learning_rate"`
	PerDeviceTrainBatchSize   int     `json:"per_device_train_batch_size"`
	GradientAccumulationSteps int     `json:"gradient_accumulation_steps"`
	NumTrainEpochs            float64 `json:"num_train_epochs"`
	WeightDecay               float64 `json:"weight_decay"`
	SaveTotalLimit            int     `json:"save_total_limit"`
	LoggingDir                string  `json:"logging_dir"`
	LoggingSteps              int     `json:"logging_steps"`
	SaveSteps                 int     `json:"save_steps"`
	FP16                      bool    `json:"fp16"`
	LoadBestModelAtEnd        bool    `json:"load_best_model_at_end"`
	MetricForBestModel        string  `json:"metric_for_best_model"`
	EarlyStoppingPatience     int     `json:"early_stopping_patience"`
}

func DefaultArguments(outputDir string) Arguments {
	return Arguments{
		OutputDir:                 outputDir,
		EvaluationStrategy:        "steps",
		EvalSteps:                 500,
		LearningRate:              3e-5,
		PerDeviceTrainBatchSize:   1,
		GradientAccumulationSteps: 16,
		NumTrainEpochs:            2,
		WeightDecay:               0.01,
		SaveTotalLimit:            2,
		LoggingDir:                "./logs",
		LoggingSteps:              100,
		SaveSteps:                 500,
		FP16:                      true,
		LoadBestModelAtEnd:        true,
		MetricForBestModel:        "eval_loss",
		EarlyStoppingPatience:     DefaultPatience,
	}
}

func (a Arguments) Validate() error {
	switch {
	case a.OutputDir == "":
		return errors.New("output_dir is required")
	case a.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be positive, got %g", a.LearningRate)
	case a.PerDeviceTrainBatchSize <= 0:
		return fmt.Errorf("per_device_train_batch_size must be positive, got %d", a.PerDeviceTrainBatchSize)
	case a.GradientAccumulationSteps <= 0:
		return fmt.Errorf("gradient_accumulation_steps must be positive, got %d", a.GradientAccumulationSteps)
	case a.NumTrainEpochs <= 0:
		return fmt.Errorf("num_train_epochs must be positive, got %g", a.NumTrainEpochs)
	case a.WeightDecay < 0:
		return fmt.Errorf("weight_decay must not be negative, got %g", a.WeightDecay)
	case a.LoadBestModelAtEnd && a.EvalSteps != a.SaveSteps:
		// the trainer can only pick a best model among saved evaluations
		return fmt.Errorf("load_best_model_at_end needs eval_steps == save_steps, got %d and %d", a.EvalSteps, a.SaveSteps)
	}
	return nil
}

func WriteArguments(dir string, args Arguments) error {
	if err := args.Validate(); err != nil {
		return fmt.Errorf("invalid training arguments: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	data, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal training arguments: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ArgumentsFile), data, 0o644)
}

// ReadArguments reads the arguments in dir, filling absent fields with the
// defaults for dir.
func ReadArguments(dir string) (Arguments, error) {
	args := DefaultArguments(dir)
	data, err := os.ReadFile(filepath.Join(dir, ArgumentsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return args, nil
	}
	if err != nil {
		return Arguments{}, fmt.Errorf("failed to read training arguments: %w", err)
	}
	if err := json.Unmarshal(data, &args); err != nil {
		return Arguments{}, fmt.Errorf("failed to parse training arguments: %w", err)
	}
	return args, args.Validate()
}
