package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/modfin/henry/slicez"
	"github.com/modfin/megatune/internal/ai"
	"github.com/modfin/megatune/internal/dataset"
	"github.com/modfin/megatune/internal/db"
	"github.com/modfin/megatune/internal/prompt"
	"github.com/modfin/megatune/internal/tokenizer"
	"github.com/modfin/megatune/internal/train"
	"github.com/urfave/cli/v3"
)

func prepareCommand() *cli.Command {
	return &cli.Command{
		Name:  "prepare",
		Usage: "tokenize the training and validation examples and write the trainer settings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Usage:   "checkpoint directory to write the datasets and checkpoint.json to",
				Value:   "./gpt-finetuned-sql-v1",
				Sources: cli.EnvVars("MEGATUNE_OUT"),
			},
			&cli.IntFlag{
				Name:  "length",
				Usage: "fixed sequence length of inputs and labels",
				Value: 512,
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "tiktoken encoding, or 'char'",
				Value: tokenizer.DefaultEncoding,
			},
			&cli.StringFlag{
				Name:  "train-csv",
				Usage: "csv with question and sql columns, defaults to the builtin examples",
			},
			&cli.StringFlag{
				Name:  "validation-csv",
				Usage: "csv with question and sql columns, defaults to the builtin examples",
			},
			&cli.BoolFlag{
				Name:  "from-db",
				Usage: "read the examples from the example store instead",
			},

			&cli.FloatFlag{
				Name:  "learning-rate",
				Value: defaultArgs.LearningRate,
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "per device train batch size",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "grad-accum",
				Usage: "gradient accumulation steps",
				Value: 16,
			},
			&cli.FloatFlag{
				Name:  "epochs",
				Value: defaultArgs.NumTrainEpochs,
			},
			&cli.FloatFlag{
				Name:  "weight-decay",
				Value: defaultArgs.WeightDecay,
			},
			&cli.IntFlag{
				Name:  "eval-steps",
				Usage: "evaluate and save every n steps",
				Value: 500,
			},
			&cli.IntFlag{
				Name:  "save-total-limit",
				Value: 2,
			},
			&cli.BoolFlag{
				Name:  "fp16",
				Value: defaultArgs.FP16,
			},
			&cli.IntFlag{
				Name:  "patience",
				Usage: "evaluations without improvement before stopping",
				Value: train.DefaultPatience,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out := cmd.String("out")
			length := int(cmd.Int("length"))

			tok, err := tokenizer.New(tokenizer.Config{Encoding: cmd.String("encoding")})
			if err != nil {
				return err
			}

			sources := map[dataset.Split]string{
				dataset.Train:      cmd.String("train-csv"),
				dataset.Validation: cmd.String("validation-csv"),
			}

			var queries *db.Queries
			if cmd.Bool("from-db") {
				conn, q, err := db.Open(ctx, cmd.String("db"))
				if err != nil {
					return fmt.Errorf("failed to open database file, %s: %w", "file://"+cmd.String("db"), err)
				}
				defer conn.Close()
				queries = q
			}

			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}

			for _, split := range dataset.Splits {
				logger := slog.Default().With("split", split)

				examples, err := loadExamples(ctx, queries, split, sources[split])
				if err != nil {
					return err
				}

				records, err := dataset.Prepare(examples, tok, length)
				if err != nil {
					return fmt.Errorf("failed to prepare %s examples: %w", split, err)
				}

				path := filepath.Join(out, string(split)+".jsonl")
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				err = dataset.WriteJSONL(f, records)
				f.Close()
				if err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}

				logger.Info("Wrote dataset", "path", path, "examples", len(records))
			}

			pad, eos := tok.PadID(), tok.EOSID()
			ckpt := ai.Checkpoint{
				Encoding:    cmd.String("encoding"),
				PadTokenID:  &pad,
				EOSTokenID:  &eos,
				MaxLength:   ai.DefaultMaxLength,
				Instruction: prompt.Instruction,
				Model:       cmd.String("llm-model"),
				CreatedAt:   time.Now().UTC(),
			}
			if err := ai.WriteCheckpoint(out, ckpt); err != nil {
				return err
			}
			slog.Default().Info("Wrote checkpoint manifest", "path", filepath.Join(out, ai.CheckpointFile))

			args := trainingArguments(cmd, out)
			if err := train.WriteArguments(out, args); err != nil {
				return err
			}
			slog.Default().Info("Wrote training arguments", "path", filepath.Join(out, train.ArgumentsFile),
				"learning_rate", args.LearningRate,
				"epochs", args.NumTrainEpochs,
			)
			return nil
		},
	}
}

var defaultArgs = train.DefaultArguments("")

func trainingArguments(cmd *cli.Command, out string) train.Arguments {
	args := train.DefaultArguments(out)
	args.LearningRate = cmd.Float("learning-rate")
	args.PerDeviceTrainBatchSize = int(cmd.Int("batch-size"))
	args.GradientAccumulationSteps = int(cmd.Int("grad-accum"))
	args.NumTrainEpochs = cmd.Float("epochs")
	args.WeightDecay = cmd.Float("weight-decay")
	args.EvalSteps = int(cmd.Int("eval-steps"))
	args.SaveSteps = args.EvalSteps
	args.SaveTotalLimit = int(cmd.Int("save-total-limit"))
	args.FP16 = cmd.Bool("fp16")
	args.EarlyStoppingPatience = int(cmd.Int("patience"))
	return args
}

// loadExamples reads a split from the store when queries is set, otherwise
// from path, falling back to the builtin examples.
func loadExamples(ctx context.Context, queries *db.Queries, split dataset.Split, path string) ([]dataset.Example, error) {
	if queries != nil {
		stored, err := queries.ListExamples(ctx, string(split))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s examples: %w", split, err)
		}
		return slicez.Map(stored, func(e db.Example) dataset.Example {
			return dataset.Example{Question: e.Question, SQL: e.SQL}
		}), nil
	}

	if path == "" {
		return dataset.Builtin(split)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	examples, err := dataset.LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return examples, nil
}
