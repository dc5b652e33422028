package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/modfin/megatune/internal/db"
	"github.com/modfin/megatune/internal/train"
	"github.com/urfave/cli/v3"
)

const stopFile = "STOP"

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "supervise an external training run",
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "apply early stopping to epoch reports and signal the trainer to stop",
				Description: "Reads one JSON object per line, {\"epoch\": 1, \"best_metric\": 0.42}, from --metrics or stdin. " +
					"When validation loss has not improved for --patience epochs a STOP file is written to --out.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "metrics",
						Usage: "file with epoch reports, - for stdin",
						Value: "-",
					},
					&cli.StringFlag{
						Name:    "out",
						Usage:   "directory the trainer watches for the STOP file",
						Value:   "./gpt-finetuned-sql-v1",
						Sources: cli.EnvVars("MEGATUNE_OUT"),
					},
					&cli.StringFlag{
						Name:  "run",
						Usage: "name of the training run, defaults to the current time",
					},
					&cli.IntFlag{
						Name:  "patience",
						Usage: "defaults to early_stopping_patience in the training arguments of --out",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					run := cmd.String("run")
					if run == "" {
						run = time.Now().UTC().Format("20060102T150405Z")
					}
					logger := slog.Default().With("run", run)

					var in io.Reader = os.Stdin
					if path := cmd.String("metrics"); path != "-" {
						f, err := os.Open(path)
						if err != nil {
							return fmt.Errorf("failed to open file %s: %w", path, err)
						}
						defer f.Close()
						in = f
					}

					conn, queries, err := db.Open(ctx, cmd.String("db"))
					if err != nil {
						return fmt.Errorf("failed to open database file, %s: %w", "file://"+cmd.String("db"), err)
					}
					defer conn.Close()

					record := func(ctx context.Context, step train.Step) error {
						_, err := queries.AddEpoch(ctx, run, step.State.Epoch, step.State.BestMetric, step.Tracker.Bad, step.Decision.String())
						return err
					}

					patience := int(cmd.Int("patience"))
					if patience <= 0 {
						args, err := train.ReadArguments(cmd.String("out"))
						if err != nil {
							return err
						}
						patience = args.EarlyStoppingPatience
					}
					logger.Debug("watching epochs", "patience", patience)

					last, err := train.Watch(ctx, in, train.NewEarlyStopping(patience), record)
					if err != nil {
						return err
					}
					if last.Decision != train.Stop {
						logger.Info("Metrics ended without early stopping", "epoch", last.State.Epoch, "best", last.Tracker.Best)
						return nil
					}

					path, err := writeStop(cmd.String("out"), run, last)
					if err != nil {
						return err
					}
					logger.Info("Early stopping at epoch", "epoch", last.State.Epoch, "stop_file", path)
					return nil
				},
			},
			{
				Name:      "history",
				Usage:     "print the recorded epochs of a run",
				ArgsUsage: "<run>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					conn, queries, err := db.Open(ctx, cmd.String("db"))
					if err != nil {
						return fmt.Errorf("failed to open database file, %s: %w", "file://"+cmd.String("db"), err)
					}
					defer conn.Close()

					epochs, err := queries.ListEpochs(ctx, cmd.Args().First())
					if err != nil {
						return fmt.Errorf("failed to query database: %w", err)
					}
					for _, e := range epochs {
						fmt.Printf("%g\t%.6f\t%d\t%s\n", e.Epoch, e.BestMetric, e.BadEpochs, e.Decision)
					}
					return nil
				},
			},
		},
	}
}

type stopSignal struct {
	Run        string    `json:"run"`
	Epoch      float64   `json:"epoch"`
	BestMetric float64   `json:"best_metric"`
	BadEpochs  int       `json:"bad_epochs"`
	StoppedAt  time.Time `json:"stopped_at"`
}

func writeStop(dir string, run string, step train.Step) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	data, err := json.Marshal(stopSignal{
		Run:        run,
		Epoch:      step.State.Epoch,
		BestMetric: step.Tracker.Best,
		BadEpochs:  step.Tracker.Bad,
		StoppedAt:  time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, stopFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write stop file: %w", err)
	}
	return path, nil
}
