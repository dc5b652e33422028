package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modfin/clix"
	"github.com/modfin/henry/slicez"
	"github.com/modfin/megatune/internal/ai"
	"github.com/modfin/megatune/internal/dataset"
	"github.com/modfin/megatune/internal/db"
	"github.com/urfave/cli/v3"
)

func examplesCommand() *cli.Command {
	return &cli.Command{
		Name:  "examples",
		Usage: "manage the example store",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "add examples to the store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "train-csv",
						Usage: "csv with question and sql columns, defaults to the builtin examples",
					},
					&cli.StringFlag{
						Name:  "validation-csv",
						Usage: "csv with question and sql columns, defaults to the builtin examples",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					conn, queries, err := db.Open(ctx, cmd.String("db"))
					if err != nil {
						return fmt.Errorf("failed to open database file, %s: %w", "file://"+cmd.String("db"), err)
					}
					defer conn.Close()

					sources := map[dataset.Split]string{
						dataset.Train:      cmd.String("train-csv"),
						dataset.Validation: cmd.String("validation-csv"),
					}

					for _, split := range dataset.Splits {
						examples, err := loadExamples(ctx, nil, split, sources[split])
						if err != nil {
							return err
						}

						var added int
						for _, ex := range examples {
							logger := slog.Default().With("split", split, "question", ex.Question)

							dirty, err := queries.DirtyExample(ctx, string(split), ex.Question, ex.SQL)
							if err != nil {
								return fmt.Errorf("failed to check if example is dirty: %w", err)
							}
							if !dirty {
								logger.Debug("skipping already existing example")
								continue
							}

							stored, err := queries.AddExample(ctx, string(split), ex.Question, ex.SQL)
							if err != nil {
								return fmt.Errorf("failed to add example: %w", err)
							}
							logger.Debug("added example", "id", stored.ID)
							added++
						}
						slog.Default().Info("Imported examples", "split", split, "read", len(examples), "added", added)
					}
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "print stored examples",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "split",
						Value: db.AllSplits,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					conn, queries, err := db.Open(ctx, cmd.String("db"))
					if err != nil {
						return fmt.Errorf("failed to open database file, %s: %w", "file://"+cmd.String("db"), err)
					}
					defer conn.Close()

					items, err := queries.ListExamples(ctx, cmd.String("split"))
					if err != nil {
						return fmt.Errorf("failed to query database: %w", err)
					}
					for _, ex := range items {
						fmt.Printf("%d\t%s\t%s\t%s\n", ex.ID, ex.Split, ex.Question, ex.SQL)
					}
					return nil
				},
			},
			{
				Name:  "embed",
				Usage: "embed the questions of stored examples that lack an embedding from --embed-model",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					proxy, err := ai.New(clix.ParseCommand[ai.APICredentials](cmd), slog.Default())
					if err != nil {
						return fmt.Errorf("failed to create proxy: %w", err)
					}

					conn, queries, err := db.Open(ctx, cmd.String("db"))
					if err != nil {
						return fmt.Errorf("failed to open database file, %s: %w", "file://"+cmd.String("db"), err)
					}
					defer conn.Close()

					embeddingModel := cmd.String("embed-model")

					items, err := queries.ListExamples(ctx, db.AllSplits)
					if err != nil {
						return fmt.Errorf("failed to query database: %w", err)
					}
					pending := slicez.Filter(items, func(ex db.Example) bool {
						return ex.EmbeddingModel != embeddingModel || len(ex.EmbeddingVector) == 0
					})

					for _, ex := range pending {
						vector, err := proxy.EmbedText(ctx, embeddingModel, ex.Question, false)
						if err != nil {
							return err
						}
						if err := queries.SetEmbedding(ctx, ex.ID, embeddingModel, vector); err != nil {
							return fmt.Errorf("failed to store embedding: %w", err)
						}
						slog.Default().Debug("embedded example", "id", ex.ID, "dims", len(vector))
					}
					slog.Default().Info("Embedded examples", "count", len(pending), "model", embeddingModel)
					return nil
				},
			},
			{
				Name:      "similar",
				Usage:     "find stored examples whose question is closest to the given one",
				ArgsUsage: "<question>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "split",
						Value: db.AllSplits,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "the maximum number of examples to return",
						Value: 5,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					question := strings.Join(cmd.Args().Slice(), " ")
					if strings.TrimSpace(question) == "" {
						return ai.ErrEmptyQuestion
					}

					proxy, err := ai.New(clix.ParseCommand[ai.APICredentials](cmd), slog.Default())
					if err != nil {
						return fmt.Errorf("failed to create proxy: %w", err)
					}

					conn, queries, err := db.Open(ctx, cmd.String("db"))
					if err != nil {
						return fmt.Errorf("failed to open database file, %s: %w", "file://"+cmd.String("db"), err)
					}
					defer conn.Close()

					vector, err := proxy.EmbedText(ctx, cmd.String("embed-model"), question, true)
					if err != nil {
						return err
					}

					similar, err := queries.SimilarExamples(ctx, vector, cmd.String("split"), int(cmd.Int("limit")))
					if err != nil {
						return fmt.Errorf("failed to query database: %w", err)
					}
					for _, ex := range similar {
						fmt.Printf("%.4f\t%s\t%s\n\t%s\n", -ex.Distance, ex.Split, ex.Question, ex.SQL)
					}
					return nil
				},
			},
		},
	}
}
