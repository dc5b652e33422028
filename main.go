package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MatusOllah/slogcolor"
	"github.com/modfin/clix"
	"github.com/modfin/megatune/internal/ai"
	"github.com/modfin/megatune/internal/db/vec"
	"github.com/modfin/megatune/internal/web"
	"github.com/urfave/cli/v3"
)

func main() {

	defer func() {
		vec.Statistics()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "megatune",
		Usage: "translate questions about log data into SQL with a fine tuned language model",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Value:   "./megatune.db",
				Sources: cli.EnvVars("MEGATUNE_DB"),
			},
			&cli.StringFlag{
				Name:    "checkpoint",
				Usage:   "checkpoint directory holding checkpoint.json",
				Value:   "./gpt-finetuned-sql-v1",
				Sources: cli.EnvVars("MEGATUNE_CHECKPOINT"),
			},

			&cli.StringFlag{
				Name:    "bellman-url",
				Sources: cli.EnvVars("MEGATUNE_BELLMAN_URL"),
			},
			&cli.StringFlag{
				Name:    "bellman-key",
				Sources: cli.EnvVars("MEGATUNE_BELLMAN_KEY"),
			},
			&cli.StringFlag{
				Name:    "bellman-key-name",
				Value:   "megatune",
				Sources: cli.EnvVars("MEGATUNE_BELLMAN_KEY_NAME"),
			},

			&cli.StringFlag{
				Name:    "vertexai-credential",
				Sources: cli.EnvVars("MEGATUNE_VERTEXAI_CREDENTIAL"),
			},
			&cli.StringFlag{
				Name:    "vertexai-project",
				Sources: cli.EnvVars("MEGATUNE_VERTEXAI_PROJECT"),
			},
			&cli.StringFlag{
				Name:    "vertexai-region",
				Sources: cli.EnvVars("MEGATUNE_VERTEXAI_REGION"),
			},

			&cli.StringFlag{
				Name:    "openai-key",
				Sources: cli.EnvVars("MEGATUNE_OPENAI_KEY"),
			},
			&cli.StringFlag{
				Name:    "anthropic-key",
				Sources: cli.EnvVars("MEGATUNE_ANTHROPIC_KEY"),
			},
			&cli.StringFlag{
				Name:    "voyageai-key",
				Sources: cli.EnvVars("MEGATUNE_VOYAGEAI_KEY"),
			},

			&cli.StringFlag{
				Name:    "llm-model",
				Usage:   "provider/name of a hosted fine tuned model, defaults to the checkpoint's",
				Sources: cli.EnvVars("MEGATUNE_LLM_MODEL"),
			},
			&cli.StringFlag{
				Name:    "embed-model",
				Value:   "OpenAI/text-embedding-3-small",
				Sources: cli.EnvVars("MEGATUNE_EMBED_MODEL"),
			},

			&cli.StringFlag{
				Name:    "completion-url",
				Usage:   "base URL of an OpenAI compatible completions server, takes precedence over --llm-model",
				Sources: cli.EnvVars("MEGATUNE_COMPLETION_URL"),
			},
			&cli.StringFlag{
				Name:    "completion-key",
				Sources: cli.EnvVars("MEGATUNE_COMPLETION_KEY"),
			},
			&cli.StringFlag{
				Name:    "completion-model",
				Sources: cli.EnvVars("MEGATUNE_COMPLETION_MODEL"),
			},
			&cli.IntFlag{
				Name:    "max-length",
				Usage:   "token budget for prompt and generated query, 0 uses the checkpoint's",
				Sources: cli.EnvVars("MEGATUNE_MAX_LENGTH"),
			},

			&cli.BoolFlag{
				Name:    "verbose",
				Sources: cli.EnvVars("MEGATUNE_VERBOSE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelInfo
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slogcolor.NewHandler(os.Stderr, &slogcolor.Options{
				Level:      level,
				TimeFormat: time.DateTime,
			})))
			return ctx, nil
		},

		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the question form",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Value:   ":8501",
						Sources: cli.EnvVars("MEGATUNE_ADDR"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					runtime, err := loadRuntime(cmd)
					if err != nil {
						return err
					}
					defer runtime.Close()

					server := web.NewServer(runtime, slog.Default())
					return web.Serve(ctx, cmd.String("addr"), server.Handler(), slog.Default())
				},
			},
			{
				Name:      "generate",
				Usage:     "generate SQL for a single question",
				ArgsUsage: "<question>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					question := strings.Join(cmd.Args().Slice(), " ")
					if strings.TrimSpace(question) == "" {
						return ai.ErrEmptyQuestion
					}

					runtime, err := loadRuntime(cmd)
					if err != nil {
						return err
					}
					defer runtime.Close()

					sql, err := runtime.GenerateSQL(ctx, question)
					if err != nil {
						return err
					}
					fmt.Println(sql)
					return nil
				},
			},
			prepareCommand(),
			examplesCommand(),
			trainCommand(),
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Default().Error("got error running megatune", "err", err)
	}
}

// loadRuntime picks the language model from the flags and pairs it with the
// checkpoint's tokenizer.
func loadRuntime(cmd *cli.Command) (*ai.Runtime, error) {
	dir := cmd.String("checkpoint")

	var model ai.LanguageModel
	if url := cmd.String("completion-url"); url != "" {
		completion, err := ai.NewCompletionModel(ai.CompletionConfig{
			BaseURL: url,
			APIKey:  cmd.String("completion-key"),
			Model:   cmd.String("completion-model"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create completion model: %w", err)
		}
		model = completion
		slog.Default().Debug("using completion server", "url", url)
	} else {
		proxy, err := ai.New(clix.ParseCommand[ai.APICredentials](cmd), slog.Default())
		if err != nil {
			return nil, fmt.Errorf("failed to create proxy: %w", err)
		}

		fqn := cmd.String("llm-model")
		if fqn == "" {
			ckpt, err := ai.ReadCheckpoint(dir)
			if err != nil {
				return nil, err
			}
			fqn = ckpt.Model
		}
		hosted, err := ai.NewBellmanModel(proxy, fqn)
		if err != nil {
			return nil, err
		}
		model = hosted
		slog.Default().Debug("using hosted model", "model", fqn, "providers", proxy.GenProviders())
	}

	runtime, err := ai.LoadRuntime(dir, model, int(cmd.Int("max-length")))
	if err != nil {
		return nil, fmt.Errorf("failed to load runtime: %w", err)
	}
	return runtime, nil
}
