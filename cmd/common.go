package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/codexautotest/internal/config"
	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/logging"
	"github.com/codexautotest/internal/retry"
	"github.com/codexautotest/internal/security"
	"github.com/codexautotest/internal/terminal"
	"github.com/codexautotest/internal/walker"
	"github.com/codexautotest/internal/workflow"
)

const runMetadataKey = "run"

// configNeed says how strictly a command depends on the configuration file.
type configNeed int

const (
	configRequired configNeed = iota
	// configUnlessPath requires the file only when --path is not given.
	configUnlessPath
	configOptional
)

func loadConfig(c *cli.Context, need configNeed) (*config.Config, error) {
	path := c.String("config")
	switch need {
	case configRequired:
		return config.LoadConfig(path)
	case configUnlessPath:
		if c.String("path") == "" {
			return config.LoadConfig(path)
		}
	}
	return config.LoadOrDefault(path)
}

// newModelClient builds the model client for one invocation. Tests replace
// it with a fake.
var newModelClient = func(ctx context.Context, cfg *config.Config, run *logging.Run) (llm.Client, error) {
	provider, err := llm.ParseProvider(cfg.Model.Provider)
	if err != nil {
		return nil, err
	}
	key, err := llm.ResolveAPIKey(provider, cfg.Model.APIKey)
	if err != nil {
		return nil, err
	}
	connector, err := llm.NewConnector(ctx, llm.ConnectorOptions{
		Provider:    provider,
		APIKey:      key,
		BaseURL:     cfg.Model.BaseURL,
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	policy := retry.ModelPolicy()
	policy.MaxRetries = cfg.Model.MaxRetries
	opts := []llm.ResilientOption{
		llm.WithPolicy(policy),
		llm.WithRequestsPerMinute(cfg.Model.RequestsPerMinute),
		llm.WithTimeout(cfg.Model.Timeout),
	}
	if run != nil {
		opts = append(opts, llm.WithRecorder(run), llm.WithLogger(run.Logger()))
	}
	return llm.NewResilientClient(connector, opts...), nil
}

// currentRun returns the logging run started by the app's Before hook.
func currentRun(c *cli.Context) *logging.Run {
	if c.App.Metadata == nil {
		return nil
	}
	run, _ := c.App.Metadata[runMetadataKey].(*logging.Run)
	return run
}

// newEnv wires the model client, diff engine and output streams for a
// model-calling command.
func newEnv(c *cli.Context, cfg *config.Config) (*workflow.Env, error) {
	model, err := newModelClient(c.Context, cfg, currentRun(c))
	if err != nil {
		return nil, err
	}
	cache := llm.NewCache()
	color := terminal.ColorEnabled(c.App.Writer, c.Bool("no-color"))

	return &workflow.Env{
		Model: llm.NewCachingClient(model, cache, c.Bool("no-cache")),
		Options: llm.Options{
			Model:     c.String("model"),
			MaxTokens: c.Int("max-tokens"),
		},
		Engine:   diff.NewEngine(c.App.Writer, color),
		Out:      c.App.Writer,
		Err:      c.App.ErrWriter,
		Markdown: terminal.NewMarkdown(c.App.Writer, color),
		Guard:    security.NewPromptGuard(),
		Cache:    cache,
	}, nil
}

// requireSource fails with MissingInput when src does not exist, before any
// model client is built.
func requireSource(src string) error {
	_, err := walker.New(src, "")
	return err
}

// firstNonEmpty picks a flag value over its configured fallback.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func logSummary(action string, sum workflow.Summary) {
	log.Debug().
		Str("command", action).
		Int("total", sum.Total()).
		Int("succeeded", sum.Succeeded).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Dur("duration", sum.Duration).
		Msg("Command finished")
}

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "model",
			Usage: "Override the model name for this run",
		},
		&cli.IntFlag{
			Name:  "max-tokens",
			Usage: "Maximum tokens in each model response",
		},
	}
}

func pathFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:  "path",
		Usage: usage,
	}
}

func languageFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "language",
		Usage: "Language override",
	}
}

func applyFlag(usage string) cli.Flag {
	return &cli.BoolFlag{
		Name:  "apply",
		Usage: usage,
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func errorf(c *cli.Context, format string, args ...interface{}) {
	fmt.Fprintf(c.App.ErrWriter, format+"\n", args...)
}
