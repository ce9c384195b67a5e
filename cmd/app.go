package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/codexautotest/internal/config"
	"github.com/codexautotest/internal/logging"
	"github.com/codexautotest/internal/terminal"
)

// NewApp builds the codex-autotest command line application.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    "codex-autotest",
		Usage:   "AI-assisted development commands (explain, test generation, docstrings, refactoring, commits, security audits)",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   config.DefaultPath,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Send every prompt to the model, even repeated ones",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable coloured and styled output",
			},
			&cli.StringFlag{
				Name:  "transcript-dir",
				Usage: "Write prompts and responses of this run to a log file in `DIR`",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables (API keys) from `FILE` before running",
			},
		},
		Before: startRun,
		After:  finishRun,
		Commands: []*cli.Command{
			InitCommand(),
			ConfigCommand(),
			GenerateCommand(),
			GenerateTestsCommand(),
			ReviewCommand(),
			MutateCommand(),
			ExplainCommand(),
			DocstringCommand(),
			RefactorCommand(),
			CommitCommand(),
			AuditSecurityCommand(),
		},
	}
}

func startRun(c *cli.Context) error {
	if envFile := c.String("env-file"); envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}
	run, err := logging.Start(logging.Options{
		Writer:        c.App.ErrWriter,
		Verbose:       c.Bool("verbose"),
		NoColor:       !terminal.ColorEnabled(c.App.ErrWriter, c.Bool("no-color")),
		TranscriptDir: c.String("transcript-dir"),
	})
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[runMetadataKey] = run
	return nil
}

func finishRun(c *cli.Context) error {
	if run := currentRun(c); run != nil {
		return run.Close()
	}
	return nil
}
