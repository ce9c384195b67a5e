package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/codexautotest/internal/config"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/workflow"
)

// InitCommand returns the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Initialize codex-autotest in the current repository",
		Action: runInit,
	}
}

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (.yaml, .yml or .toml)",
						Value:   config.DefaultPath,
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
		},
	}
}

func runInit(c *cli.Context) error {
	configPath := c.String("config")

	if err := config.InitConfig(configPath); err != nil {
		errorf(c, "%s", err)
		return nil
	}
	if err := os.MkdirAll(workflow.TestsDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", workflow.TestsDir, err)
	}

	fmt.Fprintf(c.App.Writer, "Initialized codex-autotest with config at %s and %s/ directory.\n", configPath, workflow.TestsDir)
	return nil
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		errorf(c, "failed to initialize config: %s", err)
		return nil
	}

	fmt.Fprintf(c.App.Writer, "Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	configPath := c.String("config")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if provider, err := llm.ParseProvider(cfg.Model.Provider); err == nil {
		PrintCredentialCheck(c.App.Writer, CheckCredentials(provider, cfg.Model.APIKey))
	}
	fmt.Fprintln(c.App.Writer, "Configuration is valid")
	return nil
}
