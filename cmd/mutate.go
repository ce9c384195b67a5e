package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/codexautotest/internal/mutation"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/workflow"
)

// newMutationTool locates the mutation tool. Tests replace it.
var newMutationTool = func() (mutation.Tool, error) {
	return mutation.NewMutmut("")
}

// MutateCommand returns the mutate command
func MutateCommand() *cli.Command {
	return &cli.Command{
		Name:  "mutate",
		Usage: "Run mutation-driven test amplification to kill surviving mutants",
		Flags: flags([]cli.Flag{
			pathFlag("Source path to mutate and generate kill tests"),
			languageFlag(),
			&cli.StringFlag{Name: "framework", Usage: "Framework override"},
		}, modelFlags()),
		Action: runMutate,
	}
}

func runMutate(c *cli.Context) error {
	cfg, err := loadConfig(c, configRequired)
	if err != nil {
		return err
	}
	src, err := cfg.Source(c.String("path"))
	if err != nil {
		return err
	}
	tool, err := newMutationTool()
	if err != nil {
		return err
	}
	env, err := newEnv(c, cfg)
	if err != nil {
		return err
	}

	sum, err := workflow.NewRunner(env).Mutate(c.Context, tool, workflow.MutateOptions{
		Path:      src,
		Language:  firstNonEmpty(c.String("language"), cfg.Language),
		Framework: firstNonEmpty(c.String("framework"), cfg.Framework),
		Template:  cfg.Prompt(prompts.KeyKillMutant),
	})
	logSummary(c.Command.Name, sum)
	return err
}
