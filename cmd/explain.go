package cmd

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/vcs"
	"github.com/codexautotest/internal/workflow"
)

// ExplainCommand returns the explain command
func ExplainCommand() *cli.Command {
	return &cli.Command{
		Name:      "explain",
		Usage:     "Explain what the given code snippet or file does",
		ArgsUsage: "TARGET[:START-END]",
		Flags: flags([]cli.Flag{
			&cli.StringFlag{Name: "language", Usage: "Language override for code explanation"},
		}, modelFlags()),
		Action: runExplain,
	}
}

func runExplain(c *cli.Context) error {
	if c.NArg() < 1 {
		return apperr.New(apperr.KindMissingInput, "missing required argument: TARGET")
	}
	target := c.Args().Get(0)
	tgt, err := workflow.ParseTarget(target)
	if err != nil {
		return err
	}
	if _, err := tgt.Snippet(); err != nil {
		return err
	}

	cfg, err := loadConfig(c, configOptional)
	if err != nil {
		return err
	}
	env, err := newEnv(c, cfg)
	if err != nil {
		return err
	}
	return workflow.NewRunner(env).Explain(c.Context, workflow.ExplainOptions{
		Target:   target,
		Language: c.String("language"),
		Template: cfg.Prompt(prompts.KeyExplain),
	})
}

// newDiffSource returns where commit reads staged changes from. Tests
// replace it.
var newDiffSource = func() workflow.DiffSource {
	return vcs.NewGit()
}

// CommitCommand returns the commit command
func CommitCommand() *cli.Command {
	return &cli.Command{
		Name:  "commit",
		Usage: "Generate a conventional commit message for staged changes",
		Flags: flags([]cli.Flag{
			&cli.BoolFlag{Name: "staged", Usage: "Use staged changes"},
		}, modelFlags()),
		Action: runCommit,
	}
}

func runCommit(c *cli.Context) error {
	if !c.Bool("staged") {
		return apperr.New(apperr.KindMissingInput, "Please specify --staged to generate commit message for staged changes.")
	}
	src := newDiffSource()
	staged, err := src.StagedDiff(c.Context)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c, configOptional)
	if err != nil {
		return err
	}
	env, err := newEnv(c, cfg)
	if err != nil {
		return err
	}
	return workflow.NewRunner(env).Commit(c.Context, fixedDiff(staged), cfg.Prompt(prompts.KeyCommit))
}

// fixedDiff serves a diff that was already read.
type fixedDiff string

func (d fixedDiff) StagedDiff(context.Context) (string, error) { return string(d), nil }
