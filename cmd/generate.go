package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/workflow"
)

// GenerateCommand returns the generate command
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate tests for source code files",
		Flags: flags([]cli.Flag{
			pathFlag("Source path to scan for files"),
			languageFlag(),
			&cli.StringFlag{Name: "framework", Usage: "Framework override"},
		}, modelFlags()),
		Action: func(c *cli.Context) error {
			return runTests(c, configRequired, diff.ModeApply)
		},
	}
}

// GenerateTestsCommand returns the generate-tests command
func GenerateTestsCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate-tests",
		Usage: "Generate or preview test files for source code functions and classes",
		Flags: flags([]cli.Flag{
			pathFlag("Source path to scan for files"),
			languageFlag(),
			&cli.StringFlag{Name: "framework", Usage: "Framework override"},
			applyFlag("Apply generated tests instead of showing diff"),
		}, modelFlags()),
		Action: func(c *cli.Context) error {
			return runTests(c, configUnlessPath, diff.ModeFor(c.Bool("apply")))
		},
	}
}

func runTests(c *cli.Context, need configNeed, mode diff.Mode) error {
	cfg, err := loadConfig(c, need)
	if err != nil {
		return err
	}
	src, err := cfg.Source(c.String("path"))
	if err != nil {
		return err
	}
	lang := firstNonEmpty(c.String("language"), cfg.Language)
	w, err := workflow.SourceWalker(src, lang)
	if err != nil {
		return err
	}
	env, err := newEnv(c, cfg)
	if err != nil {
		return err
	}

	sum, err := workflow.NewRunner(env).Run(c.Context, w, workflow.TestJob(workflow.TestOptions{
		Language:  lang,
		Framework: firstNonEmpty(c.String("framework"), cfg.Framework),
		Template:  cfg.Prompt(prompts.KeyUnitTest),
		Mode:      mode,
	}))
	logSummary(c.Command.Name, sum)
	return err
}

// RefactorCommand returns the refactor command
func RefactorCommand() *cli.Command {
	return &cli.Command{
		Name:  "refactor",
		Usage: "Refactor source code files based on the given focus (e.g., performance, readability)",
		Flags: flags([]cli.Flag{
			pathFlag("Source path to scan for files"),
			&cli.StringFlag{Name: "focus", Usage: "Refactoring focus (e.g., performance, readability)"},
			languageFlag(),
			applyFlag("Apply refactoring changes instead of showing diff"),
		}, modelFlags()),
		Action: runRefactor,
	}
}

func runRefactor(c *cli.Context) error {
	cfg, err := loadConfig(c, configUnlessPath)
	if err != nil {
		return err
	}
	src, err := cfg.Source(c.String("path"))
	if err != nil {
		return err
	}
	lang := firstNonEmpty(c.String("language"), cfg.Language)
	w, err := workflow.SourceWalker(src, lang)
	if err != nil {
		return err
	}
	env, err := newEnv(c, cfg)
	if err != nil {
		return err
	}

	sum, err := workflow.NewRunner(env).Run(c.Context, w, workflow.RefactorJob(workflow.RefactorOptions{
		Language: lang,
		Focus:    c.String("focus"),
		Template: cfg.Prompt(prompts.KeyRefactor),
		Mode:     diff.ModeFor(c.Bool("apply")),
	}))
	logSummary(c.Command.Name, sum)
	return err
}

// DocstringCommand returns the docstring command
func DocstringCommand() *cli.Command {
	return &cli.Command{
		Name:  "docstring",
		Usage: "Generate or preview docstring insertions for functions, classes, and methods",
		Flags: flags([]cli.Flag{
			pathFlag("Source path to scan for Python files"),
			applyFlag("Apply changes to files"),
		}, modelFlags()),
		Action: runDocstring,
	}
}

func runDocstring(c *cli.Context) error {
	cfg, err := loadConfig(c, configUnlessPath)
	if err != nil {
		return err
	}
	src, err := cfg.Source(c.String("path"))
	if err != nil {
		return err
	}
	if err := requireSource(src); err != nil {
		return err
	}
	env, err := newEnv(c, cfg)
	if err != nil {
		return err
	}

	sum, err := workflow.NewRunner(env).Docstrings(c.Context, src, workflow.DocstringOptions{
		Template: cfg.Prompt(prompts.KeyDocstring),
		Mode:     diff.ModeFor(c.Bool("apply")),
	})
	logSummary(c.Command.Name, sum)
	return err
}
