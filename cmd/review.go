package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/review"
	"github.com/codexautotest/internal/terminal"
	"github.com/codexautotest/internal/workflow"
)

// newPrompter builds the prompter used by review. Tests replace it.
var newPrompter = func(c *cli.Context) terminal.Prompter {
	return terminal.NewConsole(c.App.Reader, c.App.Writer)
}

// ReviewCommand returns the review command
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Review and regenerate tests interactively",
		ArgsUsage: "TEST_FILE",
		Flags:     modelFlags(),
		Action:    runReview,
	}
}

func runReview(c *cli.Context) error {
	if c.NArg() < 1 {
		return apperr.New(apperr.KindMissingInput, "missing required argument: TEST_FILE")
	}
	testFile := c.Args().Get(0)

	cfg, err := loadConfig(c, configRequired)
	if err != nil {
		return err
	}
	if cfg.SrcPath == "" {
		return apperr.New(apperr.KindMissingInput, "src_path is not configured in %s", c.String("config"))
	}
	if _, err := os.Stat(testFile); err != nil {
		return apperr.New(apperr.KindMissingInput, "Test file %s not found.", testFile)
	}
	srcFile, err := review.SourceFor(testFile, workflow.TestsDir, cfg.SrcPath, workflow.ExtensionFor(cfg.Language))
	if err != nil {
		return err
	}
	code, err := os.ReadFile(srcFile)
	if err != nil {
		return apperr.New(apperr.KindMissingInput, "Could not find source file %s for test %s.", srcFile, testFile)
	}

	env, err := newEnv(c, cfg)
	if err != nil {
		return err
	}

	session := &review.Session{
		TestPath: testFile,
		Template: cfg.Prompt(prompts.KeyUnitTest),
		Fields: prompts.Fields{
			prompts.FieldLanguage:  cfg.Language,
			prompts.FieldFramework: cfg.Framework,
			prompts.FieldCode:      string(code),
		},
		Model:    env.Model,
		Options:  env.Options,
		Prompter: newPrompter(c),
		Guard:    env.Guard,
		Out:      c.App.Writer,
		Err:      c.App.ErrWriter,
	}
	res, err := session.Run(c.Context)
	if err != nil {
		return err
	}
	log.Debug().
		Bool("accepted", res.Outcome == review.Accepted).
		Int("rounds", res.Rounds).
		Dur("duration", res.Duration).
		Msg("Review finished")
	return nil
}
