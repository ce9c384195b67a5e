package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/security"
	"github.com/codexautotest/internal/workflow"
)

// newSecretScanner loads the secret detector. Tests replace it.
var newSecretScanner = func() (security.SecretScanner, error) {
	return security.NewGitleaks()
}

// AuditSecurityCommand returns the audit-security command
func AuditSecurityCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit-security",
		Usage: "Perform a security audit and optionally apply fixes",
		Flags: flags([]cli.Flag{
			pathFlag("Source path to scan for security audit"),
			&cli.StringFlag{Name: "language", Usage: "Language override (e.g., python, javascript)"},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Path to write the audit report",
				Value: workflow.DefaultReportPath,
			},
			&cli.BoolFlag{Name: "apply-fixes", Usage: "Apply suggested security fixes to files"},
			&cli.BoolFlag{Name: "no-secret-scan", Usage: "Skip local secret detection"},
		}, modelFlags()),
		Action: runAuditSecurity,
	}
}

func runAuditSecurity(c *cli.Context) error {
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

	var scanner security.SecretScanner
	if !c.Bool("no-secret-scan") {
		if scanner, err = newSecretScanner(); err != nil {
			log.Warn().Err(err).Msg("Secret detection disabled")
			scanner = nil
		}
	}

	sum, err := workflow.NewRunner(env).Audit(c.Context, src, workflow.AuditOptions{
		Language:    firstNonEmpty(c.String("language"), cfg.Language),
		Template:    cfg.Prompt(prompts.KeyAuditSecurity),
		FixTemplate: cfg.Prompt(prompts.KeyApplyFixes),
		Output:      c.String("output"),
		ApplyFixes:  c.Bool("apply-fixes"),
		Secrets:     scanner,
	})
	logSummary(c.Command.Name, sum)
	return err
}
