package main

import (
	"github.com/anyt-io/notebook/pkg/presenter"
	"github.com/anyt-io/notebook/pkg/skills"
	"github.com/spf13/cobra"
)

var validateCmd = withTracing(&cobra.Command{
	Use:   "validate <skill-dir>",
	Short: "Validate a single skill directory",
	Long: `Validate a skill directory against the SKILL.md frontmatter rules and,
when present, check that pspm.json is well-formed JSON.

Prints "Valid: <message>" and exits 0, or "Invalid: <message>" and exits 1.

Examples:
  skillkit validate skills/pdf-tools`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		valid, message := skills.Validate(cmd.Context(), args[0])
		presenter.Verdict(valid, message)
		if !valid {
			return errReported
		}
		return nil
	},
})
