package main

import (
	"fmt"
	"path/filepath"

	"github.com/anyt-io/notebook/pkg/logger"
	"github.com/anyt-io/notebook/pkg/presenter"
	"github.com/anyt-io/notebook/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var validateAllCmd = withTracing(&cobra.Command{
	Use:   "validate-all <skills-dir>",
	Short: "Validate every skill in a directory",
	Long: `Validate each immediate subdirectory of <skills-dir> that contains a
SKILL.md file. Results are printed in name order followed by a summary.

Exits 1 when any skill fails, when <skills-dir> is not a directory, or when
it contains no skills.

Examples:
  skillkit validate-all skills/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dir := args[0]
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}

		report, err := skills.ValidateAll(ctx, dir)
		switch {
		case errors.Is(err, skills.ErrNotDirectory):
			presenter.Error(errors.Errorf("Not a directory: %s", dir), "")
			return errReported
		case errors.Is(err, skills.ErrNoSkills):
			presenter.Failure(fmt.Sprintf("No skills found in %s", dir))
			return errReported
		case err != nil:
			return err
		}

		presenter.Info(fmt.Sprintf("Validating %d skill(s) in %s", len(report.Results), report.Dir))
		presenter.Blank()
		for _, res := range report.Results {
			presenter.CheckResult(res.Name, res.Valid, res.Message)
		}
		presenter.Blank()

		if report.AllValid() {
			presenter.Success(fmt.Sprintf("All %d skill(s) are valid.", len(report.Results)))
			return nil
		}

		logger.G(ctx).WithError(report.Err()).Debug("skills failed validation")
		presenter.Failure(fmt.Sprintf("%d of %d skill(s) failed validation.", report.Failed(), len(report.Results)))
		return errReported
	},
})
