package main

import (
	"fmt"

	"github.com/anyt-io/notebook/pkg/presenter"
	"github.com/spf13/cobra"
)

var showCmd = withTracing(&cobra.Command{
	Use:   "show <skill-name> [skills-dir...]",
	Short: "Show a skill's metadata and instructions",
	Long: `Find a skill by its frontmatter name under the given directories (or the
current directory) and print its metadata followed by the SKILL.md body.

Examples:
  skillkit show pdf-tools skills/`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		discovery, err := newDiscovery(args[1:])
		if err != nil {
			return err
		}

		skill, err := discovery.GetSkill(args[0])
		if err != nil {
			return err
		}

		presenter.Section(skill.Name)
		presenter.Info(fmt.Sprintf("Title:       %s", skill.Title))
		presenter.Info(fmt.Sprintf("Directory:   %s", skill.Directory))
		presenter.Info(fmt.Sprintf("Version:     %s", manifestVersion(cmd, skill.Directory)))
		presenter.Info(fmt.Sprintf("Description: %s", skill.Description))
		presenter.Blank()
		presenter.Info(skill.Content)
		return nil
	},
})
