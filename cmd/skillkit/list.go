package main

import (
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/anyt-io/notebook/pkg/logger"
	"github.com/anyt-io/notebook/pkg/manifest"
	"github.com/anyt-io/notebook/pkg/presenter"
	"github.com/anyt-io/notebook/pkg/skills"
	"github.com/spf13/cobra"
)

const maxListDescription = 60

// ListConfig holds configuration for the list command
type ListConfig struct {
	NamesOnly bool
	Allowed   []string
}

// NewListConfig creates a ListConfig with default values
func NewListConfig() *ListConfig {
	return &ListConfig{
		NamesOnly: false,
		Allowed:   []string{},
	}
}

var listCmd = withTracing(&cobra.Command{
	Use:   "list [skills-dir...]",
	Short: "List the skills found in one or more directories",
	Long: `List the skills found directly under each given directory, or under the
current directory when none is given. Each skill's name, manifest version,
title and description are shown.

Examples:
  skillkit list skills/
  skillkit list skills/ vendor/skills --only pdf-tools,web-fetch
  skillkit list --names`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := getListConfigFromFlags(cmd)

		discovery, err := newDiscovery(args)
		if err != nil {
			return err
		}

		if config.NamesOnly && len(config.Allowed) == 0 {
			names, err := discovery.ListSkillNames()
			if err != nil {
				return err
			}
			for _, name := range names {
				presenter.Info(name)
			}
			return nil
		}

		found, err := discovery.DiscoverSkills()
		if err != nil {
			return err
		}
		found = skills.FilterByAllowlist(found, config.Allowed)

		names := make([]string, 0, len(found))
		for name := range found {
			names = append(names, name)
		}
		sort.Strings(names)

		if config.NamesOnly {
			for _, name := range names {
				presenter.Info(name)
			}
			return nil
		}

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			skill := found[name]
			rows = append(rows, []string{
				skill.Name,
				manifestVersion(cmd, skill.Directory),
				skill.Title,
				truncate(skill.Description, maxListDescription),
			})
		}
		presenter.Table([]string{"name", "version", "title", "description"}, rows)
		return nil
	},
})

func init() {
	defaults := NewListConfig()
	listCmd.Flags().Bool("names", defaults.NamesOnly, "Print skill names only")
	listCmd.Flags().StringSlice("only", defaults.Allowed, "Only show the named skills")
}

func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()
	if names, err := cmd.Flags().GetBool("names"); err == nil {
		config.NamesOnly = names
	}
	if allowed, err := cmd.Flags().GetStringSlice("only"); err == nil {
		config.Allowed = allowed
	}
	return config
}

func newDiscovery(dirs []string) (*skills.Discovery, error) {
	if len(dirs) == 0 {
		return skills.NewDiscovery()
	}
	return skills.NewDiscovery(skills.WithSkillDirs(dirs...))
}

// manifestVersion returns the version from the skill's pspm.json, or "-"
func manifestVersion(cmd *cobra.Command, dir string) string {
	path := filepath.Join(dir, skills.ManifestFileName)
	if _, err := os.Stat(path); err != nil {
		return "-"
	}
	m, err := manifest.Load(path)
	if err != nil || m.Version == "" {
		logger.G(cmd.Context()).WithError(err).WithField("manifest", path).Debug("no manifest version")
		return "-"
	}
	return m.Version
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
