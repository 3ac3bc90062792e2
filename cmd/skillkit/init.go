package main

import (
	"fmt"
	"path/filepath"

	"github.com/anyt-io/notebook/pkg/presenter"
	"github.com/anyt-io/notebook/pkg/scaffold"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// InitConfig holds configuration for the init command
type InitConfig struct {
	Path    string
	Runtime string
}

// NewInitConfig creates an InitConfig with default values
func NewInitConfig() *InitConfig {
	return &InitConfig{
		Path:    ".",
		Runtime: string(scaffold.RuntimePython),
	}
}

var initCmd = withTracing(&cobra.Command{
	Use:   "init <skill-name>",
	Short: "Scaffold a new skill",
	Long: `Create a new skill directory with a SKILL.md template, a pspm.json
manifest, a .pspmignore file and a runtime/ folder for Python (uv) or
TypeScript (bun) scripts.

Examples:
  skillkit init pdf-tools
  skillkit init web-fetch --path skills --type ts`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := getInitConfigFromFlags(cmd)

		skillPath, err := scaffold.Init(cmd.Context(), scaffold.Options{
			Name:     args[0],
			BasePath: config.Path,
			Runtime:  scaffold.Runtime(config.Runtime),
		})
		if err != nil {
			if errors.Is(err, scaffold.ErrAlreadyExists) {
				err = errors.Errorf("Directory already exists: %s", filepath.Join(config.Path, args[0]))
			}
			presenter.Error(err, "")
			return errReported
		}

		printInitSummary(skillPath, scaffold.Runtime(config.Runtime))
		return nil
	},
})

func init() {
	defaults := NewInitConfig()
	initCmd.Flags().String("path", defaults.Path, "Parent directory for the skill folder")
	initCmd.Flags().String("type", defaults.Runtime, "Runtime type: py (Python/uv) or ts (TypeScript/bun)")
}

func getInitConfigFromFlags(cmd *cobra.Command) *InitConfig {
	config := NewInitConfig()
	if path, err := cmd.Flags().GetString("path"); err == nil {
		config.Path = path
	}
	if runtime, err := cmd.Flags().GetString("type"); err == nil {
		config.Runtime = runtime
	}
	return config
}

func printInitSummary(skillPath string, runtime scaffold.Runtime) {
	presenter.Success(fmt.Sprintf("Initialized PSPM skill: %s", skillPath))
	presenter.Info("  SKILL.md          usage documentation")
	presenter.Info("  pspm.json         PSPM manifest")
	presenter.Info("  .pspmignore       publishing exclusions")
	presenter.Info(fmt.Sprintf("  runtime/          isolated %s environment", runtime))
	if runtime == scaffold.RuntimePython {
		presenter.Info("  runtime/tests/    pytest tests")
	}
	presenter.Blank()
	presenter.Info("Next steps:")
	if runtime == scaffold.RuntimePython {
		presenter.Info(fmt.Sprintf("  cd %s/runtime && uv sync", skillPath))
		presenter.Info("  uv add <your-dependencies>")
	} else {
		presenter.Info(fmt.Sprintf("  cd %s/runtime && bun install", skillPath))
		presenter.Info("  bun add <your-dependencies>")
	}
}
