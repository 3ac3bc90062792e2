package main

import (
	"context"
	"fmt"

	"github.com/anyt-io/notebook/pkg/packager"
	"github.com/anyt-io/notebook/pkg/presenter"
	"github.com/anyt-io/notebook/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// PackageConfig holds configuration for the package command
type PackageConfig struct {
	OutputDir     string   `mapstructure:"output_dir"`
	Extension     string   `mapstructure:"extension"`
	Exclude       []string `mapstructure:"exclude"`
	RespectIgnore bool     `mapstructure:"respect_ignore"`
}

// NewPackageConfig creates a PackageConfig with default values
func NewPackageConfig() *PackageConfig {
	return &PackageConfig{
		OutputDir:     "",
		Extension:     packager.DefaultExtension,
		Exclude:       []string{},
		RespectIgnore: false,
	}
}

func setPackageDefaults() {
	defaults := NewPackageConfig()
	viper.SetDefault("package.output_dir", defaults.OutputDir)
	viper.SetDefault("package.extension", defaults.Extension)
	viper.SetDefault("package.exclude", defaults.Exclude)
	viper.SetDefault("package.respect_ignore", defaults.RespectIgnore)
}

// Options turns the configuration into packager options
func (c *PackageConfig) Options() []packager.Option {
	return []packager.Option{
		packager.WithOutputDir(c.OutputDir),
		packager.WithExtension(c.Extension),
		packager.WithExcludes(c.Exclude...),
		packager.WithIgnoreFile(c.RespectIgnore),
	}
}

var packageCmd = withTracing(&cobra.Command{
	Use:   "package <skill-dir> [output-dir]",
	Short: "Validate a skill and package it as a .skill archive",
	Long: `Validate a skill and write <output-dir>/<skill-name>.skill, a ZIP archive
whose entries sit under a <skill-name>/ folder. Development artifacts such as
.venv, __pycache__, node_modules, lock files and *.pyc are never packaged.

The output directory defaults to the current directory and is created if
missing. An invalid skill produces no archive.

Examples:
  skillkit package skills/pdf-tools
  skillkit package skills/pdf-tools dist/
  skillkit package skills/pdf-tools dist/ --exclude '*.log' --respect-ignore`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pkgCfg := cfg.Package
		if len(args) == 2 {
			pkgCfg.OutputDir = args[1]
		}

		skillDir := args[0]
		presenter.Info(fmt.Sprintf("Packaging skill: %s", skillDir))
		if pkgCfg.OutputDir != "" {
			presenter.Info(fmt.Sprintf("Output directory: %s", pkgCfg.OutputDir))
		}
		presenter.Blank()

		archivePath, err := packageSkill(cmd.Context(), skillDir, &pkgCfg, packager.WithEntryCallback(func(entry string) {
			presenter.Info(fmt.Sprintf("  Added: %s", entry))
		}))
		if err != nil {
			presenter.Error(errors.New(packageErrorMessage(err, skillDir)), "")
			return errReported
		}

		presenter.Blank()
		presenter.Success(fmt.Sprintf("Packaged skill to: %s", archivePath))
		return nil
	},
})

func packageSkill(ctx context.Context, skillDir string, cfg *PackageConfig, extra ...packager.Option) (string, error) {
	return packager.Package(ctx, skillDir, append(cfg.Options(), extra...)...)
}

// packageErrorMessage renders packager failures as one readable line
func packageErrorMessage(err error, skillDir string) string {
	var verr *packager.ValidationFailedError
	switch {
	case errors.Is(err, packager.ErrSkillNotFound):
		return fmt.Sprintf("Skill folder not found: %s", skillDir)
	case errors.Is(err, packager.ErrNotDirectory):
		return fmt.Sprintf("Path is not a directory: %s", skillDir)
	case errors.Is(err, packager.ErrDescriptorMissing):
		return fmt.Sprintf("%s not found in %s", skills.DescriptorFileName, skillDir)
	case errors.As(err, &verr):
		return fmt.Sprintf("Validation failed: %s", verr.Message)
	default:
		return fmt.Sprintf("Failed to create archive: %v", err)
	}
}

func init() {
	defaults := NewPackageConfig()
	packageCmd.Flags().String("extension", defaults.Extension, "Archive file extension")
	packageCmd.Flags().StringSlice("exclude", defaults.Exclude, "Extra glob patterns to leave out (matched per path segment)")
	packageCmd.Flags().Bool("respect-ignore", defaults.RespectIgnore, "Also honour the skill's .pspmignore file")

	viper.BindPFlag("package.extension", packageCmd.Flags().Lookup("extension"))
	viper.BindPFlag("package.exclude", packageCmd.Flags().Lookup("exclude"))
	viper.BindPFlag("package.respect_ignore", packageCmd.Flags().Lookup("respect-ignore"))
}
