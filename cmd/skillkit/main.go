package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anyt-io/notebook/pkg/logger"
	"github.com/anyt-io/notebook/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errReported is returned by commands that have already told the user what
// went wrong; main exits 1 without printing anything further.
var errReported = errors.New("reported")

func init() {
	// Environment variables, e.g. SKILLKIT_PACKAGE_OUTPUT_DIR
	viper.SetEnvPrefix("SKILLKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", logger.FormatText)
	viper.SetDefault("quiet", false)
	setPackageDefaults()
	setWatchDefaults()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillkit")
	viper.AddConfigPath(".")

	// Missing config file is fine
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillkit",
	Short: "Validate, package and scaffold PSPM skills",
	Long: `skillkit is the toolchain for PSPM skills: directories holding a SKILL.md
descriptor with YAML frontmatter and an optional pspm.json manifest.

It validates skills against the frontmatter rules, packages them into
distributable .skill archives, and scaffolds new skills.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Arguments are validated by now; later failures are not usage errors
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := logger.Setup(cfg.Log); err != nil {
			return err
		}
		presenter.SetQuiet(cfg.Quiet)

		shutdown, err := initTracing(cmd.Context(), cfg.Tracing)
		if err != nil {
			return errors.Wrap(err, "failed to initialize tracing")
		}
		tracingShutdown = shutdown
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", viper.GetString("log_level"), "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", viper.GetString("log_format"), "Log format (fmt, json)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print results and errors")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(validateAllCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if tracingShutdown != nil {
		if serr := tracingShutdown(context.Background()); serr != nil {
			logger.L.WithError(serr).Warn("failed to flush traces")
		}
	}

	if err != nil {
		if !errors.Is(err, errReported) {
			presenter.Error(err, "")
		}
		os.Exit(1)
	}
}
