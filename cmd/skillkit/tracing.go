package main

import (
	"context"

	"github.com/anyt-io/notebook/pkg/telemetry"
	"github.com/anyt-io/notebook/pkg/version"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
)

var tracingShutdown telemetry.ShutdownFunc

func initTracing(ctx context.Context, cfg telemetry.Config) (telemetry.ShutdownFunc, error) {
	cfg.ServiceName = "skillkit"
	cfg.ServiceVersion = version.Get().Version
	return telemetry.InitTracer(ctx, cfg)
}

// withTracing runs the command inside a cli.command span
func withTracing(cmd *cobra.Command) *cobra.Command {
	run := cmd.RunE

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		attrs := []attribute.KeyValue{
			attribute.String("command.name", cmd.Name()),
			attribute.String("command.path", cmd.CommandPath()),
			attribute.Int("args.count", len(args)),
		}
		cmd.Flags().Visit(func(flag *pflag.Flag) {
			attrs = append(attrs, attribute.String("flag."+flag.Name, flag.Value.String()))
		})

		return telemetry.WithSpan(cmd.Context(), "cli.command", func(ctx context.Context) error {
			cmd.SetContext(ctx)
			err := run(cmd, args)
			if errors.Is(err, errReported) {
				telemetry.SetAttributes(ctx, attribute.Bool("command.failed", true))
			}
			return err
		}, attrs...)
	}

	return cmd
}

func init() {
	rootCmd.PersistentFlags().Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	rootCmd.PersistentFlags().String("tracing-sampler", telemetry.SamplerAlways, "Tracing sampler type (always, never, ratio)")
	rootCmd.PersistentFlags().Float64("tracing-ratio", 1, "Sampling ratio when using the ratio sampler")

	viper.BindPFlag("tracing.enabled", rootCmd.PersistentFlags().Lookup("tracing-enabled"))
	viper.BindPFlag("tracing.sampler", rootCmd.PersistentFlags().Lookup("tracing-sampler"))
	viper.BindPFlag("tracing.ratio", rootCmd.PersistentFlags().Lookup("tracing-ratio"))
}
