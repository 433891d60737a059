// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables mirroring the flags.
const EnvPrefix = "AUDSTREAM"

// app carries state shared by all subcommands of one root command.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

// NewRootCommand builds the command tree. Each call gets its own viper
// instance, so commands can be built repeatedly in tests.
func NewRootCommand() *cobra.Command {
	a := &app{
		v:      viper.New(),
		logger: slog.New(slog.DiscardHandler),
	}

	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "audstream",
		Short:         "Inspect, convert, follow and scan audio files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupLogger(cmd)
		},
	}

	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text, json")
	_ = a.v.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		a.infoCommand(),
		a.convertCommand(),
		a.followCommand(),
		a.scanCommand(),
	)

	return rootCmd
}

func (a *app) setupLogger(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.v.GetString("log-level"), err)
	}

	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(a.v.GetString("log-format")) {
	case "text":
		a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
	case "json":
		a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), opts))
	default:
		return fmt.Errorf("invalid log format %q", a.v.GetString("log-format"))
	}

	return nil
}

// bind exposes the local flags of the running command through viper, so
// they pick up AUDSTREAM_* environment variables. Subcommands share flag
// names, so this happens when a command runs rather than when it is built.
func (a *app) bind(cmd *cobra.Command) {
	_ = a.v.BindPFlags(cmd.Flags())
}
