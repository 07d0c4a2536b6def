package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hupe1980/graphcheck"
)

// Exit codes.
const (
	exitOK       = 0
	exitFindings = 1
	exitError    = 2
)

// errFindings is returned by the check command when the pass completed but
// reported inconsistencies.
var errFindings = errors.New("inconsistencies found")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(viper.New())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errFindings):
		return exitFindings
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFilePath string

	root := &cobra.Command{
		Use:   "graphcheck",
		Short: "Check graph store label index consistency",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFilePath)
		},
		// Errors are printed by run.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&cfgFilePath, "config", "", "Path to the config file")
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	cobra.CheckErr(v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level")))

	root.AddCommand(newCheckCmd(v), newGenerateCmd(v))
	return root
}

func initConfig(v *viper.Viper, cfgFilePath string) error {
	// GRAPHCHECK_S3_BUCKET overrides s3.bucket.
	v.SetEnvPrefix("GRAPHCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFilePath != "" {
		v.SetConfigFile(cfgFilePath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFilePath, err)
		}
		return nil
	}

	v.SetConfigName("graphcheck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "graphcheck"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func newLogger(v *viper.Viper, w io.Writer) (*graphcheck.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", v.GetString("log_level"), err)
	}
	return graphcheck.NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// bindFlags binds each flag of fs to the config key returned by key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, key func(flag string) string) {
	fs.VisitAll(func(f *pflag.Flag) {
		cobra.CheckErr(v.BindPFlag(key(f.Name), f))
	})
}
