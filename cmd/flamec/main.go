// Command flamec compiles declarative simulation models: it validates
// them, derives the dependency graphs, prints the ordered task list and
// renders diagnostic graphs.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flame-sim/flame/internal/config"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flamec",
		Short:         "Model compiler and task scheduler for agent based simulations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if flag := cmd.Flags().Lookup("strict-access"); flag != nil && flag.Changed {
				cfg.StrictMemoryAccess, _ = cmd.Flags().GetBool("strict-access")
			}
			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				level = zerolog.InfoLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
			return nil
		},
	}

	root.PersistentFlags().Bool("strict-access", false,
		"refuse functions without memory access declarations")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newTasksCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newRunCmd())
	return root
}
