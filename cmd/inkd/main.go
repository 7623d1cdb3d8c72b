package main

import (
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

func main() {
	configFlag := &cobraflags.StringFlag{
		Name:       "config",
		ViperKey:   "config",
		Usage:      "Path to a configuration file (yaml, json or toml)",
		Persistent: true,
	}

	rootCmd := &cobra.Command{
		Use:           "inkd",
		Short:         "Session tracking daemon",
		Long:          "inkd hands out sessions over HTTP and expires the ones left idle, using a timer wheel ticked by a managed worker and a task pool for cleanup.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := configFlag.GetStringE()
			return err
		},
	}
	configFlag.Register(rootCmd)

	rootCmd.AddCommand(newRunCommand())

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
