package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "lircctl",
		Short:         "Control the LIRC daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	pf.StringVar(&flags.socket, "socket", "", "Path to the lircd socket (selects the local transport)")
	pf.StringVar(&flags.host, "host", "", "lircd host (selects the TCP transport)")
	pf.IntVar(&flags.port, "port", 0, "lircd TCP port")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Timeout for each daemon request")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.MarkFlagsMutuallyExclusive("socket", "host")

	for _, cmd := range newDaemonCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
