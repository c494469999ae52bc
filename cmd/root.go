/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd serves files when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "qrserve",
	Short: "Serve a directory on the local network and print a QR code for its URL",
	Long: `qrserve serves a directory over HTTP on every interface, with directory
listings, and prints the URL on the local network together with a QR code
so a phone can open it without typing.

	qrserve                         # serve . at http://<lan-ip>:8080/static
	qrserve -p 9000 -m / -s ~/Downloads

Configuration is taken from flags, then QRSERVE_* environment variables,
then the YAML file named by --config. LOG_LEVEL sets the log level (info).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// past flag parsing, errors are not usage errors
		cmd.SilenceUsage = true

		cfg, err := resolveConfig(cmd.Flags())
		if err != nil {
			return err
		}
		return serve(cmd, cfg)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addServeFlags(rootCmd.Flags())
}
