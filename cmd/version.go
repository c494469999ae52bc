/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhnt/qrserve/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "qrserve %s (commit %s, built %s)\n", server.Version, server.Commit, server.Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
