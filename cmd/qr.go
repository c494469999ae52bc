/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dhnt/qrserve/internal/qrcode"
)

// qrCmd represents the qr command
var qrCmd = &cobra.Command{
	Use:   "qr TEXT",
	Short: "Print the QR code for TEXT",
	Long: `Print the QR code for TEXT the same way the server prints its URL.
Useful to share a URL that is reachable some other way, e.g. behind a proxy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _ := cmd.Flags().GetString("level")
		level, err := qrcode.ParseLevel(l)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		code, err := qrcode.Encode(args[0], level)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if compact, _ := cmd.Flags().GetBool("compact"); compact {
			code.WriteCompact(w)
			return nil
		}
		_, err = code.WriteTo(w)
		return err
	},
}

func init() {
	rootCmd.AddCommand(qrCmd)

	qrCmd.Flags().StringP("level", "l", "M", "Error correction level: L, M, Q or H")
	qrCmd.Flags().Bool("compact", false, "Print a half-height QR code")
}
