/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dhnt/qrserve/internal/logger"
	"github.com/dhnt/qrserve/internal/netaddr"
	"github.com/dhnt/qrserve/internal/qrcode"
	"github.com/dhnt/qrserve/internal/server"
)

const defaultQRLevel = qrcode.M

func addServeFlags(flags *pflag.FlagSet) {
	flags.Uint16P("port", "p", server.DefaultPort, "Port number exposed by the file service")
	flags.StringP("mount-path", "m", server.DefaultMountPath, "URL path the file service is mounted at")
	flags.StringP("serve-from", "s", server.DefaultServeFrom, "Directory to serve")
	flags.String("advertise", "", "Host or IP to put in the URL instead of the discovered local address")
	flags.Bool("compact", false, "Print a half-height QR code")
	flags.StringP("config", "c", "", "YAML file with port, mount_path, serve_from, advertise, compact")
}

// flagOptions keeps only the flags given on the command line, so that
// environment and file values can fill the rest.
func flagOptions(flags *pflag.FlagSet) (server.Options, error) {
	var o server.Options
	var err error

	if flags.Changed("port") {
		var p uint16
		if p, err = flags.GetUint16("port"); err != nil {
			return o, err
		}
		o.Port = &p
	}
	if flags.Changed("mount-path") {
		if o.MountPath, err = flags.GetString("mount-path"); err != nil {
			return o, err
		}
	}
	if flags.Changed("serve-from") {
		if o.ServeFrom, err = flags.GetString("serve-from"); err != nil {
			return o, err
		}
	}
	if o.Advertise, err = flags.GetString("advertise"); err != nil {
		return o, err
	}
	if o.Compact, err = flags.GetBool("compact"); err != nil {
		return o, err
	}
	if o.ConfigFile, err = flags.GetString("config"); err != nil {
		return o, err
	}
	return o, nil
}

func resolveConfig(flags *pflag.FlagSet) (*server.ServerConfig, error) {
	fromFlags, err := flagOptions(flags)
	if err != nil {
		return nil, err
	}
	fromEnv, err := server.OptionsFromEnv()
	if err != nil {
		return nil, err
	}
	layers := []server.Options{fromFlags, fromEnv}

	configFile := fromFlags.ConfigFile
	if configFile == "" {
		configFile = fromEnv.ConfigFile
	}
	if configFile != "" {
		fromFile, err := server.OptionsFromFile(configFile)
		if err != nil {
			return nil, err
		}
		layers = append(layers, fromFile)
	}

	return server.Resolve(layers...)
}

func serve(cmd *cobra.Command, cfg *server.ServerConfig) error {
	log, err := logger.FromEnv()
	if err != nil {
		return err
	}
	log.Debug().Object("config", cfg).Msg("resolved config")

	host := cfg.Advertise()
	if host == "" {
		ip, err := netaddr.LocalIP()
		if err != nil {
			return fmt.Errorf("cannot determine the local network address: %w", err)
		}
		host = ip.String()
	}

	ln, err := server.Listen(cfg)
	if err != nil {
		return err
	}
	defer ln.Close()

	// with --port 0 the real port is only known now
	port := ln.Addr().(*net.TCPAddr).Port
	advertised := cfg.AdvertisedURL(host, port)

	code, err := qrcode.Encode(advertised, defaultQRLevel)
	if err != nil {
		return err
	}
	if err := printBanner(cmd.OutOrStdout(), advertised, code, cfg.Compact()); err != nil {
		return err
	}

	log.Info().
		Str("url", advertised).
		Str("bind", ln.Addr().String()).
		Str("root", cfg.ServeFrom()).
		Str("version", server.Version).
		Msg("file service listening")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, log).Serve(ctx, ln)
}

// printBanner writes the URL line and then the QR block.
func printBanner(w io.Writer, advertised string, code *qrcode.Code, compact bool) error {
	url := color.New(color.FgGreen, color.Bold).Sprint(advertised)
	if _, err := fmt.Fprintf(w, "The file service is available at %s\n", url); err != nil {
		return err
	}
	if compact {
		code.WriteCompact(w)
		return nil
	}
	_, err := code.WriteTo(w)
	return err
}
