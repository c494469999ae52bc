package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhnt/qrserve/internal/qrcode"
	"github.com/dhnt/qrserve/internal/server"
)

func newTestFlags(t *testing.T, args ...string) (*pflag.FlagSet, error) {
	t.Helper()
	fs := pflag.NewFlagSet("qrserve", pflag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	addServeFlags(fs)
	return fs, fs.Parse(args)
}

func clearServeEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "MOUNT_PATH", "SERVE_FROM", "ADVERTISE", "COMPACT", "CONFIG"} {
		t.Setenv(server.EnvPrefix+k, "")
		os.Unsetenv(server.EnvPrefix + k)
	}
}

func TestResolveConfigFromFlags(t *testing.T) {
	clearServeEnv(t)

	tests := []struct {
		name      string
		args      []string
		port      uint16
		mountPath string
		serveFrom string
	}{
		{"defaults", nil, 8080, "/static", "."},
		{"long flags", []string{"--port", "9000", "--mount-path", "/files", "--serve-from", "/srv"}, 9000, "/files", "/srv"},
		{"short flags", []string{"-p", "1234", "-m", "/", "-s", "docs"}, 1234, "/", "docs"},
		{"port only", []string{"--port=65535"}, 65535, "/static", "."},
		{"mount only", []string{"--mount-path", "share"}, 8080, "/share", "."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs, err := newTestFlags(t, tc.args...)
			require.NoError(t, err)

			cfg, err := resolveConfig(fs)
			require.NoError(t, err)
			assert.Equal(t, tc.port, cfg.Port())
			assert.Equal(t, tc.mountPath, cfg.MountPath())
			assert.Equal(t, tc.serveFrom, cfg.ServeFrom())
		})
	}
}

func TestResolveConfigAdvertiseCompact(t *testing.T) {
	clearServeEnv(t)

	fs, err := newTestFlags(t, "--advertise", "files.lan", "--compact", "-p", "9000")
	require.NoError(t, err)

	cfg, err := resolveConfig(fs)
	require.NoError(t, err)
	assert.Equal(t, "files.lan", cfg.Advertise())
	assert.True(t, cfg.Compact())
	assert.Equal(t, "http://files.lan:9000/static", cfg.AdvertisedURL(cfg.Advertise(), int(cfg.Port())))
}

func TestInvalidPortFlag(t *testing.T) {
	for _, port := range []string{"abc", "65536", "70000", "-1", "80.5", ""} {
		_, err := newTestFlags(t, "--port", port)
		assert.Error(t, err, "port %q", port)
	}
}

func TestRootRejectsInvalidPort(t *testing.T) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"--port", "not-a-port"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-port")
	// flag parsing fails before RunE, so nothing is bound or printed to the banner
	assert.Contains(t, errOut.String(), "Error:")
	assert.Contains(t, out.String()+errOut.String(), "Usage:")
	assert.NotContains(t, out.String(), "The file service is available at")
}

func TestResolveConfigLayers(t *testing.T) {
	clearServeEnv(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "qrserve.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: 7200\nmount_path: /file\nserve_from: from-file\n"), 0o644))

	t.Setenv("QRSERVE_MOUNT_PATH", "/env")
	t.Setenv("QRSERVE_CONFIG", file)

	fs, err := newTestFlags(t, "--port", "7000")
	require.NoError(t, err)

	cfg, err := resolveConfig(fs)
	require.NoError(t, err)
	assert.Equal(t, uint16(7000), cfg.Port())
	assert.Equal(t, "/env", cfg.MountPath())
	assert.Equal(t, "from-file", cfg.ServeFrom())
}

func TestResolveConfigMissingFile(t *testing.T) {
	clearServeEnv(t)

	fs, err := newTestFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	_, err = resolveConfig(fs)
	assert.Error(t, err)
}

func TestPrintBanner(t *testing.T) {
	color.NoColor = true

	const url = "http://192.168.1.20:8080/static"
	code, err := qrcode.Encode(url, defaultQRLevel)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printBanner(&buf, url, code, false))

	first, rest, ok := strings.Cut(buf.String(), "\n")
	require.True(t, ok)
	assert.Equal(t, "The file service is available at "+url, first)
	assert.Equal(t, code.String(), rest)
}

func TestQRCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"qr", "hello"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	code, err := qrcode.Encode("hello", qrcode.M)
	require.NoError(t, err)
	assert.Equal(t, code.String(), out.String())
}
