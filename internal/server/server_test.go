package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhnt/qrserve/internal/logger"
)

func TestServeAndShutdown(t *testing.T) {
	root := newTestTree(t)
	cfg, err := Resolve(Options{Port: port(0), ServeFrom: root})
	require.NoError(t, err)

	ln, err := Listen(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(cfg, logger.Nop()).Serve(ctx, ln)
	}()

	p := ln.Addr().(*net.TCPAddr).Port
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/static/a.txt", p))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello, world\n", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenPortInUse(t *testing.T) {
	first, err := Resolve(Options{Port: port(0)})
	require.NoError(t, err)
	ln, err := Listen(first)
	require.NoError(t, err)
	defer ln.Close()

	taken := uint16(ln.Addr().(*net.TCPAddr).Port)
	second, err := Resolve(Options{Port: &taken})
	require.NoError(t, err)

	_, err = Listen(second)
	assert.Error(t, err)
}

func TestServeReturnsListenerError(t *testing.T) {
	cfg, err := Resolve(Options{Port: port(0)})
	require.NoError(t, err)
	ln, err := Listen(cfg)
	require.NoError(t, err)
	ln.Close()

	err = New(cfg, logger.Nop()).Serve(context.Background(), ln)
	assert.Error(t, err)
}

// A wildcard "0.0.0.0" bind on "tcp" is dual-stack where the platform maps
// IPv4 into IPv6, so an advertised IPv6 URL is reachable too.
func TestListenAcceptsIPv6(t *testing.T) {
	if runtime.GOOS == "openbsd" {
		t.Skip("no IPv4-mapped IPv6 sockets")
	}
	v6, err := net.Listen("tcp6", "[::1]:0")
	if err != nil {
		t.Skipf("no IPv6 loopback: %v", err)
	}
	v6.Close()

	cfg, err := Resolve(Options{Port: port(0)})
	require.NoError(t, err)
	ln, err := Listen(cfg)
	require.NoError(t, err)
	defer ln.Close()

	p := ln.Addr().(*net.TCPAddr).Port
	conn, err := net.DialTimeout("tcp6", net.JoinHostPort("::1", fmt.Sprint(p)), 5*time.Second)
	require.NoError(t, err)
	conn.Close()
}
