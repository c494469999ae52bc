package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort      uint16 = 8080
	DefaultMountPath        = "/static"
	DefaultServeFrom        = "."

	// EnvPrefix is prepended to the env tags of Options.
	EnvPrefix = "QRSERVE_"
)

// Options is one configuration source. Zero values mean "not set"; Port is a
// pointer so an explicit 0 (any free port) is distinguishable from unset.
type Options struct {
	Port      *uint16 `env:"PORT" yaml:"port"`
	MountPath string  `env:"MOUNT_PATH" yaml:"mount_path"`
	ServeFrom string  `env:"SERVE_FROM" yaml:"serve_from"`

	// Advertise replaces the discovered local address in the advertised URL.
	Advertise string `env:"ADVERTISE" yaml:"advertise"`
	// Compact selects the half-block QR rendering.
	Compact bool `env:"COMPACT" yaml:"compact"`

	// ConfigFile names an optional YAML file with more Options.
	ConfigFile string `env:"CONFIG" yaml:"-"`
}

// ServerConfig is the resolved configuration. It is read-only once built and
// shared by every request.
type ServerConfig struct {
	port      uint16
	mountPath string
	serveFrom string
	advertise string
	compact   bool
}

func defaults() Options {
	port := DefaultPort
	return Options{
		Port:      &port,
		MountPath: DefaultMountPath,
		ServeFrom: DefaultServeFrom,
	}
}

// Resolve merges layers, earlier layers taking precedence, and fills whatever
// is still unset with the defaults.
func Resolve(layers ...Options) (*ServerConfig, error) {
	var merged Options
	for _, l := range layers {
		if err := mergo.Merge(&merged, l, mergo.WithoutDereference); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}
	if err := mergo.Merge(&merged, defaults(), mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("error applying defaults: %w", err)
	}

	return &ServerConfig{
		port:      *merged.Port,
		mountPath: NormalizeMountPath(merged.MountPath),
		serveFrom: merged.ServeFrom,
		advertise: strings.TrimSpace(merged.Advertise),
		compact:   merged.Compact,
	}, nil
}

// OptionsFromEnv reads QRSERVE_* variables.
func OptionsFromEnv() (Options, error) {
	var o Options
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return o, fmt.Errorf("error getting env configs: %w", err)
	}
	return o, nil
}

// OptionsFromFile reads a YAML file. Unknown keys are an error.
func OptionsFromFile(name string) (Options, error) {
	var o Options

	b, err := os.ReadFile(name)
	if err != nil {
		return o, fmt.Errorf("error reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return o, fmt.Errorf("error parsing config file %s: %w", name, err)
	}
	return o, nil
}

// NormalizeMountPath returns a rooted, cleaned path without a trailing slash
// ("/" stays "/"). An empty path yields the default.
func NormalizeMountPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return DefaultMountPath
	}
	return path.Clean("/" + p)
}

func (c *ServerConfig) Port() uint16 {
	return c.port
}

func (c *ServerConfig) MountPath() string {
	return c.mountPath
}

func (c *ServerConfig) ServeFrom() string {
	return c.serveFrom
}

// Advertise is the host override for the advertised URL, or "".
func (c *ServerConfig) Advertise() string {
	return c.advertise
}

func (c *ServerConfig) Compact() bool {
	return c.compact
}

// BindAddr listens on every interface.
func (c *ServerConfig) BindAddr() string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(int(c.port)))
}

// AdvertisedURL is the URL printed and encoded in the QR code. port is passed
// separately because a configured port of 0 is only known after binding.
func (c *ServerConfig) AdvertisedURL(host string, port int) string {
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   c.mountPath,
	}
	return u.String()
}

func (c *ServerConfig) String() string {
	return fmt.Sprintf("port=%d mount_path=%s serve_from=%s advertise=%q compact=%v",
		c.port, c.mountPath, c.serveFrom, c.advertise, c.compact)
}

var _ zerolog.LogObjectMarshaler = (*ServerConfig)(nil)

// MarshalZerologObject logs the resolved configuration as fields.
func (c *ServerConfig) MarshalZerologObject(e *zerolog.Event) {
	e.Uint16("port", c.port).
		Str("mount_path", c.mountPath).
		Str("serve_from", c.serveFrom).
		Str("advertise", c.advertise).
		Bool("compact", c.compact)
}
