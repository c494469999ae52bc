// Package qrcode encodes text as a QR code and renders it for a terminal.
package qrcode

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

const (
	// Dark and Light are written once per module. Two columns per module
	// keep the code square on terminals whose cells are twice as tall as wide.
	Dark  = "██"
	Light = "  "
)

// Half-block glyphs for compact output, named top/bottom.
const (
	blackWhite = "▄"
	blackBlack = " "
	whiteBlack = "▀"
	whiteWhite = "█"
)

// Level is the error-correction level. The default is M.
type Level = qr.Level

const (
	L = qr.L
	M = qr.M
	Q = qr.Q
	H = qr.H
)

var ErrEmpty = errors.New("qrcode: empty text")

// Code is an encoded QR matrix. It is immutable.
type Code struct {
	text  string
	level Level
	code  *qr.Code
}

// Encode picks the smallest QR version that holds text at the given level.
func Encode(text string, level Level) (*Code, error) {
	if text == "" {
		return nil, ErrEmpty
	}
	c, err := qr.Encode(text, level)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode %q: %w", text, err)
	}
	return &Code{text: text, level: level, code: c}, nil
}

// Size is the number of modules per side, without quiet zone.
func (c *Code) Size() int {
	return c.code.Size
}

// Dark reports whether the module at column x, row y is dark.
// Coordinates outside the matrix are light.
func (c *Code) Dark(x, y int) bool {
	return c.code.Black(x, y)
}

// Matrix returns a copy of the modules, indexed [row][column].
func (c *Code) Matrix() [][]bool {
	n := c.Size()
	m := make([][]bool, n)
	for y := 0; y < n; y++ {
		m[y] = make([]bool, n)
		for x := 0; x < n; x++ {
			m[y][x] = c.Dark(x, y)
		}
	}
	return m
}

// String renders the code with Dark and Light, one text line per module row
// and no quiet zone.
func (c *Code) String() string {
	n := c.Size()
	var sb strings.Builder
	sb.Grow(n * (n*len(Dark) + 1))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if c.Dark(x, y) {
				sb.WriteString(Dark)
			} else {
				sb.WriteString(Light)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteTo writes String() to w.
func (c *Code) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, c.String())
	return int64(n), err
}

// WriteCompact renders two module rows per text line using half blocks and
// a one-module quiet zone. The output is half the height of String.
func (c *Code) WriteCompact(w io.Writer) {
	qrterminal.GenerateWithConfig(c.text, qrterminal.Config{
		Level:          c.level,
		Writer:         w,
		HalfBlocks:     true,
		BlackChar:      blackBlack,
		WhiteBlackChar: whiteBlack,
		WhiteChar:      whiteWhite,
		BlackWhiteChar: blackWhite,
		QuietZone:      1,
	})
}

// ParseLevel maps "L", "M", "Q" or "H" (any case) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return L, nil
	case "", "M":
		return M, nil
	case "Q":
		return Q, nil
	case "H":
		return H, nil
	}
	return M, fmt.Errorf("qrcode: unknown error correction level %q", s)
}
