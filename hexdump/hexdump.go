// Package hexdump formats encoded vpack documents as byte grids for
// terminal inspection. It never imports the vpack package itself; callers
// hand it raw bytes, keeping this an external collaborator of the core
// encoder rather than a dependency of it.
package hexdump

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// Dump formats data as a hex grid.
type Dump struct {
	Data          []byte
	ValuesPerLine int
	Separator     string
	Header        string
}

// New returns a Dump with the reference implementation's defaults: 16
// values per line, a single-space separator, and a "0x" header prefix.
func New(data []byte) Dump {
	return Dump{Data: data, ValuesPerLine: 16, Separator: " ", Header: "0x"}
}

// ToHex renders a single byte as header+two hex digits, e.g. "0x1a".
func ToHex(value byte, header string) string {
	return fmt.Sprintf("%s%02x", header, value)
}

// AppendHex appends the hex rendering of value to a strings.Builder.
func AppendHex(sb *strings.Builder, value byte, header string) {
	sb.WriteString(header)
	const digits = "0123456789abcdef"
	sb.WriteByte(digits[value>>4])
	sb.WriteByte(digits[value&0x0f])
}

// String renders the full grid.
func (d Dump) String() string {
	if d.ValuesPerLine <= 0 {
		d.ValuesPerLine = 16
	}
	if d.Separator == "" {
		d.Separator = " "
	}
	if d.Header == "" {
		d.Header = "0x"
	}
	var sb strings.Builder
	for i, b := range d.Data {
		if i > 0 {
			if i%d.ValuesPerLine == 0 {
				sb.WriteByte('\n')
			} else {
				sb.WriteString(d.Separator)
			}
		}
		AppendHex(&sb, b, d.Header)
	}
	return sb.String()
}

// WriteTo writes the grid to w, followed by a trailing newline.
func (d Dump) WriteTo(w io.Writer) (int64, error) {
	s := d.String()
	n, err := io.WriteString(w, s+"\n")
	return int64(n), err
}

// Summary formats data's length using humanized byte units, colorized when
// w is a terminal (matched against isatty rather than assuming stdout).
func Summary(w io.Writer, data []byte) string {
	size := humanize.Bytes(uint64(len(data)))
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return fmt.Sprintf("\x1b[1m%s\x1b[0m (%d bytes)", size, len(data))
	}
	return fmt.Sprintf("%s (%d bytes)", size, len(data))
}
