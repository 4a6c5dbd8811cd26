// Package debug provides bitmask-gated trace lines and hex/ASCII buffer
// dumps for the transport layer. The facility is fire-and-forget: nothing in
// it returns an error or otherwise affects the caller's control flow.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
)

// Trace categories. A category is emitted only while its bit is selected in
// the process-wide mask.
const (
	// TCPTrace covers stream connection activity.
	TCPTrace uint32 = 1 << 0

	// UDPTrace covers datagram connection activity.
	UDPTrace uint32 = 1 << 1
)

// dumpWidth is the number of bytes rendered per dump line.
const dumpWidth = 16

var traceMask atomic.Uint32

var (
	loggerMu sync.Mutex
	logger   *zerolog.Logger
)

// SetMask selects the enabled trace categories. Meant to be called once at
// process configuration time; the default mask is zero (everything off).
func SetMask(mask uint32) {
	traceMask.Store(mask)
}

// Mask returns the currently selected trace categories.
func Mask() uint32 {
	return traceMask.Load()
}

// Enabled reports whether any of the given categories is selected.
func Enabled(mask uint32) bool {
	return traceMask.Load()&mask != 0
}

// SetLogger injects the logger used for trace lines, replacing the lazily
// built default.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = &l
}

func getLogger() *zerolog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger = &l
	}

	return logger
}

// Tracef emits a formatted trace line if the category is enabled.
func Tracef(mask uint32, format string, args ...any) {
	if !Enabled(mask) {
		return
	}

	getLogger().Debug().Msgf(format, args...)
}

// Dump writes a hex/ASCII dump of data to dst if the category is enabled.
// Bytes are rendered sixteen per line, hex first, short lines padded with
// "--", followed by the printable rendition with non-printables as '.'.
// Write errors are swallowed.
func Dump(mask uint32, dst io.Writer, title string, data []byte) {
	if !Enabled(mask) || dst == nil {
		return
	}

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	_, _ = fmt.Fprintf(bb, "%s {\n", title)

	for pos := 0; pos < len(data); pos += dumpWidth {
		line := data[pos:]
		if len(line) > dumpWidth {
			line = line[:dumpWidth]
		}

		for _, b := range line {
			_, _ = fmt.Fprintf(bb, "%02X ", b)
		}
		for i := len(line); i < dumpWidth; i++ {
			_, _ = bb.WriteString("-- ")
		}
		for _, b := range line {
			c := b
			if c < ' ' || c > '~' {
				c = '.'
			}
			_ = bb.WriteByte(c)
		}
		_ = bb.WriteByte('\n')
	}

	_, _ = bb.WriteString("}\n")
	_, _ = dst.Write(bb.Bytes())
}
