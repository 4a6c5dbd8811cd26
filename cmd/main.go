package main

import (
	"encoding/binary"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ichramm/netio"
	"github.com/ichramm/netio/debug"
)

func main() {
	port := flag.Uint("port", 3456, "listen port")
	addr := flag.String("addr", "", "bind address, empty for all interfaces")
	workers := flag.Int("workers", netio.DefaultWorkerCount, "reactor worker count")
	trace := flag.Bool("trace", false, "enable transport tracing")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if *trace {
		debug.SetMask(debug.TCPTrace | debug.UDPTrace)
	}

	l := netio.NewListener(uint16(*port), *addr)
	if err := l.SetWorkerCount(*workers); err != nil {
		logger.Fatal().Err(err).Msg("configuring worker pool")
	}

	err := l.Start(func(err error, c *netio.TCPConn) {
		if err != nil {
			logger.Error().Err(err).Msg("listener stopped accepting")

			return
		}

		logger.Info().Stringer("remote", c.RemoteAddr()).Msg("client connected")
		serve(c)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("starting listener")
	}

	logger.Info().Stringer("addr", l.Addr()).Msg("echo server listening")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
	if err := l.Stop(); err != nil {
		logger.Error().Err(err).Msg("stopping listener")
	}
}

// serve echoes length-prefixed messages: a 2-byte big-endian length header
// followed by the payload.
func serve(c *netio.TCPConn) {
	err := c.Read(2, func(err error, hdr []byte) {
		if err != nil {
			_ = c.Close()

			return
		}

		n := int(binary.BigEndian.Uint16(hdr))
		err = c.Read(n, func(err error, payload []byte) {
			if err != nil {
				_ = c.Close()

				return
			}

			out := make([]byte, 2+n)
			copy(out, hdr)
			copy(out[2:], payload)

			err = c.Write(out, func(err error) {
				if err != nil {
					_ = c.Close()

					return
				}

				serve(c)
			})
			if err != nil {
				_ = c.Close()
			}
		})
		if err != nil {
			_ = c.Close()
		}
	})
	if err != nil {
		_ = c.Close()
	}
}
