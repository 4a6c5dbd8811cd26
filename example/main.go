package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ichramm/netio"
	"github.com/ichramm/netio/syncutil"
)

const workers = 2

type reply struct {
	data []byte
	err  error
}

func main() {
	host := flag.String("host", "localhost", "server host")
	port := flag.Uint("port", 3456, "server port")
	count := flag.Int("count", 10, "number of round trips")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	r := netio.NewReactor()
	for i := 0; i < workers; i++ {
		go r.Run()
	}
	defer r.Stop()

	c := netio.NewTCPConn(r)
	defer c.Close()

	connected := syncutil.NewEvent()
	var connectErr error
	err := c.Connect(*host, uint16(*port), func(err error) {
		connectErr = err
		connected.Set()
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("issuing connect")
	}
	if !connected.WaitTimeout(5 * time.Second) {
		logger.Fatal().Msg("connect timed out")
	}
	if connectErr != nil {
		logger.Fatal().Err(connectErr).Msg("connect failed")
	}

	start := time.Now()
	for i := 0; i < *count; i++ {
		payload := []byte(fmt.Sprintf("hello_%d", i))
		began := time.Now()

		resp, err := roundTrip(c, payload)
		if err != nil {
			logger.Fatal().Err(err).Msg("round trip failed")
		}

		logger.Info().
			Dur("latency", time.Since(began)).
			Str("response", string(resp)).
			Msg("round trip")
	}

	logger.Info().Dur("total", time.Since(start)).Msg("finished")
}

// roundTrip sends payload with a 2-byte length header and waits for the
// echoed message. The blocking FIFO hands the asynchronous result back to
// the calling goroutine.
func roundTrip(c *netio.TCPConn, payload []byte) ([]byte, error) {
	results := syncutil.NewQueue[reply]()

	msg := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(msg, uint16(len(payload)))
	copy(msg[2:], payload)

	err := c.Write(msg, func(err error) {
		if err != nil {
			results.Push(reply{err: err})

			return
		}

		err = c.Read(2, func(err error, hdr []byte) {
			if err != nil {
				results.Push(reply{err: err})

				return
			}

			n := int(binary.BigEndian.Uint16(hdr))
			err = c.Read(n, func(err error, data []byte) {
				results.Push(reply{data: data, err: err})
			})
			if err != nil {
				results.Push(reply{err: err})
			}
		})
		if err != nil {
			results.Push(reply{err: err})
		}
	})
	if err != nil {
		return nil, err
	}

	res, err := results.PopTimeout(5 * time.Second)
	if err != nil {
		return nil, err
	}

	return res.data, res.err
}
