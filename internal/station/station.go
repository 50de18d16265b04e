package station

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/btleweather/btleweather/internal/transport"
	"github.com/btleweather/btleweather/pkg/emr"
)

// Default retry policy. Roughly the classic 30 s / 3 s behaviour,
// expressed as an attempt budget.
const (
	DefaultMaxAttempts   = 10
	DefaultRetryInterval = 3 * time.Second
)

// Station drives measurements against one weather station, wrapping
// single-shot sessions in a bounded retry loop. Attempts are strictly
// sequential; there is never more than one open connection. The retry
// budget is an attempt count, not elapsed time.
type Station struct {
	transport   transport.Transport
	addr        string
	idleQuantum time.Duration

	lastRaw map[uint16][]byte
}

// New returns a Station for the device at addr. idleQuantum <= 0
// selects DefaultIdleQuantum.
func New(t transport.Transport, addr string, idleQuantum time.Duration) *Station {
	return &Station{
		transport:   t,
		addr:        addr,
		idleQuantum: idleQuantum,
	}
}

// Measure runs sessions until one succeeds or the attempt budget is
// spent, sleeping interval between attempts. Transient failures
// (connect, activation, no data) are retried; anything else aborts
// immediately. When the budget runs out the last transient failure is
// returned as-is. maxAttempts < 1 still makes one attempt.
//
// The context is honoured between attempts only: an in-progress
// session always runs to its own idle timeout so the connection is
// released cleanly.
func (s *Station) Measure(ctx context.Context, maxAttempts int, interval time.Duration) (*emr.Snapshot, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		sess := NewSession(s.transport, s.addr, s.idleQuantum)
		snapshot, err := sess.Run(ctx)
		if raw := sess.RawData(); raw != nil {
			s.lastRaw = raw
		}
		if err == nil {
			return snapshot, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		if attempt >= maxAttempts {
			log.Debug().Err(err).Int("attempts", attempt).Msg("retry budget exhausted")
			return nil, err
		}

		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("interval", interval).
			Msg("measurement failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// RawData returns the reassembled, undecoded buffers from the most
// recent session, for diagnostic dumping. Nil before any session has
// collected data.
func (s *Station) RawData() map[uint16][]byte { return s.lastRaw }
