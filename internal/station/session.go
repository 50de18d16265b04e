package station

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/btleweather/btleweather/internal/transport"
	"github.com/btleweather/btleweather/pkg/emr"
)

// SessionState is the lifecycle position of one measurement attempt.
type SessionState int

const (
	StateIdle SessionState = iota
	StateConnecting
	StateActivating
	StateCollecting
	StateDecoding
	StateDisconnected
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActivating:
		return "activating"
	case StateCollecting:
		return "collecting"
	case StateDecoding:
		return "decoding"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultIdleQuantum is how long the collection loop waits for the
// next notification before deciding the burst is over. The station
// never marks end-of-transmission explicitly; going quiet is the
// signal.
const DefaultIdleQuantum = time.Second

// Session owns one connect, activate, collect, decode, disconnect
// attempt against the station. It exclusively holds the transport
// connection for its lifetime and releases it on every exit path;
// leaving the station connected can wedge its Bluetooth stack until a
// power cycle, so disconnect-on-error is a correctness requirement
// here, not tidiness.
type Session struct {
	transport   transport.Transport
	addr        string
	channels    []transport.Channel
	idleQuantum time.Duration

	id    uuid.UUID
	state SessionState
	conn  transport.Conn
	buf   *Reassembler
	raw   map[uint16][]byte
}

// NewSession prepares a single-use session. idleQuantum <= 0 selects
// DefaultIdleQuantum.
func NewSession(t transport.Transport, addr string, idleQuantum time.Duration) *Session {
	if idleQuantum <= 0 {
		idleQuantum = DefaultIdleQuantum
	}
	return &Session{
		transport:   t,
		addr:        addr,
		channels:    Channels(),
		idleQuantum: idleQuantum,
		id:          uuid.New(),
		state:       StateIdle,
		buf:         NewReassembler(),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// RawData returns the complete reassembled buffers collected by this
// session, part markers stripped, keyed by value handle. Valid after
// Run regardless of decode outcome.
func (s *Session) RawData() map[uint16][]byte { return s.raw }

// Run performs the attempt and returns the decoded snapshot. Errors
// are ordinary values: *ConnectError, *ActivationError and
// *NoDataError are transient and safe to retry, ErrAlreadyConnected is
// a programming error, and emr.ErrMalformedRecord means the station
// sent a structurally impossible record.
func (s *Session) Run(ctx context.Context) (*emr.Snapshot, error) {
	if s.conn != nil {
		// Salvage what we can before reporting the invariant
		// violation: a dangling connection jams the station.
		s.disconnect()
		s.state = StateFailed
		return nil, ErrAlreadyConnected
	}

	logger := log.With().Stringer("session", s.id).Str("addr", s.addr).Logger()

	s.state = StateConnecting
	conn, err := s.transport.Connect(ctx, s.addr)
	if err != nil {
		s.state = StateFailed
		logger.Debug().Err(err).Msg("connect failed")
		return nil, &ConnectError{Addr: s.addr, Err: err}
	}
	s.conn = conn
	logger.Debug().Msg("connected")

	s.state = StateActivating
	for _, ch := range s.channels {
		if err := conn.Write(ch.CCCD, ch.Enable); err != nil {
			// Tear the link down before surfacing the error so the
			// station is not left half-configured.
			s.disconnect()
			s.state = StateFailed
			logger.Debug().Err(err).Uint16("handle", ch.CCCD).Msg("activation failed")
			return nil, &ActivationError{Handle: ch.CCCD, Err: err}
		}
	}
	logger.Debug().Int("channels", len(s.channels)).Msg("notifications enabled")

	s.state = StateCollecting
	count := 0
	for {
		n, ok := conn.WaitNotification(s.idleQuantum)
		if !ok {
			// Idle timeout: the expected end-of-burst signal.
			break
		}
		logger.Debug().Uint16("endpoint", n.Endpoint).Hex("payload", n.Payload).Msg("notification")
		s.buf.Push(n)
		count++
	}
	logger.Debug().Int("notifications", count).Msg("collection complete")

	s.state = StateDecoding
	s.raw = s.buf.Buffers()

	// All data is in hand; the link is released before decoding so
	// every path out of here leaves the station disconnected.
	s.disconnect()

	status, ok := s.buf.TakeComplete(EndpointStatus)
	if !ok {
		s.state = StateFailed
		return nil, &NoDataError{Source: "status"}
	}
	sensors, ok := s.buf.TakeComplete(EndpointSensors)
	if !ok {
		s.state = StateFailed
		return nil, &NoDataError{Source: "sensor"}
	}
	clock, ok := s.buf.TakeComplete(EndpointClock)
	if !ok {
		s.state = StateFailed
		return nil, &NoDataError{Source: "clock"}
	}

	snapshot, err := emr.AssembleSnapshot(clock, status, sensors)
	if err != nil {
		s.state = StateFailed
		return nil, err
	}

	s.state = StateDisconnected
	logger.Debug().Time("clock", snapshot.Clock).Int("sensors", len(snapshot.Sensors)).Msg("measurement decoded")
	return snapshot, nil
}

// disconnect releases the connection, logging rather than propagating
// secondary failures: the primary error is the interesting one.
func (s *Session) disconnect() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Disconnect(); err != nil {
		log.Warn().Err(err).Stringer("session", s.id).Msg("disconnect failed")
	}
	s.conn = nil
}
