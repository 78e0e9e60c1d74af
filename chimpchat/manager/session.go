package manager

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
	"github.com/spance/chimpchat-go/chimpchat/wire"
)

// Session owns one live connection to the monkey service. At most one
// command is in flight at a time; the protocol has no request ids, so a reply
// is matched to its command only by strict alternation.
type Session struct {
	mu     sync.Mutex
	conn   net.Conn
	codec  *wire.Codec
	logger zerolog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	release   func()
}

func NewSession(conn net.Conn, logger zerolog.Logger) *Session {
	return &Session{
		conn:   conn,
		codec:  wire.NewCodec(conn),
		logger: logger.With().Str("remote", conn.RemoteAddr().String()).Logger(),
	}
}

// Send writes cmd and blocks until its reply is read. A remote ERROR reply is
// returned as a Response, not an error; errors are transport or lifecycle failures.
func (s *Session) Send(cmd wire.Command) (wire.Response, error) {
	if s.closed.Load() {
		return wire.Response{}, s.closedError(cmd)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return wire.Response{}, s.closedError(cmd)
	}

	s.logger.Debug().Str("cmd", cmd.String()).Msg("[Send] monkey command")

	resp, err := s.codec.RoundTrip(cmd)
	if err != nil {
		if s.closed.Load() {
			return wire.Response{}, s.closedError(cmd)
		}
		s.logger.Error().Err(err).Str("cmd", cmd.String()).Msg("[Send] transport failure")
		return wire.Response{}, &definitions.CommandError{
			Kind:    definitions.ErrTransportFailure,
			Verb:    cmd.Verb,
			Command: cmd.String(),
			Err:     err,
		}
	}

	s.logger.Debug().Str("cmd", cmd.String()).Str("response", resp.Text).Msg("[Send] monkey response")
	return resp, nil
}

func (s *Session) closedError(cmd wire.Command) error {
	return &definitions.CommandError{
		Kind:    definitions.ErrSessionClosed,
		Verb:    cmd.Verb,
		Command: cmd.String(),
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Close releases the connection and any background resources tied to the
// session. A call blocked in Send fails with ErrSessionClosed. Calling Close
// again is a no-op.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.conn.Close()
		if s.release != nil {
			s.release()
		}
		err = s.closeErr
		s.logger.Debug().Msg("[Close] session closed")
	})
	return err
}
