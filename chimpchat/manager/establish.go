package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
	"github.com/spance/chimpchat-go/constants"
)

// ServiceHost is the part of a device handle needed to bring up the monkey service.
type ServiceHost interface {
	CreateForward(ctx context.Context, localPort, remotePort int) error
	ExecuteShell(ctx context.Context, command string, sink io.Writer, timeout time.Duration) error
}

type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Establisher starts the monkey service on a device and connects to it.
//
// The service prints nothing when it is ready, so readiness is detected by
// polling: open a fresh socket, send wake, and accept the first session whose
// probe succeeds.
type Establisher struct {
	host   ServiceHost
	config *definitions.ManagerConfig
	logger zerolog.Logger
	dial   DialFunc
}

func NewEstablisher(host ServiceHost, cfg *definitions.ManagerConfig, logger zerolog.Logger) *Establisher {
	var d net.Dialer
	return &Establisher{
		host:   host,
		config: cfg.WithDefaults(),
		logger: logger,
		dial:   d.DialContext,
	}
}

// WithDialer replaces the socket dialer, used by tests.
func (e *Establisher) WithDialer(dial DialFunc) *Establisher {
	e.dial = dial
	return e
}

func (e *Establisher) Establish(ctx context.Context) (*Session, error) {
	cfg := e.config

	log := e.logger.With().Int("port", cfg.Port).Logger()
	log.Debug().Str("cmd", fmt.Sprintf("[Establish] forward tcp:%d tcp:%d", cfg.Port, cfg.Port)).Msg("")
	if err := e.host.CreateForward(ctx, cfg.Port, cfg.Port); err != nil {
		log.Error().Err(err).Msg("[Establish] port forward failed")
		return nil, fmt.Errorf("%w: forward tcp:%d: %w", definitions.ErrTransportFailure, cfg.Port, err)
	}

	// The service outlives this call and stops only when the session is released.
	serviceCtx, stopService := context.WithCancel(context.WithoutCancel(ctx))
	command := constants.MonkeyCommand(cfg.Port)
	go e.logServiceExit(command, e.startService(serviceCtx, command))

	if err := sleepContext(ctx, cfg.WarmUp); err != nil {
		stopService()
		return nil, err
	}

	address := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	start := time.Now()
	ceiling := start.Add(cfg.ConnectTimeout + cfg.PollInterval)
	attempts := 0
	for {
		if elapsed := time.Since(start); elapsed > cfg.ConnectTimeout {
			stopService()
			log.Error().Int("attempts", attempts).Dur("elapsed", elapsed).Msg("[Establish] timeout waiting for monkey")
			return nil, fmt.Errorf("%w: monkey at %s not ready after %v (%d attempts)",
				definitions.ErrConnectionTimeout, address, cfg.ConnectTimeout, attempts)
		}

		if err := sleepContext(ctx, cfg.PollInterval); err != nil {
			stopService()
			return nil, err
		}

		attempts++
		deadline := time.Now().Add(cfg.ProbeTimeout)
		if deadline.After(ceiling) {
			deadline = ceiling
		}
		session, err := e.probe(ctx, address, deadline)
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempts).Msg("[Establish] probe failed")
			continue
		}

		session.release = stopService
		log.Info().Int("attempts", attempts).Str("address", address).Msg("[Establish] monkey ready")
		return session, nil
	}
}

// probe opens a new socket and wakes the service. Any partial connection is
// closed before returning an error.
func (e *Establisher) probe(ctx context.Context, address string, deadline time.Time) (*Session, error) {
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, err := e.dial(dialCtx, "tcp", address)
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, err
	}

	session := NewSession(conn, e.logger)
	if err := session.Wake(); err != nil {
		_ = session.Close()
		return nil, err
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = session.Close()
		return nil, err
	}
	return session, nil
}

// startService launches the monkey service in the background. The returned
// channel yields the shell's exit error and is only read for logging.
func (e *Establisher) startService(ctx context.Context, command string) <-chan error {
	done := make(chan error, 1)
	go func() {
		sink := newLogWriter(e.logger, zerolog.DebugLevel, command)
		defer sink.Flush()
		// no output timeout: monkey is silent while serving
		done <- e.host.ExecuteShell(ctx, command, sink, 0)
	}()
	return done
}

func (e *Establisher) logServiceExit(command string, done <-chan error) {
	err := <-done
	switch {
	case err == nil:
		e.logger.Debug().Str("cmd", command).Msg("[startService] monkey exited")
	case errors.Is(err, context.Canceled):
		e.logger.Debug().Str("cmd", command).Msg("[startService] monkey stopped")
	case errors.Is(err, definitions.ErrCommandTimeout):
		// common when the shell channel gives up on a silent process
		e.logger.Info().Err(err).Str("cmd", command).Msg("[startService] error starting command")
	default:
		e.logger.Error().Err(err).Str("cmd", command).Msg("[startService] error starting command")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
