// Package stream opens the byte stream a single request is exchanged over.
// Every read and write is bounded by a per operation timeout,
// and by the deadline of the whole call.
package stream

import (
	"context"
	"io"
	"net"
	"strings"
	"time"

	"minhttp/application/util/uri"
	"minhttp/session/tls"
	"minhttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var ErrUnsupportedScheme = errors.New("unsupported scheme")

type Config struct {
	Dialer transport.Dialer
	Secure tls.SecureTransport
	TLS    *tls.Config
	Clock  clock.Clock

	// Zero value means no timeout.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// Deadline is the absolute deadline of the whole call. Zero means none.
	Deadline time.Time
}

type Stream struct {
	conn  net.Conn
	clock clock.Clock

	readTimeout  time.Duration
	writeTimeout time.Duration
	deadline     time.Time
}

var _ io.ReadWriteCloser = (*Stream)(nil)

// Connect dials the authority of u, and runs a TLS handshake for https.
// Dialing and handshake are bounded by ConnectTimeout, Deadline and ctx.
func Connect(ctx context.Context, u uri.URI, cfg Config) (*Stream, error) {
	if !uri.IsHTTP(u) {
		return nil, errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}
	if cfg.Dialer == nil {
		return nil, errors.New("no dialer")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	s := &Stream{
		clock:        clk,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		deadline:     cfg.Deadline,
	}

	connectDeadline := s.deadlineFor(cfg.ConnectTimeout)
	if s.exceeded(connectDeadline) {
		return nil, errors.Wrap(transport.ErrDeadLineExceeded, "connecting")
	}

	if !connectDeadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = clk.WithDeadline(ctx, connectDeadline)
		defer cancel()
	}

	address := u.HostPort()
	conn, err := cfg.Dialer.Dial(ctx, transport.NetworkTCP, address)
	if err != nil {
		if transport.IsTimeout(err) || errors.Is(err, transport.ErrConnectionFailed) {
			return nil, errors.Wrapf(err, "connecting to %s", address)
		}
		return nil, errors.Wrapf(transport.ErrConnectionFailed, "connecting to %s: %s", address, err)
	}

	if u.Scheme == uri.SchemeHTTPS {
		if cfg.Secure == nil {
			conn.Close()
			return nil, errors.Wrap(tls.ErrHandshakeFailed, "no tls backend")
		}

		if err := conn.SetDeadline(connectDeadline); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "setting handshake deadline")
		}

		secured, err := cfg.Secure.Handshake(ctx, conn, serverName(u), cfg.TLS)
		if err != nil {
			conn.Close()
			return nil, err
		}
		conn = secured
	}

	s.conn = conn
	return s, nil
}

// serverName is the host of u without IP literal brackets.
func serverName(u uri.URI) string {
	return strings.TrimSuffix(strings.TrimPrefix(u.Host(), "["), "]")
}

func (s *Stream) Read(p []byte) (int, error) {
	if err := s.arm(s.conn.SetReadDeadline, s.readTimeout); err != nil {
		return 0, errors.Wrap(err, "reading")
	}

	n, err := s.conn.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, errors.Wrap(err, "reading")
	}
	// io.EOF is returned as is.
	return n, err
}

func (s *Stream) Write(p []byte) (int, error) {
	if err := s.arm(s.conn.SetWriteDeadline, s.writeTimeout); err != nil {
		return 0, errors.Wrap(err, "writing")
	}

	n, err := s.conn.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "writing")
	}
	return n, nil
}

func (s *Stream) Close() error { return s.conn.Close() }

func (s *Stream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// arm sets the deadline of the next operation.
func (s *Stream) arm(set func(time.Time) error, timeout time.Duration) error {
	d := s.deadlineFor(timeout)
	if s.exceeded(d) {
		return transport.ErrDeadLineExceeded
	}
	return set(d)
}

// deadlineFor returns the earlier of now+timeout and the call deadline.
func (s *Stream) deadlineFor(timeout time.Duration) time.Time {
	d := s.deadline
	if timeout > 0 {
		if op := s.clock.Now().Add(timeout); d.IsZero() || op.Before(d) {
			d = op
		}
	}
	return d
}

func (s *Stream) exceeded(d time.Time) bool {
	return !d.IsZero() && !s.clock.Now().Before(d)
}
