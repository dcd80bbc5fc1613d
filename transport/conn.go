// Package transport defines the byte stream boundary the http client is built on.
package transport

import (
	"context"
	"net"
	"os"

	"github.com/pkg/errors"
)

const NetworkTCP = "tcp"

var (
	ErrConnClosed         = errors.New("connection is closed")
	ErrConnListenerClosed = errors.New("conn listener is closed")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrConnRefused        = errors.New("connection refused")
	ErrNetUnreachable     = errors.New("network is unreachable")
	ErrAddrAlreadyInUse   = errors.New("address already in use")

	// ErrDeadLineExceeded satisfies [net.Error] with Timeout() being true.
	ErrDeadLineExceeded error = deadlineExceededError{}
)

type deadlineExceededError struct{}

func (deadlineExceededError) Error() string   { return "deadline exceeded" }
func (deadlineExceededError) Timeout() bool   { return true }
func (deadlineExceededError) Temporary() bool { return true }

var _ net.Error = deadlineExceededError{}

// BufferedConn is a connection with fixed size buffers on each direction.
type BufferedConn interface {
	net.Conn
	ReadBufSize() uint
	WriteBufSize() uint
}

type Listener interface {
	Accept(ctx context.Context) (net.Conn, error)
	Close() error
	Addr() net.Addr
}

type Dialer interface {
	Dial(ctx context.Context, network, address string) (net.Conn, error)
}

// IsTimeout reports whether err was caused by an exceeded deadline or timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDeadLineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
