package pipe

import (
	"context"
	"net"
	"sync"

	"minhttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const DefaultBufSize = 64 << 10

type pipeRequest struct {
	conn     net.Conn
	accepted chan struct{}
}

// PipeTransport dials listeners living in the same process through buffered pipes.
// Addresses are opaque names, such as "example.com:80".
type PipeTransport struct {
	listeners map[string]*pipeListener
	clock     clock.Clock
	bufSize   uint

	mu sync.Mutex
}

func NewPipeTransport(clock clock.Clock, bufSize uint) *PipeTransport {
	if bufSize == 0 {
		bufSize = DefaultBufSize
	}

	return &PipeTransport{
		listeners: make(map[string]*pipeListener),
		clock:     clock,
		bufSize:   bufSize,
	}
}

var _ transport.Dialer = (*PipeTransport)(nil)

func (pt *PipeTransport) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	pt.mu.Lock()
	listener, ok := pt.listeners[address]
	pt.mu.Unlock()

	if !ok {
		return nil, errors.Wrapf(transport.ErrNetUnreachable, "%s %s", network, address)
	}

	p1, p2 := BufferedPipe("dialer", address, pt.clock, pt.bufSize)

	req := pipeRequest{
		conn:     p2,
		accepted: make(chan struct{}, 1),
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-listener.closed:
		return nil, errors.Wrapf(transport.ErrConnRefused, "%s", address)
	case listener.requests <- req:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case _, accepted := <-req.accepted:
		if !accepted {
			return nil, errors.Wrapf(transport.ErrConnRefused, "%s", address)
		}
	}

	return p1, nil
}

func (pt *PipeTransport) Listen(address string) (transport.Listener, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if _, ok := pt.listeners[address]; ok {
		return nil, transport.ErrAddrAlreadyInUse
	}

	pl := &pipeListener{
		addr:      Addr{Name: address},
		transport: pt,
		requests:  make(chan pipeRequest),
		closed:    make(chan struct{}),
	}
	pt.listeners[address] = pl

	return pl, nil
}

type pipeListener struct {
	addr Addr

	transport *PipeTransport

	requests chan pipeRequest
	closed   chan struct{}

	mu sync.Mutex
}

var _ transport.Listener = (*pipeListener)(nil)

func (pl *pipeListener) Addr() net.Addr { return pl.addr }

func (pl *pipeListener) Accept(ctx context.Context) (net.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-pl.closed:
		return nil, transport.ErrConnListenerClosed
	case request := <-pl.requests:
		select {
		case <-ctx.Done():
			// Refuse, so the dialer doesn't wait for an accept that never comes.
			close(request.accepted)
			return nil, ctx.Err()
		case request.accepted <- struct{}{}:
		}

		return request.conn, nil
	}
}

func (pl *pipeListener) Close() error {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	select {
	case <-pl.closed:
		return transport.ErrConnListenerClosed
	default:
	}

	close(pl.closed)

	// Refuse requests that were queued but not accepted.
	for range len(pl.requests) {
		req := <-pl.requests
		close(req.accepted)
	}

	pl.transport.mu.Lock()
	delete(pl.transport.listeners, pl.addr.Name)
	pl.transport.mu.Unlock()

	return nil
}
