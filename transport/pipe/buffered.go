// Package pipe provides in-memory connections and a transport dialing them.
package pipe

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"minhttp/transport"

	"github.com/benbjohnson/clock"
)

type Addr struct {
	Name string
}

var _ net.Addr = Addr{}

func (a Addr) Network() string { return "pipe" }
func (a Addr) String() string  { return a.Name }

// See:
// - https://github.com/golang/go/issues/24205
// - https://github.com/golang/go/issues/34502
type bufferedPipe struct {
	addr Addr

	buf *bytes.Buffer // protected by in.

	in, out  sync.Cond
	serialMu sync.Mutex // For serialized write operations.

	_closed  bool
	closedMu sync.Mutex

	rdeadLine, wdeadLine *deadline

	// the opposite pipe.
	counterpart *bufferedPipe
}

var _ transport.BufferedConn = (*bufferedPipe)(nil)

// BufferedPipe creates a pair of pipes. each of pipes will be asynchronouse, buffered.
// Because BufferedPipe only writes/reads data through the buffer, bufSize MUST be more than 0.
//
// Reading from a pipe whose counterpart is closed drains the buffer and then returns [io.EOF].
// Any operation on a closed pipe returns [transport.ErrConnClosed].
func BufferedPipe(name1, name2 string, clock clock.Clock, bufSize uint) (c1, c2 *bufferedPipe) {
	if bufSize == 0 {
		panic("buffer size cannot be 0")
	}

	c1 = newBufferedPipe(name1, clock, bufSize)
	c2 = newBufferedPipe(name2, clock, bufSize)
	c1.counterpart, c2.counterpart = c2, c1
	return
}

func newBufferedPipe(name string, clock clock.Clock, bufSize uint) *bufferedPipe {
	p := &bufferedPipe{
		buf:       bytes.NewBuffer(make([]byte, 0, bufSize)),
		rdeadLine: newDeadLine(clock),
		wdeadLine: newDeadLine(clock),
		addr:      Addr{Name: name},
	}
	p.in.L, p.out.L = &sync.Mutex{}, &sync.Mutex{}
	return p
}

func (p *bufferedPipe) ReadBufSize() uint    { return uint(p.buf.Cap()) }
func (p *bufferedPipe) WriteBufSize() uint   { return uint(p.counterpart.buf.Cap()) }
func (p *bufferedPipe) LocalAddr() net.Addr  { return p.addr }
func (p *bufferedPipe) RemoteAddr() net.Addr { return p.counterpart.addr }

func (p *bufferedPipe) Close() error {
	p.closedMu.Lock()
	p._closed = true
	p.closedMu.Unlock()

	wakeUp(&p.in)
	wakeUp(&p.out)
	wakeUp(&p.counterpart.in)
	wakeUp(&p.counterpart.out)
	return nil
}

func (p *bufferedPipe) Read(b []byte) (n int, err error) {
	defer func() {
		if err != nil {
			return
		}
		// If buffer was full and counterpart was waiting,
		// we must notify them that it is now available to write.
		wakeUp(&p.counterpart.out)
	}()

	p.in.L.Lock()
	defer p.in.L.Unlock()

	for {
		if p.closed() {
			return 0, transport.ErrConnClosed
		}

		// We must check for deadline first.
		if p.rdeadLine.exceeded() {
			return 0, transport.ErrDeadLineExceeded
		}

		// Even if counterpart is closed, we must be able to read from buffer.
		if p.buf.Len() > 0 {
			return p.buf.Read(b)
		}

		if p.counterpart.closed() {
			return 0, io.EOF
		}

		// Wait until one of conditions is satisfied.
		p.in.Wait()
	}
}

func (p *bufferedPipe) Write(b []byte) (n int, err error) {
	// Serialize write operations to prevent interleaving write.
	p.serialMu.Lock()
	defer p.serialMu.Unlock()

	p.out.L.Lock()
	defer p.out.L.Unlock()

	// Ensure all the bytes are sent.
	nn := 0
	for once := true; once || len(b) > 0; once = false {
		if p.closed() || p.counterpart.closed() {
			return nn, transport.ErrConnClosed
		}

		if p.wdeadLine.exceeded() {
			return nn, transport.ErrDeadLineExceeded
		}

		// It might race with counterpart's read. So acquire lock.
		p.counterpart.in.L.Lock()

		// We don't want counterpart's buffer to grow.
		remain := p.counterpart.buf.Cap() - p.counterpart.buf.Len()

		if canWrite := min(len(b), remain); canWrite > 0 {
			// Since we hold its read lock, read will start after write.
			p.counterpart.in.Broadcast()

			p.counterpart.buf.Write(b[:canWrite])
			b = b[canWrite:]
			nn += canWrite

			p.counterpart.in.L.Unlock()
			continue
		}

		p.counterpart.in.L.Unlock()
		p.out.Wait()
	}

	return nn, nil
}

func (p *bufferedPipe) closed() bool {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()

	return p._closed
}

// wakeUp wakes every waiter of c. Holding the lock prevents a waiter
// from missing it between checking its condition and waiting.
func wakeUp(c *sync.Cond) {
	c.L.Lock()
	c.Broadcast()
	c.L.Unlock()
}

func (p *bufferedPipe) SetDeadline(t time.Time) error {
	p.SetReadDeadline(t)
	p.SetWriteDeadline(t)
	return nil
}

func (p *bufferedPipe) SetReadDeadline(t time.Time) error {
	p.rdeadLine.set(t, func() { wakeUp(&p.in) })
	return nil
}

func (p *bufferedPipe) SetWriteDeadline(t time.Time) error {
	p.wdeadLine.set(t, func() { wakeUp(&p.out) })
	return nil
}

func newDeadLine(clock clock.Clock) *deadline { return &deadline{clock: clock} }

type deadline struct {
	clock clock.Clock
	m     sync.Mutex

	timer *clock.Timer
	t     time.Time
}

// set arms the deadline. onExceed must not call back into d.
func (d *deadline) set(t time.Time, onExceed func()) {
	d.m.Lock()
	defer d.m.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.t = t

	if !t.IsZero() {
		d.timer = d.clock.AfterFunc(d.clock.Until(t), onExceed)
	}
}

func (d *deadline) exceeded() bool {
	d.m.Lock()
	defer d.m.Unlock()

	if d.t.IsZero() {
		return false
	}

	return d.clock.Until(d.t) <= 0
}
