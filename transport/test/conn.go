// Package test holds suites shared by [transport.BufferedConn] implementations.
package test

import (
	"io"
	"net"
	"sync"
	"time"

	"minhttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// ConnTestSuite expects C1 and C2 to be connected to each other.
// Embedders set C1 and C2 on SetupTest, after calling ConnTestSuite.SetupTest.
type ConnTestSuite struct {
	suite.Suite
	C1, C2 transport.BufferedConn
	Clock  clock.Clock

	done  chan struct{}
	timer *time.Timer
}

func (s *ConnTestSuite) SetupTest() {
	s.done = make(chan struct{})
	s.Clock = clock.New() // Use real-time timer for now.

	s.timer = time.AfterFunc(time.Second, func() {
		select {
		case <-s.done:
		default:
			s.FailNow("timeout exceeded")
		}
	})
}

func (s *ConnTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.C1.Close())
	s.NoError(s.C2.Close())
	close(s.done)
	s.timer.Stop()
}

func (s *ConnTestSuite) TestReadWrite() {
	data := []byte("Hello, World!")

	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Add(2)

	go func() {
		defer wg.Done()
		n, err := s.C1.Write(data)
		s.NoError(err)
		s.Equal(len(data), n)
	}()
	go func() {
		defer wg.Done()
		buf := make([]byte, len(data))

		_, err := io.ReadFull(s.C2, buf)
		s.NoError(err)
		s.Equal(data, buf)
	}()
}

func (s *ConnTestSuite) TestWriteRace() {
	data := []byte("ABCD")
	N := 10

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()

		result, err := io.ReadAll(s.C2)
		s.NoError(err)
		// Writes are never interleaved.
		s.Equal(len(data)*N, len(result))
		for i := 0; i+len(data) <= len(result); i += len(data) {
			s.Equal(data, result[i:i+len(data)])
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var wwg sync.WaitGroup
		for range N {
			wwg.Add(1)
			go func() {
				defer wwg.Done()
				n, err := s.C1.Write(data)
				s.NoError(err)
				s.Equal(len(data), n)
			}()
		}
		wwg.Wait()
		s.NoError(s.C1.Close())
	}()
}

func (s *ConnTestSuite) TestClose() {
	buf := make([]byte, 10)

	s.Require().NoError(s.C1.Close())

	n, err := s.C1.Read(buf)
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)

	n, err = s.C1.Write(buf)
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)

	// Counterpart sees end of stream.
	n, err = s.C2.Read(buf)
	s.ErrorIs(err, io.EOF)
	s.Zero(n)

	n, err = s.C2.Write(buf)
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)
}

func (s *ConnTestSuite) TestReadBeforeClose() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Read(make([]byte, 1))
		s.ErrorIs(err, transport.ErrConnClosed)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.C1.Close())
}

func (s *ConnTestSuite) TestReadBeforeCounterpartClose() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Read(make([]byte, 1))
		s.ErrorIs(err, io.EOF)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.C2.Close())
}

func (s *ConnTestSuite) TestWriteBeforeClose() {
	// Bigger than the buffer, so the write blocks.
	input := make([]byte, s.C1.WriteBufSize()+1)

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Write(input)
		s.ErrorIs(err, transport.ErrConnClosed)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.C1.Close())
}

func (s *ConnTestSuite) TestReadDeadLine() {
	s.Require().NoError(s.C1.SetReadDeadline(s.Clock.Now().Add(-time.Second)))

	b := make([]byte, 1)
	n, err := s.C1.Read(b)
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)

	var netErr net.Error
	s.Require().ErrorAs(err, &netErr)
	s.True(netErr.Timeout())
}

func (s *ConnTestSuite) TestBlockedReadDeadLine() {
	s.Require().NoError(s.C1.SetReadDeadline(s.Clock.Now().Add(50 * time.Millisecond)))

	n, err := s.C1.Read(make([]byte, 1))
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)

	// Clearing the deadline makes the conn usable again.
	s.Require().NoError(s.C1.SetReadDeadline(time.Time{}))
	_, err = s.C2.Write([]byte("x"))
	s.Require().NoError(err)

	n, err = s.C1.Read(make([]byte, 1))
	s.NoError(err)
	s.Equal(1, n)
}

func (s *ConnTestSuite) TestWriteDeadLine() {
	s.Require().NoError(s.C1.SetWriteDeadline(s.Clock.Now().Add(-time.Second)))

	b := make([]byte, 1)
	n, err := s.C1.Write(b)
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)
}

func (s *ConnTestSuite) TestBlockedWriteDeadLine() {
	s.Require().NoError(s.C1.SetDeadline(s.Clock.Now().Add(50 * time.Millisecond)))

	// Fills the buffer, and waits for the rest.
	n, err := s.C1.Write(make([]byte, s.C1.WriteBufSize()+1))
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Equal(int(s.C1.WriteBufSize()), n)
}

func (s *ConnTestSuite) TestAddr() {
	local1, remote1 := s.C1.LocalAddr(), s.C1.RemoteAddr()
	local2, remote2 := s.C2.LocalAddr(), s.C2.RemoteAddr()

	s.Equal(local1, remote2)
	s.Equal(local2, remote1)
}

func (s *ConnTestSuite) TestBothWrite() {
	size1, size2 := int(s.C1.ReadBufSize()), int(s.C2.ReadBufSize())

	var wg sync.WaitGroup
	wg.Add(2)
	defer wg.Wait()

	go func() {
		defer wg.Done()
		b := make([]byte, size2)

		// Write as much as c2 can handle.
		n, err := s.C1.Write(b)
		s.NoError(err)
		s.Equal(size2, n)

		n, err = io.ReadFull(s.C1, make([]byte, size1))
		s.NoError(err)
		s.Equal(size1, n)
	}()

	go func() {
		defer wg.Done()
		b := make([]byte, size1)

		// Write as much as c1 can handle.
		n, err := s.C2.Write(b)
		s.NoError(err)
		s.Equal(size1, n)

		n, err = io.ReadFull(s.C2, make([]byte, size2))
		s.NoError(err)
		s.Equal(size2, n)
	}()
}

func (s *ConnTestSuite) TestReadAfterClose() {
	size1 := int(s.C1.ReadBufSize())

	n, err := s.C2.Write(make([]byte, size1))
	s.Require().NoError(err)
	s.Require().Equal(size1, n)

	s.Require().NoError(s.C2.Close())

	n, err = io.ReadFull(s.C1, make([]byte, size1))
	s.Require().NoError(err)
	s.Equal(size1, n)

	n, err = s.C1.Read(make([]byte, 1))
	s.ErrorIs(err, io.EOF)
	s.Zero(n)
}
