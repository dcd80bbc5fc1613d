package tlstest

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	tlslib "minhttp/session/tls"
	"minhttp/transport"
	"minhttp/transport/pipe"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// SecureTransportTestSuite runs a client handshake of Transport
// against a crypto/tls server over buffered pipes.
type SecureTransportTestSuite struct {
	suite.Suite
	Transport tlslib.SecureTransport

	cert         Certificate
	client, peer net.Conn
	wg           sync.WaitGroup
}

func (s *SecureTransportTestSuite) SetupTest() {
	cert, err := NewCertificate("example.test", "127.0.0.1")
	s.Require().NoError(err)
	s.cert = cert

	s.client, s.peer = pipe.BufferedPipe("client", "server", clock.New(), pipe.DefaultBufSize)
}

func (s *SecureTransportTestSuite) TearDownTest() {
	s.client.Close()
	s.peer.Close()
	s.wg.Wait()
	goleak.VerifyNone(s.T())
}

// serve handshakes as a server and writes payload on success.
func (s *SecureTransportTestSuite) serve(payload string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		server := Server(s.peer, s.cert)
		defer server.Close()

		if err := server.Handshake(); err != nil {
			return
		}
		_, _ = io.WriteString(server, payload)
	}()
}

func (s *SecureTransportTestSuite) trusted() *tlslib.Config {
	cfg := &tlslib.Config{}
	s.Require().NoError(cfg.AddRootCertPEM(s.cert.PEM))
	return cfg
}

func (s *SecureTransportTestSuite) TestHandshake() {
	s.serve("hello")

	conn, err := s.Transport.Handshake(context.Background(), s.client, "example.test", s.trusted())
	s.Require().NoError(err)
	defer conn.Close()

	buf := make([]byte, 5)
	_, err = io.ReadFull(conn, buf)
	s.NoError(err)
	s.Equal("hello", string(buf))
}

func (s *SecureTransportTestSuite) TestHandshakeIP() {
	s.serve("hi")

	conn, err := s.Transport.Handshake(context.Background(), s.client, "127.0.0.1", s.trusted())
	s.Require().NoError(err)
	defer conn.Close()

	buf := make([]byte, 2)
	_, err = io.ReadFull(conn, buf)
	s.NoError(err)
	s.Equal("hi", string(buf))
}

func (s *SecureTransportTestSuite) TestUnknownAuthority() {
	s.serve("")

	_, err := s.Transport.Handshake(context.Background(), s.client, "example.test", &tlslib.Config{
		RootCAs: NewEmptyPool(),
	})
	s.ErrorIs(err, tlslib.ErrHandshakeFailed)
}

func (s *SecureTransportTestSuite) TestWrongName() {
	s.serve("")

	_, err := s.Transport.Handshake(context.Background(), s.client, "other.test", s.trusted())
	s.ErrorIs(err, tlslib.ErrHandshakeFailed)
}

func (s *SecureTransportTestSuite) TestInsecureSkipVerify() {
	s.serve("ok")

	conn, err := s.Transport.Handshake(context.Background(), s.client, "other.test", &tlslib.Config{
		InsecureSkipVerify: true,
	})
	s.Require().NoError(err)
	defer conn.Close()

	buf := make([]byte, 2)
	_, err = io.ReadFull(conn, buf)
	s.NoError(err)
	s.Equal("ok", string(buf))
}

func (s *SecureTransportTestSuite) TestDeadline() {
	// Nobody answers.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Transport.Handshake(ctx, s.client, "example.test", s.trusted())
	s.Error(err)
	s.True(transport.IsTimeout(err))
	s.NotErrorIs(err, tlslib.ErrHandshakeFailed)
}
