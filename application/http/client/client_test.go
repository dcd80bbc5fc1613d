package client

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"minhttp/application/http"
	"minhttp/application/util/uri"
	"minhttp/lib/secret"
	"minhttp/session/tls"
	"minhttp/session/tls/stdtls"
	"minhttp/session/tls/tlstest"
	"minhttp/transport"
	"minhttp/transport/pipe"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type received struct {
	head http.RequestHead
	body []byte
}

type ClientTestSuite struct {
	suite.Suite

	clock     *clock.Mock
	transport *pipe.PipeTransport
	client    *Client

	listeners []transport.Listener
	done      chan struct{}
	wg        sync.WaitGroup
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.transport = pipe.NewPipeTransport(s.clock, 0)
	s.client = New(s.transport, stdtls.Transport{}, slog.New(slog.DiscardHandler), s.clock, DefaultOptions)

	s.listeners = nil
	s.done = make(chan struct{})
}

func (s *ClientTestSuite) TearDownTest() {
	close(s.done)
	for _, lis := range s.listeners {
		lis.Close()
	}
	s.wg.Wait()
	goleak.VerifyNone(s.T())
}

// listen serves address. The i-th connection accepted gets its request read,
// then is answered by handlers[i]. Requests are sent to the returned channel.
func (s *ClientTestSuite) listen(address string, handlers ...func(conn net.Conn)) <-chan received {
	return s.serve(address, nil, handlers...)
}

func (s *ClientTestSuite) listenTLS(address string, cert tlstest.Certificate, handlers ...func(conn net.Conn)) <-chan received {
	return s.serve(address, func(conn net.Conn) net.Conn { return tlstest.Server(conn, cert) }, handlers...)
}

func (s *ClientTestSuite) serve(address string, wrap func(net.Conn) net.Conn, handlers ...func(conn net.Conn)) <-chan received {
	lis, err := s.transport.Listen(address)
	s.Require().NoError(err)
	s.listeners = append(s.listeners, lis)

	reqs := make(chan received, len(handlers))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Further dials are refused.
		defer lis.Close()

		for _, handle := range handlers {
			conn, err := lis.Accept(context.Background())
			if err != nil {
				return
			}
			if wrap != nil {
				conn = wrap(conn)
			}

			req, err := readRequest(conn)
			if err != nil {
				conn.Close()
				return
			}
			reqs <- req

			handle(conn)
			conn.Close()
		}
	}()

	return reqs
}

func readRequest(conn net.Conn) (received, error) {
	br := bufio.NewReader(conn)

	var req received
	if err := http.NewRequestDecoder(br, http.DefaultDecodeOptions).DecodeHead(&req.head); err != nil {
		return received{}, err
	}

	if cl, ok := req.head.Headers.Get(http.FieldContentLength); ok {
		n, err := strconv.Atoi(cl)
		if err != nil {
			return received{}, err
		}
		req.body = make([]byte, n)
		if _, err := io.ReadFull(br, req.body); err != nil {
			return received{}, err
		}
	}

	return req, nil
}

func respond(raw string) func(conn net.Conn) {
	return func(conn net.Conn) { _, _ = io.WriteString(conn, raw) }
}

func redirectTo(code int, location string) func(conn net.Conn) {
	return respond("HTTP/1.1 " + strconv.Itoa(code) + " Redirect\r\nLocation: " + location + "\r\nContent-Length: 4\r\n\r\nmove")
}

// stall keeps the connection open until the test ends.
func (s *ClientTestSuite) stall(conn net.Conn) { <-s.done }

func (s *ClientTestSuite) newRequest(method http.Method, raw string) *Request {
	req, err := NewRequest(method, raw)
	s.Require().NoError(err)
	return req
}

// doAsync runs Do, advancing the clock by a second until it returns.
func (s *ClientTestSuite) doAsync(req *Request) (*http.Response, error) {
	type result struct {
		resp *http.Response
		err  error
	}

	results := make(chan result, 1)
	go func() {
		resp, err := s.client.Do(context.Background(), req, nil)
		results <- result{resp, err}
	}()

	s.Require().Eventually(func() bool {
		s.clock.Add(time.Second)
		return len(results) > 0
	}, 5*time.Second, 10*time.Millisecond)

	r := <-results
	return r.resp, r.err
}

func (s *ClientTestSuite) requireError(err error, kind Kind, op string) *Error {
	s.Require().Error(err)

	var e *Error
	s.Require().True(errors.As(err, &e), "error is not *Error: %v", err)
	s.Equal(kind, e.Kind, "unexpected kind of %v", err)
	s.Equal(op, e.Op)
	return e
}

func (s *ClientTestSuite) TestGet() {
	reqs := s.listen("example.test:80",
		respond("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello"),
	)

	var sink bytes.Buffer
	resp, err := s.client.Get(context.Background(), "http://example.test/path?q=1#frag", &sink)
	s.Require().NoError(err)

	s.EqualValues(200, resp.StatusCode)
	s.Equal("OK", resp.Reason)
	s.Equal(http.Version1_1, resp.Version)
	s.EqualValues(5, resp.BodyBytes)
	s.Equal("hello", sink.String())

	ct, _ := resp.Headers.Get(http.FieldContentType)
	s.Equal("text/plain", ct)

	req := <-reqs
	s.Equal(http.MethodGet, req.head.Method)
	s.Equal("/path?q=1", req.head.Target)
	s.Equal([]string{http.FieldHost, http.FieldUserAgent, http.FieldConnection}, req.head.Headers.Names())

	host, _ := req.head.Headers.Get(http.FieldHost)
	s.Equal("example.test", host)
	ua, _ := req.head.Headers.Get(http.FieldUserAgent)
	s.Equal(DefaultUserAgent, ua)
	conn, _ := req.head.Headers.Get(http.FieldConnection)
	s.Equal("close", conn)
}

func (s *ClientTestSuite) TestHostHeaderKeepsExplicitPort() {
	reqs := s.listen("example.test:8080", respond("HTTP/1.1 204 No Content\r\n\r\n"))

	resp, err := s.client.Get(context.Background(), "http://example.test:8080/", nil)
	s.Require().NoError(err)
	s.EqualValues(204, resp.StatusCode)

	req := <-reqs
	host, _ := req.head.Headers.Get(http.FieldHost)
	s.Equal("example.test:8080", host)
}

func (s *ClientTestSuite) TestHead() {
	s.listen("example.test:80", respond("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\n"))

	resp, err := s.client.Head(context.Background(), "http://example.test/")
	s.Require().NoError(err)
	s.EqualValues(200, resp.StatusCode)
	s.EqualValues(0, resp.BodyBytes)
}

func (s *ClientTestSuite) TestPost() {
	reqs := s.listen("example.test:80", respond("HTTP/1.1 201 Created\r\nContent-Length: 0\r\n\r\n"))

	resp, err := s.client.Post(context.Background(), "http://example.test/items", BytesBody([]byte("payload")), nil)
	s.Require().NoError(err)
	s.EqualValues(201, resp.StatusCode)

	req := <-reqs
	s.Equal(http.MethodPost, req.head.Method)
	s.Equal("payload", string(req.body))
	cl, _ := req.head.Headers.Get(http.FieldContentLength)
	s.Equal("7", cl)
}

func (s *ClientTestSuite) TestPostWithoutBodySendsZeroLength() {
	reqs := s.listen("example.test:80", respond("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))

	_, err := s.client.Post(context.Background(), "http://example.test/", nil, nil)
	s.Require().NoError(err)

	req := <-reqs
	cl, ok := req.head.Headers.Get(http.FieldContentLength)
	s.True(ok)
	s.Equal("0", cl)
}

func (s *ClientTestSuite) TestChunked() {
	s.listen("example.test:80", respond(
		"HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"+
			"4\r\nWiki\r\n5;ext=1\r\npedia\r\n0\r\nChecksum: abc\r\n\r\n",
	))

	var sink bytes.Buffer
	resp, err := s.client.Get(context.Background(), "http://example.test/", &sink)
	s.Require().NoError(err)

	s.Equal("Wikipedia", sink.String())
	s.EqualValues(9, resp.BodyBytes)
	sum, ok := resp.Trailers.Get("Checksum")
	s.True(ok)
	s.Equal("abc", sum)
}

func (s *ClientTestSuite) TestCloseDelimited() {
	s.listen("example.test:80", respond("HTTP/1.0 200 OK\r\n\r\nuntil the end"))

	var sink bytes.Buffer
	resp, err := s.client.Get(context.Background(), "http://example.test/", &sink)
	s.Require().NoError(err)
	s.Equal(http.Version1_0, resp.Version)
	s.Equal("until the end", sink.String())
}

func (s *ClientTestSuite) TestInterimResponsesAreSkipped() {
	s.listen("example.test:80", respond(
		"HTTP/1.1 100 Continue\r\nX-Interim: yes\r\n\r\n"+
			"HTTP/1.1 103 Early Hints\r\nLink: </style.css>\r\n\r\n"+
			"HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok",
	))

	var sink bytes.Buffer
	resp, err := s.client.Get(context.Background(), "http://example.test/", &sink)
	s.Require().NoError(err)

	s.EqualValues(200, resp.StatusCode)
	s.Equal([]string{http.FieldContentLength}, resp.Headers.Names())
	s.Equal("ok", sink.String())
}

func (s *ClientTestSuite) TestRedirectChain() {
	const n = 3

	reqs := s.listen("example.test:80",
		redirectTo(302, "/1"),
		redirectTo(301, "/2"),
		redirectTo(307, "/3"),
		respond("HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\ndone"),
	)

	req := s.newRequest(http.MethodGet, "http://example.test/0")
	req.Redirect = Follow(n)

	var sink bytes.Buffer
	resp, err := s.client.Do(context.Background(), req, &sink)
	s.Require().NoError(err)

	s.EqualValues(200, resp.StatusCode)
	s.Equal("done", sink.String())

	for i := range n + 1 {
		r := <-reqs
		s.Equal("/"+strconv.Itoa(i), r.head.Target)
		s.Equal(http.MethodGet, r.head.Method)
	}
}

func (s *ClientTestSuite) TestRedirectLimitExceeded() {
	const n = 3

	s.listen("example.test:80",
		redirectTo(302, "/1"),
		redirectTo(302, "/2"),
		redirectTo(302, "/3"),
	)

	req := s.newRequest(http.MethodGet, "http://example.test/0")
	req.Redirect = Follow(n - 1)

	var sink bytes.Buffer
	resp, err := s.client.Do(context.Background(), req, &sink)
	s.Nil(resp)

	e := s.requireError(err, KindRedirectLimitExceeded, OpRedirect)
	s.ErrorIs(err, ErrRedirectLimitExceeded)
	s.EqualValues(n-1, e.Hop)
	s.Require().NotNil(e.Response)
	s.EqualValues(302, e.Response.StatusCode)
	loc, _ := e.Response.Location()
	s.Equal("/3", loc)
	s.Zero(sink.Len())
}

func (s *ClientTestSuite) TestFollowZeroHops() {
	s.listen("example.test:80", redirectTo(302, "/next"))

	req := s.newRequest(http.MethodGet, "http://example.test/")
	req.Redirect = Follow(0)

	_, err := s.client.Do(context.Background(), req, nil)
	s.requireError(err, KindRedirectLimitExceeded, OpRedirect)
}

func (s *ClientTestSuite) TestNoFollow() {
	s.listen("example.test:80", redirectTo(302, "/next"))

	req := s.newRequest(http.MethodGet, "http://example.test/")
	req.Redirect = NoFollow()

	var sink bytes.Buffer
	resp, err := s.client.Do(context.Background(), req, &sink)
	s.Require().NoError(err)
	s.EqualValues(302, resp.StatusCode)
	s.Equal("move", sink.String())
}

func (s *ClientTestSuite) TestFollowIf() {
	s.listen("example.test:80", redirectTo(302, "http://elsewhere.test/"))

	req := s.newRequest(http.MethodGet, "http://example.test/")
	req.Redirect = FollowIf(5, func(next uri.URI) bool {
		return next.Host() == "example.test"
	})

	var sink bytes.Buffer
	resp, err := s.client.Do(context.Background(), req, &sink)
	s.Require().NoError(err)
	s.EqualValues(302, resp.StatusCode)
	s.Equal("move", sink.String())
}

func (s *ClientTestSuite) TestRedirectWithoutLocation() {
	s.listen("example.test:80", respond("HTTP/1.1 302 Found\r\nContent-Length: 0\r\n\r\n"))

	resp, err := s.client.Get(context.Background(), "http://example.test/", nil)
	s.Require().NoError(err)
	s.EqualValues(302, resp.StatusCode)
}

func (s *ClientTestSuite) TestSeeOtherDropsBody() {
	reqs := s.listen("example.test:80",
		redirectTo(303, "/result"),
		respond("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"),
	)

	req := s.newRequest(http.MethodPost, "http://example.test/form")
	req.Headers.Set(http.FieldContentType, "text/plain")
	req.Body = BytesBody([]byte("payload"))

	_, err := s.client.Do(context.Background(), req, nil)
	s.Require().NoError(err)

	first := <-reqs
	s.Equal(http.MethodPost, first.head.Method)
	s.Equal("payload", string(first.body))

	second := <-reqs
	s.Equal(http.MethodGet, second.head.Method)
	s.Equal("/result", second.head.Target)
	s.Empty(second.body)
	s.False(second.head.Headers.Has(http.FieldContentLength))
	s.False(second.head.Headers.Has(http.FieldContentType))
}

func (s *ClientTestSuite) TestTemporaryRedirectReplaysBody() {
	reqs := s.listen("example.test:80",
		redirectTo(307, "/again"),
		respond("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"),
	)

	req := s.newRequest(http.MethodPut, "http://example.test/")
	req.Body = ReaderBody(strings.NewReader("payload"), 7)

	_, err := s.client.Do(context.Background(), req, nil)
	s.Require().NoError(err)

	<-reqs
	second := <-reqs
	s.Equal(http.MethodPut, second.head.Method)
	s.Equal("payload", string(second.body))
}

func (s *ClientTestSuite) TestTemporaryRedirectNonReplayableBody() {
	s.listen("example.test:80",
		redirectTo(308, "/again"),
		respond("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"),
	)

	req := s.newRequest(http.MethodPost, "http://example.test/")
	req.Body = ReaderBody(struct{ io.Reader }{strings.NewReader("payload")}, 7)

	_, err := s.client.Do(context.Background(), req, nil)
	e := s.requireError(err, KindIO, OpWrite)
	s.ErrorIs(err, ErrBodyNotReplayable)
	s.EqualValues(1, e.Hop)
}

func (s *ClientTestSuite) TestAuthorizationDroppedOnCrossHostRedirect() {
	first := s.listen("a.test:80", redirectTo(302, "/same"), redirectTo(302, "http://b.test/"))
	second := s.listen("b.test:80", respond("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))

	auth := BasicAuth("user", "pass")

	req := s.newRequest(http.MethodGet, "http://a.test/")
	req.Auth = auth

	_, err := s.client.Do(context.Background(), req, nil)
	s.Require().NoError(err)

	for range 2 {
		r := <-first
		got, _ := r.head.Headers.Get(http.FieldAuthorization)
		s.Equal("Basic dXNlcjpwYXNz", got)
	}

	r := <-second
	s.False(r.head.Headers.Has(http.FieldAuthorization))

	basic := auth.(*basicAuth)
	s.True(basic.user.Destroyed())
	s.True(basic.pass.Destroyed())
}

func (s *ClientTestSuite) TestReusedRequestWithDestroyedAuthFails() {
	ok := respond("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
	reqs := s.listen("example.test:80", ok, ok)

	req := s.newRequest(http.MethodGet, "http://example.test/")
	req.Auth = BearerAuth("abc")

	_, err := s.client.Do(context.Background(), req, nil)
	s.Require().NoError(err)
	got, _ := (<-reqs).head.Headers.Get(http.FieldAuthorization)
	s.Equal("Bearer abc", got)

	_, err = s.client.Do(context.Background(), req, nil)
	s.requireError(err, KindIO, OpWrite)
	s.ErrorIs(err, secret.ErrDestroyed)
	s.Empty(reqs)
}

func (s *ClientTestSuite) TestAuthorizationFieldDroppedOnCrossHostRedirect() {
	s.listen("a.test:80", redirectTo(307, "http://b.test/"))
	reqs := s.listen("b.test:80", respond("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))

	req := s.newRequest(http.MethodGet, "http://a.test/")
	req.Headers.Set(http.FieldAuthorization, "Bearer abc")

	_, err := s.client.Do(context.Background(), req, nil)
	s.Require().NoError(err)

	r := <-reqs
	s.False(r.head.Headers.Has(http.FieldAuthorization))
	// The request itself is left untouched.
	s.True(req.Headers.Has(http.FieldAuthorization))
}

func (s *ClientTestSuite) TestMalformedLocation() {
	s.listen("example.test:80", redirectTo(302, "ftp://example.test/file"))

	_, err := s.client.Get(context.Background(), "http://example.test/", nil)
	s.requireError(err, KindMalformedURI, OpRedirect)
}

func (s *ClientTestSuite) TestConnectionFailed() {
	_, err := s.client.Get(context.Background(), "http://nowhere.test/", nil)
	e := s.requireError(err, KindConnectionFailed, OpConnect)
	s.Equal("http://nowhere.test/", e.URI)
}

func (s *ClientTestSuite) TestMalformedURI() {
	_, err := s.client.Get(context.Background(), "http://exa mple.test/", nil)
	s.requireError(err, KindMalformedURI, OpResolve)

	req := s.newRequest(http.MethodGet, "ftp://example.test/")
	_, err = s.client.Do(context.Background(), req, nil)
	s.requireError(err, KindMalformedURI, OpResolve)
}

func (s *ClientTestSuite) TestMalformedStatusLine() {
	s.listen("example.test:80", respond("HTTP/1.1 2x0 OK\r\n\r\n"))

	_, err := s.client.Get(context.Background(), "http://example.test/", nil)
	s.requireError(err, KindMalformedStatusLine, OpReadHead)
}

func (s *ClientTestSuite) TestMalformedHeader() {
	s.listen("example.test:80", respond("HTTP/1.1 200 OK\r\nBad Name: x\r\n\r\n"))

	_, err := s.client.Get(context.Background(), "http://example.test/", nil)
	s.requireError(err, KindMalformedHeader, OpReadHead)
}

func (s *ClientTestSuite) TestHeaderLineTooLong() {
	s.listen("example.test:80", respond("HTTP/1.1 200 OK\r\nX-Long: "+strings.Repeat("a", 9000)+"\r\n\r\n"))

	_, err := s.client.Get(context.Background(), "http://example.test/", nil)
	s.requireError(err, KindMalformedHeader, OpReadHead)
	s.ErrorIs(err, http.ErrFieldLineTooLong)
}

func (s *ClientTestSuite) TestConflictingContentLength() {
	s.listen("example.test:80", respond("HTTP/1.1 200 OK\r\nContent-Length: 3\r\nContent-Length: 4\r\n\r\nabcd"))

	_, err := s.client.Get(context.Background(), "http://example.test/", nil)
	s.requireError(err, KindMalformedHeader, OpReadHead)
}

func (s *ClientTestSuite) TestMalformedChunk() {
	s.listen("example.test:80", respond("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nWik"))

	var sink bytes.Buffer
	resp, err := s.client.Get(context.Background(), "http://example.test/", &sink)
	s.Nil(resp)
	s.requireError(err, KindMalformedChunk, OpReadBody)
}

func (s *ClientTestSuite) TestTruncatedBody() {
	s.listen("example.test:80", respond("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nabc"))

	_, err := s.client.Get(context.Background(), "http://example.test/", nil)
	s.requireError(err, KindIO, OpReadBody)
	s.ErrorIs(err, io.ErrUnexpectedEOF)
}

func (s *ClientTestSuite) TestReadTimeout() {
	s.listen("example.test:80", s.stall)

	req := s.newRequest(http.MethodGet, "http://example.test/")
	req.Timeouts.Read = 10 * time.Second

	start := s.clock.Now()
	_, err := s.doAsync(req)

	s.requireError(err, KindTimeout, OpReadHead)
	s.GreaterOrEqual(s.clock.Since(start), 10*time.Second)
}

func (s *ClientTestSuite) TestDeadlineIsCumulative() {
	s.listen("example.test:80",
		func(conn net.Conn) {
			s.clock.Sleep(5 * time.Second)
			redirectTo(302, "/slow")(conn)
		},
		s.stall,
	)

	req := s.newRequest(http.MethodGet, "http://example.test/")
	req.Timeouts.Read = time.Minute
	req.Timeouts.Total = 30 * time.Second

	start := s.clock.Now()
	_, err := s.doAsync(req)

	e := s.requireError(err, KindTimeout, OpReadHead)
	s.EqualValues(1, e.Hop)

	elapsed := s.clock.Since(start)
	s.GreaterOrEqual(elapsed, 30*time.Second)
	// A fresh read timeout on the second hop would have run past a minute.
	s.Less(elapsed, time.Minute)
}

func (s *ClientTestSuite) TestTLS() {
	cert, err := tlstest.NewCertificate("secure.test")
	s.Require().NoError(err)

	s.listenTLS("secure.test:443", cert,
		respond("HTTP/1.1 200 OK\r\nContent-Length: 6\r\n\r\nsecret"),
	)

	req := s.newRequest(http.MethodGet, "https://secure.test/")
	req.TLS = &tls.Config{}
	s.Require().NoError(req.TLS.AddRootCertPEM(cert.PEM))

	var sink bytes.Buffer
	resp, err := s.client.Do(context.Background(), req, &sink)
	s.Require().NoError(err)
	s.EqualValues(200, resp.StatusCode)
	s.Equal("secret", sink.String())
}

func (s *ClientTestSuite) TestTLSFailure() {
	cert, err := tlstest.NewCertificate("secure.test")
	s.Require().NoError(err)

	lis, err := s.transport.Listen("secure.test:443")
	s.Require().NoError(err)
	s.listeners = append(s.listeners, lis)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		conn, err := lis.Accept(context.Background())
		if err != nil {
			return
		}
		server := tlstest.Server(conn, cert)
		_ = server.Handshake()
		server.Close()
	}()

	req := s.newRequest(http.MethodGet, "https://secure.test/")
	req.TLS = &tls.Config{RootCAs: tlstest.NewEmptyPool()}

	_, err = s.client.Do(context.Background(), req, nil)
	s.requireError(err, KindTLSFailure, OpHandshake)
}

func (s *ClientTestSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.client.Get(ctx, "http://example.test/", nil)
	s.requireError(err, KindIO, OpConnect)
	s.ErrorIs(err, context.Canceled)
}

func (s *ClientTestSuite) TestIdempotentParsing() {
	raw := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nSet-Cookie: a=1\r\nSet-Cookie: b=2\r\nContent-Length: 3\r\n\r\nabc"
	s.listen("example.test:80", respond(raw), respond(raw))

	var first, second bytes.Buffer
	resp1, err := s.client.Get(context.Background(), "http://example.test/", &first)
	s.Require().NoError(err)
	resp2, err := s.client.Get(context.Background(), "http://example.test/", &second)
	s.Require().NoError(err)

	s.Equal(resp1, resp2)
	s.Equal(first.String(), second.String())
}
