// Package client sends requests and follows redirects.
// A call is synchronous: every hop connects, writes the request,
// reads the response and closes the connection before the next hop starts.
package client

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"time"

	"minhttp/application/http"
	"minhttp/application/http/stream"
	"minhttp/application/http/transfer"
	"minhttp/application/util/uri"
	"minhttp/lib/types/pointer"
	"minhttp/session/tls"
	"minhttp/transport"
	"minhttp/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Options struct {
	Encode http.EncodeOptions
	Decode http.DecodeOptions

	// ReadBufferSize is the size of the buffer responses are read through.
	ReadBufferSize int
}

var DefaultOptions = Options{
	Encode:         http.DefaultEncodeOptions,
	Decode:         http.DefaultDecodeOptions,
	ReadBufferSize: 4 << 10,
}

type Client struct {
	dialer transport.Dialer
	secure tls.SecureTransport

	logger *slog.Logger
	clock  clock.Clock

	opts Options
}

// New creates a client. Nil arguments are replaced by
// a TCP dialer using the system resolver, the TLS backend chosen at build time,
// a discarding logger and the wall clock.
func New(
	d transport.Dialer,
	secure tls.SecureTransport,
	logger *slog.Logger,
	clk clock.Clock,
	opts Options,
) *Client {
	if d == nil {
		d = tcp.NewDialer(nil)
	}
	if secure == nil {
		secure = defaultSecureTransport()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clk == nil {
		clk = clock.New()
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = DefaultOptions.ReadBufferSize
	}

	return &Client{
		dialer: d,
		secure: secure,
		logger: logger,
		clock:  clk,
		opts:   opts,
	}
}

// call is the state shared by the hops of one logical request.
type call struct {
	req      *Request
	deadline time.Time
	logger   *slog.Logger
}

func (cl *call) fail(op string, n uint, target uri.URI, err error) *Error {
	e := &Error{
		Kind: classify(err),
		Op:   op,
		Hop:  n,
		URI:  target.String(),
		Err:  err,
	}
	cl.logger.Warn("request failed", "op", op, "hop", n, "kind", e.Kind.String(), "error", err)
	return e
}

// Do sends req, following redirects as its policy allows,
// and writes the body of the final response to sink.
// A nil sink discards the body.
//
// Credentials of req.Auth are destroyed when Do returns.
// Every failure is an [*Error].
func (c *Client) Do(ctx context.Context, req *Request, sink io.Writer) (*http.Response, error) {
	if req.Auth != nil {
		defer req.Auth.Destroy()
	}

	cl := &call{
		req:      req,
		deadline: c.callDeadline(ctx, req.Timeouts.Total),
		logger:   c.logger.With("call_id", uuid.NewString()),
	}

	if err := validate(req); err != nil {
		return nil, cl.fail(OpResolve, 0, req.URI, err)
	}

	h := hop{
		method:  req.Method,
		target:  req.URI,
		headers: req.Headers.Clone(),
		body:    req.Body,
		auth:    req.Auth,
	}

	for n := uint(0); ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, cl.fail(OpConnect, n, h.target, err)
		}

		ex, err := c.send(ctx, cl, n, h)
		if err != nil {
			return nil, err
		}

		next, follow, err := cl.decide(n, h, ex.resp)
		if err != nil {
			ex.close()
			return nil, err
		}

		if !follow {
			err := ex.drain(sink)
			ex.close()
			if err != nil {
				return nil, cl.fail(OpReadBody, n, h.target, err)
			}

			cl.logger.Debug("received response",
				"hop", n, "status", ex.resp.StatusCode, "body_bytes", ex.resp.BodyBytes)
			return ex.resp, nil
		}

		// The body of a redirect is read to its end and thrown away.
		err = ex.drain(io.Discard)
		ex.close()
		if err != nil {
			return nil, cl.fail(OpReadBody, n, h.target, err)
		}

		cl.logger.Debug("following redirect",
			"hop", n, "status", ex.resp.StatusCode, "from", h.target.String(), "to", next.String())

		h = h.redirect(ex.resp.StatusCode, next)
	}
}

// decide tells whether resp is followed, and to where.
func (cl *call) decide(n uint, h hop, resp *http.Response) (uri.URI, bool, error) {
	policy := cl.req.Redirect
	if !policy.Follows() || !resp.IsRedirect() {
		return uri.URI{}, false, nil
	}

	loc, ok := resp.Location()
	if !ok {
		// Without Location the redirect is the final response.
		return uri.URI{}, false, nil
	}

	next, err := uri.ResolveRedirect(h.target, loc)
	if err != nil {
		return uri.URI{}, false, cl.fail(OpRedirect, n, h.target, errors.Wrapf(err, "location %q", loc))
	}
	if !uri.IsHTTP(next) {
		err := errors.Wrapf(stream.ErrUnsupportedScheme, "location %q", next.String())
		return uri.URI{}, false, cl.fail(OpRedirect, n, h.target, err)
	}

	if !policy.allows(next) {
		cl.logger.Debug("redirect rejected by policy", "hop", n, "to", next.String())
		return uri.URI{}, false, nil
	}

	if n >= policy.MaxHops() {
		e := cl.fail(OpRedirect, n, h.target,
			errors.Wrapf(ErrRedirectLimitExceeded, "%d redirects followed", n))
		e.Response = resp
		return uri.URI{}, false, e
	}

	return next, true, nil
}

// exchange is a connection on which a request was sent and a response head received.
type exchange struct {
	st   *stream.Stream
	resp *http.Response
	body *transfer.BodyReader
}

func (ex *exchange) drain(sink io.Writer) error {
	n, err := transfer.Drain(ex.body, sink)
	ex.resp.BodyBytes = n
	ex.resp.Trailers = ex.body.Trailers()
	return err
}

func (ex *exchange) close() { _ = ex.st.Close() }

func (c *Client) send(ctx context.Context, cl *call, n uint, h hop) (_ *exchange, err error) {
	cl.logger.Debug("sending request", "hop", n, "method", h.method, "uri", h.target.String())

	st, err := stream.Connect(ctx, h.target, stream.Config{
		Dialer:         c.dialer,
		Secure:         c.secure,
		TLS:            cl.req.TLS,
		Clock:          c.clock,
		ConnectTimeout: cl.req.Timeouts.Connect,
		ReadTimeout:    cl.req.Timeouts.Read,
		WriteTimeout:   cl.req.Timeouts.Write,
		Deadline:       cl.deadline,
	})
	if err != nil {
		op := OpConnect
		if errors.Is(err, tls.ErrHandshakeFailed) {
			op = OpHandshake
		}
		return nil, cl.fail(op, n, h.target, err)
	}
	defer func() {
		if err != nil {
			_ = st.Close()
		}
	}()

	msg := http.RequestMessage{
		Method:  h.method,
		Target:  h.target,
		Version: cl.req.Version,
		Headers: h.headers,
		Auth:    h.auth,
	}

	if h.body != nil {
		r, err := h.body.Open()
		if err != nil {
			return nil, cl.fail(OpWrite, n, h.target, errors.Wrap(err, "opening body"))
		}
		msg.Body = r
		msg.ContentLength = pointer.To(h.body.Size())
	} else if definesContent(h.method) {
		// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6-5
		msg.ContentLength = pointer.To(uint64(0))
	}

	if err := http.NewRequestEncoder(st, c.opts.Encode).Encode(&msg); err != nil {
		return nil, cl.fail(OpWrite, n, h.target, err)
	}

	br := bufio.NewReaderSize(st, c.opts.ReadBufferSize)

	var resp http.Response
	if err := http.NewResponseDecoder(br, c.opts.Decode).DecodeHead(&resp); err != nil {
		return nil, cl.fail(OpReadHead, n, h.target, err)
	}

	body, err := transfer.NewBodyReader(br, h.method, &resp, c.opts.Decode)
	if err != nil {
		return nil, cl.fail(OpReadHead, n, h.target, err)
	}

	cl.logger.Debug("received response head",
		"hop", n, "status", resp.StatusCode, "framing", body.Framing().String())

	return &exchange{st: st, resp: &resp, body: body}, nil
}

// callDeadline is the deadline of a whole call, computed once when it starts.
func (c *Client) callDeadline(ctx context.Context, total time.Duration) time.Time {
	var deadline time.Time
	if total > 0 {
		deadline = c.clock.Now().Add(total)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}

func validate(req *Request) error {
	if !req.Method.IsValid() {
		return errors.Wrapf(http.ErrInvalidMethod, "%q", req.Method)
	}
	if _, ok := uri.DefaultPort(req.URI.Scheme); !ok {
		return errors.Wrapf(stream.ErrUnsupportedScheme, "%q", req.URI.Scheme)
	}
	if !uri.IsHTTP(req.URI) {
		return errors.Wrap(uri.ErrMalformedURI, "target has no host")
	}
	return nil
}

func definesContent(m http.Method) bool {
	return m == http.MethodPost || m == http.MethodPut || m == http.MethodPatch
}

func (c *Client) Get(ctx context.Context, rawURI string, sink io.Writer) (*http.Response, error) {
	req, err := NewRequest(http.MethodGet, rawURI)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req, sink)
}

// Head returns the response head of rawURI. There is never a body.
func (c *Client) Head(ctx context.Context, rawURI string) (*http.Response, error) {
	req, err := NewRequest(http.MethodHead, rawURI)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req, nil)
}

func (c *Client) Post(ctx context.Context, rawURI string, body Body, sink io.Writer) (*http.Response, error) {
	req, err := NewRequest(http.MethodPost, rawURI)
	if err != nil {
		return nil, err
	}
	req.Body = body
	return c.Do(ctx, req, sink)
}
