package client

import (
	"bytes"
	"io"
	"time"

	"minhttp/application/http"
	"minhttp/application/util/uri"
	"minhttp/session/tls"

	"github.com/pkg/errors"
)

// Version is sent in the default User-Agent field.
const Version = "0.1.0"

const DefaultUserAgent = "minhttp/" + Version

var DefaultTimeouts = Timeouts{
	Connect: 60 * time.Second,
	Read:    60 * time.Second,
	Write:   60 * time.Second,
	Total:   time.Hour,
}

const DefaultMaxRedirects = 5

// Timeouts bound a call. Zero means no limit.
type Timeouts struct {
	// Connect bounds dialing and TLS handshake of each hop.
	Connect time.Duration
	// Read and Write bound every single read or write on the connection.
	Read  time.Duration
	Write time.Duration
	// Total bounds the whole call, every redirect included.
	// It starts once when the call starts and is never reset by a hop.
	Total time.Duration
}

// Request is a fully configured logical request.
type Request struct {
	Method  http.Method
	URI     uri.URI
	Version http.Version
	Headers http.Headers

	// Body is nil when the request has no content.
	Body Body

	// Auth is destroyed once the call using the request ends.
	Auth Auth

	Timeouts Timeouts
	Redirect RedirectPolicy

	// TLS is borrowed for the call. Nil uses the default trust store.
	TLS *tls.Config
}

// NewRequest parses rawURI and fills the defaults:
// User-Agent and Connection fields, [DefaultTimeouts]
// and following up to [DefaultMaxRedirects] redirects.
func NewRequest(method http.Method, rawURI string) (*Request, error) {
	u, err := uri.Parse(rawURI)
	if err != nil {
		return nil, &Error{Kind: KindMalformedURI, Op: OpResolve, Err: err}
	}

	req := &Request{
		Method:   method,
		URI:      u,
		Version:  http.Version1_1,
		Timeouts: DefaultTimeouts,
		Redirect: Follow(DefaultMaxRedirects),
	}
	req.Headers.Set(http.FieldUserAgent, DefaultUserAgent)
	// Connections are never reused.
	req.Headers.Set(http.FieldConnection, "close")

	return req, nil
}

// Body is the content of a request.
// Open is called once for every hop sending the content.
type Body interface {
	Open() (io.Reader, error)
	Size() uint64
}

type bytesBody struct{ b []byte }

// BytesBody sends b, which must not be modified during the call.
func BytesBody(b []byte) Body { return bytesBody{b: b} }

func (bb bytesBody) Open() (io.Reader, error) { return bytes.NewReader(bb.b), nil }
func (bb bytesBody) Size() uint64             { return uint64(len(bb.b)) }

type readerBody struct {
	r      io.Reader
	size   uint64
	opened bool
	offset int64
}

// ReaderBody streams size bytes of r.
// If r is an [io.Seeker] it is rewound for every redirect replaying the body,
// otherwise a second Open fails with [ErrBodyNotReplayable].
func ReaderBody(r io.Reader, size uint64) Body {
	return &readerBody{r: r, size: size}
}

func (rb *readerBody) Size() uint64 { return rb.size }

func (rb *readerBody) Open() (io.Reader, error) {
	seeker, canSeek := rb.r.(io.Seeker)

	if !rb.opened {
		rb.opened = true
		if canSeek {
			offset, err := seeker.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, errors.Wrap(err, "getting body offset")
			}
			rb.offset = offset
		}
		return rb.r, nil
	}

	if !canSeek {
		return nil, ErrBodyNotReplayable
	}
	if _, err := seeker.Seek(rb.offset, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewinding body")
	}
	return rb.r, nil
}
