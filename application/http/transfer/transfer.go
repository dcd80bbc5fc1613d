// Package transfer decides the framing of a response body and decodes it.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3
package transfer

import (
	"bufio"
	"io"

	"minhttp/application/http"
	"minhttp/application/http/status"
	iolib "minhttp/lib/io"

	"github.com/pkg/errors"
)

type Framing int

const (
	FramingNone Framing = iota
	FramingChunked
	FramingLength
	FramingClose
)

func (f Framing) String() string {
	switch f {
	case FramingNone:
		return "none"
	case FramingChunked:
		return "chunked"
	case FramingLength:
		return "content-length"
	case FramingClose:
		return "close-delimited"
	}
	return "unknown"
}

// BodyReader reads a response body according to its framing.
type BodyReader struct {
	framing Framing
	length  uint64
	r       io.Reader
	chunked *ChunkedReader
}

var _ io.Reader = (*BodyReader)(nil)

// NewBodyReader determines how the body of resp is delimited.
// br must be positioned right after the header section.
// method is the method of the request resp answers. opts bound chunk and trailer lines.
func NewBodyReader(br *bufio.Reader, method http.Method, resp *http.Response, opts http.DecodeOptions) (*BodyReader, error) {
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.1
	if method == http.MethodHead || status.HasNoContent(resp.StatusCode) {
		return &BodyReader{framing: FramingNone, r: eofReader{}}, nil
	}

	// Transfer-Encoding overrides Content-Length.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.3
	if resp.Headers.Has(http.FieldTransferEncoding) {
		if resp.IsChunked() {
			cr := NewChunkedReader(br, opts)
			return &BodyReader{framing: FramingChunked, r: cr, chunked: cr}, nil
		}
		return &BodyReader{framing: FramingClose, r: br}, nil
	}

	length, ok, err := resp.ContentLength()
	if err != nil {
		return nil, errors.Wrap(err, "parsing content length")
	}
	if ok {
		return &BodyReader{framing: FramingLength, length: length, r: iolib.LimitReader(br, length)}, nil
	}

	return &BodyReader{framing: FramingClose, r: br}, nil
}

func (b *BodyReader) Framing() Framing { return b.framing }

// Length returns the declared length of a [FramingLength] body.
func (b *BodyReader) Length() uint64 { return b.length }

func (b *BodyReader) Read(p []byte) (int, error) { return b.r.Read(p) }

// Trailers returns trailer fields of a chunked body after it was fully read.
func (b *BodyReader) Trailers() http.Headers {
	if b.chunked == nil {
		return http.Headers{}
	}
	return b.chunked.Trailers()
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// Drain copies the whole body to sink, returning bytes written.
// Data is written as soon as it is read. A nil sink discards the body.
func Drain(body io.Reader, sink io.Writer) (uint64, error) {
	if sink == nil {
		sink = io.Discard
	}

	cw := &iolib.CountingWriter{W: sink}
	buf := make([]byte, 32<<10)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, err := iolib.WriteFull(cw, buf[:n]); err != nil {
				return cw.N, errors.Wrap(err, "writing to sink")
			}
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return cw.N, nil
			}
			return cw.N, errors.Wrap(rerr, "reading body")
		}
	}
}
