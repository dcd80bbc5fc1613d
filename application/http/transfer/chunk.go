package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"minhttp/application/http"
	"minhttp/application/util/rule"
	iolib "minhttp/lib/io"

	"github.com/pkg/errors"
)

var ErrMalformedChunk = errors.New("chunked body is malformed")

// MaxChunkLineLength limits a chunk size line, extensions included.
const MaxChunkLineLength = 4096

// maxChunkSize keeps sizes representable as int64.
const maxChunkSize = 1<<63 - 1

type Extension struct{ Name, Value string }

// ChunkedReader decodes a chunked message body.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1
type ChunkedReader struct {
	br   *bufio.Reader
	opts http.DecodeOptions

	remain  uint64 // bytes left on current chunk
	inChunk bool
	done    bool
	err     error

	extensions []Extension
	trailers   http.Headers
	buf        bytes.Buffer
}

var _ io.Reader = (*ChunkedReader)(nil)

// NewChunkedReader converts chunked http message into byte stream.
// r is used as is when it is already a [*bufio.Reader].
func NewChunkedReader(r io.Reader, opts http.DecodeOptions) *ChunkedReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &ChunkedReader{br: br, opts: opts}
}

// LastExtensions returns extensions of the most recent chunk.
func (cr *ChunkedReader) LastExtensions() []Extension { return cr.extensions }

// Trailers returns trailer fields. It is only filled after [io.EOF] was returned.
func (cr *ChunkedReader) Trailers() http.Headers { return cr.trailers }

// Done reports whether the last chunk and trailers were consumed.
func (cr *ChunkedReader) Done() bool { return cr.done }

// NextChunk returns data of the next chunk, which is valid until the next call.
// [io.EOF] is returned after the last chunk and trailers.
// It can't be mixed with a partially consumed chunk from [ChunkedReader.Read].
func (cr *ChunkedReader) NextChunk() ([]byte, error) {
	if cr.err != nil {
		return nil, cr.err
	}
	if cr.inChunk {
		return nil, errors.New("chunk is partially read")
	}

	if err := cr.nextChunkHeader(); err != nil {
		return nil, cr.fail(err)
	}
	if cr.done {
		return nil, io.EOF
	}

	cr.buf.Reset()
	n, err := io.CopyN(&cr.buf, cr.br, int64(cr.remain))
	cr.remain -= uint64(n)
	if err != nil {
		return nil, cr.fail(midChunk(err))
	}

	if err := cr.endChunk(); err != nil {
		return nil, cr.fail(err)
	}

	return cr.buf.Bytes(), nil
}

func (cr *ChunkedReader) Read(p []byte) (int, error) {
	if cr.err != nil {
		return 0, cr.err
	}

	if !cr.inChunk {
		if err := cr.nextChunkHeader(); err != nil {
			return 0, cr.fail(err)
		}
		if cr.done {
			return 0, io.EOF
		}
	}

	if uint64(len(p)) > cr.remain {
		p = p[:cr.remain]
	}

	n, err := cr.br.Read(p)
	cr.remain -= uint64(n)
	if err != nil {
		if n > 0 && errors.Is(err, io.EOF) {
			err = nil
		} else {
			return n, cr.fail(midChunk(err))
		}
	}

	if cr.remain == 0 {
		if err := cr.endChunk(); err != nil {
			return n, cr.fail(err)
		}
	}

	return n, nil
}

func (cr *ChunkedReader) fail(err error) error {
	if errors.Is(err, io.EOF) {
		return err
	}
	cr.err = err
	return err
}

func midChunk(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(ErrMalformedChunk, "body ended in the middle of a chunk")
	}
	return errors.Wrap(err, "reading chunk data")
}

// nextChunkHeader reads chunk size line, and trailers if it is the last chunk.
func (cr *ChunkedReader) nextChunkHeader() error {
	if cr.done {
		return io.EOF
	}

	line, err := cr.readLine()
	if err != nil {
		return err
	}

	size, extensions, err := parseChunkLine(line)
	if err != nil {
		return errors.Wrapf(ErrMalformedChunk, "%q: %s", line, err)
	}

	cr.extensions = extensions

	if size > 0 {
		cr.remain = size
		cr.inChunk = true
		return nil
	}

	// Last chunk.
	trailers, err := http.NewResponseDecoder(cr.br, cr.opts).DecodeTrailers()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return errors.Wrap(ErrMalformedChunk, "body ended in trailer section")
		}
		return errors.Wrap(err, "decoding trailers")
	}

	cr.trailers = trailers
	cr.done = true

	return nil
}

// endChunk consumes CRLF after chunk data.
func (cr *ChunkedReader) endChunk() error {
	var crlf [2]byte
	if _, err := io.ReadFull(cr.br, crlf[:]); err != nil {
		return midChunk(err)
	}

	if !bytes.Equal(crlf[:], rule.CRLF) {
		return errors.Wrapf(ErrMalformedChunk, "CRLF not found after chunk data: %q", crlf[:])
	}

	cr.inChunk = false
	return nil
}

func (cr *ChunkedReader) readLine() ([]byte, error) {
	line, err := iolib.ReadLine(cr.br, MaxChunkLineLength)
	if err != nil {
		switch {
		case errors.Is(err, iolib.ErrLineTooLong):
			return nil, errors.Wrap(ErrMalformedChunk, "chunk size line too long")
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil, errors.Wrap(ErrMalformedChunk, "body ended before last chunk")
		}
		return nil, errors.Wrap(err, "reading chunk size line")
	}

	line = line[:len(line)-1]
	if len(line) > 0 && line[len(line)-1] == rule.CR {
		line = line[:len(line)-1]
	} else if !cr.opts.AllowSoleLF {
		return nil, errors.Wrap(ErrMalformedChunk, "missing CR before LF")
	}

	return line, nil
}

// parseChunkLine parses chunk-size [ chunk-ext ].
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1.1
func parseChunkLine(line []byte) (uint64, []Extension, error) {
	sizeRaw, extRaw, _ := bytes.Cut(line, []byte{';'})

	// BWS before ';'.
	size, err := parseChunkSize(bytes.TrimRight(sizeRaw, string(rule.OWS)))
	if err != nil {
		return 0, nil, err
	}

	if len(extRaw) == 0 {
		return size, nil, nil
	}

	extensions := make([]Extension, 0)
	for _, part := range bytes.Split(extRaw, []byte{';'}) {
		k, v, _ := bytes.Cut(part, []byte{'='})
		k = bytes.Trim(k, string(rule.OWS))
		v = bytes.Trim(v, string(rule.OWS))

		if !rule.IsValidToken(string(k)) {
			return 0, nil, errors.Errorf("chunk extension name is not a token: %q", k)
		}

		extensions = append(extensions, Extension{
			Name:  string(k),
			Value: string(rule.Unquote(v)),
		})
	}

	return size, extensions, nil
}

func parseChunkSize(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, errors.New("chunk size is empty")
	}

	var size uint64
	for _, c := range b {
		if !rule.IsHex(rune(c)) {
			return 0, errors.Errorf("chunk size is not hex: %q", b)
		}

		if size > maxChunkSize>>4 {
			return 0, errors.Errorf("chunk size overflows: %q", b)
		}

		d, _ := strconv.ParseUint(string(c), 16, 8)
		size = size<<4 | d
	}

	return size, nil
}

// ChunkedWriter encodes a chunked message body.
// Close writes the last chunk and Trailers.
type ChunkedWriter struct {
	w io.Writer

	extensions []Extension
	Trailers   http.Headers
}

var _ io.WriteCloser = (*ChunkedWriter)(nil)

func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{w: w}
}

// SetExtensions sets extension to the chunk.
// extension lives until [ChunkedWriter.Write].
func (cw *ChunkedWriter) SetExtensions(extensions []Extension) {
	cw.extensions = extensions
}

func (cw *ChunkedWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		// We should ignore 0 length chunks since it means EOF.
		return 0, nil
	}

	buf := cw.appendChunkLine(nil, uint64(len(p)))
	buf = append(buf, p...)
	buf = append(buf, rule.CRLF...)

	if _, err := iolib.WriteFull(cw.w, buf); err != nil {
		return 0, errors.Wrap(err, "writing chunk")
	}

	return len(p), nil
}

func (cw *ChunkedWriter) Close() error {
	buf := cw.appendChunkLine(nil, 0)
	for _, f := range cw.Trailers.Fields() {
		buf = append(buf, f.Text()...)
		buf = append(buf, rule.CRLF...)
	}
	buf = append(buf, rule.CRLF...)

	if _, err := iolib.WriteFull(cw.w, buf); err != nil {
		return errors.Wrap(err, "writing last chunk")
	}

	return nil
}

func (cw *ChunkedWriter) appendChunkLine(dst []byte, size uint64) []byte {
	dst = strconv.AppendUint(dst, size, 16)
	for _, ext := range cw.extensions {
		dst = append(dst, ';')
		dst = append(dst, ext.Name...)
		if ext.Value != "" {
			dst = append(dst, '=')
			dst = append(dst, ext.Value...)
		}
	}
	cw.extensions = nil

	return append(dst, rule.CRLF...)
}
