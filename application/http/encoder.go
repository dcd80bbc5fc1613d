package http

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"minhttp/application/util/rule"
	"minhttp/application/util/uri"
	iolib "minhttp/lib/io"
	"minhttp/lib/secret"

	"github.com/pkg/errors"
)

type EncodeOptions struct {
	// UseSoleLF specifies wheter a single LF character should be used as a line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	UseSoleLF bool
}

var DefaultEncodeOptions = EncodeOptions{
	UseSoleLF: false,
}

var (
	ErrMissingContentLength = errors.New("body without content length")
	ErrBodyLengthMismatch   = errors.New("body length does not match content length")
	ErrInvalidMethod        = errors.New("method is not a token")
)

// Authorizer computes the credentials of the Authorization field.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-11.6.2
type Authorizer interface {
	// AuthorizationLen returns the exact length of the field value.
	AuthorizationLen() int
	// AppendAuthorization appends the field value to dst, which has room for
	// AuthorizationLen more bytes.
	AppendAuthorization(dst []byte) ([]byte, error)
}

// RequestMessage is a request ready to be written on a connection.
type RequestMessage struct {
	Method  Method
	Target  uri.URI
	Version Version
	Headers Headers

	// Auth, if set, replaces Authorization of Headers.
	Auth Authorizer

	Body          io.Reader
	ContentLength *uint64
}

// Encode writes the message to w.
func (m *RequestMessage) Encode(w io.Writer) error {
	return NewRequestEncoder(w, DefaultEncodeOptions).Encode(m)
}

// Bytes returns the encoded message, consuming the body.
func (m *RequestMessage) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type MessageEncoder struct {
	w    io.Writer
	opts EncodeOptions
}

func (me *MessageEncoder) appendLine(dst []byte, line ...string) []byte {
	for _, s := range line {
		dst = append(dst, s...)
	}

	term := rule.CRLF
	if me.opts.UseSoleLF {
		term = term[1:]
	}

	return append(dst, term...)
}

func (me *MessageEncoder) appendField(dst []byte, name, value string) ([]byte, error) {
	f := Field{Name: []byte(name), Value: []byte(value)}
	if err := f.validate(); err != nil {
		return dst, err
	}
	return me.appendLine(dst, name, ": ", value), nil
}

// writeHead writes head and zeroes it on every path as it may carry credentials.
func (me *MessageEncoder) writeHead(head []byte) error {
	defer secret.Zero(head)

	if _, err := iolib.WriteFull(me.w, head); err != nil {
		return errors.Wrap(err, "writing head")
	}

	return nil
}

type RequestEncoder struct{ MessageEncoder }

func NewRequestEncoder(w io.Writer, opts EncodeOptions) *RequestEncoder {
	return &RequestEncoder{MessageEncoder{w: w, opts: opts}}
}

// Encode writes request line, header section and body.
// Host is always the first field. Content-Length is derived from req.ContentLength only.
func (re *RequestEncoder) Encode(req *RequestMessage) error {
	if !req.Method.IsValid() {
		return errors.Wrapf(ErrInvalidMethod, "%q", req.Method)
	}
	if req.Body != nil && req.ContentLength == nil {
		return ErrMissingContentLength
	}

	var length uint64
	if req.ContentLength != nil {
		length = *req.ContentLength
	}
	if req.Body == nil && length > 0 {
		return errors.Wrapf(ErrBodyLengthMismatch, "no body for %d bytes", length)
	}

	head, err := re.appendHead(nil, req)
	if err != nil {
		secret.Zero(head)
		return errors.Wrap(err, "encoding head")
	}

	if err := re.writeHead(head); err != nil {
		return err
	}

	if req.Body == nil || length == 0 {
		return nil
	}

	n, err := io.Copy(re.w, iolib.LimitReader(req.Body, length))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return errors.Wrapf(ErrBodyLengthMismatch, "wrote %d of %d bytes", n, length)
		}
		return errors.Wrap(err, "writing body")
	}

	return nil
}

// appendHead returns the encoded head. The Authorization line is appended into
// a buffer sized up front, so no copy of the credentials is left behind by a
// reallocation.
func (re *RequestEncoder) appendHead(dst []byte, req *RequestMessage) ([]byte, error) {
	fields, err := re.appendFields(nil, req)
	if err != nil {
		return dst, err
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.2
	var tail []byte
	if req.ContentLength != nil {
		tail = re.appendLine(tail, FieldContentLength, ": ", strconv.FormatUint(*req.ContentLength, 10))
	}
	tail = re.appendLine(tail)

	if req.Auth == nil {
		dst = append(dst, fields...)
		return append(dst, tail...), nil
	}

	credLen := req.Auth.AuthorizationLen()
	authLine := len(FieldAuthorization) + len(": ") + credLen + len(re.appendLine(nil))

	head := make([]byte, 0, len(dst)+len(fields)+authLine+len(tail))
	head = append(head, dst...)
	head = append(head, fields...)
	head = append(head, FieldAuthorization...)
	head = append(head, ": "...)

	start := len(head)
	out, err := req.Auth.AppendAuthorization(head)
	if err != nil || len(out)-start != credLen {
		// out may not share head's array if the authorizer outgrew it.
		secret.Zero(out)
		secret.Zero(head[:cap(head)])
		if err != nil {
			return nil, errors.Wrap(err, "computing authorization")
		}
		return nil, errors.Errorf("authorization is %d bytes, announced %d", len(out)-start, credLen)
	}
	head = out

	for _, c := range head[start:] {
		if !rule.IsFieldVChar(c) {
			return head, errors.Wrapf(ErrMalformedFieldLine, "authorization has invalid byte 0x%02x", c)
		}
	}
	head = re.appendLine(head)

	return append(head, tail...), nil
}

// appendFields appends the request line, Host and the caller's fields.
func (re *RequestEncoder) appendFields(dst []byte, req *RequestMessage) ([]byte, error) {
	ver := req.Version
	if ver == (Version{}) {
		ver = Version1_1
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3
	target := req.Target.RequestTarget()
	if strings.ContainsAny(target, " \t\r\n") {
		return dst, errors.Errorf("request target has whitespace: %q", target)
	}
	dst = re.appendLine(dst, string(req.Method), " ", target, " ", string(ver.Text()))

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2-2
	host, ok := req.Headers.Get(FieldHost)
	if !ok {
		host = req.Target.HostHeader()
	}

	var err error
	if dst, err = re.appendField(dst, FieldHost, host); err != nil {
		return dst, err
	}

	for _, f := range req.Headers.Fields() {
		name := string(f.Name)
		switch {
		case strings.EqualFold(name, FieldHost), strings.EqualFold(name, FieldContentLength):
			continue
		case req.Auth != nil && strings.EqualFold(name, FieldAuthorization):
			continue
		}

		if dst, err = re.appendField(dst, name, string(f.Value)); err != nil {
			return dst, err
		}
	}

	return dst, nil
}

type ResponseEncoder struct{ MessageEncoder }

func NewResponseEncoder(w io.Writer, opts EncodeOptions) *ResponseEncoder {
	return &ResponseEncoder{MessageEncoder{w: w, opts: opts}}
}

// EncodeHead writes status line and header section of r.
// The body is up to the caller.
func (re *ResponseEncoder) EncodeHead(r *Response) error {
	ver := r.Version
	if ver == (Version{}) {
		ver = Version1_1
	}

	head := re.appendLine(nil, string(ver.Text()), " ", strconv.FormatUint(uint64(r.StatusCode), 10), " ", r.Reason)

	var err error
	for _, f := range r.Headers.Fields() {
		if head, err = re.appendField(head, string(f.Name), string(f.Value)); err != nil {
			return errors.Wrap(err, "encoding headers")
		}
	}
	head = re.appendLine(head)

	return re.writeHead(head)
}
