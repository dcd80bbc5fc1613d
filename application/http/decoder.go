package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"minhttp/application/http/status"
	"minhttp/application/util/rule"
	iolib "minhttp/lib/io"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies wheter a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// MaxFieldLineLength sets the limit of field line length on headers and trailers.
	// Zero means no limit.
	MaxFieldLineLength uint

	// MaxStatusLineLength sets the limit of status line (or request line) length.
	// Zero means no limit.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-5
	MaxStatusLineLength uint

	// MaxFields sets the limit of field lines in a single header section.
	// Zero means no limit.
	MaxFields uint

	// MaxInterimResponses sets how many 1xx responses are skipped
	// before the final response. Zero means no limit.
	MaxInterimResponses uint
}

var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:         true,
	MaxFieldLineLength:  8 << 10,
	MaxStatusLineLength: 8 << 10,
	MaxFields:           128,
	MaxInterimResponses: 16,
}

var (
	ErrMissingCRBeforeLF       = errors.New("missing CR before LF")
	ErrTooManyFields           = errors.New("too many field lines")
	ErrTooManyInterimResponses = errors.New("too many interim responses")
)

type MessageDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

func newMessageDecoder(r io.Reader, opts DecodeOptions) MessageDecoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return MessageDecoder{br: br, opts: opts}
}

// Reader returns buffered reader positioned right after the last decoded header section.
// The message body should be read from it.
func (md *MessageDecoder) Reader() *bufio.Reader { return md.br }

func (md *MessageDecoder) readLine(limit uint) ([]byte, error) {
	b, err := iolib.ReadLine(md.br, limit)
	if err != nil {
		return nil, err
	}

	b = b[:len(b)-1] // Remove LF.

	if len(b) > 0 && b[len(b)-1] == rule.CR {
		b = b[:len(b)-1] // Remove CR.
	} else if !md.opts.AllowSoleLF {
		return nil, ErrMissingCRBeforeLF
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-4
	b = bytes.ReplaceAll(b, []byte{rule.CR}, []byte{rule.SP})

	return b, nil
}

// decodeFields reads field lines until an empty line.
func (md *MessageDecoder) decodeFields() ([]Field, error) {
	fields := make([]Field, 0)
	for {
		fieldLine, err := md.readLine(md.opts.MaxFieldLineLength)
		if err != nil {
			if errors.Is(err, iolib.ErrLineTooLong) {
				return nil, ErrFieldLineTooLong
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrap(err, "reading field line")
		}

		if len(fieldLine) == 0 {
			// An empty line. This means that there are no more fields.
			return fields, nil
		}

		if rule.IsOWS(fieldLine[0]) {
			// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.2
			return nil, errors.Wrapf(ErrMalformedFieldLine, "obsolete line folding: %q", fieldLine)
		}

		if md.opts.MaxFields > 0 && uint(len(fields)) >= md.opts.MaxFields {
			return nil, ErrTooManyFields
		}

		field, err := ParseField(fieldLine)
		if err != nil {
			return nil, err
		}

		fields = append(fields, field)
	}
}

// DecodeTrailers reads a trailer section.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1.2
func (md *MessageDecoder) DecodeTrailers() (Headers, error) {
	fields, err := md.decodeFields()
	if err != nil {
		return Headers{}, err
	}
	return HeadersFrom(fields), nil
}

// firstLine skips empty lines preceding a message and returns the start line.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
func (md *MessageDecoder) firstLine(tooLong error) ([]byte, error) {
	for {
		b, err := md.readLine(md.opts.MaxStatusLineLength)
		if err != nil {
			if errors.Is(err, iolib.ErrLineTooLong) {
				return nil, tooLong
			}
			return nil, err
		}

		if len(b) > 0 {
			return b, nil
		}
	}
}

var (
	ErrStatusLineTooLong   = errors.New("status line length exceeds limit")
	ErrMalformedStatusLine = errors.New("status line is malformed")
)

type ResponseDecoder struct{ MessageDecoder }

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{newMessageDecoder(r, opts)}
}

// DecodeHead reads status line and header section of the final response.
// Interim (1xx) responses other than 101 are read and discarded.
// r MUST be a non-nil pointer
func (rd *ResponseDecoder) DecodeHead(r *Response) error {
	for interim := uint(0); ; interim++ {
		var head Response
		if err := rd.decodeStatusLine(&head); err != nil {
			return errors.Wrap(err, "parsing status line")
		}

		fields, err := rd.decodeFields()
		if err != nil {
			return errors.Wrap(err, "parsing headers")
		}
		head.Headers = HeadersFrom(fields)

		if status.IsInformational(head.StatusCode) && head.StatusCode != status.SwitchingProtocols.Code {
			// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.2
			if limit := rd.opts.MaxInterimResponses; limit > 0 && interim >= limit {
				return ErrTooManyInterimResponses
			}
			continue
		}

		*r = head
		return nil
	}
}

func (rd *ResponseDecoder) decodeStatusLine(r *Response) error {
	line, err := rd.firstLine(ErrStatusLineTooLong)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Connection closed without any response.
			return errors.Wrap(io.ErrUnexpectedEOF, "no response received")
		}
		return err
	}

	if err := parseStatusLine(line, r); err != nil {
		return errors.Wrapf(ErrMalformedStatusLine, "%q: %s", line, err)
	}

	return nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-4
func parseStatusLine(line []byte, r *Response) error {
	parts := bytes.SplitN(line, []byte{rule.SP}, 3)
	if len(parts) < 2 {
		return errors.New("status code not found")
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return errors.Wrap(err, "parsing version")
	}
	if ver[0] != 1 {
		return errors.Errorf("unsupported major version: %s", ver)
	}

	code := parts[1]
	if len(code) != 3 || !isDigits(code) {
		return errors.Errorf("status code is malformed: %q", code)
	}
	n, _ := strconv.ParseUint(string(code), 10, 16)
	if !status.IsValid(uint(n)) {
		return errors.Errorf("status code out of range: %d", n)
	}

	// reason-phrase is optional.
	var reason []byte
	if len(parts) == 3 {
		reason = parts[2]
	}
	for _, c := range reason {
		if !rule.IsFieldVChar(c) {
			return errors.Errorf("reason phrase has invalid byte 0x%02x", c)
		}
	}

	r.Version = ver
	r.StatusCode = uint(n)
	r.Reason = string(reason)

	return nil
}

var (
	ErrRequestLineTooLong   = errors.New("request line length exceeds limit")
	ErrMalformedRequestLine = errors.New("request line is malformed")
)

// RequestHead is the decoded head of a received request.
type RequestHead struct {
	Method  Method
	Target  string
	Version Version
	Headers Headers
}

type RequestDecoder struct{ MessageDecoder }

func NewRequestDecoder(r io.Reader, opts DecodeOptions) *RequestDecoder {
	return &RequestDecoder{newMessageDecoder(r, opts)}
}

// DecodeHead reads request line and header section.
// r MUST be a non-nil pointer
func (rd *RequestDecoder) DecodeHead(r *RequestHead) error {
	line, err := rd.firstLine(ErrRequestLineTooLong)
	if err != nil {
		return errors.Wrap(err, "reading request line")
	}

	parts := bytes.Split(line, []byte{rule.SP})
	if len(parts) != 3 || !Method(parts[0]).IsValid() || len(parts[1]) == 0 {
		return errors.Wrapf(ErrMalformedRequestLine, "%q", line)
	}

	ver, err := ParseVersion(parts[2])
	if err != nil {
		return errors.Wrapf(ErrMalformedRequestLine, "%q: %s", line, err)
	}

	fields, err := rd.decodeFields()
	if err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	*r = RequestHead{
		Method:  Method(parts[0]),
		Target:  string(parts[1]),
		Version: ver,
		Headers: HeadersFrom(fields),
	}

	return nil
}
