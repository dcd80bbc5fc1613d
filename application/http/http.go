package http

import (
	"bytes"
	"strconv"

	"minhttp/application/util/rule"

	"github.com/pkg/errors"
)

// [Major, Minor]
type Version [2]uint

var (
	Version1_0 = Version{1, 0}
	Version1_1 = Version{1, 1}
)

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.3
func ParseVersion(b []byte) (Version, error) {
	prefix := []byte("HTTP/")
	if !bytes.HasPrefix(b, prefix) {
		return Version{}, errors.Errorf("http version prefix not found: %q", b)
	}

	// Get major and minor version.
	first, second, found := bytes.Cut(b[len(prefix):], []byte{'.'})
	if !found {
		return Version{}, errors.Errorf("dot seperator not found on version: %q", b)
	}

	if !isDigits(first) || !isDigits(second) {
		return Version{}, errors.Errorf("http version is not convertable to int: %q", b)
	}

	major, err1 := strconv.ParseUint(string(first), 10, 32)
	minor, err2 := strconv.ParseUint(string(second), 10, 32)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertable to int: %q", b)
	}

	return Version{uint(major), uint(minor)}, nil
}

func (ver Version) Text() []byte {
	return ver.appendText(nil)
}

func (ver Version) appendText(dst []byte) []byte {
	dst = append(dst, "HTTP/"...)
	dst = strconv.AppendUint(dst, uint64(ver[0]), 10)
	dst = append(dst, '.')
	dst = strconv.AppendUint(dst, uint64(ver[1]), 10)
	return dst
}

func (ver Version) String() string { return string(ver.Text()) }

func isDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !rule.IsDigit(rune(c)) {
			return false
		}
	}
	return true
}

// Method is a request method token.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-9
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	// Reference: https://datatracker.ietf.org/doc/html/rfc5789
	MethodPatch Method = "PATCH"
)

func (m Method) IsValid() bool { return rule.IsValidToken(string(m)) }

// Field is a single field line as seen on the wire.
type Field struct{ Name, Value []byte }

var (
	ErrFieldLineTooLong   = errors.New("field line length exceeds limit")
	ErrMalformedFieldLine = errors.New("field line is malformed")
)

// ParseField parses a field line without its line terminator.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5
func ParseField(fieldLine []byte) (Field, error) {
	name, value, found := bytes.Cut(fieldLine, []byte{':'})
	if !found {
		return Field{}, errors.Wrapf(ErrMalformedFieldLine, "colon seperator not found: %q", fieldLine)
	}

	// No whitespace is allowed between field name and colon.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-2
	if !rule.IsValidToken(string(name)) {
		return Field{}, errors.Wrapf(ErrMalformedFieldLine, "field name is not a token: %q", name)
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-3
	value = bytes.Trim(value, string(rule.OWS))

	for _, c := range value {
		if !rule.IsFieldVChar(c) {
			return Field{}, errors.Wrapf(ErrMalformedFieldLine, "field %q has invalid byte 0x%02x", name, c)
		}
	}

	return Field{Name: name, Value: value}, nil
}

func (f *Field) Text() []byte {
	return f.appendText(nil)
}

func (f *Field) appendText(dst []byte) []byte {
	dst = append(dst, f.Name...)
	dst = append(dst, ": "...)
	dst = append(dst, f.Value...)
	return dst
}

func (f *Field) validate() error {
	if !rule.IsValidToken(string(f.Name)) {
		return errors.Wrapf(ErrMalformedFieldLine, "field name is not a token: %q", f.Name)
	}
	for _, c := range f.Value {
		if !rule.IsFieldVChar(c) {
			return errors.Wrapf(ErrMalformedFieldLine, "field %q has invalid byte 0x%02x", f.Name, c)
		}
	}
	return nil
}
