package http

import (
	"strconv"
	"strings"

	"minhttp/application/http/status"
	"minhttp/application/util/rule"

	"github.com/pkg/errors"
)

const (
	FieldHost             = "Host"
	FieldContentLength    = "Content-Length"
	FieldContentType      = "Content-Type"
	FieldContentEncoding  = "Content-Encoding"
	FieldTransferEncoding = "Transfer-Encoding"
	FieldAuthorization    = "Authorization"
	FieldLocation         = "Location"
	FieldConnection       = "Connection"
	FieldUserAgent        = "User-Agent"
)

// Response describes a received response.
// The content is not retained: BodyBytes tells how many bytes of it were
// written to the sink given by the caller.
type Response struct {
	Version    Version
	StatusCode uint
	Reason     string
	Headers    Headers

	// Trailers holds trailer section of a chunked body.
	Trailers Headers

	BodyBytes uint64
}

func (r *Response) Status() status.Status {
	return status.Status{Code: r.StatusCode, ReasonPhrase: r.Reason}
}

func (r *Response) IsRedirect() bool { return status.IsFollowable(r.StatusCode) }

// Location returns the raw value of the Location field.
func (r *Response) Location() (string, bool) {
	loc, ok := r.Headers.Get(FieldLocation)
	if !ok || strings.TrimSpace(loc) == "" {
		return "", false
	}
	return loc, true
}

// TransferCodings returns lower-cased list of transfer codings, in applied order.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.1
func (r *Response) TransferCodings() []string {
	var codings []string
	for _, v := range r.Headers.Values(FieldTransferEncoding) {
		for _, c := range strings.Split(v, ",") {
			// Parameters of a coding are ignored.
			c, _, _ = strings.Cut(c, ";")
			c = strings.ToLower(strings.Trim(c, string(rule.OWS)))
			if c != "" {
				codings = append(codings, c)
			}
		}
	}
	return codings
}

// IsChunked reports whether chunked is the final transfer coding.
func (r *Response) IsChunked() bool {
	codings := r.TransferCodings()
	return len(codings) > 0 && codings[len(codings)-1] == "chunked"
}

// ContentLength parses Content-Length field.
// A list of identical values is accepted as a single value.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6
func (r *Response) ContentLength() (length uint64, ok bool, err error) {
	values := r.Headers.Values(FieldContentLength)
	if len(values) == 0 {
		return 0, false, nil
	}

	var found bool
	for _, v := range values {
		for _, member := range strings.Split(v, ",") {
			member = strings.Trim(member, string(rule.OWS))
			n, err := parseContentLength(member)
			if err != nil {
				return 0, false, err
			}

			if found && n != length {
				return 0, false, errors.Wrapf(ErrMalformedFieldLine,
					"conflicting Content-Length values: %q", strings.Join(values, ", "))
			}
			length, found = n, true
		}
	}

	return length, true, nil
}

func parseContentLength(s string) (uint64, error) {
	if !isDigits([]byte(s)) {
		return 0, errors.Wrapf(ErrMalformedFieldLine, "invalid Content-Length: %q", s)
	}

	n, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedFieldLine, "Content-Length out of range: %q", s)
	}
	return n, nil
}
