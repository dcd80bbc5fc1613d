package client

import (
	"fmt"

	"minhttp/application/http"
	"minhttp/application/http/stream"
	"minhttp/application/http/transfer"
	"minhttp/application/util/domain"
	"minhttp/application/util/uri"
	"minhttp/session/tls"
	"minhttp/transport"

	"github.com/pkg/errors"
)

var (
	ErrRedirectLimitExceeded = errors.New("redirect limit exceeded")
	ErrBodyNotReplayable     = errors.New("body cannot be sent again")
)

// Kind tells which class of failure ended a call.
type Kind int

const (
	KindIO Kind = iota
	KindMalformedURI
	KindConnectionFailed
	KindTLSFailure
	KindTimeout
	KindMalformedStatusLine
	KindMalformedHeader
	KindMalformedChunk
	KindRedirectLimitExceeded
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindMalformedURI:
		return "malformed uri"
	case KindConnectionFailed:
		return "connection failed"
	case KindTLSFailure:
		return "tls failure"
	case KindTimeout:
		return "timeout"
	case KindMalformedStatusLine:
		return "malformed status line"
	case KindMalformedHeader:
		return "malformed header"
	case KindMalformedChunk:
		return "malformed chunk"
	case KindRedirectLimitExceeded:
		return "redirect limit exceeded"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Phases of a call reported by [Error.Op].
const (
	OpResolve   = "resolve"
	OpConnect   = "connect"
	OpHandshake = "handshake"
	OpWrite     = "write"
	OpReadHead  = "read-head"
	OpReadBody  = "read-body"
	OpRedirect  = "redirect"
)

// Error is returned by every failed call of [Client].
type Error struct {
	Kind Kind
	Op   string
	// Hop is the number of redirects followed before the failure.
	Hop uint
	// URI is the target of the failed hop, with its password masked.
	URI string
	Err error

	// Response is the last response received, set with KindRedirectLimitExceeded.
	Response *http.Response
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.URI != "" {
		s += fmt.Sprintf(" (%s, hop %d)", e.URI, e.Hop)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a failed call, or KindIO if err is not an [*Error].
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return classify(err)
}

// classify maps a cause to its kind. Timeouts win over everything else
// so a stalled handshake is reported as a timeout.
func classify(err error) Kind {
	switch {
	case transport.IsTimeout(err):
		return KindTimeout
	case errors.Is(err, ErrRedirectLimitExceeded):
		return KindRedirectLimitExceeded
	case errors.Is(err, uri.ErrMalformedURI),
		errors.Is(err, stream.ErrUnsupportedScheme):
		return KindMalformedURI
	case errors.Is(err, tls.ErrHandshakeFailed):
		return KindTLSFailure
	case errors.Is(err, transport.ErrConnectionFailed),
		errors.Is(err, transport.ErrConnRefused),
		errors.Is(err, transport.ErrNetUnreachable),
		errors.Is(err, domain.ErrDomainNotFound):
		return KindConnectionFailed
	case errors.Is(err, http.ErrMalformedStatusLine),
		errors.Is(err, http.ErrStatusLineTooLong),
		errors.Is(err, http.ErrTooManyInterimResponses):
		return KindMalformedStatusLine
	case errors.Is(err, transfer.ErrMalformedChunk):
		return KindMalformedChunk
	case errors.Is(err, http.ErrMalformedFieldLine),
		errors.Is(err, http.ErrFieldLineTooLong),
		errors.Is(err, http.ErrTooManyFields),
		errors.Is(err, http.ErrMissingCRBeforeLF):
		return KindMalformedHeader
	}
	return KindIO
}
