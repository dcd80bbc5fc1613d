package client

import (
	"minhttp/application/http"
	"minhttp/application/http/status"
	"minhttp/application/util/uri"
)

// RedirectPolicy decides whether redirects are followed.
// The zero value does not follow any.
type RedirectPolicy struct {
	follow  bool
	maxHops uint
	allow   func(next uri.URI) bool
}

// Follow follows at most maxHops redirects.
// One more redirect fails the call with [KindRedirectLimitExceeded].
func Follow(maxHops uint) RedirectPolicy {
	return RedirectPolicy{follow: true, maxHops: maxHops}
}

// FollowIf is like [Follow], but stops at a redirect whose target allow rejects.
// The redirect response is then returned as the final one.
func FollowIf(maxHops uint, allow func(next uri.URI) bool) RedirectPolicy {
	return RedirectPolicy{follow: true, maxHops: maxHops, allow: allow}
}

func NoFollow() RedirectPolicy { return RedirectPolicy{} }

func (p RedirectPolicy) Follows() bool { return p.follow }
func (p RedirectPolicy) MaxHops() uint { return p.maxHops }

func (p RedirectPolicy) String() string {
	switch {
	case !p.follow:
		return "no-follow"
	case p.allow != nil:
		return "follow-if"
	}
	return "follow"
}

func (p RedirectPolicy) allows(next uri.URI) bool {
	return p.allow == nil || p.allow(next)
}

// hop is what is sent on a single exchange of a call.
type hop struct {
	method  http.Method
	target  uri.URI
	headers http.Headers
	body    Body
	auth    Auth
}

// redirect returns the hop following a response of code pointing at next.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.4
func (h hop) redirect(code uint, next uri.URI) hop {
	out := hop{
		method:  h.method,
		target:  next,
		headers: h.headers.Clone(),
		body:    h.body,
		auth:    h.auth,
	}

	switch code {
	case status.SeeOther.Code:
		out.method = http.MethodGet
	case status.MovedPermanently.Code, status.Found.Code:
		if h.method != http.MethodGet && h.method != http.MethodHead {
			out.method = http.MethodGet
		}
	}

	if out.method != h.method || code == status.SeeOther.Code {
		out.body = nil
		out.headers.Del(http.FieldContentType)
		out.headers.Del(http.FieldContentLength)
	}

	if !sameOrigin(h.target, next) {
		out.auth = nil
		out.headers.Del(http.FieldAuthorization)
	}

	return out
}

// Reference: https://datatracker.ietf.org/doc/html/rfc6454#section-5
func sameOrigin(a, b uri.URI) bool {
	return a.Scheme == b.Scheme && a.Host() == b.Host() && a.Port() == b.Port()
}
