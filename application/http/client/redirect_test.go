package client

import (
	"testing"

	"minhttp/application/http"
	"minhttp/application/util/uri"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) uri.URI {
	t.Helper()
	u, err := uri.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestHopRedirect(t *testing.T) {
	testcases := []struct {
		desc       string
		method     http.Method
		code       uint
		next       string
		wantMethod http.Method
		keepBody   bool
		keepAuth   bool
	}{
		{desc: "303 turns POST into GET", method: http.MethodPost, code: 303, next: "http://a.test/x", wantMethod: http.MethodGet, keepAuth: true},
		{desc: "303 turns HEAD into GET", method: http.MethodHead, code: 303, next: "http://a.test/x", wantMethod: http.MethodGet, keepAuth: true},
		{desc: "303 on GET", method: http.MethodGet, code: 303, next: "http://a.test/x", wantMethod: http.MethodGet, keepAuth: true},
		{desc: "302 turns POST into GET", method: http.MethodPost, code: 302, next: "http://a.test/x", wantMethod: http.MethodGet, keepAuth: true},
		{desc: "301 turns DELETE into GET", method: http.MethodDelete, code: 301, next: "http://a.test/x", wantMethod: http.MethodGet, keepAuth: true},
		{desc: "302 keeps HEAD", method: http.MethodHead, code: 302, next: "http://a.test/x", wantMethod: http.MethodHead, keepBody: true, keepAuth: true},
		{desc: "307 keeps POST and body", method: http.MethodPost, code: 307, next: "http://a.test/x", wantMethod: http.MethodPost, keepBody: true, keepAuth: true},
		{desc: "308 keeps PUT and body", method: http.MethodPut, code: 308, next: "http://a.test/x", wantMethod: http.MethodPut, keepBody: true, keepAuth: true},
		{desc: "other host drops auth", method: http.MethodGet, code: 302, next: "http://b.test/", wantMethod: http.MethodGet, keepBody: true},
		{desc: "other port drops auth", method: http.MethodGet, code: 302, next: "http://a.test:8080/", wantMethod: http.MethodGet, keepBody: true},
		{desc: "other scheme drops auth", method: http.MethodGet, code: 302, next: "https://a.test/", wantMethod: http.MethodGet, keepBody: true},
		{desc: "explicit default port keeps auth", method: http.MethodGet, code: 302, next: "http://a.test:80/", wantMethod: http.MethodGet, keepBody: true, keepAuth: true},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			var headers http.Headers
			headers.Set(http.FieldContentType, "text/plain")
			headers.Set(http.FieldAuthorization, "Bearer abc")
			headers.Set("X-Trace", "1")

			body := BytesBody([]byte("payload"))
			auth := BearerAuth("abc")

			h := hop{
				method:  tc.method,
				target:  mustParse(t, "http://a.test/from"),
				headers: headers,
				body:    body,
				auth:    auth,
			}

			next := h.redirect(tc.code, mustParse(t, tc.next))

			assert.Equal(t, tc.wantMethod, next.method)
			assert.Equal(t, tc.next, next.target.String())
			assert.True(t, next.headers.Has("X-Trace"))

			if tc.keepBody {
				assert.Equal(t, body, next.body)
				assert.True(t, next.headers.Has(http.FieldContentType))
			} else {
				assert.Nil(t, next.body)
				assert.False(t, next.headers.Has(http.FieldContentType))
			}

			if tc.keepAuth {
				assert.Equal(t, auth, next.auth)
				assert.True(t, next.headers.Has(http.FieldAuthorization))
			} else {
				assert.Nil(t, next.auth)
				assert.False(t, next.headers.Has(http.FieldAuthorization))
			}

			// Headers of the previous hop are not modified.
			assert.True(t, h.headers.Has(http.FieldContentType))
			assert.True(t, h.headers.Has(http.FieldAuthorization))
		})
	}
}

func TestRedirectPolicy(t *testing.T) {
	assert.False(t, RedirectPolicy{}.Follows())
	assert.Equal(t, "no-follow", NoFollow().String())

	p := Follow(3)
	assert.True(t, p.Follows())
	assert.EqualValues(t, 3, p.MaxHops())
	assert.Equal(t, "follow", p.String())
	assert.True(t, p.allows(mustParse(t, "http://anywhere.test/")))

	onlyA := FollowIf(2, func(next uri.URI) bool { return next.Host() == "a.test" })
	assert.Equal(t, "follow-if", onlyA.String())
	assert.True(t, onlyA.allows(mustParse(t, "http://a.test/")))
	assert.False(t, onlyA.allows(mustParse(t, "http://b.test/")))
}
