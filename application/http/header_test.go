package http

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadersAddGet(t *testing.T) {
	var h Headers
	h.Add("content-type", "text/plain")
	h.Add("Accept", "text/html")
	h.Add("ACCEPT", "application/json")

	ct, ok := h.Get("Content-Type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", ct)

	accept, ok := h.Get("accept")
	assert.True(t, ok)
	assert.Equal(t, "text/html, application/json", accept)
	assert.Equal(t, []string{"text/html", "application/json"}, h.Values("Accept"))

	_, ok = h.Get("X-Missing")
	assert.False(t, ok)
	assert.Nil(t, h.Values("X-Missing"))

	assert.Equal(t, []string{"Content-Type", "Accept"}, h.Names())
	assert.Equal(t, 2, h.Len())
}

func TestHeadersSetKeepsPosition(t *testing.T) {
	var h Headers
	h.Add("A", "1")
	h.Add("B", "2")
	h.Add("B", "3")
	h.Add("C", "4")

	h.Set("b", "5")

	assert.Equal(t, []string{"A", "B", "C"}, h.Names())
	assert.Equal(t, []string{"5"}, h.Values("B"))

	h.Set("D", "6")
	assert.Equal(t, []string{"A", "B", "C", "D"}, h.Names())
}

func TestHeadersDel(t *testing.T) {
	var h Headers
	h.Add("A", "1")
	h.Add("B", "2")
	h.Add("C", "3")

	h.Del("b")
	h.Del("X-Missing")

	assert.False(t, h.Has("B"))
	assert.True(t, h.Has("c"))
	assert.Equal(t, []string{"A", "C"}, h.Names())

	v, ok := h.Get("C")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestHeadersSetCookie(t *testing.T) {
	var h Headers
	h.Add("Set-Cookie", "a=1")
	h.Add("set-cookie", "b=2; Path=/")

	v, ok := h.Get("Set-Cookie")
	assert.True(t, ok)
	assert.Equal(t, "a=1", v)
	assert.Equal(t, []Field{
		{[]byte("Set-Cookie"), []byte("a=1")},
		{[]byte("Set-Cookie"), []byte("b=2; Path=/")},
	}, h.Fields())
}

func TestHeadersNonTokenName(t *testing.T) {
	var h Headers
	h.Add("bad name", "x")

	assert.Equal(t, []string{"bad name"}, h.Names())
}

func TestHeadersCanonicalName(t *testing.T) {
	testcases := []struct {
		input    string
		expected string
	}{
		{"content-type", "Content-Type"},
		{"X-FORWARDED-FOR", "X-Forwarded-For"},
		{"www-authenticate", "Www-Authenticate"},
		{"a", "A"},
	}

	for _, tc := range testcases {
		t.Run(tc.input, func(t *testing.T) {
			var h Headers
			h.Add(tc.input, "v")
			assert.Equal(t, []string{tc.expected}, h.Names())
		})
	}
}

func TestHeadersCloneAndEqual(t *testing.T) {
	var h Headers
	h.Add("A", "1")
	h.Add("B", "2")

	clone := h.Clone()
	assert.True(t, h.Equal(clone))

	clone.Add("A", "3")
	assert.False(t, h.Equal(clone))
	assert.Equal(t, []string{"1"}, h.Values("A"))

	clone.Del("B")
	assert.True(t, h.Has("B"))
}

func TestHeadersFrom(t *testing.T) {
	h := HeadersFrom([]Field{
		{[]byte("x-a"), []byte("1")},
		{[]byte("X-B"), []byte("2")},
		{[]byte("X-A"), []byte("3")},
	})

	assert.Equal(t, []Field{
		{[]byte("X-A"), []byte("1, 3")},
		{[]byte("X-B"), []byte("2")},
	}, h.Fields())
}

func TestHeadersReadOnReturnedValue(t *testing.T) {
	build := func() Headers {
		h := NewHeaders()
		h.Add("X-Digest", "abc")
		return h
	}

	v, ok := build().Get("x-digest")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.True(t, build().Has("X-DIGEST"))
	assert.Equal(t, []string{"abc"}, build().Values("X-Digest"))

	var zero Headers
	assert.False(t, zero.Has("X-Digest"))
	assert.Empty(t, zero.Fields())
}

func TestHeadersConcurrentReads(t *testing.T) {
	h := NewHeaders()
	h.Add("Accept", "a")
	h.Add("Accept", "b")
	h.Add("Set-Cookie", "x=1")
	h.Del("Set-Cookie")
	shared := h.Clone()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				v, _ := shared.Get("accept")
				assert.Equal(t, "a, b", v)
				assert.False(t, shared.Has("Set-Cookie"))
				assert.Len(t, shared.Fields(), 1)
			}
		}()
	}
	wg.Wait()
}
