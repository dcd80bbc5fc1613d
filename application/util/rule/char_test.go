package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHex(t *testing.T) {
	for _, r := range "0123456789abcdefABCDEF" {
		assert.True(t, IsHex(r), string(r))
	}
	for _, r := range "gG-x ;" {
		assert.False(t, IsHex(r), string(r))
	}
}

func TestContainsCTL(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected bool
	}{
		{desc: "plain text", input: "http://example.com/", expected: false},
		{desc: "null byte", input: "a\x00b", expected: true},
		{desc: "line feed", input: "a\nb", expected: true},
		{desc: "delete", input: "a\x7fb", expected: true},
		{desc: "non-ascii", input: "caf\xc3\xa9", expected: false},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, ContainsCTL(tc.input))
		})
	}
}

func TestIsFieldVChar(t *testing.T) {
	assert.True(t, IsFieldVChar('a'))
	assert.True(t, IsFieldVChar(SP))
	assert.True(t, IsFieldVChar(HTAB))
	assert.True(t, IsFieldVChar(0x80))
	assert.False(t, IsFieldVChar(CR))
	assert.False(t, IsFieldVChar(LF))
	assert.False(t, IsFieldVChar(0x00))
	assert.False(t, IsFieldVChar(DEL))
}

func TestIsWhitespace(t *testing.T) {
	for _, c := range Whitespaces {
		assert.True(t, IsWhitespace(rune(c)))
	}
	assert.False(t, IsWhitespace('a'))
	assert.False(t, IsWhitespace(rune(LF)))
}
