package iolib

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFull(t *testing.T) {
	data := []byte("Hello, World!")
	var buf bytes.Buffer

	written, err := WriteFull(&buf, data)
	assert.NoError(t, err)
	assert.Equal(t, uint(len(data)), written)
	assert.Equal(t, data, buf.Bytes())
}

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf}

	_, err := cw.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("de"))
	require.NoError(t, err)

	assert.Equal(t, uint64(5), cw.N)
	assert.Equal(t, "abcde", buf.String())
}

func TestLimitedReader(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		n        uint64
		expected string
		wantErr  error
	}{
		{desc: "exact", input: "hello", n: 5, expected: "hello"},
		{desc: "source longer than limit", input: "hello world", n: 5, expected: "hello"},
		{desc: "source shorter than limit", input: "hel", n: 5, expected: "hel", wantErr: io.ErrUnexpectedEOF},
		{desc: "zero", input: "hello", n: 0, expected: ""},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := io.ReadAll(LimitReader(strings.NewReader(tc.input), tc.n))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expected, string(got))
		})
	}
}

func TestReadLine(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		limit    uint
		bufSize  int
		expected string
		wantErr  error
	}{
		{desc: "simple line", input: "Hello\r\nrest", expected: "Hello\r\n"},
		{desc: "line at limit", input: "Hey\r\n", limit: 5, expected: "Hey\r\n"},
		{desc: "line over limit", input: "Hey!\r\n", limit: 5, wantErr: ErrLineTooLong},
		{
			desc:     "line longer than buffer",
			input:    strings.Repeat("a", 40) + "\n",
			bufSize:  16,
			expected: strings.Repeat("a", 40) + "\n",
		},
		{
			desc:    "unbounded line stops early",
			input:   strings.Repeat("a", 1<<16),
			limit:   32,
			bufSize: 16,
			wantErr: ErrLineTooLong,
		},
		{desc: "empty source", input: "", wantErr: io.EOF},
		{desc: "source ends mid-line", input: "Hel", wantErr: io.ErrUnexpectedEOF},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			size := tc.bufSize
			if size == 0 {
				size = 4096
			}
			br := bufio.NewReaderSize(strings.NewReader(tc.input), size)

			line, err := ReadLine(br, tc.limit)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(line))
		})
	}
}
