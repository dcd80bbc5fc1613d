package iolib

import "io"

// LimitReader creates new [LimitedReader]
func LimitReader(r io.Reader, n uint64) *LimitedReader { return &LimitedReader{R: r, N: n} }

// LimitedReader is uint64 port of [io.LimitedReader].
// Unlike [io.LimitedReader], it fails with [io.ErrUnexpectedEOF]
// if R ends before N bytes were read.
type LimitedReader struct {
	R io.Reader // underlying reader
	N uint64    // max bytes remaining
}

func (l *LimitedReader) Read(p []byte) (n int, err error) {
	if l.N == 0 {
		return 0, io.EOF
	}
	if uint64(len(p)) > l.N {
		p = p[:l.N]
	}
	n, err = l.R.Read(p)
	l.N -= uint64(n)
	if err == io.EOF && l.N > 0 {
		err = io.ErrUnexpectedEOF
	}
	return
}
