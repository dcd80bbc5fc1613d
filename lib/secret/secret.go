// Package secret holds credential bytes that are overwritten once released.
package secret

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrDestroyed = errors.New("secret is destroyed")

// Buffer owns a copy of sensitive bytes.
// After Destroy every byte of the copy is zero and Bytes returns nil.
type Buffer struct {
	mu        sync.Mutex
	b         []byte
	destroyed bool
}

func New(s string) *Buffer {
	return &Buffer{b: []byte(s)}
}

// FromBytes copies b. Caller still owns (and should clear) b.
func FromBytes(b []byte) *Buffer {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Buffer{b: cp}
}

// Bytes returns the underlying bytes without copying.
// It must not be retained past Destroy.
func (s *Buffer) Bytes() []byte {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	return s.b
}

func (s *Buffer) Len() int { return len(s.Bytes()) }

func (s *Buffer) Destroyed() bool {
	if s == nil {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Destroy zeroes the buffer. Calling it more than once is allowed.
func (s *Buffer) Destroy() {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	Zero(s.b)
	s.b = nil
	s.destroyed = true
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
}
