package iolib

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

var ErrLineTooLong = errors.New("line length exceeds limit")

// ReadLine reads from br until LF. The output includes LF.
// If limit > 0, ErrLineTooLong is returned as soon as more than limit bytes
// were consumed, so at most limit + br.Size() bytes are ever read.
// A source ending before any byte is read returns [io.EOF],
// and one ending in the middle of a line returns [io.ErrUnexpectedEOF].
func ReadLine(br *bufio.Reader, limit uint) ([]byte, error) {
	var line []byte
	for {
		frag, err := br.ReadSlice('\n')
		line = append(line, frag...)
		if limit > 0 && uint(len(line)) > limit {
			return nil, ErrLineTooLong
		}

		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 {
				return nil, io.EOF
			}
			return nil, io.ErrUnexpectedEOF
		default:
			return nil, err
		}
	}
}
