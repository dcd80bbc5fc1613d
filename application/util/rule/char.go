package rule

import "bytes"

func IsWhitespace(r rune) bool {
	return r < 0x80 && bytes.IndexByte(Whitespaces, byte(r)) >= 0
}

func IsOWS(c byte) bool { return c == SP || c == HTAB }

func IsAlpha(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }
func IsDigit(r rune) bool { return '0' <= r && r <= '9' }

func IsHex(r rune) bool {
	return IsDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// IsCTL reports whether c is a control character (%x00-1F / %x7F).
// Reference: https://datatracker.ietf.org/doc/html/rfc5234#appendix-B.1
func IsCTL(c byte) bool { return c < SP || c == DEL }

func ContainsCTL(s string) bool {
	for i := 0; i < len(s); i++ {
		if IsCTL(s[i]) {
			return true
		}
	}
	return false
}

// IsFieldVChar accepts VCHAR, obs-text and the whitespaces allowed between them.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.5
func IsFieldVChar(c byte) bool {
	return c == SP || c == HTAB || (c > SP && c != DEL)
}
