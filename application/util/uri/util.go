package uri

import (
	"strings"

	"minhttp/application/util/rule"
	ipv4 "minhttp/network/ip/v4"
	ipv6 "minhttp/network/ip/v6"

	"github.com/pkg/errors"
)

// maxHostLen bounds reg-name hosts to the DNS limit.
const maxHostLen = 255

// charset reports whether a single byte may appear unescaped in a component.
type charset func(c byte) bool

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.2
func subDelim(c byte) bool {
	return strings.IndexByte("!$&'()*+,;=", c) >= 0
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.3
func unreserved(c byte) bool {
	return rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)) ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// Raw UTF-8 is not allowed by RFC 3986, but servers do send it in Location.
// It is passed through unchanged.
func obsText(c byte) bool { return c >= 0x80 }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
func pchar(c byte) bool {
	return unreserved(c) || subDelim(c) || c == ':' || c == '@' || obsText(c)
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.4
func queryChar(c byte) bool { return pchar(c) || c == '/' || c == '?' }

func userInfoChar(c byte) bool { return unreserved(c) || subDelim(c) || c == ':' }

func regNameChar(c byte) bool { return unreserved(c) || subDelim(c) }

// conforms reports whether s consists of bytes in set and well-formed
// percent-encoded triplets.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.1
func (set charset) conforms(s string) bool {
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if c != '%' {
			if !set(c) {
				return false
			}
			continue
		}
		if idx+2 >= len(s) || !rule.IsHex(rune(s[idx+1])) || !rule.IsHex(rune(s[idx+2])) {
			return false
		}
		idx += 2
	}
	return true
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func checkScheme(scheme string) error {
	if scheme == "" {
		return errors.New("scheme is empty")
	}
	if !rule.IsAlpha(rune(scheme[0])) {
		return errors.Errorf("scheme %q doesn't start with ALPHA", scheme)
	}

	for idx := 1; idx < len(scheme); idx++ {
		c := scheme[idx]
		if !(rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)) || c == '+' || c == '-' || c == '.') {
			return errors.Errorf("scheme %q contains invalid byte %q", scheme, c)
		}
	}
	return nil
}

// checkHost accepts an IP-literal, an IPv4 address or a reg-name. An empty
// reg-name is valid here and rejected by callers that need a host.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func checkHost(host string) error {
	if len(host) > maxHostLen {
		return errors.Errorf("host length exceeds limit(%d): %d", maxHostLen, len(host))
	}

	if literal, ok := strings.CutPrefix(host, "["); ok {
		literal, ok = strings.CutSuffix(literal, "]")
		if !ok {
			return errors.New("unterminated IP-literal")
		}
		if _, err := ipv6.ParseAddr(literal); err == nil || ipvFuture(literal) {
			return nil
		}
		return errors.Errorf("malformed IP-literal %q", host)
	}

	if _, err := ipv4.ParseAddr(host); err == nil {
		return nil
	}
	if charset(regNameChar).conforms(host) {
		return nil
	}
	return errors.Errorf("host is neither ipv4 addr nor valid reg-name: %q", host)
}

// ipvFuture matches "v" 1*HEXDIG "." 1*( unreserved / sub-delims / ":" ).
func ipvFuture(s string) bool {
	rest, ok := strings.CutPrefix(s, "v")
	if !ok {
		return false
	}

	dot := strings.IndexByte(rest, '.')
	if dot < 1 || dot == len(rest)-1 {
		return false
	}
	for _, c := range []byte(rest[:dot]) {
		if !rule.IsHex(rune(c)) {
			return false
		}
	}
	for _, c := range []byte(rest[dot+1:]) {
		if !userInfoChar(c) {
			return false
		}
	}
	return true
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
func checkPath(path string, hasAuthority bool, isRelative bool) error {
	switch {
	case hasAuthority && path != "" && path[0] != '/':
		return errors.New("URI with authority must either be empty or start with '/'")
	case !hasAuthority && strings.HasPrefix(path, "//"):
		return errors.New("URI without authority should not start with '//'")
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.2
	if isRelative {
		first, _, _ := strings.Cut(path, "/")
		if strings.IndexByte(first, ':') >= 0 {
			return errors.Errorf("first segment of relative reference contains ':': %q", first)
		}
	}

	for segment := range strings.SplitSeq(path, "/") {
		if !charset(pchar).conforms(segment) {
			return errors.Errorf("path segment should be pchar: %q", segment)
		}
	}
	return nil
}
