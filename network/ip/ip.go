package ip

import (
	ipv4 "minhttp/network/ip/v4"
	ipv6 "minhttp/network/ip/v6"
)

type Addr interface {
	Raw() []byte
	String() string
	Version() uint
}

var (
	_ Addr = ipv4.Addr{}
	_ Addr = ipv6.Addr{}
)

// ParseLiteral parses s as an ipv4 address, or ipv6 address with or without brackets.
func ParseLiteral(s string) (Addr, bool) {
	if addr, err := ipv4.ParseAddr(s); err == nil {
		return addr, true
	}

	if len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']' {
		s = s[1 : len(s)-1]
	}
	if addr, err := ipv6.ParseAddr(s); err == nil {
		return addr, true
	}

	return nil, false
}
