package ipv6

import (
	"net/netip"
	"strconv"
	"strings"

	ipv4 "minhttp/network/ip/v4"

	"github.com/pkg/errors"
)

type Addr [16]byte

func (a Addr) Raw() []byte   { return a[:] }
func (a Addr) Version() uint { return 6 }

// String returns the RFC 5952 text form.
func (a Addr) String() string { return netip.AddrFrom16(a).String() }

// ParseAddr parses the IPv6address rule without brackets.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func ParseAddr(s string) (Addr, error) {
	head, tail, elided := strings.Cut(s, "::")
	if elided && strings.Contains(tail, "::") {
		return Addr{}, errors.New("'::' appears more than once")
	}

	front, err := parseGroups(head, !elided)
	if err != nil {
		return Addr{}, errors.Wrap(err, "parsing groups")
	}
	var back []byte
	if elided {
		back, err = parseGroups(tail, true)
		if err != nil {
			return Addr{}, errors.Wrap(err, "parsing groups after '::'")
		}
	}

	var addr Addr
	switch n := len(front) + len(back); {
	case !elided && n != len(addr):
		return Addr{}, errors.Errorf("address has %d bits, expected 128", n*8)
	case elided && n > len(addr)-2:
		// '::' stands for at least one zero group.
		return Addr{}, errors.New("address too long for '::'")
	}

	copy(addr[:], front)
	copy(addr[len(addr)-len(back):], back)

	return addr, nil
}

// parseGroups parses colon separated h16 groups. When ls32 is set the last
// group may be a dotted IPv4 address taking two groups.
func parseGroups(s string, ls32 bool) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	groups := strings.Split(s, ":")
	out := make([]byte, 0, len(groups)*2+2)
	for idx, group := range groups {
		last := idx == len(groups)-1
		if ls32 && last && strings.IndexByte(group, '.') >= 0 {
			v4, err := ipv4.ParseAddr(group)
			if err != nil {
				return nil, errors.Wrap(err, "embedded ipv4 address")
			}
			out = append(out, v4.Raw()...)
			break
		}

		if group == "" || len(group) > 4 {
			return nil, errors.Errorf("malformed group %q", group)
		}
		n, err := strconv.ParseUint(group, 16, 16)
		if err != nil {
			return nil, errors.Wrapf(err, "group %q", group)
		}
		out = append(out, byte(n>>8), byte(n))
	}

	return out, nil
}
