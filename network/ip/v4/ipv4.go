package ipv4

import (
	"strconv"

	"github.com/pkg/errors"
)

type Addr [4]byte

// ParseAddr parses the dotted-decimal IPv4address rule.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func ParseAddr(s string) (Addr, error) {
	var (
		addr  Addr
		octet int
		start = 0
	)
	for idx := 0; idx <= len(s); idx++ {
		if idx < len(s) && s[idx] != '.' {
			continue
		}
		if octet == len(addr) {
			return Addr{}, errors.New("more than four octets")
		}

		dec := s[start:idx]
		if dec == "" || len(dec) > 3 {
			return Addr{}, errors.Errorf("malformed octet %q", dec)
		}
		if len(dec) > 1 && dec[0] == '0' {
			return Addr{}, errors.Errorf("leading zero in octet %q", dec)
		}
		n, err := strconv.ParseUint(dec, 10, 8)
		if err != nil {
			return Addr{}, errors.Wrapf(err, "octet %q", dec)
		}

		addr[octet] = byte(n)
		octet++
		start = idx + 1
	}
	if octet != len(addr) {
		return Addr{}, errors.Errorf("expected four octets, got %d", octet)
	}

	return addr, nil
}

func (a Addr) Raw() []byte   { return a[:] }
func (a Addr) Version() uint { return 4 }

func (a Addr) String() string {
	buf := make([]byte, 0, 15)
	for i, b := range a {
		if i > 0 {
			buf = append(buf, '.')
		}
		buf = strconv.AppendUint(buf, uint64(b), 10)
	}
	return string(buf)
}
