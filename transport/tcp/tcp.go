// Package tcp dials TCP connections, resolving host names through [domain.Lookuper].
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9293
package tcp

import (
	"context"
	"net"
	"strconv"

	"minhttp/application/util/domain"
	"minhttp/network/ip"
	"minhttp/transport"

	"github.com/pkg/errors"
)

// Addr is a TCP endpoint.
type Addr struct {
	ipAddr ip.Addr
	port   uint16
}

func NewAddr(ipAddr ip.Addr, port uint16) Addr {
	return Addr{ipAddr, port}
}

func (a Addr) IP() ip.Addr     { return a.ipAddr }
func (a Addr) Port() uint16    { return a.port }
func (a Addr) Network() string { return transport.NetworkTCP }

func (a Addr) String() string {
	host := a.ipAddr.String()
	if a.ipAddr.Version() == 6 {
		host = "[" + host + "]"
	}

	return host + ":" + strconv.FormatUint(uint64(a.port), 10)
}

type Dialer struct {
	lookuper domain.Lookuper
	dialer   net.Dialer
}

var _ transport.Dialer = (*Dialer)(nil)

// NewDialer creates a dialer. nil lookuper uses the resolver of the host system.
func NewDialer(lookuper domain.Lookuper) *Dialer {
	if lookuper == nil {
		lookuper = &domain.NetLookuper{}
	}
	return &Dialer{lookuper: lookuper}
}

// Resolve returns every endpoint of address, in the order they should be tried.
// IP literals are returned without a lookup.
func (d *Dialer) Resolve(ctx context.Context, address string) ([]Addr, error) {
	host, portRaw, err := net.SplitHostPort(address)
	if err != nil {
		return nil, errors.Wrapf(transport.ErrConnectionFailed, "invalid address %q: %s", address, err)
	}

	port, err := strconv.ParseUint(portRaw, 10, 16)
	if err != nil {
		return nil, errors.Wrapf(transport.ErrConnectionFailed, "invalid port %q", portRaw)
	}

	if addr, ok := ip.ParseLiteral(host); ok {
		return []Addr{NewAddr(addr, uint16(port))}, nil
	}

	ips, err := d.lookuper.LookupIP(ctx, host)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrapf(ctxErr, "resolving %s", host)
		}
		return nil, errors.Wrapf(transport.ErrConnectionFailed, "resolving %s: %s", host, err)
	}

	addrs := make([]Addr, 0, len(ips))
	for _, a := range ips {
		addrs = append(addrs, NewAddr(a, uint16(port)))
	}

	return addrs, nil
}

// Dial connects to address ("host:port"), trying each resolved endpoint in turn.
// ctx bounds resolution and every attempt.
func (d *Dialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	addrs, err := d.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, addr := range addrs {
		conn, err := d.dialer.DialContext(ctx, network, addr.String())
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrapf(ctxErr, "dialing %s", address)
		}
	}

	return nil, errors.Wrapf(transport.ErrConnectionFailed, "dialing %s: %s", address, lastErr)
}
