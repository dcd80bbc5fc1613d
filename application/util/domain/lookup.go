package domain

import (
	"context"
	"maps"
	"net"
	"sync"

	"minhttp/network/ip"
	ipv4 "minhttp/network/ip/v4"
	ipv6 "minhttp/network/ip/v6"

	"github.com/pkg/errors"
)

var ErrDomainNotFound = errors.New("domain not found")

type Lookuper interface {
	LookupIP(ctx context.Context, domain string) (addrs []ip.Addr, err error)
}

// NetLookuper resolves names with the resolver of the host system.
type NetLookuper struct {
	Resolver *net.Resolver
}

var _ Lookuper = (*NetLookuper)(nil)

func (l *NetLookuper) LookupIP(ctx context.Context, domain string) ([]ip.Addr, error) {
	resolver := l.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	found, err := resolver.LookupNetIP(ctx, "ip", domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, errors.Wrapf(ErrDomainNotFound, "%s", domain)
		}
		return nil, errors.Wrapf(err, "looking up %s", domain)
	}

	addrs := make([]ip.Addr, 0, len(found))
	for _, a := range found {
		a = a.Unmap()
		if a.Is4() {
			addrs = append(addrs, ipv4.Addr(a.As4()))
		} else {
			addrs = append(addrs, ipv6.Addr(a.As16()))
		}
	}
	if len(addrs) == 0 {
		return nil, errors.Wrapf(ErrDomainNotFound, "%s", domain)
	}

	return addrs, nil
}

type mapLookuper struct {
	set map[string][]ip.Addr
	mu  sync.RWMutex
}

var _ Lookuper = (*mapLookuper)(nil)

func NewMapLookuper(set map[string][]ip.Addr) *mapLookuper {
	if set == nil {
		set = make(map[string][]ip.Addr)
	}
	return &mapLookuper{set: maps.Clone(set)}
}

func (m *mapLookuper) LookupIP(ctx context.Context, domain string) (addrs []ip.Addr, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	addrs, ok := m.set[domain]
	if !ok {
		return nil, errors.Wrapf(ErrDomainNotFound, "%s", domain)
	}
	return addrs, nil
}

func (m *mapLookuper) Set(domain string, addrs []ip.Addr) {
	if len(addrs) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.set[domain] = addrs
}

func (m *mapLookuper) Del(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.set, domain)
}
