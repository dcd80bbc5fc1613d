// Package tls defines the boundary between a byte stream and a TLS session
// secured on top of it. Implementations live in sub packages.
//
// Reference:
// - https://datatracker.ietf.org/doc/html/rfc8446
// - https://datatracker.ietf.org/doc/html/rfc6066#section-3
package tls

import (
	"context"
	"crypto/x509"
	"net"
	"os"

	"github.com/pkg/errors"
)

var ErrHandshakeFailed = errors.New("tls handshake failed")

// Version numbers, as they appear on the wire.
const (
	VersionTLS12 uint16 = 0x0303
	VersionTLS13 uint16 = 0x0304
)

// SecureTransport secures a connected stream as a client.
type SecureTransport interface {
	// Handshake runs the client handshake over conn with serverName as SNI,
	// and verifies the server certificate against cfg.
	// ctx bounds the handshake. conn is not closed on failure.
	Handshake(ctx context.Context, conn net.Conn, serverName string, cfg *Config) (net.Conn, error)
}

// Config is the trust configuration of a handshake.
// It is borrowed by the handshake and never modified.
type Config struct {
	// RootCAs verifies server certificates. nil means the roots of the host system.
	RootCAs *x509.CertPool

	// InsecureSkipVerify disables certificate verification. Tests only.
	InsecureSkipVerify bool

	// MinVersion defaults to [VersionTLS12].
	MinVersion uint16

	// NextProtos is sent as ALPN. Defaults to http/1.1.
	NextProtos []string
}

// AddRootCertPEM adds PEM encoded certificates to RootCAs.
func (c *Config) AddRootCertPEM(pem []byte) error {
	if c.RootCAs == nil {
		c.RootCAs = x509.NewCertPool()
	}

	if !c.RootCAs.AppendCertsFromPEM(pem) {
		return errors.New("no certificate found in PEM")
	}

	return nil
}

// AddRootCertFile adds PEM encoded certificates in path to RootCAs.
func (c *Config) AddRootCertFile(path string) error {
	pem, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading root certificate")
	}

	return errors.Wrapf(c.AddRootCertPEM(pem), "%s", path)
}

func (c *Config) GetMinVersion() uint16 {
	if c == nil || c.MinVersion == 0 {
		return VersionTLS12
	}
	return c.MinVersion
}

func (c *Config) GetNextProtos() []string {
	if c == nil || len(c.NextProtos) == 0 {
		return []string{"http/1.1"}
	}
	return c.NextProtos
}
