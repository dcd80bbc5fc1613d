// Package stdtls secures connections with crypto/tls.
package stdtls

import (
	"context"
	"crypto/tls"
	"net"

	tlslib "minhttp/session/tls"
	"minhttp/transport"

	"github.com/pkg/errors"
)

type Transport struct{}

var _ tlslib.SecureTransport = Transport{}

func (Transport) Handshake(ctx context.Context, conn net.Conn, serverName string, cfg *tlslib.Config) (net.Conn, error) {
	if cfg == nil {
		cfg = &tlslib.Config{}
	}

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         serverName,
		RootCAs:            cfg.RootCAs,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		MinVersion:         cfg.GetMinVersion(),
		NextProtos:         cfg.GetNextProtos(),
	})

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		if transport.IsTimeout(err) || ctx.Err() != nil {
			return nil, errors.Wrapf(err, "tls handshake with %s", serverName)
		}
		return nil, errors.Wrapf(tlslib.ErrHandshakeFailed, "%s: %s", serverName, err)
	}

	return tlsConn, nil
}
