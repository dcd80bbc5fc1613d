// Package utls secures connections with github.com/refraction-networking/utls,
// sending the ClientHello of the Go standard library.
package utls

import (
	"context"
	"net"

	tlslib "minhttp/session/tls"
	"minhttp/transport"

	"github.com/pkg/errors"
	utls "github.com/refraction-networking/utls"
)

type Transport struct {
	// Hello selects the ClientHello to mimic. Zero value is [utls.HelloGolang].
	Hello utls.ClientHelloID
}

var _ tlslib.SecureTransport = Transport{}

func (t Transport) Handshake(ctx context.Context, conn net.Conn, serverName string, cfg *tlslib.Config) (net.Conn, error) {
	if cfg == nil {
		cfg = &tlslib.Config{}
	}

	hello := t.Hello
	if hello == (utls.ClientHelloID{}) {
		hello = utls.HelloGolang
	}

	uconn := utls.UClient(conn, &utls.Config{
		ServerName:         serverName,
		RootCAs:            cfg.RootCAs,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		MinVersion:         cfg.GetMinVersion(),
		NextProtos:         cfg.GetNextProtos(),
	}, hello)

	if err := uconn.HandshakeContext(ctx); err != nil {
		if transport.IsTimeout(err) || ctx.Err() != nil {
			return nil, errors.Wrapf(err, "tls handshake with %s", serverName)
		}
		return nil, errors.Wrapf(tlslib.ErrHandshakeFailed, "%s: %s", serverName, err)
	}

	return uconn, nil
}
