//go:build !utls

package client

import (
	"minhttp/session/tls"
	"minhttp/session/tls/stdtls"
)

func defaultSecureTransport() tls.SecureTransport { return stdtls.Transport{} }
