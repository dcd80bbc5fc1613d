//go:build utls

package client

import (
	"minhttp/session/tls"
	"minhttp/session/tls/utls"
)

func defaultSecureTransport() tls.SecureTransport { return utls.Transport{} }
