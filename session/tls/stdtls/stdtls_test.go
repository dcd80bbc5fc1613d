package stdtls

import (
	"testing"

	"minhttp/session/tls/tlstest"

	"github.com/stretchr/testify/suite"
)

func TestTransport(t *testing.T) {
	suite.Run(t, &tlstest.SecureTransportTestSuite{Transport: Transport{}})
}
