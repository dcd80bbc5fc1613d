package client

import (
	"context"
	"io"

	"minhttp/application/http"
)

var defaultClient = New(nil, nil, nil, nil, DefaultOptions)

// Default returns the client used by the package level functions.
// It dials with the system resolver and logs nothing.
func Default() *Client { return defaultClient }

func Get(ctx context.Context, rawURI string, sink io.Writer) (*http.Response, error) {
	return defaultClient.Get(ctx, rawURI, sink)
}

func Head(ctx context.Context, rawURI string) (*http.Response, error) {
	return defaultClient.Head(ctx, rawURI)
}

func Post(ctx context.Context, rawURI string, body Body, sink io.Writer) (*http.Response, error) {
	return defaultClient.Post(ctx, rawURI, body, sink)
}
