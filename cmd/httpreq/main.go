// Command httpreq sends a single HTTP/1.1 request and writes the response body.
//
//	httpreq get https://example.com/ -o page.html
//	httpreq post https://example.com/form -d 'a=1' -H 'Content-Type: application/x-www-form-urlencoded'
//	httpreq head https://example.com/ --no-follow
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(environment{stdout: os.Stdout, stderr: os.Stderr})
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "httpreq:", err)
		stop()
		os.Exit(1)
	}
}
