package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"minhttp/application/http"
	"minhttp/application/http/client"
	"minhttp/cmd/httpreq/config"
	"minhttp/session/tls"
	"minhttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const fieldRequestID = "X-Request-Id"

// environment is what a command runs against.
// A nil dialer dials TCP, a nil clock is the wall clock.
type environment struct {
	stdout, stderr io.Writer

	dialer transport.Dialer
	clock  clock.Clock
}

type options struct {
	configPath string
	logLevel   string

	headers   []string
	data      string
	output    string
	requestID bool

	maxRedirects uint
	noFollow     bool

	timeout        time.Duration
	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	cacert string
	user   string
	bearer string
}

func newRootCmd(env environment) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "httpreq",
		Short:         "Send an HTTP/1.1 request",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.stdout)
	root.SetErr(env.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML profile to load before flags")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringArrayVarP(&opts.headers, "header", "H", nil, `header field to send, as "Name: value" (repeatable)`)
	pf.StringVarP(&opts.output, "output", "o", "", "write the body to a file instead of stdout")
	pf.BoolVar(&opts.requestID, "request-id", false, "send a random "+fieldRequestID)
	pf.UintVar(&opts.maxRedirects, "max-redirects", client.DefaultMaxRedirects, "redirects to follow before failing")
	pf.BoolVar(&opts.noFollow, "no-follow", false, "return redirects instead of following them")
	pf.DurationVar(&opts.timeout, "timeout", client.DefaultTimeouts.Total, "limit of the whole call, redirects included")
	pf.DurationVar(&opts.connectTimeout, "connect-timeout", client.DefaultTimeouts.Connect, "limit of each connect and TLS handshake")
	pf.DurationVar(&opts.readTimeout, "read-timeout", client.DefaultTimeouts.Read, "limit of each read")
	pf.DurationVar(&opts.writeTimeout, "write-timeout", client.DefaultTimeouts.Write, "limit of each write")
	pf.StringVar(&opts.cacert, "cacert", "", "PEM file of the certificates to trust instead of the system roots")
	pf.StringVar(&opts.user, "user", "", `basic credentials, as "user:password"`)
	pf.StringVar(&opts.bearer, "bearer", "", "bearer token")

	post := newMethodCmd(env, opts, http.MethodPost, "post", "POST data to a URI and print the response body")
	post.Flags().StringVarP(&opts.data, "data", "d", "", "request body, or @file to send a file")

	root.AddCommand(
		newMethodCmd(env, opts, http.MethodGet, "get", "GET a URI and print the response body"),
		newMethodCmd(env, opts, http.MethodHead, "head", "print the response head of a URI"),
		post,
	)

	return root
}

func newMethodCmd(env environment, opts *options, method http.Method, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " URI",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), env, cmd.Flags(), opts, method, args[0])
		},
	}
}

// profile loads the config file and applies the flags that were set on top of it.
func (o *options) profile(flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.Headers = append(cfg.Headers, o.headers...)

	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("max-redirects") {
		cfg.MaxRedirects = o.maxRedirects
	}
	if flags.Changed("no-follow") {
		cfg.FollowRedirects = !o.noFollow
	}
	if flags.Changed("timeout") {
		cfg.Timeouts.Total = o.timeout
	}
	if flags.Changed("connect-timeout") {
		cfg.Timeouts.Connect = o.connectTimeout
	}
	if flags.Changed("read-timeout") {
		cfg.Timeouts.Read = o.readTimeout
	}
	if flags.Changed("write-timeout") {
		cfg.Timeouts.Write = o.writeTimeout
	}
	if flags.Changed("cacert") {
		cfg.CACert = o.cacert
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, env environment, flags *pflag.FlagSet, opts *options, method http.Method, rawURI string) error {
	cfg, err := opts.profile(flags)
	if err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(env.stderr, &slog.HandlerOptions{Level: level}))

	req, err := newRequest(cfg, opts, method, rawURI)
	if err != nil {
		return err
	}

	if method == http.MethodPost {
		body, closeBody, err := openBody(opts.data)
		if err != nil {
			return err
		}
		defer closeBody()
		req.Body = body
	}

	sink, closeSink, err := openSink(env.stdout, opts.output)
	if err != nil {
		return err
	}
	defer closeSink()

	c := client.New(env.dialer, nil, logger, env.clock, client.DefaultOptions)

	resp, err := c.Do(ctx, req, sink)
	if err != nil {
		return err
	}

	logger.Info("done", "status", resp.StatusCode, "body_bytes", resp.BodyBytes)

	if method == http.MethodHead {
		return http.NewResponseEncoder(env.stdout, http.DefaultEncodeOptions).EncodeHead(resp)
	}
	return nil
}

func newRequest(cfg *config.Config, opts *options, method http.Method, rawURI string) (*client.Request, error) {
	req, err := client.NewRequest(method, rawURI)
	if err != nil {
		return nil, err
	}

	for _, h := range cfg.Headers {
		name, value, err := config.ParseHeader(h)
		if err != nil {
			return nil, err
		}
		req.Headers.Set(name, value)
	}
	if opts.requestID {
		req.Headers.Set(fieldRequestID, uuid.NewString())
	}

	req.Timeouts = cfg.Timeouts
	req.Redirect = client.NoFollow()
	if cfg.FollowRedirects {
		req.Redirect = client.Follow(cfg.MaxRedirects)
	}

	if cfg.CACert != "" {
		req.TLS = &tls.Config{}
		if err := req.TLS.AddRootCertFile(cfg.CACert); err != nil {
			return nil, err
		}
	}

	switch {
	case opts.user != "" && opts.bearer != "":
		return nil, errors.New("--user and --bearer cannot be used together")
	case opts.user != "":
		user, pass, _ := strings.Cut(opts.user, ":")
		req.Auth = client.BasicAuth(user, pass)
	case opts.bearer != "":
		req.Auth = client.BearerAuth(opts.bearer)
	}

	return req, nil
}

// openBody returns the body of data, which names a file when it starts with @.
func openBody(data string) (client.Body, func(), error) {
	path, isFile := strings.CutPrefix(data, "@")
	if !isFile {
		return client.BytesBody([]byte(data)), func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening body")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrap(err, "opening body")
	}

	return client.ReaderBody(f, uint64(info.Size())), func() { f.Close() }, nil
}

func openSink(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating output")
	}
	return f, func() { f.Close() }, nil
}
