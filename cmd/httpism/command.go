package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jaxron/httpism/middleware/header"
	"github.com/jaxron/httpism/middleware/proxy"
	"github.com/jaxron/httpism/middleware/ratelimit"
	"github.com/jaxron/httpism/middleware/rediscache"
	"github.com/jaxron/httpism/middleware/tracing"
	"github.com/jaxron/httpism/pkg/client"
	"github.com/jaxron/httpism/pkg/client/config"
	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/options"
	"github.com/jaxron/httpism/pkg/client/query"
	"github.com/jaxron/httpism/pkg/client/transport"
	"github.com/jaxron/httpism/pkg/httpism"
	"github.com/redis/rueidis"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ErrInvalidHeader = errors.New("header must be in 'Name: value' form")
	ErrInvalidQuery  = errors.New("query parameter must be in key=value form")
	ErrInvalidUser   = errors.New("user must be in username:password form")
	ErrInvalidProxy  = errors.New("proxy must be an absolute URL")
)

// requestFlags holds the parsed command line.
type requestFlags struct {
	method     string
	data       string
	jsonBody   bool
	form       bool
	headers    []string
	query      []string
	user       string
	proxies    []string
	userAgent  string
	redisAddr  string
	cacheTTL   time.Duration
	noRedirect bool
	include    bool
	rate       float64
	timeout    time.Duration
	trace      bool
	verbose    bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	f := &requestFlags{}

	cmd := &cobra.Command{
		Use:           "httpism [flags] URL",
		Short:         "Send an HTTP request through the standard middleware stack",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args[0], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVarP(&f.method, "method", "X", "", "HTTP method to use (defaults to GET, or POST when data is given)")
	flags.StringVarP(&f.data, "data", "d", "", "Request body")
	flags.BoolVar(&f.jsonBody, "json", false, "Parse the body as JSON and send it as a structured value")
	flags.BoolVar(&f.form, "form", false, "Send a structured body form-encoded")
	flags.StringArrayVarP(&f.headers, "header", "H", nil, "Request header in 'Name: value' form (repeatable)")
	flags.StringArrayVarP(&f.query, "query", "q", nil, "Query parameter in key=value form (repeatable)")
	flags.StringVarP(&f.user, "user", "u", "", "Basic auth credentials in username:password form")
	flags.StringArrayVar(&f.proxies, "proxy", nil, "Proxy URL to rotate through (repeatable, overrides http_proxy)")
	flags.StringVarP(&f.userAgent, "user-agent", "A", "httpism", "User-Agent header to send")
	flags.StringVar(&f.redisAddr, "redis", "", "Redis address used to cache successful GET responses")
	flags.DurationVar(&f.cacheTTL, "cache-ttl", time.Minute, "Expiration of cached responses")
	flags.BoolVar(&f.noRedirect, "no-redirect", false, "Do not follow redirects")
	flags.BoolVarP(&f.include, "include", "i", false, "Print the status line and response headers")
	flags.Float64Var(&f.rate, "rate", 0, "Requests per second limit (0 means unlimited)")
	flags.DurationVar(&f.timeout, "timeout", 30*time.Second, "Request timeout")
	flags.BoolVar(&f.trace, "trace", false, "Record an OpenTelemetry span and send trace context headers")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Log pipeline activity to stderr")

	return cmd
}

func run(ctx context.Context, f *requestFlags, target string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	l := newLogger(f.verbose, stderr)

	env, err := config.Load()
	if err != nil {
		return err
	}

	opts, body, err := buildRequest(f)
	if err != nil {
		return err
	}

	settings := []client.Option{
		client.WithLogger(l),
		client.WithTransport(transport.New(transport.WithProxy(env.HTTPProxy), transport.WithLogger(l))),
	}
	if f.userAgent != "" {
		settings = append(settings, client.WithMiddleware(header.New(map[string][]string{"User-Agent": {f.userAgent}})))
	}
	if len(f.proxies) > 0 {
		proxies, err := parseProxies(f.proxies)
		if err != nil {
			return err
		}
		settings = append(settings, client.WithMiddleware(proxy.New(proxies)))
	}
	if f.redisAddr != "" {
		cache, err := rediscache.New(rueidis.ClientOption{InitAddress: []string{f.redisAddr}}, f.cacheTTL)
		if err != nil {
			return err
		}
		settings = append(settings, client.WithTransportMiddleware(cache))
	}
	if f.trace {
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		settings = append(settings, client.WithMiddleware(tracing.New(
			tracing.WithTracerProvider(tp),
			tracing.WithPropagator(propagation.TraceContext{}),
		)))
	}
	if f.rate > 0 {
		settings = append(settings, client.WithMiddleware(ratelimit.New(f.rate, 1)))
	}

	c := httpism.New("", nil, settings...)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := c.Send(ctx, methodFor(f), target, body, opts)
	if err != nil {
		return err
	}

	if f.include {
		writeHead(stdout, resp.Response)
	}
	return writeBody(stdout, resp.Body)
}

func newLogger(verbose bool, stderr io.Writer) logger.Logger {
	if !verbose {
		return &logger.NoOpLogger{}
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(stderr),
		zap.DebugLevel,
	)
	return logger.NewZapLogger(zap.New(core))
}

func methodFor(f *requestFlags) string {
	if f.method != "" {
		return strings.ToUpper(f.method)
	}
	if f.data != "" {
		return http.MethodPost
	}
	return http.MethodGet
}

func buildRequest(f *requestFlags) (*options.Options, message.Body, error) {
	opts := &options.Options{
		Headers: make(http.Header),
	}

	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, message.Body{}, fmt.Errorf("%w: %q", ErrInvalidHeader, h)
		}
		opts.Headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if len(f.query) > 0 {
		opts.Querystring = make(query.Query)
		for _, q := range f.query {
			key, value, ok := strings.Cut(q, "=")
			if !ok || key == "" {
				return nil, message.Body{}, fmt.Errorf("%w: %q", ErrInvalidQuery, q)
			}
			opts.Querystring.Add(key, value)
		}
	}

	if f.user != "" {
		username, password, ok := strings.Cut(f.user, ":")
		if !ok {
			return nil, message.Body{}, fmt.Errorf("%w: %q", ErrInvalidUser, f.user)
		}
		opts.BasicAuth = &options.BasicAuth{Username: username, Password: password}
	}

	if f.noRedirect {
		opts.Redirect = options.Bool(false)
	}
	if f.form {
		opts.Form = options.Bool(true)
	}

	if f.data == "" {
		return opts, message.NoBody(), nil
	}
	if !f.jsonBody && !f.form {
		return opts, message.StringBody(f.data), nil
	}

	var value any
	if err := sonic.UnmarshalString(f.data, &value); err != nil {
		return nil, message.Body{}, fmt.Errorf("failed to parse body as JSON: %w", err)
	}
	return opts, message.ValueBody(value), nil
}

func parseProxies(raw []string) ([]*url.URL, error) {
	proxies := make([]*url.URL, 0, len(raw))
	for _, p := range raw {
		u, err := url.Parse(p)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, p)
		}
		proxies = append(proxies, u)
	}
	return proxies, nil
}

func writeHead(w io.Writer, resp *message.Response) {
	fmt.Fprintf(w, "%d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range resp.Header[name] {
			fmt.Fprintf(w, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintln(w)
}

func writeBody(w io.Writer, body message.Body) error {
	switch body.Kind() {
	case message.BodyEmpty:
		return nil
	case message.BodyString:
		_, err := io.WriteString(w, body.Text())
		return err
	case message.BodyValue:
		data, err := sonic.ConfigStd.MarshalIndent(body.Value(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format response: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case message.BodyStream:
		data, err := message.ReadAll(body)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return nil
}
