package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kbukum/httputils/bootstrap"
	"github.com/kbukum/httputils/httpclient"
	"github.com/kbukum/httputils/httpclient/callback"
	"github.com/kbukum/httputils/observability"
	"github.com/kbukum/httputils/version"
)

// requestFlags holds the flags of the request command.
type requestFlags struct {
	method     string
	headers    []string
	pathParams []string
	query      []string
	form       []string
	data       string
	json       bool

	retries  int
	retryOn  string
	wait     string
	waitStep time.Duration

	timeout  time.Duration
	noFollow bool
	proxy    string

	user    string
	keyring string
	bearer  string

	async   bool
	include bool
	expect  int
	fail    bool
}

func (rf *requestFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&rf.method, "request", "X", "GET", "request method")
	fs.StringArrayVarP(&rf.headers, "header", "H", nil, `header "Name: value" (repeatable)`)
	fs.StringArrayVar(&rf.pathParams, "path", nil, "path parameter name=value for {name} in the URL (repeatable)")
	fs.StringArrayVar(&rf.query, "query", nil, "query parameter name=value (repeatable)")
	fs.StringArrayVarP(&rf.form, "form", "F", nil, "form field name=value (repeatable)")
	fs.StringVarP(&rf.data, "data", "d", "", "request body, or @file to read it from a file")
	fs.BoolVar(&rf.json, "json", false, "send the body as application/json")

	fs.IntVar(&rf.retries, "retries", 0, "retries after the first attempt; 0 disables retrying")
	fs.StringVar(&rf.retryOn, "retry-on", "standard", "standard, transport or a list of status codes such as 429,503")
	fs.StringVar(&rf.wait, "wait", "exponential", "backoff: none, constant, linear or exponential")
	fs.DurationVar(&rf.waitStep, "wait-step", 0, "step for constant and linear backoff (default 1s)")

	fs.DurationVar(&rf.timeout, "timeout", 0, "per-attempt timeout (default from config)")
	fs.BoolVar(&rf.noFollow, "no-follow", false, "do not follow redirects")
	fs.StringVar(&rf.proxy, "proxy", "", "HTTP proxy host:port")

	fs.StringVarP(&rf.user, "user", "u", "", "basic auth user[:password]; without a password it is read from --keyring or stdin")
	fs.StringVar(&rf.keyring, "keyring", "", "keyring service holding the basic auth password")
	fs.StringVar(&rf.bearer, "bearer", "", "bearer token")

	fs.BoolVar(&rf.async, "async", false, "execute on the worker pool and print from the callback")
	fs.BoolVarP(&rf.include, "include", "i", false, "print the status line and headers")
	fs.IntVar(&rf.expect, "expect", 0, "fail unless the response has this status")
	fs.BoolVarP(&rf.fail, "fail", "f", false, "fail on HTTP 400 and above")
}

// build turns the flags into a request on c.
func (rf *requestFlags) build(c *httpclient.Client, rawURL string, src passwordSource) (*httpclient.Request, httpclient.Method, error) {
	method, err := httpclient.ParseMethod(rf.method)
	if err != nil {
		return nil, "", err
	}
	if rf.data != "" && len(rf.form) > 0 {
		return nil, "", errors.New("--data and --form are mutually exclusive")
	}

	req := c.URL(rawURL)
	for _, raw := range rf.headers {
		name, value, err := splitPair(raw, ":")
		if err != nil {
			return nil, "", fmt.Errorf("--header: %w", err)
		}
		req.Header(name, value)
	}
	for _, raw := range rf.pathParams {
		name, value, err := splitPair(raw, "=")
		if err != nil {
			return nil, "", fmt.Errorf("--path: %w", err)
		}
		req.PathParam(name, value)
	}
	for _, raw := range rf.query {
		name, value, err := splitPair(raw, "=")
		if err != nil {
			return nil, "", fmt.Errorf("--query: %w", err)
		}
		req.QueryParam(name, value)
	}

	if len(rf.form) > 0 {
		pairs := make([]httpclient.FormPair, 0, len(rf.form))
		for _, raw := range rf.form {
			name, value, err := splitPair(raw, "=")
			if err != nil {
				return nil, "", fmt.Errorf("--form: %w", err)
			}
			pairs = append(pairs, httpclient.FormPair{Name: name, Value: value})
		}
		req.Form(pairs...)
	}
	if rf.data != "" {
		body, err := readBody(rf.data)
		if err != nil {
			return nil, "", err
		}
		if rf.json {
			req.JSON(body)
		} else {
			req.Body(body)
		}
	}

	if rf.timeout > 0 {
		req.Timeout(rf.timeout)
	}
	if rf.noFollow {
		req.FollowRedirect(false)
	}
	if rf.proxy != "" {
		host, port, err := parseHostPort(rf.proxy)
		if err != nil {
			return nil, "", fmt.Errorf("--proxy: %w", err)
		}
		req.Proxy(host, port)
	}

	if rf.user != "" {
		user, password, err := credentials(rf.user, src)
		if err != nil {
			return nil, "", err
		}
		req.AuthBasic(user, password)
	}
	if rf.bearer != "" {
		req.AuthBearer(rf.bearer)
	}

	if rf.retries != 0 {
		retryable, err := parseRetryable(rf.retryOn)
		if err != nil {
			return nil, "", err
		}
		wait, err := parseWait(rf.wait, rf.waitStep)
		if err != nil {
			return nil, "", err
		}
		req.Retry(rf.retries, retryable, wait)
	}
	return req, method, req.Err()
}

// check applies --expect and --fail to a final status.
func (rf *requestFlags) check(status int) error {
	if rf.expect != 0 && status != rf.expect {
		return fmt.Errorf("expected HTTP %d, got %d", rf.expect, status)
	}
	if rf.fail && status >= http.StatusBadRequest {
		return fmt.Errorf("server returned HTTP %d", status)
	}
	return nil
}

func readBody(data string) (string, error) {
	path, ok := strings.CutPrefix(data, "@")
	if !ok {
		return data, nil
	}
	b, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}

func newRequestCommand(g *globals) *cobra.Command {
	rf := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "request URL",
		Short: "Send one request and print the response",
		Long: `Builds a request from flags, executes it through the configured client and
writes the response body to stdout. With --retries the request is retried on
transport errors and on the statuses selected by --retry-on, waiting between
attempts as --wait says.`,
		Example: `  httputils request https://api.example.com/health
  httputils request -X POST --json -d '{"name":"ada"}' https://api.example.com/users
  httputils request --retries 3 --wait linear --wait-step 200ms https://api.example.com/jobs/{id} --path id=42
  httputils request -u alice --keyring api.example.com https://api.example.com/me`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := passwordSource{keyringService: rf.keyring, stdin: cmd.InOrStdin(), prompt: cmd.ErrOrStderr()}
			return runRequest(cmd.Context(), g, rf, args[0], src, cmd.OutOrStdout())
		},
	}
	rf.bind(cmd.Flags())
	return cmd
}

func runRequest(ctx context.Context, g *globals, rf *requestFlags, rawURL string, src passwordSource, out io.Writer) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	clientComp := httpclient.NewComponent(cfg.HTTPClient)
	if err := app.RegisterComponent(observability.NewComponent(cfg.Telemetry, cfg.Name, version.Version, cfg.Environment)); err != nil {
		return err
	}
	if err := app.RegisterComponent(clientComp); err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		req, method, err := rf.build(clientComp.Client(), rawURL, src)
		if err != nil {
			return err
		}
		if rf.async {
			return sendAsync(ctx, req, method, rf, out)
		}
		return send(ctx, req, method, rf, out)
	})
}

func send(ctx context.Context, req *httpclient.Request, method httpclient.Method, rf *requestFlags, out io.Writer) error {
	resp, err := req.Do(ctx, method)
	if err != nil {
		return err
	}
	defer resp.Close()

	body, err := resp.Bytes()
	if err != nil {
		return err
	}
	if err := printResponse(out, resp, body, rf.include); err != nil {
		return err
	}
	return rf.check(resp.Status())
}

// sendAsync runs the request on the client's worker pool and waits for the
// callback.
func sendAsync(ctx context.Context, req *httpclient.Request, method httpclient.Method, rf *requestFlags, out io.Writer) error {
	done := make(chan error, 1)
	opts := []callback.Option{callback.OnFailure(func(err error) { done <- err })}
	if rf.expect != 0 {
		opts = append(opts, callback.Expect(rf.expect))
	}

	req.DoAsync(ctx, method, callback.Bytes(func(body []byte, resp *httpclient.Response) {
		if err := printResponse(out, resp, body, rf.include); err != nil {
			done <- err
			return
		}
		done <- rf.check(resp.Status())
	}, opts...))

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func printResponse(out io.Writer, resp *httpclient.Response, body []byte, include bool) error {
	if include {
		if _, err := fmt.Fprintf(out, "HTTP %d %s\n", resp.Status(), http.StatusText(resp.Status())); err != nil {
			return err
		}
		header := resp.Header()
		names := make([]string, 0, len(header))
		for name := range header {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, v := range header[name] {
				if _, err := fmt.Fprintf(out, "%s: %s\n", name, v); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	_, err := out.Write(body)
	return err
}
