package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/httputils/httpclient"
	"github.com/kbukum/httputils/logger"
	"github.com/kbukum/httputils/resilience"
	"github.com/kbukum/httputils/testutil"
	"github.com/kbukum/httputils/version"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func upstream(t *testing.T) string {
	t.Helper()
	return testutil.Upstream(t).Server().URL()
}

// execute runs the command line against a config file of its own so nothing
// from the working directory leaks in.
func execute(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	cfgPath := writeFile(t, "config.yml", "name: httputils-test\nlogging:\n  level: error\n")
	return executeWith(t, stdin, append([]string{"--config", cfgPath}, args...)...)
}

func executeWith(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestSplitPair(t *testing.T) {
	name, value, err := splitPair("X-Tenant: acme", ":")
	require.NoError(t, err)
	assert.Equal(t, "X-Tenant", name)
	assert.Equal(t, "acme", value)

	name, value, err = splitPair("q=a=b", "=")
	require.NoError(t, err)
	assert.Equal(t, "q", name)
	assert.Equal(t, "a=b", value)

	_, _, err = splitPair("novalue", "=")
	assert.Error(t, err)
	_, _, err = splitPair(" =x", "=")
	assert.Error(t, err)
}

func TestParseRetryable(t *testing.T) {
	standard, err := parseRetryable("standard")
	require.NoError(t, err)
	assert.True(t, standard(nil, 503))
	assert.False(t, standard(nil, 404))

	transport, err := parseRetryable("transport")
	require.NoError(t, err)
	assert.False(t, transport(nil, 503))

	codes, err := parseRetryable("429, 503")
	require.NoError(t, err)
	assert.True(t, codes(nil, 429))
	assert.False(t, codes(nil, 500))

	for _, bad := range []string{"sometimes", "429,abc", "99"} {
		_, err := parseRetryable(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseWait(t *testing.T) {
	tests := []struct {
		raw   string
		step  time.Duration
		retry int
		want  time.Duration
	}{
		{"none", 0, 3, 0},
		{"constant", 0, 3, resilience.DefaultWait},
		{"constant", 250 * time.Millisecond, 3, 250 * time.Millisecond},
		{"linear", 100 * time.Millisecond, 2, 300 * time.Millisecond},
	}
	for _, tc := range tests {
		wait, err := parseWait(tc.raw, tc.step)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, wait(tc.retry), tc.raw)
	}

	exp, err := parseWait("", 0)
	require.NoError(t, err)
	assert.Less(t, exp(0), 500*time.Millisecond)

	_, err = parseWait("fibonacci", 0)
	assert.Error(t, err)
	_, err = parseWait("constant", -time.Second)
	assert.Error(t, err)
}

func TestParseHostPort(t *testing.T) {
	host, port, err := parseHostPort("proxy.local:3128")
	require.NoError(t, err)
	assert.Equal(t, "proxy.local", host)
	assert.Equal(t, 3128, port)

	_, _, err = parseHostPort("proxy.local")
	assert.Error(t, err)
	_, _, err = parseHostPort("proxy.local:http")
	assert.Error(t, err)
}

func TestIsSecretHeader(t *testing.T) {
	for _, name := range []string{"authorization", "Cookie", "X-Api-Key", "X-Auth-Token", "client-secret"} {
		assert.True(t, isSecretHeader(name), name)
	}
	for _, name := range []string{"Accept", "X-Tenant"} {
		assert.False(t, isSecretHeader(name), name)
	}
}

func TestCredentials(t *testing.T) {
	user, pw, err := credentials("alice:s3:cret", passwordSource{})
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "s3:cret", pw, "only the first colon separates")

	user, pw, err = credentials("bob", passwordSource{stdin: strings.NewReader("hunter2\nignored\n")})
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
	assert.Equal(t, "hunter2", pw)

	user, pw, err = credentials("apikey:", passwordSource{})
	require.NoError(t, err)
	assert.Equal(t, "apikey", user)
	assert.Empty(t, pw)

	_, _, err = credentials("bob", passwordSource{})
	assert.Error(t, err)
}

func TestCredentials_Keyring(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set("api.example.com", "alice", "from-keyring"))

	_, pw, err := credentials("alice", passwordSource{keyringService: "api.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", pw)

	_, _, err = credentials("carol", passwordSource{keyringService: "api.example.com"})
	assert.ErrorContains(t, err, `no password for "carol"`)
}

func TestKeyringCommand(t *testing.T) {
	keyring.MockInit()

	res := execute(t, strings.NewReader("p4ss\n"), "keyring", "set", "--service", "svc", "--user", "dave")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "stored password for dave in svc")

	pw, err := keyring.Get("svc", "dave")
	require.NoError(t, err)
	assert.Equal(t, "p4ss", pw)

	res = execute(t, nil, "keyring", "delete", "--service", "svc", "--user", "dave")
	require.NoError(t, res.err)
	_, err = keyring.Get("svc", "dave")
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	res = execute(t, nil, "keyring", "delete", "--service", "svc", "--user", "dave")
	assert.ErrorContains(t, res.err, "no password")

	res = execute(t, strings.NewReader(""), "keyring", "set", "--service", "svc", "--user", "dave")
	assert.Error(t, res.err)

	res = execute(t, strings.NewReader("\n"), "keyring", "set", "--service", "svc", "--user", "dave")
	assert.ErrorContains(t, res.err, "password must not be empty")

	res = execute(t, nil, "keyring", "set", "--service", "svc")
	assert.ErrorContains(t, res.err, `required flag(s) "user" not set`)
}

func TestRootCommand(t *testing.T) {
	res := execute(t, nil, "fetch")
	assert.ErrorContains(t, res.err, `unknown command "fetch"`)

	res = execute(t, nil, "request")
	assert.ErrorContains(t, res.err, "accepts 1 arg(s)")

	res = execute(t, nil, "request", "--help")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "--retry-on")

	res = execute(t, nil, "--version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, version.Get().Short())
}

func TestVersionCommand(t *testing.T) {
	res := execute(t, nil, "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "httputils "+version.Version+"\n")
	assert.Contains(t, res.stdout, "release: ")

	res = execute(t, nil, "version", "--short")
	require.NoError(t, res.err)
	assert.Equal(t, version.Get().Short()+"\n", res.stdout)

	var buf bytes.Buffer
	require.NoError(t, printVersion(&buf, version.Info{Version: "1.2.0"}, false))
	assert.Equal(t, "httputils 1.2.0\ncommit:  none\nbuilt:   none\ngo:      none\nrelease: false\n", buf.String())
}

func TestConfigCommand(t *testing.T) {
	cfgPath := writeFile(t, "config.yml", `
name: billing-cli
httpclient:
  timeout: 5s
  headers:
    Authorization: Bearer abc
    X-Tenant: acme
  circuit_breaker:
    max_failures: 3
server:
  port: 9090
`)
	res := executeWith(t, nil, "--config", cfgPath, "config")
	require.NoError(t, res.err)

	var got cliConfig
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &got))
	assert.Equal(t, "billing-cli", got.Name)
	assert.Equal(t, "warn", got.Logging.Level)
	assert.Equal(t, 5*time.Second, got.HTTPClient.Timeout)
	assert.Equal(t, map[string]string{"authorization": "***", "x-tenant": "acme"}, got.HTTPClient.Headers)
	require.NotNil(t, got.HTTPClient.CircuitBreaker)
	assert.Equal(t, 3, got.HTTPClient.CircuitBreaker.MaxFailures)
	assert.Equal(t, 9090, got.Server.Port)
	assert.Equal(t, "127.0.0.1", got.Server.Host)
}

func TestConfigCommand_Invalid(t *testing.T) {
	cfgPath := writeFile(t, "config.yml", "server:\n  port: 70000\n")
	res := executeWith(t, nil, "--config", cfgPath, "config")
	assert.ErrorContains(t, res.err, "server")

	res = executeWith(t, nil, "--config", cfgPath, "config", "extra")
	assert.Error(t, res.err)
}

func TestRequest_Build(t *testing.T) {
	c, err := httpclient.New(httpclient.Config{}, httpclient.WithLogger(logger.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	rf := requestFlags{method: "post", data: "x", form: []string{"a=1"}}
	_, _, err = rf.build(c, "http://h/", passwordSource{})
	assert.ErrorContains(t, err, "mutually exclusive")

	rf = requestFlags{method: "FETCH"}
	_, _, err = rf.build(c, "http://h/", passwordSource{})
	assert.Error(t, err)

	rf = requestFlags{method: "get", headers: []string{"broken"}}
	_, _, err = rf.build(c, "http://h/", passwordSource{})
	assert.ErrorContains(t, err, "--header")

	rf = requestFlags{method: "get", retries: 2, retryOn: "standard", wait: "none"}
	req, method, err := rf.build(c, "http://h/", passwordSource{})
	require.NoError(t, err)
	assert.Equal(t, httpclient.MethodGet, method)
	assert.NotNil(t, req)
}

func TestRequest_Check(t *testing.T) {
	assert.NoError(t, (&requestFlags{}).check(500))
	assert.NoError(t, (&requestFlags{expect: 201}).check(201))
	assert.ErrorContains(t, (&requestFlags{expect: 201}).check(200), "expected HTTP 201, got 200")
	assert.ErrorContains(t, (&requestFlags{fail: true}).check(404), "HTTP 404")
	assert.NoError(t, (&requestFlags{fail: true}).check(302))
}

func TestRequestCommand_Echo(t *testing.T) {
	base := upstream(t)
	body := writeFile(t, "body.json", `{"name":"ada"}`)

	res := execute(t, nil, "request",
		"-X", "put", "-i",
		"-H", "X-Tenant: acme",
		"--query", "page=2",
		"--path", "id=42",
		"--json", "-d", "@"+body,
		"-u", "alice:pw",
		base+"/echo/users/{id}")
	require.NoError(t, res.err)

	got := res.stdout
	assert.Contains(t, got, "HTTP 200 OK\n")
	assert.Contains(t, got, "Content-Type: application/json")
	assert.Contains(t, got, `"method":"PUT"`)
	assert.Contains(t, got, `"path":"/users/42"`)
	assert.Contains(t, got, `"page":["2"]`)
	assert.Contains(t, got, `"X-Tenant":["acme"]`)
	assert.Contains(t, got, `"Authorization":["Basic YWxpY2U6cHc="]`)
	assert.Contains(t, got, `"body":"{\"name\":\"ada\"}"`)
}

func TestRequestCommand_PasswordFromStdin(t *testing.T) {
	base := upstream(t)

	res := execute(t, strings.NewReader("pw\n"), "request", "-u", "alice", "-f", base+"/basic-auth/alice/pw")
	require.NoError(t, res.err)

	res = execute(t, strings.NewReader("wrong\n"), "request", "-u", "alice", "-f", base+"/basic-auth/alice/pw")
	assert.ErrorContains(t, res.err, "server returned HTTP 401")
}

func TestRequestCommand_RetriesFlaky(t *testing.T) {
	base := upstream(t)

	res := execute(t, nil, "request", "--retries", "3", "--wait", "none", base+"/flaky/job?fail=2")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"attempt":3}`, res.stdout)
}

func TestRequestCommand_Exhausted(t *testing.T) {
	base := upstream(t)

	res := execute(t, nil, "request", "--retries", "1", "--wait", "none", base+"/status/503")
	require.Error(t, res.err)
	assert.True(t, httpclient.IsStatusRetryExhausted(res.err))
}

func TestRequestCommand_Fail(t *testing.T) {
	base := upstream(t)

	res := execute(t, nil, "request", base+"/status/404")
	assert.NoError(t, res.err, "status alone is not a failure")

	res = execute(t, nil, "request", "--fail", base+"/status/404")
	assert.ErrorContains(t, res.err, "server returned HTTP 404")
}

func TestRequestCommand_Async(t *testing.T) {
	base := upstream(t)

	res := execute(t, nil, "request", "--async", "-X", "POST", "-F", "a=1", base+"/echo/jobs")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"body":"a=1"`)

	res = execute(t, nil, "request", "--async", "--expect", "201", base+"/echo/jobs")
	assert.ErrorContains(t, res.err, "expected HTTP 201, got 200")
}
