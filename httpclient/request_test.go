package httpclient

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/httputils/resilience"
)

func TestBuildURI(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   []pathParam
		query    []entry
		want     string
	}{
		{
			name:     "path and query",
			template: "http://h/{id}",
			params:   []pathParam{{"id", "42"}},
			query:    []entry{{"q", []string{"1"}}},
			want:     "http://h/42?q=1",
		},
		{
			name:     "repeated placeholder",
			template: "http://h/{v}/x/{v}",
			params:   []pathParam{{"v", "a"}},
			want:     "http://h/a/x/a",
		},
		{
			name:     "query keeps insertion order and escapes",
			template: "http://h/p?fixed=1",
			query:    []entry{{"b", []string{"x y", "z"}}, {"a&", []string{"="}}},
			want:     "http://h/p?fixed=1&b=x+y&b=z&a%26=%3D",
		},
		{
			name:     "value is inserted verbatim",
			template: "http://h/{path}",
			params:   []pathParam{{"path", "a/b"}},
			want:     "http://h/a/b",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := buildURI(tc.template, tc.params, tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, u.String())
		})
	}
}

func TestBuildURI_Invalid(t *testing.T) {
	for _, tmpl := range []string{"http://h/{id}", "http://h/a b", "http://h/%zz", "http://h/\"x\""} {
		t.Run(tmpl, func(t *testing.T) {
			_, err := buildURI(tmpl, nil, nil)
			require.Error(t, err)
			assert.True(t, IsInvalidURI(err))
		})
	}
}

func TestRequest_PathParamLastWins(t *testing.T) {
	tr := script(status(200))
	c := newTestClient(t, Config{}, WithTransport(tr))

	resp, err := c.URL("http://h/{id}").
		PathParam("id", "1").
		PathParam("id", "2").
		QueryParam("q", "1").
		QueryParam("q", "2").
		Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, resp.Close())

	assert.Equal(t, "http://h/2?q=1&q=2", tr.call(0).URL.String())
}

func TestRequest_HeaderShortcutsAppend(t *testing.T) {
	tr := script(status(200))
	c := newTestClient(t, Config{}, WithTransport(tr))

	resp, err := c.URL("http://h/").
		Accept("application/json").
		Accept("text/plain").
		ContentType("application/xml").
		UserAgent("custom/1").
		Timeout(time.Second).
		FollowRedirect(false).
		Post(context.Background())
	require.NoError(t, err)
	require.NoError(t, resp.Close())

	call := tr.call(0)
	assert.Equal(t, []string{"application/json", "text/plain"}, call.Header.Values(HeaderAccept))
	assert.Equal(t, "application/xml", call.Header.Get(HeaderContentType))
	assert.Equal(t, "custom/1", call.Header.Get(HeaderUserAgent))
	assert.Equal(t, time.Second, call.Timeout)
	assert.False(t, call.FollowRedirects)
	assert.Equal(t, []byte{}, call.Body)
}

func TestRequest_Form(t *testing.T) {
	pairs := []FormPair{{"name", "a b"}, {"x", "1&2"}}

	raw := newTestClient(t, Config{}, WithTransport(script()))
	req := raw.URL("http://h/").Form(pairs...)
	snap, err := req.snapshot()
	require.NoError(t, err)
	assert.Equal(t, "name=a b&x=1&2", snap.body)
	assert.Equal(t, []entry{{HeaderContentType, []string{ContentTypeForm}}}, snap.headers)

	encoded := newTestClient(t, Config{EncodeFormValues: true}, WithTransport(script()))
	snap, err = encoded.URL("http://h/").Form(pairs...).snapshot()
	require.NoError(t, err)
	assert.Equal(t, "name=a+b&x=1%262", snap.body)
}

func TestRequest_JSON(t *testing.T) {
	c := newTestClient(t, Config{}, WithTransport(script()))
	snap, err := c.URL("http://h/").JSON(`{"a":1}`).snapshot()
	require.NoError(t, err)

	assert.Equal(t, `{"a":1}`, snap.body)
	assert.Equal(t, []entry{{HeaderContentType, []string{ContentTypeJSON}}}, snap.headers)
}

func TestRequest_Proxy(t *testing.T) {
	c := newTestClient(t, Config{}, WithTransport(script()))

	snap, err := c.URL("http://h/").Proxy("proxy.local", 3128).snapshot()
	require.NoError(t, err)
	assert.Equal(t, "http://proxy.local:3128", snap.proxy.String())

	for _, tc := range []struct {
		host string
		port int
	}{{"", 80}, {"proxy.local", 0}, {"proxy.local", 70000}} {
		err := c.URL("http://h/").Proxy(tc.host, tc.port).Err()
		assert.True(t, IsInvalidArgument(err), "%s:%d", tc.host, tc.port)
	}
}

func TestRequest_FirstErrorWins(t *testing.T) {
	c := newTestClient(t, Config{}, WithTransport(script()))

	req := c.URL("http://h/").
		Proxy("", 0).
		Retry(0, nil, nil)

	err := req.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proxy")
}

func TestRequest_RetryFailureKeepsPreviousPolicy(t *testing.T) {
	c := newTestClient(t, Config{}, WithTransport(script()))

	req := c.URL("http://h/").RetryDefault()
	req.Retry(3, nil, resilience.WaitNone())

	require.NotNil(t, req.retry)
	assert.Equal(t, resilience.DefaultMaxRetries, req.retry.MaxRetries)
	assert.ErrorIs(t, req.Err(), resilience.ErrNilRetryable)

	req2 := c.URL("http://h/").RetryPolicy(resilience.RetryPolicy{MaxRetries: 2})
	assert.True(t, IsInvalidArgument(req2.Err()))
	assert.Nil(t, req2.retry)
}

func TestRequest_SnapshotIsolation(t *testing.T) {
	c := newTestClient(t, Config{}, WithTransport(script()))
	req := c.URL("http://h/").Header("X-A", "1").RetryDefault()

	snap, err := req.snapshot()
	require.NoError(t, err)

	req.Header("X-A", "2").Body("later").Retry(1, resilience.RetryStandard(), resilience.WaitNone())

	assert.Equal(t, []entry{{"X-A", []string{"1"}}}, snap.headers)
	assert.Empty(t, snap.body)
	assert.Equal(t, resilience.DefaultMaxRetries, snap.retry.MaxRetries)
}

func TestRequest_ConcurrentMutation(t *testing.T) {
	tr := script()
	c := newTestClient(t, Config{}, WithTransport(tr))
	req := c.URL("http://h/")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			req.Header("X-N", "v").QueryParam("n", "v").Timeout(time.Second)
		}()
		go func() {
			defer wg.Done()
			resp, err := req.Get(context.Background())
			if assert.NoError(t, err) {
				_ = resp.Close()
			}
		}()
	}
	wg.Wait()

	snap, err := req.snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.headers[0].values, 20)
	assert.Equal(t, 20, tr.callCount())
}

func TestAuthBasic(t *testing.T) {
	c := newTestClient(t, Config{}, WithTransport(script()))

	snap, err := c.URL("http://h/").AuthBasic("alice", "pw").snapshot()
	require.NoError(t, err)
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:pw"))
	assert.Equal(t, []entry{{HeaderAuthorization, []string{want}}}, snap.headers)

	err = c.URL("http://h/").AuthBasic("a:b", "pw").Err()
	assert.True(t, IsInvalidArgument(err))

	for _, tc := range []struct{ user, password, raw string }{
		{"apikey", "", "apikey:"},
		{"", "pw", ":pw"},
		{"", "", ":"},
	} {
		snap, err := c.URL("http://h/").AuthBasic(tc.user, tc.password).snapshot()
		require.NoError(t, err, "%q/%q", tc.user, tc.password)
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte(tc.raw))
		assert.Equal(t, []entry{{HeaderAuthorization, []string{want}}}, snap.headers)
	}
}

func TestAuthBearerAndRaw(t *testing.T) {
	c := newTestClient(t, Config{}, WithTransport(script()))

	snap, err := c.URL("http://h/").AuthBearer("tok").Auth("Custom x").snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer tok", "Custom x"}, snap.headers[0].values)
}

func TestAuthJWT(t *testing.T) {
	c := newTestClient(t, Config{}, WithTransport(script()))
	key := []byte("secret")

	snap, err := c.URL("http://h/").
		AuthJWT(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "svc"}, key).
		snapshot()
	require.NoError(t, err)

	value := snap.headers[0].values[0]
	require.True(t, len(value) > len("Bearer "))
	parsed, err := jwt.Parse(value[len("Bearer "):], func(*jwt.Token) (any, error) { return key, nil })
	require.NoError(t, err)
	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "svc", sub)

	// HS256 needs a []byte key.
	err = c.URL("http://h/").AuthJWT(jwt.SigningMethodHS256, jwt.MapClaims{}, "not-bytes").Err()
	assert.True(t, IsInvalidArgument(err))
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{
		"get":     MethodGet,
		" PATCH ": MethodPatch,
		"Options": MethodOptions,
		"head":    MethodHead,
		"DELETE":  MethodDelete,
	} {
		got, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseMethod("TRACE")
	assert.True(t, IsInvalidArgument(err))
}
