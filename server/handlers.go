package server

import (
	"io"
	"maps"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Echo is the document returned by /echo.
type Echo struct {
	Method    string              `json:"method"`
	Path      string              `json:"path"`
	Query     map[string][]string `json:"query,omitempty"`
	Host      string              `json:"host"`
	Header    map[string][]string `json:"header"`
	Body      string              `json:"body,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

func registerRoutes(r *gin.Engine, cfg Config, flaky *flakyCounter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.Any("/echo/*path", echo)
	r.Any("/status/:code", status)
	r.Any("/flaky/:key", flaky.handle)
	r.GET("/delay/:duration", delay(cfg.MaxDelay))
	r.GET("/redirect/*path", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/echo"+c.Param("path"))
	})
	r.GET("/basic-auth/:user/:password", basicAuth)
	r.GET("/bearer", bearer)
}

// parseStatus reads an HTTP status in [200, 599].
func parseStatus(raw string) (int, bool) {
	code, err := strconv.Atoi(raw)
	if err != nil || code < 200 || code > 599 {
		return 0, false
	}
	return code, true
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// echo answers with the request it received. ?status=N picks the response
// status.
func echo(c *gin.Context) {
	code := http.StatusOK
	if raw, ok := c.GetQuery("status"); ok {
		var valid bool
		if code, valid = parseStatus(raw); !valid {
			badRequest(c, "invalid status "+strconv.Quote(raw))
			return
		}
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	c.JSON(code, Echo{
		Method:    c.Request.Method,
		Path:      c.Param("path"),
		Query:     c.Request.URL.Query(),
		Host:      c.Request.Host,
		Header:    c.Request.Header,
		Body:      string(body),
		RequestID: c.GetString(requestIDKey),
	})
}

// status answers with an empty body and the status in the path.
func status(c *gin.Context) {
	code, ok := parseStatus(c.Param("code"))
	if !ok {
		badRequest(c, "invalid status "+strconv.Quote(c.Param("code")))
		return
	}
	c.Status(code)
}

// flakyCounter fails the first requests for each key.
type flakyCounter struct {
	mu   sync.Mutex
	seen map[string]int
}

func newFlakyCounter() *flakyCounter {
	return &flakyCounter{seen: make(map[string]int)}
}

func (f *flakyCounter) next(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[key]++
	return f.seen[key]
}

// counts returns a copy of the per-key request counts.
func (f *flakyCounter) counts() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.seen)
}

// set replaces the per-key request counts.
func (f *flakyCounter) set(seen map[string]int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = maps.Clone(seen)
	if f.seen == nil {
		f.seen = make(map[string]int)
	}
}

// handle answers the first ?fail=N (default 1) requests for a key with
// ?status (default 503) and every later one with 200.
func (f *flakyCounter) handle(c *gin.Context) {
	fail, err := strconv.Atoi(c.DefaultQuery("fail", "1"))
	if err != nil || fail < 0 {
		badRequest(c, "invalid fail count")
		return
	}
	code, ok := parseStatus(c.DefaultQuery("status", "503"))
	if !ok {
		badRequest(c, "invalid status")
		return
	}

	attempt := f.next(c.Param("key"))
	if attempt <= fail {
		c.JSON(code, gin.H{"attempt": attempt, "error": "flaky"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": attempt})
}

// delay waits for the duration in the path, capped at limit, before
// answering.
func delay(limit time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := time.ParseDuration(c.Param("duration"))
		if err != nil || d < 0 {
			badRequest(c, "invalid duration")
			return
		}
		d = min(d, limit)

		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			c.JSON(http.StatusOK, gin.H{"delay": d.String()})
		case <-c.Request.Context().Done():
			c.Abort()
		}
	}
}

func basicAuth(c *gin.Context) {
	user, password, ok := c.Request.BasicAuth()
	if !ok || user != c.Param("user") || password != c.Param("password") {
		c.Header("WWW-Authenticate", `Basic realm="httputils"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func bearer(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
