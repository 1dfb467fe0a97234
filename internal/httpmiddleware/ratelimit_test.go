package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestAllowExhaustsThenRefills(t *testing.T) {
	l := NewLimiter(3)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !l.allow("1.2.3.4", now) {
			t.Fatalf("request %d denied within capacity", i)
		}
	}
	if l.allow("1.2.3.4", now) {
		t.Error("request over capacity allowed")
	}
	if !l.allow("1.2.3.4", now.Add(time.Minute)) {
		t.Error("request after refill window denied")
	}
}

func TestAllowIsolatesClients(t *testing.T) {
	l := NewLimiter(1)
	now := time.Now()

	if !l.allow("1.2.3.4", now) {
		t.Fatal("first client denied")
	}
	if l.allow("1.2.3.4", now) {
		t.Error("exhausted client allowed")
	}
	if !l.allow("5.6.7.8", now) {
		t.Error("second client denied by first client's bucket")
	}
}

func TestSkipPathsNeverLimited(t *testing.T) {
	l := NewLimiter(1, "/healthz")

	r := gin.New()
	r.Use(l.Gin())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	for i := 0; i < 5; i++ {
		if code := do("/healthz"); code != http.StatusOK {
			t.Fatalf("healthz probe %d: %d", i, code)
		}
	}
	if code := do("/api"); code != http.StatusOK {
		t.Fatalf("first api request: %d", code)
	}
	if code := do("/api"); code != http.StatusTooManyRequests {
		t.Errorf("api request over limit: %d, want 429", code)
	}
}

func TestStaleBucketsSwept(t *testing.T) {
	l := NewLimiter(1)
	now := time.Now()

	l.allow("1.2.3.4", now)
	l.allow("5.6.7.8", now.Add(2*staleAfter))
	l.allow("5.6.7.8", now.Add(2*staleAfter+time.Second))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.clients["1.2.3.4"]; ok {
		t.Error("idle client bucket not swept")
	}
	if _, ok := l.clients["5.6.7.8"]; !ok {
		t.Error("active client bucket swept")
	}
}
