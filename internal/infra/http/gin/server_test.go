package ginserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"staynest/internal/infra/config"
	"staynest/internal/infra/obs"
)

type stubCheckout struct{ hits map[string]int }

func (s *stubCheckout) Quote(c *gin.Context)           { s.hits["quote"]++; c.Status(http.StatusOK) }
func (s *stubCheckout) PlaceBooking(c *gin.Context)    { s.hits["place"]++; c.Status(http.StatusCreated) }
func (s *stubCheckout) GatewayCallback(c *gin.Context) { s.hits["callback"]++; c.Status(http.StatusOK) }

func testServer(ready func() error, h Handlers) http.Handler {
	cfg := config.Config{Env: "test", HTTPAddr: ":0"}
	return NewServer(cfg, obs.Middleware{}, obs.HealthHandlers{Ready: ready}, h).Handler
}

func TestServer_routesCheckout(t *testing.T) {
	stub := &stubCheckout{hits: map[string]int{}}
	handler := testServer(nil, Handlers{Checkout: stub})

	for path, want := range map[string]int{
		"/api/v1/checkout/quote":            http.StatusOK,
		"/api/v1/bookings":                  http.StatusCreated,
		"/api/v1/payments/gateway/callback": http.StatusOK,
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
	assert.Equal(t, 1, stub.hits["quote"])
	assert.Equal(t, 1, stub.hits["place"])
	assert.Equal(t, 1, stub.hits["callback"])
}

func TestServer_healthEndpoints(t *testing.T) {
	handler := testServer(func() error { return nil }, Handlers{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_readyzReportsFailure(t *testing.T) {
	handler := testServer(func() error { return errors.New("mongo down") }, Handlers{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "mongo down")
}

func TestServer_setsRequestID(t *testing.T) {
	handler := testServer(nil, Handlers{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("X-Request-ID", "req-42")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
