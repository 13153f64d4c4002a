package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protosentry/detector/pkg/protocol"
	"github.com/protosentry/detector/pkg/statssink"
)

func signToken(t *testing.T, secret []byte) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "test", "exp": time.Now().Add(time.Hour).Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func newTestServer(t *testing.T, secret []byte) (*Server, *statssink.Sink) {
	sink := statssink.New()
	sink.RecordResult(protocol.Result{
		Info:   protocol.New(protocol.TLS, 0.95),
		Method: protocol.MethodPassive,
	})
	s := NewServer(Config{JWTSecret: secret}, sink)
	return s, sink
}

func (s *Server) testRouter() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("/api/stats", s.handleStats)
	router.HandleFunc("/api/healthz", s.handleHealth)
	return s.authMiddleware(router)
}

func TestHandleStatsWithoutAuthConfigured(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rr := httptest.NewRecorder()
	s.testRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestStatsRejectsMissingToken(t *testing.T) {
	s, _ := newTestServer(t, []byte("secret"))
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rr := httptest.NewRecorder()
	s.testRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestStatsAcceptsValidToken(t *testing.T) {
	secret := []byte("secret")
	s, _ := newTestServer(t, secret)
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret))
	rr := httptest.NewRecorder()
	s.testRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthzNeverGatedByAuth(t *testing.T) {
	s, _ := newTestServer(t, []byte("secret"))
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rr := httptest.NewRecorder()
	s.testRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
