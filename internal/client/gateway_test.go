package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/internal/store"
	"FaceGuardConsole/pkg/errors"
	"FaceGuardConsole/pkg/metrics"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *store.MemoryTokenStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := store.NewMemoryTokenStore()
	return NewGateway(server.URL, tokens, WithVersion("test")), tokens
}

func TestGateway_AttachesHeaders(t *testing.T) {
	var got http.Header
	g, tokens := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"id":1,"email":"op@example.com","full_name":"Op","is_active":true,"is_verified":true,"created_at":"2024-01-01T00:00:00"}`))
	})
	require.NoError(t, tokens.Set("tkn"))

	account, err := g.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "op@example.com", account.Email)

	assert.Equal(t, "Bearer tkn", got.Get("Authorization"))
	assert.Equal(t, "FaceGuard-Console/test", got.Get("User-Agent"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestGateway_NoTokenNoAuthorization(t *testing.T) {
	var auth string
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})

	_, err := g.ListCameras(context.Background())
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestGateway_Classification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		token   bool
		code    errors.ErrorCode
		message string
	}{
		{"credentialed 401", http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`, true, errors.ErrUnauthorized, "Could not validate credentials"},
		{"uncredentialed 401", http.StatusUnauthorized, `{"detail":"Incorrect email or password"}`, false, errors.ErrValidation, "Incorrect email or password"},
		{"400 detail", http.StatusBadRequest, `{"detail":"Camera limit reached"}`, true, errors.ErrValidation, "Camera limit reached"},
		{"422 list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","port"],"msg":"value is not a valid integer"}]}`, true, errors.ErrValidation, "port: value is not a valid integer"},
		{"404 no body", http.StatusNotFound, ``, true, errors.ErrValidation, "Not Found"},
		{"500", http.StatusInternalServerError, `oops`, true, errors.ErrServer, "Internal Server Error"},
		{"503 detail", http.StatusServiceUnavailable, `{"detail":"maintenance"}`, true, errors.ErrServer, "maintenance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, tokens := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			if tt.token {
				require.NoError(t, tokens.Set("tkn"))
			}

			err := g.Call(context.Background(), http.MethodGet, "/cameras", nil, &[]models.Camera{})
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))

			var appErr *errors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, tt.status, appErr.Status)
		})
	}
}

func TestGateway_UnexpectedBodyIsServerError(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>proxy error</html>`))
	})

	_, err := g.ListCameras(context.Background())
	assert.True(t, errors.IsServer(err))

	g, _ = newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err = g.ListFaces(context.Background())
	assert.True(t, errors.IsServer(err))
}

func TestGateway_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	g := NewGateway(url, store.NewMemoryTokenStore())
	_, err := g.ListCameras(context.Background())
	assert.True(t, errors.IsNetwork(err))
}

func TestGateway_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	g := NewGateway(server.URL, store.NewMemoryTokenStore(), WithTimeout(50*time.Millisecond))
	_, err := g.ListCameras(context.Background())
	assert.True(t, errors.IsNetwork(err))
}

func TestGateway_UnauthorizedEmittedBeforeReturn(t *testing.T) {
	g, tokens := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	require.NoError(t, tokens.Set("expired"))

	var emitted int32
	var rejected string
	g.OnUnauthorized(func(token string) {
		atomic.AddInt32(&emitted, 1)
		rejected = token
	})

	_, err := g.ListCameras(context.Background())
	assert.True(t, errors.IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&emitted))
	assert.Equal(t, "expired", rejected)

	// без токена 401 не является отказом сессии
	require.NoError(t, tokens.Clear())
	_, err = g.ListCameras(context.Background())
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&emitted))
}

func TestGateway_LoginNeverCarriesToken(t *testing.T) {
	var auth string
	g, tokens := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Incorrect email or password"}`))
	})
	require.NoError(t, tokens.Set("stale"))

	var emitted bool
	g.OnUnauthorized(func(string) { emitted = true })

	_, err := g.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, auth)
	assert.False(t, emitted)
}

func TestGateway_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/cameras/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	m := metrics.NewMetrics("faceguard-console", prometheus.NewRegistry())
	g := NewGateway(server.URL, store.NewMemoryTokenStore(), WithMetrics(m))

	_, err := g.ListCameras(context.Background())
	require.NoError(t, err)
	require.Error(t, g.DeleteCamera(context.Background(), 42))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/cameras", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("DELETE", "/cameras/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsCount.WithLabelValues("DELETE", "/cameras/{id}", "validation")))
}

func TestParseDetail(t *testing.T) {
	assert.Equal(t, "plain", parseDetail([]byte(`{"detail":"plain"}`)))
	assert.Equal(t, "field required; email: bad", parseDetail([]byte(`{"detail":[{"loc":["body"],"msg":"field required"},{"loc":["body","email"],"msg":"bad"}]}`)))
	assert.Equal(t, "from message", parseDetail([]byte(`{"message":"from message"}`)))
	assert.Equal(t, "", parseDetail([]byte(`not json`)))
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/cameras/{id}/test", routeLabel("/cameras/17/test"))
	assert.Equal(t, "/detections", routeLabel("/detections?limit=50&offset=0"))
	assert.Equal(t, "/auth/me", routeLabel("/auth/me"))
}

func decodeJSON(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}
