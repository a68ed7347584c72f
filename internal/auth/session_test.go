package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FaceGuardConsole/internal/client"
	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/internal/store"
	"FaceGuardConsole/pkg/errors"
	"FaceGuardConsole/pkg/logger"
)

const accountJSON = `{"id":11,"email":"op@example.com","full_name":"Operator","is_active":true,"is_verified":true,"created_at":"2024-01-01T00:00:00"}`

// fakeBackend принимает только токен validToken
type fakeBackend struct {
	mu         sync.Mutex
	validToken string
	loginBody  string
	loginCode  int
	meCalls    int32
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	fn(b)
	b.mu.Unlock()
}

func (b *fakeBackend) handler(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.URL.Path {
	case "/auth/login":
		if b.loginCode != 0 {
			w.WriteHeader(b.loginCode)
		}
		w.Write([]byte(b.loginBody))
	case "/auth/me", "/cameras":
		if r.URL.Path == "/auth/me" {
			atomic.AddInt32(&b.meCalls, 1)
		}
		if r.Header.Get("Authorization") != "Bearer "+b.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		if r.URL.Path == "/cameras" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(accountJSON))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestSession(t *testing.T, backend *fakeBackend) (*Session, *client.Gateway, *store.MemoryTokenStore) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(backend.handler))
	t.Cleanup(server.Close)

	tokens := store.NewMemoryTokenStore()
	gateway := client.NewGateway(server.URL, tokens)
	return NewSession(gateway, tokens, logger.NewNop()), gateway, tokens
}

func TestSession_InitWithoutToken(t *testing.T) {
	backend := &fakeBackend{validToken: "good"}
	session, _, _ := newTestSession(t, backend)

	assert.Equal(t, StateUnresolved, session.State())
	_, err := session.Profile()
	assert.ErrorIs(t, err, ErrUnresolved)

	require.NoError(t, session.Init(context.Background()))
	assert.Equal(t, StateAnonymous, session.State())
	assert.Zero(t, atomic.LoadInt32(&backend.meCalls))
}

func TestSession_InitWithValidToken(t *testing.T) {
	backend := &fakeBackend{validToken: "good"}
	session, _, tokens := newTestSession(t, backend)
	require.NoError(t, tokens.Set("good"))

	require.NoError(t, session.Init(context.Background()))
	snap := session.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Operator", snap.Profile.FullName)
}

func TestSession_InitWithRejectedTokenClears(t *testing.T) {
	backend := &fakeBackend{validToken: "good"}
	session, _, tokens := newTestSession(t, backend)
	require.NoError(t, tokens.Set("expired"))

	var transitions []State
	session.Subscribe(func(s Snapshot) { transitions = append(transitions, s.State) })

	err := session.Init(context.Background())
	assert.True(t, errors.IsUnauthorized(err))
	assert.Equal(t, StateAnonymous, session.State())
	_, ok := tokens.Get()
	assert.False(t, ok)
	// отказ от Gateway и ошибка Init дают один переход
	assert.Equal(t, []State{StateAnonymous}, transitions)
}

func TestSession_LoginSuccess(t *testing.T) {
	backend := &fakeBackend{validToken: "good", loginBody: `{"access_token":"good","token_type":"bearer"}`}
	session, _, tokens := newTestSession(t, backend)
	require.NoError(t, session.Init(context.Background()))

	require.NoError(t, session.Login(context.Background(), "op@example.com", "secret"))
	assert.Equal(t, StateAuthenticated, session.State())
	token, ok := tokens.Get()
	assert.True(t, ok)
	assert.Equal(t, "good", token)

	profile, err := session.Profile()
	require.NoError(t, err)
	assert.Equal(t, int64(11), profile.ID)
}

func TestSession_LoginRejectedSurfacesBackendMessage(t *testing.T) {
	backend := &fakeBackend{loginCode: http.StatusUnauthorized, loginBody: `{"detail":"Incorrect email or password"}`}
	session, _, tokens := newTestSession(t, backend)
	require.NoError(t, session.Init(context.Background()))

	err := session.Login(context.Background(), "op@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "Incorrect email or password", err.Error())
	assert.Equal(t, StateAnonymous, session.State())
	_, ok := tokens.Get()
	assert.False(t, ok)
}

func TestSession_LoginFallbackMessage(t *testing.T) {
	backend := &fakeBackend{loginCode: http.StatusBadRequest, loginBody: ``}
	session, _, _ := newTestSession(t, backend)

	err := session.Login(context.Background(), "op@example.com", "wrong")
	assert.EqualError(t, err, "Login failed")

	backend.set(func(b *fakeBackend) {
		b.loginCode = 0
		b.loginBody = `{"token_type":"bearer"}`
	})
	err = session.Login(context.Background(), "op@example.com", "wrong")
	assert.EqualError(t, err, "Login failed")
	assert.Equal(t, StateAnonymous, session.State())
}

func TestSession_LoginProfileFailureClearsToken(t *testing.T) {
	backend := &fakeBackend{validToken: "other", loginBody: `{"access_token":"good","token_type":"bearer"}`}
	session, _, tokens := newTestSession(t, backend)

	err := session.Login(context.Background(), "op@example.com", "secret")
	assert.Error(t, err)
	assert.Equal(t, StateAnonymous, session.State())
	_, ok := tokens.Get()
	assert.False(t, ok)
}

func TestSession_LogoutIsUnconditional(t *testing.T) {
	backend := &fakeBackend{validToken: "good"}
	session, _, tokens := newTestSession(t, backend)
	require.NoError(t, tokens.Set("good"))
	require.NoError(t, session.Init(context.Background()))

	session.Logout()
	assert.Equal(t, StateAnonymous, session.State())
	_, ok := tokens.Get()
	assert.False(t, ok)

	// повторный выход не меняет состояние
	session.Logout()
	assert.Equal(t, StateAnonymous, session.State())
}

func TestSession_RejectionMidSessionTearsDown(t *testing.T) {
	backend := &fakeBackend{validToken: "good"}
	session, gateway, tokens := newTestSession(t, backend)
	require.NoError(t, tokens.Set("good"))
	require.NoError(t, session.Init(context.Background()))

	// бэкенд отзывает токен
	backend.set(func(b *fakeBackend) { b.validToken = "rotated" })
	_, err := gateway.ListCameras(context.Background())
	assert.True(t, errors.IsUnauthorized(err))

	assert.Equal(t, StateAnonymous, session.State())
	_, ok := tokens.Get()
	assert.False(t, ok)
}

func TestSession_Refresh(t *testing.T) {
	backend := &fakeBackend{validToken: "good", loginBody: `{"access_token":"good","token_type":"bearer"}`}
	session, _, _ := newTestSession(t, backend)
	assert.ErrorIs(t, session.Refresh(context.Background()), ErrUnresolved)

	require.NoError(t, session.Init(context.Background()))
	assert.ErrorIs(t, session.Refresh(context.Background()), ErrNotAuthenticated)

	require.NoError(t, session.Login(context.Background(), "op@example.com", "secret"))
	require.NoError(t, session.Refresh(context.Background()))
	assert.Equal(t, StateAuthenticated, session.State())
}

func TestSession_TokenClaims(t *testing.T) {
	backend := &fakeBackend{}
	session, _, tokens := newTestSession(t, backend)

	_, ok := session.TokenClaims()
	assert.False(t, ok)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "op@example.com",
		"exp": exp.Unix(),
	}).SignedString([]byte("any-key"))
	require.NoError(t, err)
	require.NoError(t, tokens.Set(signed))

	claims, ok := session.TokenClaims()
	require.True(t, ok)
	assert.Equal(t, "op@example.com", claims.Subject)
	assert.True(t, exp.Equal(claims.ExpiresAt))

	require.NoError(t, tokens.Set("opaque-token"))
	_, ok = session.TokenClaims()
	assert.False(t, ok)
}

// stubAPI задерживает первый ответ /auth/me и может завершить его ошибкой
type stubAPI struct {
	entered chan struct{}
	release chan struct{}
	// firstErr возвращается задержанным вызовом
	firstErr error

	mu             sync.Mutex
	meCalls        int
	loginToken     string
	onUnauthorized func(string)
}

func newStubAPI() *stubAPI {
	return &stubAPI{entered: make(chan struct{}), release: make(chan struct{})}
}

func (a *stubAPI) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	if a.loginToken == "" {
		return nil, errors.New(errors.ErrValidation, "not used")
	}
	return &models.TokenResponse{AccessToken: a.loginToken}, nil
}

func (a *stubAPI) Me(ctx context.Context) (*models.Account, error) {
	a.mu.Lock()
	a.meCalls++
	first := a.meCalls == 1
	a.mu.Unlock()
	if !first {
		return &models.Account{ID: 2}, nil
	}

	close(a.entered)
	<-a.release
	if a.firstErr != nil {
		if errors.IsUnauthorized(a.firstErr) && a.onUnauthorized != nil {
			a.onUnauthorized("old")
		}
		return nil, a.firstErr
	}
	return &models.Account{ID: 1}, nil
}

func (a *stubAPI) Register(ctx context.Context, input models.RegisterInput) (*models.Account, error) {
	return nil, nil
}

func (a *stubAPI) OnUnauthorized(fn func(string)) { a.onUnauthorized = fn }

func TestSession_StaleInitDoesNotOverrideLogout(t *testing.T) {
	api := newStubAPI()
	tokens := store.NewMemoryTokenStore()
	require.NoError(t, tokens.Set("good"))
	session := NewSession(api, tokens, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		session.Init(context.Background())
	}()

	<-api.entered
	session.Logout()
	close(api.release)
	wg.Wait()

	assert.Equal(t, StateAnonymous, session.State())
}

func TestSession_StaleFailingInitKeepsNewLogin(t *testing.T) {
	cases := map[string]error{
		"network":      errors.New(errors.ErrNetwork, "бэкенд недоступен"),
		"unauthorized": errors.FromStatus(http.StatusUnauthorized, "", true),
	}

	for name, initErr := range cases {
		t.Run(name, func(t *testing.T) {
			api := newStubAPI()
			api.firstErr = initErr
			api.loginToken = "new"
			tokens := store.NewMemoryTokenStore()
			require.NoError(t, tokens.Set("old"))
			session := NewSession(api, tokens, nil)

			var initResult error
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				initResult = session.Init(context.Background())
			}()

			<-api.entered
			require.NoError(t, session.Login(context.Background(), "op@example.com", "secret"))
			close(api.release)
			wg.Wait()

			assert.NoError(t, initResult)
			assert.Equal(t, StateAuthenticated, session.State())
			token, ok := tokens.Get()
			assert.True(t, ok)
			assert.Equal(t, "new", token)
		})
	}
}

func TestSession_FailedLoginEndsPriorSession(t *testing.T) {
	backend := &fakeBackend{
		validToken: "old",
		loginCode:  http.StatusUnauthorized,
		loginBody:  `{"detail":"Incorrect email or password"}`,
	}
	session, gateway, tokens := newTestSession(t, backend)
	require.NoError(t, tokens.Set("old"))
	require.NoError(t, session.Init(context.Background()))
	require.Equal(t, StateAuthenticated, session.State())

	err := session.Login(context.Background(), "op@example.com", "wrong")
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, StateAnonymous, session.State())
	_, ok := tokens.Get()
	assert.False(t, ok)

	// следующий запуск тоже анонимный
	next := NewSession(gateway, tokens, nil)
	require.NoError(t, next.Init(context.Background()))
	assert.Equal(t, StateAnonymous, next.State())
}
