package auth

import (
	"context"
	stderrors "errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/internal/store"
	"FaceGuardConsole/pkg/errors"
	"FaceGuardConsole/pkg/logger"
)

var (
	// ErrUnresolved возвращается, пока сессия не определилась
	ErrUnresolved = stderrors.New("session is not resolved yet")
	// ErrNotAuthenticated возвращается для анонимной сессии
	ErrNotAuthenticated = stderrors.New("not signed in")
)

const loginFailedMessage = "Login failed"

// State - состояние сессии
type State int

const (
	StateUnresolved State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot - согласованный снимок сессии. Profile есть только в Authenticated.
type Snapshot struct {
	State   State
	Profile *models.Account
}

// API - вызовы бэкенда, нужные сессии
type API interface {
	Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
	Me(ctx context.Context) (*models.Account, error)
	Register(ctx context.Context, input models.RegisterInput) (*models.Account, error)
	OnUnauthorized(fn func(token string))
}

// Session управляет состоянием аутентификации оператора:
// Unresolved -> {Authenticated, Anonymous}
type Session struct {
	api    API
	tokens store.TokenStore
	logger logger.Logger

	mu      sync.RWMutex
	state   State
	profile *models.Account
	// растет при каждом переходе, чтобы устаревший Init не перезаписал состояние
	generation uint64
	// растет при каждом входе и выходе оператора
	epoch uint64

	subsMu sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// NewSession создает сессию в состоянии Unresolved и подписывается на
// отказы авторизации Gateway
func NewSession(api API, tokens store.TokenStore, log logger.Logger) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Session{
		api:    api,
		tokens: tokens,
		logger: log,
		state:  StateUnresolved,
		subs:   make(map[int]func(Snapshot)),
	}
	api.OnUnauthorized(s.handleUnauthorized)
	return s
}

// Init определяет начальное состояние по сохраненному токену.
// Любая ошибка проверки токена приводит к Anonymous и очистке хранилища.
func (s *Session) Init(ctx context.Context) error {
	gen, epoch := s.marks()
	token, ok := s.tokens.Get()
	if !ok || token == "" {
		s.transitionIf(gen, StateAnonymous, nil)
		return nil
	}

	account, err := s.api.Me(ctx)
	if err != nil {
		if !s.resetIf(epoch) {
			s.logger.Debug("ошибка устаревшей проверки токена отброшена", logger.Error(err))
			return nil
		}
		s.logger.Info("сохраненный токен не принят, сессия сброшена",
			logger.String("error_type", string(errors.CodeOf(err))),
			logger.Error(err))
		return err
	}

	if !s.transitionIf(gen, StateAuthenticated, account) {
		s.logger.Debug("результат проверки токена устарел и отброшен")
	}
	return nil
}

// Login обменивает учетные данные на токен и загружает профиль.
// Неудачный вход завершает прежнюю сессию вместе с ее токеном.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.claim()

	resp, err := s.api.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		s.reset()
		return loginError(err)
	}
	if resp.AccessToken == "" {
		s.reset()
		return errors.New(errors.ErrValidation, loginFailedMessage)
	}

	if err := s.storeToken(resp.AccessToken); err != nil {
		s.reset()
		return errors.Wrap(err, errors.ErrInternal, "ошибка сохранения токена")
	}

	account, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Warn("не удалось загрузить профиль после входа", logger.Error(err))
		s.reset()
		return err
	}

	s.transition(StateAuthenticated, account)
	s.logger.Info("оператор вошел в систему", logger.Int64("account_id", account.ID))
	return nil
}

// loginError подставляет общее сообщение, если бэкенд его не прислал
func loginError(err error) error {
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) || appErr.Code != errors.ErrValidation {
		return err
	}
	if appErr.Message == "" || appErr.Message == http.StatusText(appErr.Status) {
		return &errors.Error{
			Code:    appErr.Code,
			Message: loginFailedMessage,
			Status:  appErr.Status,
		}
	}
	return err
}

// Logout безусловно завершает сессию. Ошибки хранилища только логируются.
func (s *Session) Logout() {
	s.claim()
	s.reset()
}

// Register регистрирует учетную запись. Состояние сессии не меняется.
func (s *Session) Register(ctx context.Context, input models.RegisterInput) (*models.Account, error) {
	return s.api.Register(ctx, input)
}

// Refresh заново загружает профиль текущего оператора
func (s *Session) Refresh(ctx context.Context) error {
	switch s.State() {
	case StateUnresolved:
		return ErrUnresolved
	case StateAnonymous:
		return ErrNotAuthenticated
	}

	gen := s.currentGeneration()
	account, err := s.api.Me(ctx)
	if err != nil {
		return err
	}
	s.transitionIf(gen, StateAuthenticated, account)
	return nil
}

// State возвращает текущее состояние
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot возвращает состояние и профиль одним снимком
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Profile возвращает профиль. Читать профиль до определения сессии нельзя.
func (s *Session) Profile() (*models.Account, error) {
	snap := s.Snapshot()
	switch snap.State {
	case StateUnresolved:
		return nil, ErrUnresolved
	case StateAnonymous:
		return nil, ErrNotAuthenticated
	}
	return snap.Profile, nil
}

// Subscribe регистрирует наблюдателя переходов. Возвращает функцию отписки.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Claims - информационные поля токена. Подпись не проверяется, поэтому
// для решения о валидности сессии они не используются.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenClaims разбирает сохраненный токен без проверки подписи
func (s *Session) TokenClaims() (*Claims, bool) {
	token, ok := s.tokens.Get()
	if !ok {
		return nil, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}

	result := &Claims{}
	if sub, err := claims.GetSubject(); err == nil {
		result.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.Time
	}
	return result, true
}

// handleUnauthorized завершает сессию, если отклонен токен, который
// все еще лежит в хранилище. Отказ по уже замененному токену игнорируется.
func (s *Session) handleUnauthorized(rejected string) {
	s.mu.Lock()
	if current, ok := s.tokens.Get(); ok && current != rejected {
		s.mu.Unlock()
		s.logger.Debug("отказ по замененному токену отброшен")
		return
	}
	s.clearToken()
	changed := s.setLocked(StateAnonymous, nil)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.logger.Info("бэкенд отклонил токен, сессия завершена")
		s.notify(snap)
	}
}

// storeToken записывает токен под блокировкой сессии, чтобы проверка
// отклоненного токена и запись нового не перемежались
func (s *Session) storeToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.Set(token)
}

func (s *Session) clearToken() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Error("ошибка очистки хранилища токена", logger.Error(err))
	}
}

func (s *Session) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Session) marks() (generation, epoch uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation, s.epoch
}

// claim делает устаревшими результаты ранее начатых Init и Refresh
func (s *Session) claim() {
	s.mu.Lock()
	s.generation++
	s.epoch++
	s.mu.Unlock()
}

// reset очищает хранилище и переводит сессию в Anonymous
func (s *Session) reset() {
	s.clearToken()
	s.transition(StateAnonymous, nil)
}

// resetIf выполняет reset, только если с момента epoch не было входа или
// выхода. Хранилище очищается под блокировкой, чтобы не стереть токен
// нового входа.
func (s *Session) resetIf(epoch uint64) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.clearToken()
	changed := s.setLocked(StateAnonymous, nil)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
	return true
}

func (s *Session) transition(state State, profile *models.Account) {
	s.mu.Lock()
	changed := s.setLocked(state, profile)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
}

// transitionIf применяет переход, только если с момента gen переходов не было
func (s *Session) transitionIf(gen uint64, state State, profile *models.Account) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	changed := s.setLocked(state, profile)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
	return true
}

func (s *Session) setLocked(state State, profile *models.Account) bool {
	if state != StateAuthenticated {
		profile = nil
	}
	if s.state == state && s.profile == profile {
		return false
	}
	prev := s.state
	s.state = state
	s.profile = profile
	s.generation++

	s.logger.Debug("переход сессии",
		logger.String("from", prev.String()),
		logger.String("to", state.String()))
	return true
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state}
	if s.profile != nil {
		profile := *s.profile
		snap.Profile = &profile
	}
	return snap
}

func (s *Session) notify(snap Snapshot) {
	s.subsMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
