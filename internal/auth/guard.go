package auth

import (
	"context"
	"sync"
)

// Decision - решение охранника маршрута
type Decision int

const (
	// DecisionSuspend - сессия не определилась, защищенное содержимое не показывается
	DecisionSuspend Decision = iota
	// DecisionRedirect - перейти на вход
	DecisionRedirect
	// DecisionRender - показать содержимое
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionSuspend:
		return "suspend"
	case DecisionRedirect:
		return "redirect"
	case DecisionRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decide - чистая функция от состояния сессии
func Decide(state State) Decision {
	switch state {
	case StateAuthenticated:
		return DecisionRender
	case StateAnonymous:
		return DecisionRedirect
	default:
		return DecisionSuspend
	}
}

// Guard переоценивает решение при каждом переходе сессии. При переходе в
// Anonymous отменяет контексты защищенного содержимого и вызывает onRedirect.
type Guard struct {
	session    *Session
	onRedirect func()

	mu      sync.Mutex
	running map[int]context.CancelFunc
	nextID  int

	unsubscribe func()
}

// NewGuard создает охранника и подписывает его на сессию
func NewGuard(session *Session, onRedirect func()) *Guard {
	g := &Guard{
		session:    session,
		onRedirect: onRedirect,
		running:    make(map[int]context.CancelFunc),
	}
	g.unsubscribe = session.Subscribe(g.handle)
	return g
}

// Decision возвращает решение для текущего состояния
func (g *Guard) Decision() Decision {
	return Decide(g.session.State())
}

// Run выполняет защищенное содержимое, только если сессия Authenticated.
// Контекст fn отменяется при переходе сессии в Anonymous.
func (g *Guard) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// решение принимается под той же блокировкой, что и регистрация,
	// поэтому переход в Anonymous после проверки отменит runCtx
	g.mu.Lock()
	decision := g.Decision()
	id := g.nextID
	if decision == DecisionRender {
		g.nextID++
		g.running[id] = cancel
	}
	g.mu.Unlock()

	switch decision {
	case DecisionSuspend:
		return ErrUnresolved
	case DecisionRedirect:
		g.redirect()
		return ErrNotAuthenticated
	}

	defer func() {
		g.mu.Lock()
		delete(g.running, id)
		g.mu.Unlock()
	}()

	err := fn(runCtx)
	if err != nil && g.Decision() == DecisionRedirect {
		return ErrNotAuthenticated
	}
	return err
}

// Close отписывает охранника от сессии
func (g *Guard) Close() {
	g.unsubscribe()
}

func (g *Guard) handle(snap Snapshot) {
	if Decide(snap.State) != DecisionRedirect {
		return
	}

	g.mu.Lock()
	for _, cancel := range g.running {
		cancel()
	}
	g.mu.Unlock()

	g.redirect()
}

func (g *Guard) redirect() {
	if g.onRedirect != nil {
		g.onRedirect()
	}
}
