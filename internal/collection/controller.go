package collection

import (
	"context"
	stderrors "errors"
	"sync"

	"FaceGuardConsole/pkg/errors"
	"FaceGuardConsole/pkg/logger"
	"FaceGuardConsole/pkg/metrics"
)

// ErrClosed возвращается контроллером после Close
var ErrClosed = stderrors.New("collection controller is closed")

// FetchFunc загружает коллекцию целиком в порядке сервера
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Option настраивает контроллер
type Option func(*options)

type options struct {
	logger  logger.Logger
	metrics *metrics.Metrics
}

// WithLogger задает логгер
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics включает метрику размера зеркала
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Controller держит локальное зеркало коллекции, которой владеет бэкенд.
// Зеркало заменяется только целиком результатом загрузки. Каждая загрузка
// получает возрастающий номер, и ответ применяется, только если более
// поздняя загрузка еще не была применена.
type Controller[T any] struct {
	name  string
	fetch FetchFunc[T]
	opts  options

	life   context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	items    []T
	loaded   bool
	lastErr  error
	ticket   uint64
	applied  uint64
	loading  int
	mutating int
}

// NewController создает контроллер коллекции name
func NewController[T any](name string, fetch FetchFunc[T], opts ...Option) *Controller[T] {
	o := options{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	life, cancel := context.WithCancel(context.Background())
	return &Controller[T]{
		name:   name,
		fetch:  fetch,
		opts:   o,
		life:   life,
		cancel: cancel,
	}
}

// Name возвращает имя коллекции
func (c *Controller[T]) Name() string {
	return c.name
}

// Items возвращает копию зеркала
func (c *Controller[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]T, len(c.items))
	copy(items, c.items)
	return items
}

// Len возвращает размер зеркала
func (c *Controller[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Loaded сообщает, была ли применена хотя бы одна загрузка
func (c *Controller[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Err возвращает ошибку последней загрузки или nil
func (c *Controller[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Loading сообщает, что идет загрузка
func (c *Controller[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading > 0
}

// Mutating сообщает, что идет создание или удаление. Не зависит от Loading.
func (c *Controller[T]) Mutating() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mutating > 0
}

// Refresh загружает коллекцию и заменяет зеркало целиком
func (c *Controller[T]) Refresh(ctx context.Context) error {
	return c.refreshWith(ctx, c.fetch, nil)
}

// refreshWith выполняет загрузку через fetch. applied вызывается под
// блокировкой зеркала, только если результат этой загрузки принят.
func (c *Controller[T]) refreshWith(ctx context.Context, fetch FetchFunc[T], applied func()) error {
	ctx, stop, err := c.bind(ctx)
	if err != nil {
		return err
	}
	defer stop()

	c.mu.Lock()
	c.ticket++
	ticket := c.ticket
	c.loading++
	c.mu.Unlock()

	items, fetchErr := fetch(ctx)

	c.mu.Lock()
	c.loading--
	if discardErr := c.discarded(ctx); discardErr != nil {
		c.mu.Unlock()
		c.opts.logger.Debug("ответ загрузки отброшен",
			logger.String("collection", c.name),
			logger.Int64("ticket", int64(ticket)))
		return discardErr
	}
	if fetchErr != nil {
		if ticket > c.applied {
			c.lastErr = fetchErr
		}
		c.mu.Unlock()
		c.opts.logger.Warn("ошибка загрузки коллекции",
			logger.String("collection", c.name),
			logger.String("error_type", string(errors.CodeOf(fetchErr))),
			logger.Error(fetchErr))
		return fetchErr
	}
	if ticket < c.applied {
		c.mu.Unlock()
		c.opts.logger.Debug("устаревший ответ загрузки отброшен",
			logger.String("collection", c.name),
			logger.Int64("ticket", int64(ticket)))
		return nil
	}

	if items == nil {
		items = []T{}
	}
	c.items = items
	c.applied = ticket
	c.loaded = true
	c.lastErr = nil
	if applied != nil {
		applied()
	}
	size := len(items)
	c.mu.Unlock()

	if c.opts.metrics != nil {
		c.opts.metrics.SetMirrorSize(c.name, size)
	}
	return nil
}

// Mutate выполняет создание или удаление, а после ответа - Refresh.
// Зеркало никогда не получает данные из запроса, только результат загрузки.
func (c *Controller[T]) Mutate(ctx context.Context, action func(ctx context.Context) error) error {
	mctx, stop, err := c.bind(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.mutating++
	c.mu.Unlock()

	actionErr := action(mctx)

	c.mu.Lock()
	c.mutating--
	discardErr := c.discarded(mctx)
	c.mu.Unlock()
	stop()

	if actionErr != nil {
		return actionErr
	}
	if discardErr != nil {
		return discardErr
	}

	if err := c.Refresh(ctx); err != nil && !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, ErrClosed) {
		// изменение уже принято бэкендом, зеркало обновится следующей загрузкой
		c.opts.logger.Warn("не удалось обновить коллекцию после изменения",
			logger.String("collection", c.name),
			logger.Error(err))
	}
	return nil
}

// Close прекращает работу контроллера. Ответы на запросы в полете отбрасываются.
func (c *Controller[T]) Close() {
	c.cancel()
}

// bind связывает контекст вызова с временем жизни контроллера
func (c *Controller[T]) bind(ctx context.Context) (context.Context, func(), error) {
	if c.life.Err() != nil {
		return nil, nil, ErrClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	stopAfter := context.AfterFunc(c.life, cancel)
	return ctx, func() {
		stopAfter()
		cancel()
	}, nil
}

// discarded возвращает причину, по которой ответ нельзя применять
func (c *Controller[T]) discarded(ctx context.Context) error {
	if c.life.Err() != nil {
		return ErrClosed
	}
	return ctx.Err()
}
