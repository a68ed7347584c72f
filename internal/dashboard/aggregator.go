package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"FaceGuardConsole/internal/collection"
	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/pkg/errors"
	"FaceGuardConsole/pkg/logger"
)

// DefaultRecent - сколько последних событий показывает панель
const DefaultRecent = 5

// StatsAPI - загрузка счетчиков панели
type StatsAPI interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// Summary - сводка панели. Коллекции заполнены, только если все четыре
// загрузки завершились успешно, иначе счетчики равны заглушке.
type Summary struct {
	Stats            models.DashboardStats   `json:"stats" yaml:"stats"`
	Cameras          int                     `json:"cameras" yaml:"cameras"`
	ActiveCameras    int                     `json:"active_cameras" yaml:"active_cameras"`
	Faces            int                     `json:"faces" yaml:"faces"`
	RecentDetections []models.DetectionEvent `json:"recent_detections" yaml:"recent_detections"`
	Complete         bool                    `json:"complete" yaml:"complete"`
	LoadedAt         time.Time               `json:"loaded_at" yaml:"loaded_at"`
}

// Aggregator собирает сводку из трех коллекций и счетчиков бэкенда
type Aggregator struct {
	cameras    *collection.Cameras
	faces      *collection.Faces
	detections *collection.Detections
	stats      StatsAPI
	logger     logger.Logger
	recent     int
}

// NewAggregator создает агрегатор панели
func NewAggregator(cameras *collection.Cameras, faces *collection.Faces, detections *collection.Detections, stats StatsAPI, log logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Aggregator{
		cameras:    cameras,
		faces:      faces,
		detections: detections,
		stats:      stats,
		logger:     log,
		recent:     DefaultRecent,
	}
}

// SetRecent задает число последних событий в сводке
func (a *Aggregator) SetRecent(n int) {
	if n > 0 {
		a.recent = n
	}
}

// Load выполняет четыре загрузки параллельно. Первая ошибка отменяет
// остальные, сводка тогда содержит только счетчики-заглушки.
func (a *Aggregator) Load(ctx context.Context) (Summary, error) {
	g, gctx := errgroup.WithContext(ctx)

	var stats *models.DashboardStats
	g.Go(func() error { return a.cameras.Refresh(gctx) })
	g.Go(func() error { return a.faces.Refresh(gctx) })
	g.Go(func() error { return a.detections.RefreshPage(gctx, a.recent, 0) })
	g.Go(func() error {
		s, err := a.stats.DashboardStats(gctx)
		if err != nil {
			return err
		}
		stats = s
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Warn("ошибка загрузки панели",
			logger.CtxField(ctx),
			logger.String("error_type", string(errors.CodeOf(err))),
			logger.Error(err))
		return Summary{Stats: models.SentinelStats(), LoadedAt: time.Now()}, err
	}

	// сервер может вернуть больше, чем запрошено
	events := a.detections.Items()
	if len(events) > a.recent {
		events = events[:a.recent]
	}

	return Summary{
		Stats:            *stats,
		Cameras:          a.cameras.Len(),
		ActiveCameras:    a.cameras.Active(),
		Faces:            a.faces.Len(),
		RecentDetections: events,
		Complete:         true,
		LoadedAt:         time.Now(),
	}, nil
}

// Watch перезагружает сводку с интервалом, пока не отменен ctx.
// Результат загрузки, прерванной отменой, не передается в fn.
func (a *Aggregator) Watch(ctx context.Context, interval time.Duration, fn func(Summary, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		summary, err := a.Load(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(summary, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
