package collection

import (
	"context"
	"sync"

	"FaceGuardConsole/internal/models"
)

// Параметры страницы журнала по умолчанию
const (
	DefaultDetectionLimit  = 50
	DefaultDetectionOffset = 0
)

// DetectionAPI - чтение журнала обнаружений
type DetectionAPI interface {
	Detections(ctx context.Context, limit, offset int) ([]models.DetectionEvent, error)
}

// Page - окно журнала. Общее число событий не выводится.
type Page struct {
	Limit  int
	Offset int
}

// Detections - зеркало одной страницы журнала. Только чтение.
type Detections struct {
	*Controller[models.DetectionEvent]

	api  DetectionAPI
	mu   sync.RWMutex
	page Page
}

// NewDetections создает контроллер журнала
func NewDetections(api DetectionAPI, opts ...Option) *Detections {
	d := &Detections{api: api, page: Page{Limit: DefaultDetectionLimit, Offset: DefaultDetectionOffset}}
	d.Controller = NewController("detections", func(ctx context.Context) ([]models.DetectionEvent, error) {
		page := d.Page()
		return api.Detections(ctx, page.Limit, page.Offset)
	}, opts...)
	return d
}

// Page возвращает окно, которому соответствует зеркало
func (d *Detections) Page() Page {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.page
}

// RefreshPage загружает указанное окно. Неположительный limit заменяется
// значением по умолчанию, отрицательный offset нулем.
func (d *Detections) RefreshPage(ctx context.Context, limit, offset int) error {
	if limit <= 0 {
		limit = DefaultDetectionLimit
	}
	if offset < 0 {
		offset = DefaultDetectionOffset
	}

	page := Page{Limit: limit, Offset: offset}
	fetch := func(ctx context.Context) ([]models.DetectionEvent, error) {
		return d.api.Detections(ctx, page.Limit, page.Offset)
	}
	return d.refreshWith(ctx, fetch, func() {
		d.mu.Lock()
		d.page = page
		d.mu.Unlock()
	})
}
