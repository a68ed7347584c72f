package collection

import (
	"context"
	"strings"

	"FaceGuardConsole/internal/models"
)

// CameraAPI - вызовы бэкенда для камер
type CameraAPI interface {
	ListCameras(ctx context.Context) ([]models.Camera, error)
	CreateCamera(ctx context.Context, input models.CameraInput) (*models.Camera, error)
	UpdateCamera(ctx context.Context, id int64, update models.CameraUpdate) (*models.Camera, error)
	DeleteCamera(ctx context.Context, id int64) error
	TestCamera(ctx context.Context, id int64) (*models.CameraTestResult, error)
}

// Cameras - зеркало камер оператора
type Cameras struct {
	*Controller[models.Camera]
	api CameraAPI
}

// NewCameras создает контроллер камер
func NewCameras(api CameraAPI, opts ...Option) *Cameras {
	return &Cameras{
		Controller: NewController("cameras", api.ListCameras, opts...),
		api:        api,
	}
}

// Create создает камеру и перезагружает зеркало
func (c *Cameras) Create(ctx context.Context, input models.CameraInput) (*models.Camera, error) {
	var created *models.Camera
	err := c.Mutate(ctx, func(ctx context.Context) error {
		camera, err := c.api.CreateCamera(ctx, input)
		created = camera
		return err
	})
	return created, err
}

// Update изменяет камеру и перезагружает зеркало
func (c *Cameras) Update(ctx context.Context, id int64, update models.CameraUpdate) (*models.Camera, error) {
	var updated *models.Camera
	err := c.Mutate(ctx, func(ctx context.Context) error {
		camera, err := c.api.UpdateCamera(ctx, id, update)
		updated = camera
		return err
	})
	return updated, err
}

// Remove удаляет камеру и перезагружает зеркало
func (c *Cameras) Remove(ctx context.Context, id int64) error {
	return c.Mutate(ctx, func(ctx context.Context) error {
		return c.api.DeleteCamera(ctx, id)
	})
}

// Test проверяет связь с камерой. Зеркало не меняется.
func (c *Cameras) Test(ctx context.Context, id int64) (*models.CameraTestResult, error) {
	return c.api.TestCamera(ctx, id)
}

// Active возвращает число активных камер в зеркале
func (c *Cameras) Active() int {
	active := 0
	for _, camera := range c.Items() {
		if strings.EqualFold(string(camera.Status), string(models.CameraStatusActive)) {
			active++
		}
	}
	return active
}
