package collection

import (
	"context"

	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/pkg/errors"
)

// FaceAPI - вызовы бэкенда для эталонных лиц
type FaceAPI interface {
	ListFaces(ctx context.Context) ([]models.RegisteredFace, error)
	CreateFace(ctx context.Context, upload models.FaceUpload) (*models.RegisteredFace, error)
	DeleteFace(ctx context.Context, id int64) error
}

// Faces - зеркало зарегистрированных лиц
type Faces struct {
	*Controller[models.RegisteredFace]
	api FaceAPI
}

// NewFaces создает контроллер лиц
func NewFaces(api FaceAPI, opts ...Option) *Faces {
	return &Faces{
		Controller: NewController("faces", api.ListFaces, opts...),
		api:        api,
	}
}

// Create загружает лицо и перезагружает зеркало. Неполная форма
// отклоняется до любого сетевого вызова.
func (f *Faces) Create(ctx context.Context, upload models.FaceUpload) (*models.RegisteredFace, error) {
	if err := upload.Validate(); err != nil {
		return nil, errors.New(errors.ErrValidation, err.Error())
	}

	var created *models.RegisteredFace
	err := f.Mutate(ctx, func(ctx context.Context) error {
		face, err := f.api.CreateFace(ctx, upload)
		created = face
		return err
	})
	return created, err
}

// Remove удаляет лицо и перезагружает зеркало
func (f *Faces) Remove(ctx context.Context, id int64) error {
	return f.Mutate(ctx, func(ctx context.Context) error {
		return f.api.DeleteFace(ctx, id)
	})
}
