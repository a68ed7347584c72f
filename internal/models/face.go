package models

import (
	"fmt"
	"io"
	"strings"
)

// RegisteredFace представляет эталонное лицо.
// ImagePath - дескриптор изображения, выданный бэкендом, а не байты.
type RegisteredFace struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"face_name" yaml:"face_name"`
	ImagePath string    `json:"face_image_path,omitempty" yaml:"face_image_path,omitempty"`
	IsActive  bool      `json:"is_active" yaml:"is_active"`
	CreatedAt Timestamp `json:"created_at" yaml:"created_at"`
	UpdatedAt Timestamp `json:"updated_at" yaml:"updated_at"`
}

// FaceUpload - форма загрузки лица: имя и файл изображения
type FaceUpload struct {
	Name     string
	FileName string
	Image    io.Reader
}

// ErrFaceUploadIncomplete возвращается, пока нет файла или непустого имени
var ErrFaceUploadIncomplete = fmt.Errorf("face name and image file are both required")

// Ready сообщает, можно ли отправлять форму
func (f FaceUpload) Ready() bool {
	return strings.TrimSpace(f.Name) != "" && f.Image != nil && strings.TrimSpace(f.FileName) != ""
}

// Validate проверяет форму до любого сетевого вызова
func (f FaceUpload) Validate() error {
	if !f.Ready() {
		return ErrFaceUploadIncomplete
	}
	return nil
}
