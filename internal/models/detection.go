package models

import "math"

// UnknownLabel отображается, когда слабая ссылка не разрешилась
const UnknownLabel = "Unknown"

// DetectionEvent представляет событие обнаружения. Только чтение.
// Camera и RegisteredFace - денормализованные снимки на момент чтения.
type DetectionEvent struct {
	ID               int64           `json:"id" yaml:"id"`
	CameraID         int64           `json:"camera_id" yaml:"camera_id"`
	RegisteredFaceID *int64          `json:"registered_face_id,omitempty" yaml:"registered_face_id,omitempty"`
	Confidence       Decimal         `json:"detection_confidence" yaml:"detection_confidence"`
	ImagePath        string          `json:"detection_image_path,omitempty" yaml:"detection_image_path,omitempty"`
	DetectedAt       Timestamp       `json:"detected_at" yaml:"detected_at"`
	CreatedAt        Timestamp       `json:"created_at" yaml:"created_at"`
	Camera           *CameraSnapshot `json:"camera,omitempty" yaml:"camera,omitempty"`
	RegisteredFace   *FaceSnapshot   `json:"registered_face,omitempty" yaml:"registered_face,omitempty"`
}

// CameraSnapshot - снимок камеры внутри события
type CameraSnapshot struct {
	ID    int64      `json:"id" yaml:"id"`
	Name  string     `json:"camera_name" yaml:"camera_name"`
	Brand string     `json:"camera_brand,omitempty" yaml:"camera_brand,omitempty"`
	Type  CameraType `json:"camera_type,omitempty" yaml:"camera_type,omitempty"`
}

// FaceSnapshot - снимок лица внутри события
type FaceSnapshot struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"face_name" yaml:"face_name"`
	ImagePath string `json:"face_image_path,omitempty" yaml:"face_image_path,omitempty"`
}

// CameraName возвращает имя камеры или Unknown
func (d DetectionEvent) CameraName() string {
	if d.Camera == nil || d.Camera.Name == "" {
		return UnknownLabel
	}
	return d.Camera.Name
}

// FaceName возвращает имя распознанного лица или Unknown
func (d DetectionEvent) FaceName() string {
	if d.RegisteredFace == nil || d.RegisteredFace.Name == "" {
		return UnknownLabel
	}
	return d.RegisteredFace.Name
}

// ConfidenceBand - полоса уверенности для отображения
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// Confidence переводит оценку [0,1] в проценты и полосу:
// >= 0.8 high, [0.6, 0.8) medium, < 0.6 low
func Confidence(score float64) (int, ConfidenceBand) {
	percent := int(math.Round(score * 100))
	switch {
	case score >= 0.8:
		return percent, ConfidenceHigh
	case score >= 0.6:
		return percent, ConfidenceMedium
	default:
		return percent, ConfidenceLow
	}
}

// ConfidenceDisplay возвращает уверенность события
func (d DetectionEvent) ConfidenceDisplay() (int, ConfidenceBand) {
	return Confidence(d.Confidence.Float64())
}
