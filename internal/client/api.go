package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/pkg/errors"
)

// Пути API бэкенда
const (
	pathRegister       = "/auth/register"
	pathLogin          = "/auth/login"
	pathMe             = "/auth/me"
	pathPackages       = "/packages"
	pathCameras        = "/cameras"
	pathFaces          = "/faces"
	pathDetections     = "/detections"
	pathDashboardStats = "/dashboard/stats"
)

// Поля multipart формы загрузки лица
const (
	faceNameField = "face_name"
	faceFileField = "file"
)

// Register регистрирует учетную запись. Токен не подставляется.
func (g *Gateway) Register(ctx context.Context, input models.RegisterInput) (*models.Account, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, errors.New(errors.ErrValidation, err.Error())
	}

	var account models.Account
	if err := g.callJSON(ctx, http.MethodPost, pathRegister, input, &account, true); err != nil {
		return nil, err
	}
	return &account, nil
}

// Login обменивает учетные данные на токен. Токен не подставляется,
// поэтому 401 здесь означает ошибку валидации, а не истекшую сессию.
func (g *Gateway) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	var token models.TokenResponse
	if err := g.callJSON(ctx, http.MethodPost, pathLogin, creds, &token, true); err != nil {
		return nil, err
	}
	return &token, nil
}

// Me возвращает учетную запись владельца токена
func (g *Gateway) Me(ctx context.Context) (*models.Account, error) {
	var account models.Account
	if err := g.Call(ctx, http.MethodGet, pathMe, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Packages возвращает каталог тарифов
func (g *Gateway) Packages(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	if err := g.Call(ctx, http.MethodGet, pathPackages, nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// ListCameras возвращает камеры оператора в порядке сервера
func (g *Gateway) ListCameras(ctx context.Context) ([]models.Camera, error) {
	var cameras []models.Camera
	if err := g.Call(ctx, http.MethodGet, pathCameras, nil, &cameras); err != nil {
		return nil, err
	}
	return cameras, nil
}

// CreateCamera создает камеру. Тело формирует вариант ввода.
func (g *Gateway) CreateCamera(ctx context.Context, input models.CameraInput) (*models.Camera, error) {
	if input == nil {
		return nil, errors.New(errors.ErrValidation, "camera input is required")
	}
	if err := input.Validate(); err != nil {
		return nil, errors.New(errors.ErrValidation, err.Error())
	}

	var camera models.Camera
	if err := g.Call(ctx, http.MethodPost, pathCameras, input.Body(), &camera); err != nil {
		return nil, err
	}
	return &camera, nil
}

// UpdateCamera частично обновляет камеру
func (g *Gateway) UpdateCamera(ctx context.Context, id int64, update models.CameraUpdate) (*models.Camera, error) {
	if update.IsEmpty() {
		return nil, errors.New(errors.ErrValidation, "nothing to update")
	}
	if err := update.Validate(); err != nil {
		return nil, errors.New(errors.ErrValidation, err.Error())
	}

	var camera models.Camera
	if err := g.Call(ctx, http.MethodPut, cameraPath(id), update, &camera); err != nil {
		return nil, err
	}
	return &camera, nil
}

// DeleteCamera удаляет камеру
func (g *Gateway) DeleteCamera(ctx context.Context, id int64) error {
	return g.Call(ctx, http.MethodDelete, cameraPath(id), nil, nil)
}

// TestCamera проверяет связь с камерой
func (g *Gateway) TestCamera(ctx context.Context, id int64) (*models.CameraTestResult, error) {
	var result models.CameraTestResult
	if err := g.Call(ctx, http.MethodPost, cameraPath(id)+"/test", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListFaces возвращает зарегистрированные лица
func (g *Gateway) ListFaces(ctx context.Context) ([]models.RegisteredFace, error) {
	var faces []models.RegisteredFace
	if err := g.Call(ctx, http.MethodGet, pathFaces, nil, &faces); err != nil {
		return nil, err
	}
	return faces, nil
}

// CreateFace загружает эталонное лицо. Неполная форма отклоняется
// без обращения к сети.
func (g *Gateway) CreateFace(ctx context.Context, upload models.FaceUpload) (*models.RegisteredFace, error) {
	if err := upload.Validate(); err != nil {
		return nil, errors.New(errors.ErrValidation, err.Error())
	}

	var face models.RegisteredFace
	err := g.Upload(ctx, pathFaces,
		map[string]string{faceNameField: strings.TrimSpace(upload.Name)},
		FilePart{Field: faceFileField, FileName: upload.FileName, Content: upload.Image},
		&face,
	)
	if err != nil {
		return nil, err
	}
	return &face, nil
}

// DeleteFace удаляет зарегистрированное лицо
func (g *Gateway) DeleteFace(ctx context.Context, id int64) error {
	return g.Call(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", pathFaces, id), nil, nil)
}

// Detections возвращает страницу событий обнаружения
func (g *Gateway) Detections(ctx context.Context, limit, offset int) ([]models.DetectionEvent, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var events []models.DetectionEvent
	if err := g.Call(ctx, http.MethodGet, pathDetections+"?"+query.Encode(), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// DashboardStats возвращает счетчики панели
func (g *Gateway) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := g.Call(ctx, http.MethodGet, pathDashboardStats, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func cameraPath(id int64) string {
	return fmt.Sprintf("%s/%d", pathCameras, id)
}
