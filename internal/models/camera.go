package models

import (
	"fmt"
	"strconv"
	"strings"

	"FaceGuardConsole/pkg/validation"
)

// CameraType - дискриминант варианта камеры
type CameraType string

const (
	CameraTypeIP     CameraType = "ip_camera"
	CameraTypeWebcam CameraType = "webcam"
)

// ParseCameraType разбирает тип камеры из ввода оператора
func ParseCameraType(s string) (CameraType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ip", "ip_camera", "ip-camera":
		return CameraTypeIP, nil
	case "webcam":
		return CameraTypeWebcam, nil
	default:
		return "", fmt.Errorf("camera type must be either ip_camera or webcam, got: %q", s)
	}
}

// CameraStatus - состояние камеры, которое ведет бэкенд
type CameraStatus string

const (
	CameraStatusActive   CameraStatus = "active"
	CameraStatusInactive CameraStatus = "inactive"
	CameraStatusDisabled CameraStatus = "disabled"
)

// Color возвращает цвет индикатора статуса; неизвестные статусы серые
func (s CameraStatus) Color() string {
	switch CameraStatus(strings.ToLower(string(s))) {
	case CameraStatusActive:
		return "green"
	case CameraStatusInactive:
		return "red"
	case CameraStatusDisabled:
		return "yellow"
	default:
		return "gray"
	}
}

// Camera представляет камеру в зеркале коллекции
type Camera struct {
	ID        int64        `json:"id" yaml:"id"`
	Name      string       `json:"camera_name" yaml:"camera_name"`
	Brand     string       `json:"camera_brand,omitempty" yaml:"camera_brand,omitempty"`
	Type      CameraType   `json:"camera_type" yaml:"camera_type"`
	IPAddress string       `json:"ip_address,omitempty" yaml:"ip_address,omitempty"`
	Port      *int         `json:"port,omitempty" yaml:"port,omitempty"`
	Username  string       `json:"username,omitempty" yaml:"username,omitempty"`
	Status    CameraStatus `json:"status" yaml:"status"`
	LastSeen  *Timestamp   `json:"last_seen,omitempty" yaml:"last_seen,omitempty"`
	CreatedAt Timestamp    `json:"created_at" yaml:"created_at"`
	UpdatedAt Timestamp    `json:"updated_at" yaml:"updated_at"`
}

// CameraNetwork - сетевые параметры IP камеры
type CameraNetwork struct {
	Address  string
	Port     int
	Username string
}

// Network возвращает сетевые параметры только для IP камер.
// Для webcam поля считаются пустыми, даже если пришли в ответе.
func (c Camera) Network() *CameraNetwork {
	if c.Type != CameraTypeIP {
		return nil
	}
	n := &CameraNetwork{Address: c.IPAddress, Username: c.Username}
	if c.Port != nil {
		n.Port = *c.Port
	}
	return n
}

// CameraInput - вариант формы создания камеры: WebcamInput или IPCameraInput
type CameraInput interface {
	Type() CameraType
	Validate() error
	// Body возвращает тело запроса POST /cameras
	Body() interface{}
	isCameraInput()
}

// WebcamInput - веб-камера, без сетевых параметров
type WebcamInput struct {
	Name  string
	Brand string
}

// IPCameraInput - сетевая камера
type IPCameraInput struct {
	Name     string
	Brand    string
	Address  string
	Port     int
	Username string
	Password string
}

// в теле webcam сетевых ключей нет вообще
type webcamRequest struct {
	CameraName  string     `json:"camera_name"`
	CameraBrand string     `json:"camera_brand"`
	CameraType  CameraType `json:"camera_type"`
}

type ipCameraRequest struct {
	CameraName  string     `json:"camera_name"`
	CameraBrand string     `json:"camera_brand"`
	CameraType  CameraType `json:"camera_type"`
	IPAddress   string     `json:"ip_address"`
	Port        int        `json:"port"`
	Username    string     `json:"username,omitempty"`
	Password    string     `json:"password,omitempty"`
}

func (WebcamInput) Type() CameraType { return CameraTypeWebcam }
func (WebcamInput) isCameraInput()   {}

func (w WebcamInput) Validate() error {
	return validation.NewValidator().ValidateNotBlank(w.Name, "camera name")
}

func (w WebcamInput) Body() interface{} {
	return webcamRequest{
		CameraName:  strings.TrimSpace(w.Name),
		CameraBrand: strings.TrimSpace(w.Brand),
		CameraType:  CameraTypeWebcam,
	}
}

func (IPCameraInput) Type() CameraType { return CameraTypeIP }
func (IPCameraInput) isCameraInput()   {}

func (c IPCameraInput) Validate() error {
	v := validation.NewValidator()
	if err := v.ValidateNotBlank(c.Name, "camera name"); err != nil {
		return err
	}
	if err := v.ValidateHost(c.Address, "ip address"); err != nil {
		return err
	}
	return v.ValidatePort(c.Port, "port")
}

func (c IPCameraInput) Body() interface{} {
	return ipCameraRequest{
		CameraName:  strings.TrimSpace(c.Name),
		CameraBrand: strings.TrimSpace(c.Brand),
		CameraType:  CameraTypeIP,
		IPAddress:   strings.TrimSpace(c.Address),
		Port:        c.Port,
		Username:    c.Username,
		Password:    c.Password,
	}
}

// CameraForm - свободные поля формы камеры в том виде, как их ввел оператор
type CameraForm struct {
	Type     string
	Name     string
	Brand    string
	Address  string
	Port     string
	Username string
	Password string
}

// NewCameraInput сворачивает поля формы в нужный вариант.
// Для webcam сетевые поля отбрасываются.
func NewCameraInput(form CameraForm) (CameraInput, error) {
	cameraType, err := ParseCameraType(form.Type)
	if err != nil {
		return nil, err
	}

	var input CameraInput
	switch cameraType {
	case CameraTypeWebcam:
		input = WebcamInput{Name: form.Name, Brand: form.Brand}
	case CameraTypeIP:
		port, err := strconv.Atoi(strings.TrimSpace(form.Port))
		if err != nil {
			return nil, fmt.Errorf("port must be a number, got: %q", form.Port)
		}
		input = IPCameraInput{
			Name:     form.Name,
			Brand:    form.Brand,
			Address:  form.Address,
			Port:     port,
			Username: form.Username,
			Password: form.Password,
		}
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}
	return input, nil
}

// CameraUpdate - частичное обновление PUT /cameras/{id}
type CameraUpdate struct {
	Name      *string       `json:"camera_name,omitempty"`
	Brand     *string       `json:"camera_brand,omitempty"`
	Type      *CameraType   `json:"camera_type,omitempty"`
	IPAddress *string       `json:"ip_address,omitempty"`
	Port      *int          `json:"port,omitempty"`
	Username  *string       `json:"username,omitempty"`
	Password  *string       `json:"password,omitempty"`
	Status    *CameraStatus `json:"status,omitempty"`
}

// Validate проверяет обновление до отправки
func (u CameraUpdate) Validate() error {
	v := validation.NewValidator()

	if u.Name != nil {
		if err := v.ValidateNotBlank(*u.Name, "camera name"); err != nil {
			return err
		}
	}
	if u.Type != nil {
		if err := v.ValidateEnum(string(*u.Type), []string{string(CameraTypeIP), string(CameraTypeWebcam)}, "camera type"); err != nil {
			return err
		}
		if *u.Type == CameraTypeWebcam && u.hasNetworkFields() {
			return fmt.Errorf("network fields are not allowed for webcam")
		}
	}
	if u.IPAddress != nil {
		if err := v.ValidateHost(*u.IPAddress, "ip address"); err != nil {
			return err
		}
	}
	if u.Port != nil {
		if err := v.ValidatePort(*u.Port, "port"); err != nil {
			return err
		}
	}
	if u.Status != nil {
		allowed := []string{string(CameraStatusActive), string(CameraStatusInactive), string(CameraStatusDisabled)}
		if err := v.ValidateEnum(string(*u.Status), allowed, "status"); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty сообщает, что обновление не содержит ни одного поля
func (u CameraUpdate) IsEmpty() bool {
	return u.Name == nil && u.Brand == nil && u.Type == nil && !u.hasNetworkFields() && u.Status == nil
}

func (u CameraUpdate) hasNetworkFields() bool {
	return u.IPAddress != nil || u.Port != nil || u.Username != nil || u.Password != nil
}

// CameraTestResult - результат проверки связи с камерой
type CameraTestResult struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}
