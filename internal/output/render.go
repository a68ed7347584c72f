package output

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"FaceGuardConsole/internal/dashboard"
	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/pkg/errors"
	"FaceGuardConsole/pkg/health"
)

const timeLayout = "2006-01-02 15:04:05"

// Renderer выводит данные консоли в выбранном формате
type Renderer struct {
	w      io.Writer
	format FormatType
	colors bool
}

// NewRenderer создает Renderer. Цвета применяются только к таблицам.
func NewRenderer(w io.Writer, format FormatType, colors bool) *Renderer {
	return &Renderer{w: w, format: format, colors: colors && format == FormatTable}
}

// Format возвращает формат вывода
func (r *Renderer) Format() FormatType {
	return r.format
}

// Cameras выводит список камер
func (r *Renderer) Cameras(cameras []models.Camera) error {
	if r.format != FormatTable {
		return r.structured(cameras, "cameras list", len(cameras), 0, 0)
	}
	return r.write(CamerasTable(cameras, r.colors))
}

// Camera выводит одну камеру
func (r *Renderer) Camera(camera *models.Camera) error {
	if r.format != FormatTable {
		return r.structured(camera, "camera", 1, 0, 0)
	}
	return r.write(CamerasTable([]models.Camera{*camera}, r.colors))
}

// CameraTest выводит результат проверки связи
func (r *Renderer) CameraTest(id int64, result *models.CameraTestResult) error {
	if r.format != FormatTable {
		return r.structured(result, "camera test", 1, 0, 0)
	}
	_, err := fmt.Fprintf(r.w, "%s camera %d: %s\n", getStatusIcon(result.Status), id, result.Message)
	return err
}

// Faces выводит зарегистрированные лица
func (r *Renderer) Faces(faces []models.RegisteredFace) error {
	if r.format != FormatTable {
		return r.structured(faces, "faces list", len(faces), 0, 0)
	}
	return r.write(FacesTable(faces, r.colors))
}

// Face выводит одно лицо
func (r *Renderer) Face(face *models.RegisteredFace) error {
	if r.format != FormatTable {
		return r.structured(face, "face", 1, 0, 0)
	}
	return r.write(FacesTable([]models.RegisteredFace{*face}, r.colors))
}

// Detections выводит страницу журнала
func (r *Renderer) Detections(events []models.DetectionEvent, limit, offset int) error {
	if r.format != FormatTable {
		return r.structured(events, "detections list", len(events), limit, offset)
	}
	return r.write(DetectionsTable(events, r.colors))
}

// Plans выводит каталог тарифов
func (r *Renderer) Plans(plans []models.Plan) error {
	if r.format != FormatTable {
		return r.structured(plans, "plans list", len(plans), 0, 0)
	}
	return r.write(PlansTable(plans, r.colors))
}

// StatusView - состояние сессии для команды auth status
type StatusView struct {
	State     string          `json:"state" yaml:"state"`
	BaseURL   string          `json:"base_url" yaml:"base_url"`
	Account   *models.Account `json:"account,omitempty" yaml:"account,omitempty"`
	Subject   string          `json:"token_subject,omitempty" yaml:"token_subject,omitempty"`
	ExpiresAt *time.Time      `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
}

// Status выводит состояние сессии
func (r *Renderer) Status(view StatusView) error {
	if r.format != FormatTable {
		return r.structured(view, "auth status", 1, 0, 0)
	}

	table := NewPrettyTable([]string{"Field", "Value"}, r.colors)
	style := StyleError
	if view.Account != nil {
		style = StyleSuccess
	}
	table.AddRowWithStyle([]string{"State", view.State}, style)
	table.AddRow("API", view.BaseURL)
	if a := view.Account; a != nil {
		table.AddRow("Email", a.Email)
		table.AddRow("Name", a.FullName)
		table.AddRow("Phone", orDash(a.PhoneNumber))
		table.AddRow("Verified", strconv.FormatBool(a.IsVerified))
		if a.Package != nil {
			table.AddRow("Package", a.Package.Name)
			table.AddRow("Camera limit", a.Package.CameraLimitLabel())
			table.AddRow("Face limit", a.Package.FaceLimitLabel())
		}
		table.AddRow("Member since", formatTime(a.CreatedAt))
	}
	if view.Subject != "" {
		table.AddRow("Token subject", view.Subject)
	}
	if view.ExpiresAt != nil {
		table.AddRow("Token expires", view.ExpiresAt.Local().Format(timeLayout))
	}
	return r.write(table)
}

// Dashboard выводит сводку панели
func (r *Renderer) Dashboard(summary dashboard.Summary) error {
	if r.format != FormatTable {
		return r.structured(summary, "dashboard", len(summary.RecentDetections), 0, 0)
	}

	if err := r.write(DashboardTable(summary, r.colors)); err != nil {
		return err
	}
	if !summary.Complete {
		return nil
	}
	if _, err := fmt.Fprintln(r.w, "\nRecent detections"); err != nil {
		return err
	}
	return r.write(DetectionsTable(summary.RecentDetections, r.colors))
}

// Health выводит результат проверки зависимостей консоли
func (r *Renderer) Health(status *health.HealthStatus, names []string) error {
	if r.format != FormatTable {
		return r.structured(status, "health", len(status.Services), 0, 0)
	}

	table := NewPrettyTable([]string{"Dependency", "Status", "Latency", "Details"}, r.colors)
	for _, name := range names {
		svc, ok := status.Services[name]
		if !ok {
			continue
		}
		style := StyleSuccess
		if svc.Status != health.StatusHealthy {
			style = StyleError
		}
		table.AddRowWithStyle([]string{
			name,
			getStatusIcon(svc.Status) + " " + svc.Status,
			svc.Latency.Round(time.Millisecond).String(),
			orDash(svc.Details),
		}, style)
	}
	return r.write(table)
}

// Success выводит сообщение об успешной операции
func (r *Renderer) Success(command, message string) error {
	if r.format != FormatTable {
		return r.structured(map[string]string{"message": message}, command, 0, 0, 0)
	}
	_, err := fmt.Fprintf(r.w, "✓ %s\n", message)
	return err
}

// Error выводит ошибку. Ошибки валидации показываются дословно.
func (r *Renderer) Error(command string, err error) error {
	message := UserMessage(err)
	if r.format != FormatTable {
		env := NewEnvelope(false, nil, nil).WithMetadata(command, 0, 0, 0)
		env.Error = message
		env.ErrorType = strings.ToLower(string(errors.CodeOf(err)))
		return r.encode(env)
	}
	_, werr := fmt.Fprintf(r.w, "✗ %s\n", message)
	return werr
}

// UserMessage возвращает сообщение об ошибке для оператора
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		return appErr.GetUserMessage()
	}
	return err.Error()
}

func (r *Renderer) structured(data interface{}, command string, count, limit, offset int) error {
	return r.encode(NewEnvelope(true, data, nil).WithMetadata(command, count, limit, offset))
}

func (r *Renderer) encode(env *Envelope) error {
	data, err := marshal(r.format, env)
	if err != nil {
		return err
	}
	_, err = r.w.Write(data)
	return err
}

// Document выводит v без конверта. Для табличного формата используется YAML.
func (r *Renderer) Document(v interface{}) error {
	format := r.format
	if format == FormatTable {
		format = FormatYAML
	}
	data, err := marshal(format, v)
	if err != nil {
		return err
	}
	_, err = r.w.Write(data)
	return err
}

func (r *Renderer) write(table *PrettyTable) error {
	_, err := io.WriteString(r.w, table.String())
	return err
}

// CamerasTable создает таблицу камер
func CamerasTable(cameras []models.Camera, useColors bool) *PrettyTable {
	table := NewPrettyTable([]string{"ID", "Name", "Brand", "Type", "Address", "Status", "Last Seen"}, useColors)

	for _, c := range cameras {
		address := "-"
		if n := c.Network(); n != nil && n.Address != "" {
			address = n.Address
			if n.Port != 0 {
				address = fmt.Sprintf("%s:%d", n.Address, n.Port)
			}
		}
		lastSeen := "-"
		if c.LastSeen != nil {
			lastSeen = formatTime(*c.LastSeen)
		}

		table.AddRowWithStyle([]string{
			strconv.FormatInt(c.ID, 10),
			c.Name,
			orDash(c.Brand),
			string(c.Type),
			address,
			string(c.Status),
			lastSeen,
		}, statusStyle(c.Status))
	}

	return table
}

// FacesTable создает таблицу зарегистрированных лиц
func FacesTable(faces []models.RegisteredFace, useColors bool) *PrettyTable {
	table := NewPrettyTable([]string{"ID", "Name", "Image", "Active", "Registered"}, useColors)

	for _, f := range faces {
		style := StyleDefault
		if !f.IsActive {
			style = StyleMuted
		}
		table.AddRowWithStyle([]string{
			strconv.FormatInt(f.ID, 10),
			f.Name,
			orDash(f.ImagePath),
			strconv.FormatBool(f.IsActive),
			formatTime(f.CreatedAt),
		}, style)
	}

	return table
}

// DetectionsTable создает таблицу журнала с полосой уверенности
func DetectionsTable(events []models.DetectionEvent, useColors bool) *PrettyTable {
	table := NewPrettyTable([]string{"ID", "Detected", "Camera", "Face", "Confidence"}, useColors)

	for _, e := range events {
		percent, band := e.ConfidenceDisplay()
		table.AddRowWithStyle([]string{
			strconv.FormatInt(e.ID, 10),
			formatTime(e.DetectedAt),
			e.CameraName(),
			e.FaceName(),
			fmt.Sprintf("%d%% %s", percent, band),
		}, bandStyle(band))
	}

	return table
}

// PlansTable создает таблицу тарифов
func PlansTable(plans []models.Plan, useColors bool) *PrettyTable {
	table := NewPrettyTable([]string{"Name", "Price", "Cameras", "Faces", "Features"}, useColors)

	for _, p := range plans {
		price := strconv.FormatFloat(p.Price.Float64(), 'f', 2, 64)
		if p.Period != "" {
			price += "/" + p.Period
		}
		table.AddRow(
			p.Name,
			price,
			p.CameraLimitLabel(),
			p.FaceLimitLabel(),
			orDash(strings.Join(p.Features, ", ")),
		)
	}

	return table
}

// DashboardTable создает таблицу счетчиков панели
func DashboardTable(summary dashboard.Summary, useColors bool) *PrettyTable {
	table := NewPrettyTable([]string{"Metric", "Value"}, useColors)

	alertsStyle := StyleDefault
	if summary.Stats.AlertsToday != models.StatsSentinel {
		alertsStyle = StyleWarning
	}
	table.AddRowWithStyle([]string{"Alerts today", summary.Stats.AlertsToday}, alertsStyle)
	table.AddRow("Registered faces", summary.Stats.RegisteredFaces)

	if summary.Complete {
		table.AddRow("Cameras", fmt.Sprintf("%d (%d active)", summary.Cameras, summary.ActiveCameras))
	} else {
		table.AddRowWithStyle([]string{"Status", "data unavailable"}, StyleError)
	}

	return table
}

// statusStyle переводит цвет статуса камеры в стиль строки
func statusStyle(status models.CameraStatus) RowStyle {
	switch status.Color() {
	case "green":
		return StyleSuccess
	case "red":
		return StyleError
	case "yellow":
		return StyleWarning
	default:
		return StyleMuted
	}
}

func bandStyle(band models.ConfidenceBand) RowStyle {
	switch band {
	case models.ConfidenceHigh:
		return StyleSuccess
	case models.ConfidenceMedium:
		return StyleWarning
	default:
		return StyleError
	}
}

func formatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Time.Local().Format(timeLayout)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
