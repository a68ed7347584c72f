package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"FaceGuardConsole/internal/store"
	"FaceGuardConsole/pkg/errors"
	"FaceGuardConsole/pkg/logger"
	"FaceGuardConsole/pkg/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	// ответы бэкенда небольшие, больший объем считаем неожиданным
	maxResponseSize = 8 << 20
)

// Gateway - типизированный слой запросов к бэкенду. Подставляет токен из
// хранилища и классифицирует отказы. Повторов нет: каждый вызов выполняется
// не более одного раза.
type Gateway struct {
	baseURL string
	client  *http.Client
	tokens  store.TokenStore
	logger  logger.Logger
	metrics *metrics.Metrics
	version string

	mu             sync.RWMutex
	onUnauthorized func(token string)
}

// Option настраивает Gateway
type Option func(*Gateway)

// WithHTTPClient подменяет HTTP клиент
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithTimeout задает таймаут запроса
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.client.Timeout = d }
}

// WithLogger задает логгер
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithMetrics включает метрики и трассировку запросов
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithVersion задает версию в User-Agent
func WithVersion(v string) Option {
	return func(g *Gateway) { g.version = v }
}

// NewGateway создает Gateway
func NewGateway(baseURL string, tokens store.TokenStore, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		logger:  logger.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BaseURL возвращает адрес бэкенда
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// OnUnauthorized устанавливает единственного подписчика на отказ в
// авторизации. Подписчик получает отклоненный токен и вызывается до
// возврата ошибки вызывающему.
func (g *Gateway) OnUnauthorized(fn func(token string)) {
	g.mu.Lock()
	g.onUnauthorized = fn
	g.mu.Unlock()
}

func (g *Gateway) emitUnauthorized(token string) {
	g.mu.RLock()
	fn := g.onUnauthorized
	g.mu.RUnlock()
	if fn != nil {
		fn(token)
	}
}

// request - описание одного вызова
type request struct {
	method      string
	endpoint    string
	body        io.Reader
	contentType string
	// anonymous запрещает подстановку токена (вход, регистрация)
	anonymous bool
}

// Call выполняет JSON запрос. body и out могут быть nil.
func (g *Gateway) Call(ctx context.Context, method, endpoint string, body, out interface{}) error {
	return g.callJSON(ctx, method, endpoint, body, out, false)
}

func (g *Gateway) callJSON(ctx context.Context, method, endpoint string, body, out interface{}, anonymous bool) error {
	req := request{method: method, endpoint: endpoint, anonymous: anonymous}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "ошибка кодирования запроса")
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return g.do(ctx, req, out)
}

// FilePart - файловая часть multipart запроса
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// Upload выполняет multipart POST с текстовыми полями и одним файлом
func (g *Gateway) Upload(ctx context.Context, endpoint string, fields map[string]string, file FilePart, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "ошибка формирования multipart запроса")
		}
	}

	part, err := w.CreateFormFile(file.Field, file.FileName)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "ошибка формирования multipart запроса")
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "ошибка чтения файла")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "ошибка формирования multipart запроса")
	}

	return g.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    endpoint,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, out)
}

func (g *Gateway) do(ctx context.Context, r request, out interface{}) error {
	route := routeLabel(r.endpoint)
	requestID := uuid.NewString()
	start := time.Now()

	ctx, finish := g.startSpan(ctx, r.method, route, requestID)

	status, token, err := g.roundTrip(ctx, r, requestID, out)

	errorType := ""
	if err != nil {
		errorType = strings.ToLower(string(errors.CodeOf(err)))
	}
	duration := time.Since(start)
	finish(status, err)
	if g.metrics != nil {
		statusLabel := "none"
		if status != 0 {
			statusLabel = strconv.Itoa(status)
		}
		g.metrics.ObserveRequest(r.method, route, statusLabel, errorType, duration)
	}

	fields := []logger.Field{
		logger.CtxField(ctx),
		logger.String("request_id", requestID),
		logger.String("method", r.method),
		logger.String("endpoint", route),
		logger.Int("status", status),
		logger.Duration("duration", duration),
	}
	if err != nil {
		g.logger.Debug("запрос к бэкенду завершился ошибкой", append(fields, logger.String("error_type", errorType), logger.Error(err))...)
	} else {
		g.logger.Debug("запрос к бэкенду выполнен", fields...)
	}

	// подписчик узнает об отказе раньше вызывающего
	if errors.IsUnauthorized(err) {
		g.emitUnauthorized(token)
	}
	return err
}

func (g *Gateway) roundTrip(ctx context.Context, r request, requestID string, out interface{}) (int, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, r.method, g.baseURL+r.endpoint, r.body)
	if err != nil {
		return 0, "", errors.Wrap(err, errors.ErrInternal, "ошибка создания запроса")
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "FaceGuard-Console/"+g.version)
	httpReq.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}

	token := ""
	if !r.anonymous && g.tokens != nil {
		if t, ok := g.tokens.Get(); ok {
			token = t
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	credentialed := token != ""

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return 0, token, errors.Wrap(err, errors.ErrNetwork, "бэкенд недоступен")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, token, errors.Wrap(err, errors.ErrNetwork, "ошибка чтения ответа").WithStatus(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, token, errors.FromStatus(resp.StatusCode, parseDetail(data), credentialed)
	}

	if out == nil {
		return resp.StatusCode, token, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if resp.StatusCode == http.StatusNoContent {
			return resp.StatusCode, token, nil
		}
		return resp.StatusCode, token, errors.New(errors.ErrServer, "пустой ответ бэкенда").WithStatus(resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, token, errors.Wrap(err, errors.ErrServer, "неожиданный формат ответа").WithStatus(resp.StatusCode)
	}
	return resp.StatusCode, token, nil
}

func (g *Gateway) startSpan(ctx context.Context, method, route, requestID string) (context.Context, func(int, error)) {
	if g.metrics == nil {
		return ctx, func(int, error) {}
	}

	ctx, span := g.metrics.StartSpan(ctx, method, route)
	span.SetAttributes(attribute.String("request.id", requestID))
	return ctx, func(status int, err error) {
		if status != 0 {
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(errors.CodeOf(err)))
		}
		span.End()
	}
}

// fieldError - элемент списка ошибок валидации FastAPI
type fieldError struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// parseDetail извлекает сообщение бэкенда: detail строкой, detail списком
// ошибок полей или message
func parseDetail(data []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return detail
		}

		var list []fieldError
		if err := json.Unmarshal(body.Detail, &list); err == nil && len(list) > 0 {
			msgs := make([]string, 0, len(list))
			for _, item := range list {
				if len(item.Loc) > 1 {
					msgs = append(msgs, fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg))
				} else {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}

	return body.Message
}

// routeLabel заменяет числовые сегменты пути на {id} и отбрасывает query,
// чтобы метки метрик не разрастались
func routeLabel(endpoint string) string {
	path := endpoint
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
