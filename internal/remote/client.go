package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shaiso/Pipedeck/internal/domain"
	"github.com/shaiso/Pipedeck/internal/telemetry"
)

// Параметры ограниченного retry для read-операций.
const (
	readRetryAttempts = 3
	readRetryDelay    = 500 * time.Millisecond
)

// Client — HTTP-клиент для backend-сервиса пайплайна.
//
// Read-операции (листинг, схема, defaults) используют ограниченный retry
// на транспортные ошибки и 5xx. Операции контроллера (validate, execute,
// status, cancel) retry не используют: poll-цикл сам является повтором,
// а validate/execute повторяет пользователь.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для backend.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListStages возвращает каталог пайплайнов и этапов.
func (c *Client) ListStages(ctx context.Context) (*ListStagesResponse, error) {
	var out ListStagesResponse
	if err := c.getWithRetry(ctx, "list_stages", "/stages", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStageSchema возвращает схему конфигурации этапа.
func (c *Client) GetStageSchema(ctx context.Context, stage string) (*domain.StageSchema, error) {
	var out domain.StageSchema
	path := "/stages/" + url.PathEscape(stage) + "/config"
	if err := c.getWithRetry(ctx, "get_schema", path, &out); err != nil {
		return nil, err
	}
	if out.Stage == "" {
		out.Stage = stage
	}
	return &out, nil
}

// GetStageDefaults возвращает конфигурацию этапа "из коробки".
func (c *Client) GetStageDefaults(ctx context.Context, stage string) (map[string]any, error) {
	var out map[string]any
	path := "/stages/" + url.PathEscape(stage) + "/defaults"
	if err := c.getWithRetry(ctx, "get_defaults", path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate отправляет конфигурацию запуска на валидацию.
func (c *Client) Validate(ctx context.Context, req ValidateRequest) (*domain.ValidationResult, error) {
	var out domain.ValidationResult
	if err := c.doJSON(ctx, "validate", http.MethodPost, "/pipelines/validate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Execute запускает пайплайн.
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error) {
	var out ExecuteResponse
	if err := c.doJSON(ctx, "execute", http.MethodPost, "/pipelines/execute", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatus возвращает снимок состояния запуска.
func (c *Client) GetStatus(ctx context.Context, runID string) (*domain.StatusSnapshot, error) {
	var out domain.StatusSnapshot
	path := "/pipelines/" + url.PathEscape(runID) + "/status"
	if err := c.doJSON(ctx, "get_status", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel просит backend отменить запуск.
//
// Отмена кооперативная: backend переводит запуск в cancelled,
// а poll-цикл панели наблюдает переход на следующем тике.
func (c *Client) Cancel(ctx context.Context, runID string) (*CancelResponse, error) {
	var out CancelResponse
	path := "/pipelines/" + url.PathEscape(runID) + "/cancel"
	if err := c.doJSON(ctx, "cancel", http.MethodPost, path, map[string]any{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getWithRetry выполняет GET с ограниченным числом повторов.
// Повторяются только транспортные ошибки и 5xx.
func (c *Client) getWithRetry(ctx context.Context, op, path string, result any) error {
	var lastErr error

	for attempt := 1; attempt <= readRetryAttempts; attempt++ {
		err := c.doJSON(ctx, op, http.MethodGet, path, nil, result)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if attempt < readRetryAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(readRetryDelay):
			}
		}
	}

	return fmt.Errorf("after %d attempts: %w", readRetryAttempts, lastErr)
}

// doJSON выполняет запрос и декодирует JSON-ответ в result.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body, result any) error {
	start := time.Now()

	err := c.do(ctx, method, path, body, result)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	telemetry.ObserveBackendRequest(op, outcome, time.Since(start))

	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   string(msg),
		}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeResponse, err)
	}
	return nil
}

// StatusError — ошибка с HTTP-статусом backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

// Error реализует error.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Code, e.Body)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Code)
}

// Is позволяет errors.Is(err, ErrBackendStatus).
func (e *StatusError) Is(target error) bool {
	return target == ErrBackendStatus
}

// isRetryable возвращает true для ошибок, которые имеет смысл повторить:
// транспортные сбои и 5xx. Клиентские 4xx не повторяются.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	if errors.Is(err, ErrDecodeResponse) {
		return false
	}
	// Транспортная ошибка без HTTP-статуса.
	return true
}
