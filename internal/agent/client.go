package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

const (
	// DefaultTimeout — таймаут одного вызова агента по умолчанию.
	DefaultTimeout = 60 * time.Second

	maxResponseBody = 10 * 1024 * 1024 // 10 MB
)

// Config — параметры клиента.
type Config struct {
	// BaseURL — адрес API агентов, например http://10.0.0.5/v1.
	BaseURL string

	// APIKey — значение заголовка Authorization.
	APIKey string

	// Timeout — таймаут одного вызова (по умолчанию 60s).
	Timeout time.Duration

	// HTTPClient — транспорт (по умолчанию http.Client без таймаута,
	// таймаут задаётся через контекст).
	HTTPClient *http.Client
}

// Request — данные одного вызова агента.
type Request struct {
	// Data — запись вместе со связанными коллекциями.
	Data json.RawMessage `json:"data"`

	// AdditionalAgent — AdditionalInput конфигурации pipeline.
	AdditionalAgent string `json:"additional_agent"`
}

// Response — ответ агента.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

type queryBody struct {
	Params Request `json:"params"`
}

// Client — AgentInvoker поверх HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// New создаёт клиент.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
	}
}

// Invoke отправляет запись агенту agentRef и ждёт ответа не дольше Timeout.
func (c *Client) Invoke(ctx context.Context, agentRef string, req Request) (*Response, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	if req.Data == nil {
		req.Data = json.RawMessage("{}")
	}
	payload, err := json.Marshal(queryBody{Params: req})
	if err != nil {
		return nil, fmt.Errorf("marshal agent request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, "/agents/"+url.PathEscape(agentRef)+"/query", payload)
	telemetry.AgentDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.AgentInvocations.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: agent %s: %w", ErrInvocationFailed, agentRef, err)
	}

	telemetry.AgentInvocations.WithLabelValues("success").Inc()
	return resp, nil
}

// ListAgents возвращает агентов, доступных во внешнем API.
//
// Принимает и голый массив, и обёртку {"data": [...]}.
func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/agents", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: list agents: %w", ErrInvocationFailed, err)
	}

	var agents []domain.Agent
	if err := json.Unmarshal(resp.Body, &agents); err == nil {
		return agents, nil
	}

	var wrapped struct {
		Data []domain.Agent `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: decode agents: %w", ErrInvocationFailed, err)
	}
	return wrapped.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(data, 256))
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
