package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// TriggerResponse — состояние триггера.
type TriggerResponse struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Active  bool   `json:"active"`
	NextRun string `json:"next_run,omitempty"`
	PrevRun string `json:"prev_run,omitempty"`
}

// RunRequestResponse — принятый запрос на run.
type RunRequestResponse struct {
	RequestID   string `json:"request_id"`
	Source      string `json:"source"`
	RequestedAt string `json:"requested_at"`
}

// PipelineResponse — конфигурация pipeline.
type PipelineResponse struct {
	ID               string `json:"id"`
	WorkspaceID      string `json:"workspace_id"`
	ObjectMetadataID string `json:"object_metadata_id,omitempty"`
	ViewID           string `json:"view_id,omitempty"`
	FieldMetadataID  string `json:"field_metadata_id,omitempty"`
	ViewGroupID      string `json:"view_group_id,omitempty"`
	Agent            string `json:"agent"`
	WIPLimit         int    `json:"wip_limit"`
	AdditionalInput  string `json:"additional_input,omitempty"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// AgentResponse — агент внешнего API.
type AgentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// --- Request types ---

// LookupPipelineOpts — условия поиска конфигурации.
type LookupPipelineOpts struct {
	ObjectMetadataID string
	FieldMetadataID  string
	ViewGroupID      string
	ViewID           string
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Conveyor API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Trigger ---

// TriggerStatus возвращает состояние триггера.
func (c *Client) TriggerStatus() (*TriggerResponse, error) {
	var t TriggerResponse
	err := c.get("/api/v1/trigger", &t)
	return &t, err
}

// StartTrigger регистрирует триггер с cron-выражением pattern.
func (c *Client) StartTrigger(pattern string) (*TriggerResponse, error) {
	body := map[string]string{"pattern": pattern}
	var t TriggerResponse
	err := c.put("/api/v1/trigger", body, &t)
	return &t, err
}

// StopTrigger снимает регистрацию триггера.
func (c *Client) StopTrigger() (*TriggerResponse, error) {
	var t TriggerResponse
	err := c.doData(http.MethodDelete, "/api/v1/trigger", nil, &t)
	return &t, err
}

// --- Runs ---

// RunNow запрашивает внеочередной run.
func (c *Client) RunNow() (*RunRequestResponse, error) {
	var r RunRequestResponse
	err := c.post("/api/v1/runs", nil, &r)
	return &r, err
}

// --- Pipelines ---

// ListPipelines возвращает активные конфигурации.
func (c *Client) ListPipelines() ([]PipelineResponse, error) {
	var pipelines []PipelineResponse
	err := c.list("/api/v1/pipelines", nil, &pipelines)
	return pipelines, err
}

// LookupPipeline ищет конфигурацию по объекту, полю, стадии и view.
func (c *Client) LookupPipeline(opts LookupPipelineOpts) (*PipelineResponse, error) {
	params := url.Values{}
	if opts.ObjectMetadataID != "" {
		params.Set("object_metadata_id", opts.ObjectMetadataID)
	}
	if opts.FieldMetadataID != "" {
		params.Set("field_metadata_id", opts.FieldMetadataID)
	}
	if opts.ViewGroupID != "" {
		params.Set("view_group_id", opts.ViewGroupID)
	}
	if opts.ViewID != "" {
		params.Set("view_id", opts.ViewID)
	}

	path := "/api/v1/pipelines/lookup"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var p PipelineResponse
	err := c.get(path, &p)
	return &p, err
}

// --- Agents ---

// ListAgents возвращает агентов внешнего API.
func (c *Client) ListAgents() ([]AgentResponse, error) {
	var agents []AgentResponse
	err := c.list("/api/v1/agents", nil, &agents)
	return agents, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
