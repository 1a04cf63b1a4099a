package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProxyResponse — привязка к прокси из admin API.
type ProxyResponse struct {
	OriginalHost  string `json:"original_host"`
	ProxyHost     string `json:"proxy_host"`
	RoutingHeader string `json:"routing_header"`
}

// BatchResponse — последний опубликованный батч.
type BatchResponse struct {
	BatchID        string `json:"batchId"`
	UserConfigPath string `json:"userConfigPath"`
	TestClassName  string `json:"testClassName"`
}

// StatusResponse — состояние бота из GET /status.
type StatusResponse struct {
	BotID       string         `json:"bot_id"`
	Service     string         `json:"service"`
	Proxy       *ProxyResponse `json:"proxy,omitempty"`
	Orders      []string       `json:"orders"`
	Paused      bool           `json:"paused"`
	PausedUntil *time.Time     `json:"paused_until,omitempty"`
	NextTick    *time.Time     `json:"next_tick,omitempty"`
	LastBatch   *BatchResponse `json:"last_batch,omitempty"`
	LockHeld    *bool          `json:"lock_held,omitempty"`
}

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client — HTTP-клиент admin API воркера.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Status возвращает состояние бота.
func (c *Client) Status() (*StatusResponse, error) {
	var status StatusResponse
	if err := c.get("/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health проверяет /healthz. Nil — воркер жив и подключён к шине.
func (c *Client) Health() error {
	resp, err := c.do(http.MethodGet, "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) get(path string, result any) error {
	resp, err := c.do(http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(dr.Data, result)
}

func (c *Client) do(method, path string) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.Error.Message != "" {
		return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
