package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIClient provides methods to interact with the zoo API server.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a client for the server configured in viper.
func NewAPIClient() *APIClient {
	server := viper.GetString("server")
	if server == "" {
		server = "http://localhost:8080"
	}

	return &APIClient{
		baseURL:    strings.TrimSuffix(server, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is returned for non-2xx responses.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// doRequest performs an HTTP request, encoding body as JSON when set.
func (c *APIClient) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		reader = &buf
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// Get performs a GET request.
func (c *APIClient) Get(path string) (*http.Response, error) {
	return c.doRequest(http.MethodGet, path, nil)
}

// Post performs a POST request with JSON body.
func (c *APIClient) Post(path string, body interface{}) (*http.Response, error) {
	return c.doRequest(http.MethodPost, path, body)
}

// Put performs a PUT request with JSON body.
func (c *APIClient) Put(path string, body interface{}) (*http.Response, error) {
	return c.doRequest(http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *APIClient) Delete(path string) (*http.Response, error) {
	return c.doRequest(http.MethodDelete, path, nil)
}

// HandleResponse checks the status code and decodes the JSON body into v.
// Error responses are returned as *apiError carrying the server's message.
func (c *APIClient) HandleResponse(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		msg := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
			msg = payload.Error
			if payload.Message != "" {
				msg += ": " + payload.Message
			}
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
