package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mcoot/communityportal/internal/api/apierr"
	"github.com/mcoot/communityportal/internal/middleware"
)

// Client is an HTTP client for the portal's JSON API
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	// onClientID is called when the server issues a new client id
	onClientID func(id string) error
	verbose    bool
}

// NewClient creates a new API client
func NewClient(baseURL, clientID string, onClientID func(id string) error) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		onClientID: onClientID,
	}
}

// ClientID returns the browser identity the client presents
func (c *Client) ClientID() string {
	return c.clientID
}

// APIError is an error response from the API
type APIError struct {
	Status int
	apierr.APIError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// IsCode reports whether err is an API error with the given code
func IsCode(err error, code string) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == code
}

// Do performs an HTTP request
func (c *Client) Do(method, path string, body, result any) error {
	return c.do(method, path, body, result, false)
}

func (c *Client) do(method, path string, body, result any, decodeAlways bool) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.addClientCookie(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.verbose {
		fmt.Fprintf(os.Stderr, "%s %s -> %d\n", method, path, resp.StatusCode)
	}

	if err := c.captureClientID(resp); err != nil {
		return err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp apierr.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return &APIError{Status: resp.StatusCode, APIError: errResp.Error}
		}
		if !decodeAlways {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

func (c *Client) addClientCookie(req *http.Request) {
	if c.clientID != "" {
		req.AddCookie(&http.Cookie{Name: middleware.ClientCookieName, Value: c.clientID})
	}
}

// captureClientID keeps the client id the server minted or replaced
func (c *Client) captureClientID(resp *http.Response) error {
	for _, cookie := range resp.Cookies() {
		if cookie.Name != middleware.ClientCookieName || cookie.Value == "" || cookie.Value == c.clientID {
			continue
		}
		c.clientID = cookie.Value
		if c.onClientID != nil {
			if err := c.onClientID(cookie.Value); err != nil {
				return fmt.Errorf("failed to save client id: %w", err)
			}
		}
	}
	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// PostResult performs a POST request whose body carries the outcome even on failure
func (c *Client) PostResult(path string, body, result any) error {
	return c.do(http.MethodPost, path, body, result, true)
}
