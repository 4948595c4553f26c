package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"xdigest/pkg/config"
	"xdigest/pkg/errors"
	"xdigest/pkg/logger"
)

// Client fetches home timeline pages from the API proxy
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	path       string
	logger     logger.Logger
}

// NewClient creates a client for the configured proxy. Empty credentials
// are a config error and no client is returned.
func NewClient(cfg config.APIConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	authToken := strings.TrimSpace(cfg.AuthToken)
	if apiKey == "" || authToken == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "api key and auth token are required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	path := cfg.TimelinePath
	if path == "" {
		path = config.DefaultTimelinePath
	}

	headers := map[string]string{
		"apikey":       apiKey,
		"AuthToken":    authToken,
		"Content-Type": "application/json",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		headers:    headers,
		baseURL:    baseURL,
		path:       path,
		logger:     log,
	}, nil
}

// SetHeader sets a custom header for every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchPage performs exactly one request for the page after cursor.
// An empty cursor requests the first page. Transport, decode and
// upstream-error failures are returned as *errors.Error values for which
// errors.IsFetchFailure holds.
func (c *Client) FetchPage(ctx context.Context, cursor Cursor) (*Page, error) {
	pageURL, err := PageURL(c.baseURL, c.path, cursor)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, err, "build page url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      c.path,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "request timeline page")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	logger.LogRequest(c.logger, req.Method, c.path, resp.StatusCode, time.Since(start))
	if err != nil {
		e := errors.Wrap(errors.ErrorTypeNetwork, err, "read response body")
		e.Code = resp.StatusCode
		return nil, e
	}

	var decoded Response
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.ErrorWithFields("failed to parse timeline response", map[string]interface{}{
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview(body, 200),
		})
		e := errors.Wrap(errors.ErrorTypeParsing, err, "decode timeline response")
		e.Code = resp.StatusCode
		return nil, e
	}

	if decoded.Data == nil && len(decoded.Errors) > 0 {
		first := decoded.Errors[0]
		c.logger.WarnWithFields("upstream returned errors", map[string]interface{}{
			"status":     resp.StatusCode,
			"api_code":   first.Code,
			"message":    first.Message,
			"num_errors": len(decoded.Errors),
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeAPI,
			Message: fmt.Sprintf("upstream error %d: %s", first.Code, first.Message),
			Code:    resp.StatusCode,
		}
	}
	if len(decoded.Errors) > 0 {
		c.logger.WarnWithFields("partial upstream errors alongside data", map[string]interface{}{
			"message": decoded.Errors[0].Message,
		})
	}

	page := NewPage(&decoded)
	c.logger.DebugWithFields("decoded timeline page", map[string]interface{}{
		"entries": len(page.Entries),
		"cursor":  string(cursor),
	})
	return page, nil
}

func preview(body []byte, n int) string {
	s := string(body)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
