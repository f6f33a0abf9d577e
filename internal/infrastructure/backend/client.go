package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"report_bridge/internal/domain/report"
	"report_bridge/internal/usecase/repository"

	"github.com/sirupsen/logrus"
)

const (
	reportsPath    = "/api/v1/reports"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client fetches report definitions from the SaaS backend.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

// NewClient создает клиент бэкенда отчетов.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// StatusError is returned for a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend http %d", e.StatusCode)
	}
	return fmt.Sprintf("backend http %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == repository.ErrSourceUnavailable
}

// List returns every report definition visible to this installation.
func (c *Client) List(ctx context.Context) ([]report.Definition, error) {
	var body struct {
		Reports []report.Definition `json:"reports"`
	}
	if err := c.get(ctx, reportsPath, &body); err != nil {
		return nil, err
	}
	if body.Reports == nil {
		body.Reports = []report.Definition{}
	}
	return body.Reports, nil
}

// Get returns one report definition. The backend may wrap it in {"report": ...}.
func (c *Client) Get(ctx context.Context, id string) (report.Definition, error) {
	var raw json.RawMessage
	if err := c.get(ctx, reportsPath+"/"+url.PathEscape(id), &raw); err != nil {
		return report.Definition{}, err
	}

	var wrapped struct {
		Report *report.Definition `json:"report"`
	}
	if err := decode(raw, &wrapped); err != nil {
		return report.Definition{}, fmt.Errorf("invalid report %s: %w", id, err)
	}
	if wrapped.Report != nil {
		return *wrapped.Report, nil
	}

	var def report.Definition
	if err := decode(raw, &def); err != nil {
		return report.Definition{}, fmt.Errorf("invalid report %s: %w", id, err)
	}
	return def, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrSourceUnavailable, err)
	}
	defer res.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"path":   path,
		"status": res.StatusCode,
	}).Debug("Backend response")

	if res.StatusCode == http.StatusNotFound {
		return repository.ErrReportNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &StatusError{StatusCode: res.StatusCode, Message: errorMessage(res.Body)}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", repository.ErrSourceUnavailable, err)
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = body
		return nil
	}
	return decode(body, out)
}

// decode keeps numbers as json.Number so integer defaults survive.
func decode(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

func errorMessage(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return strings.TrimSpace(string(body))
}
