// Package producer клиент внешнего сервиса генерации учебного контента.
package producer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/tutor-platform/internal/metrics"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// ProducerError ошибка генерации: транспорт, статус ответа или формат тела.
type ProducerError struct {
	StatusCode int
	Err        error
}

func (e *ProducerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("producer: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("producer: %v", e.Err)
}

func (e *ProducerError) Unwrap() error {
	return e.Err
}

// Client вызывает сервис генерации. Повторов нет: один запрос на одну генерацию.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент сервиса генерации.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate запрашивает генерацию материала по запросу.
func (c *Client) Generate(ctx context.Context, req models.ContentRequest) (*models.ContentArtifact, error) {
	artifact, err := c.generate(ctx, req)
	if err != nil {
		metrics.ProducerRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ProducerRequestsTotal.WithLabelValues("ok").Inc()
	return artifact, nil
}

func (c *Client) generate(ctx context.Context, req models.ContentRequest) (*models.ContentArtifact, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return nil, &ProducerError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", &buf)
	if err != nil {
		return nil, &ProducerError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProducerError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProducerError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	var artifact models.ContentArtifact
	if err := json.NewDecoder(resp.Body).Decode(&artifact); err != nil {
		return nil, &ProducerError{StatusCode: resp.StatusCode, Err: err}
	}
	if artifact.Type == "" {
		artifact.Type = req.Type
	}
	return &artifact, nil
}
