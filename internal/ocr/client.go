// Package ocr talks to the external table-recognition API. The caller hands
// over raw image bytes; the client base64-encodes them on the wire.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"tableizer/api/internal/config"
	"tableizer/api/internal/table"
)

var (
	ErrColumnCount = errors.New("column count must be at least 1")
	ErrUnavailable = errors.New("ocr service unavailable")
)

// Extractor is the view of the OCR service the orchestrators depend on.
type Extractor interface {
	EstimateColumns(ctx context.Context, image []byte) (int, error)
	ExtractTable(ctx context.Context, image []byte, columns int, language string) (table.Table, error)
}

type Client struct {
	cfg        config.OCRConfig
	httpClient *http.Client
}

func NewClient(cfg config.OCRConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type estimateRequest struct {
	Image string `json:"image"`
}

type estimateResponse struct {
	Columns int `json:"columns"`
}

// EstimateColumns asks the service for a best-effort column count of the
// table in the image.
func (c *Client) EstimateColumns(ctx context.Context, image []byte) (int, error) {
	req := estimateRequest{Image: base64.StdEncoding.EncodeToString(image)}

	var resp estimateResponse
	if err := c.post(ctx, "/v1/estimate", req, &resp); err != nil {
		return 0, err
	}
	if resp.Columns < 1 {
		return 0, fmt.Errorf("estimate returned %d columns", resp.Columns)
	}
	return resp.Columns, nil
}

type extractRequest struct {
	Image    string `json:"image"`
	Columns  int    `json:"columns"`
	Language string `json:"language,omitempty"`
}

type extractResponse struct {
	Cells [][]string `json:"cells"`
}

// ExtractTable runs full extraction with a confirmed column count and an
// optional language hint. Column counts below 1 are rejected before any call
// is made.
func (c *Client) ExtractTable(ctx context.Context, image []byte, columns int, language string) (table.Table, error) {
	if columns < 1 {
		return table.Table{}, ErrColumnCount
	}

	req := extractRequest{
		Image:    base64.StdEncoding.EncodeToString(image),
		Columns:  columns,
		Language: language,
	}

	var resp extractResponse
	if err := c.post(ctx, "/v1/extract", req, &resp); err != nil {
		return table.Table{}, err
	}

	t := table.Table{Cells: resp.Cells}
	if err := t.Validate(); err != nil {
		return table.Table{}, fmt.Errorf("ocr response: %w", err)
	}
	return t, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
