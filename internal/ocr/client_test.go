package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableizer/api/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.OCRConfig{
		Endpoint: srv.URL,
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
	})
}

func TestEstimateColumns(t *testing.T) {
	image := []byte("fake image bytes")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/estimate", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req["image"])

		json.NewEncoder(w).Encode(map[string]int{"columns": 3})
	})

	columns, err := client.EstimateColumns(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, 3, columns)
}

func TestExtractTable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/extract", r.URL.Path)

		var req struct {
			Image    string `json:"image"`
			Columns  int    `json:"columns"`
			Language string `json:"language"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.Columns)
		assert.Equal(t, "en", req.Language)
		assert.NotEmpty(t, req.Image)

		json.NewEncoder(w).Encode(map[string]any{
			"cells": [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		})
	})

	tbl, err := client.ExtractTable(context.Background(), []byte("img"), 3, "en")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows())
	assert.Equal(t, 3, tbl.Columns())
}

func TestExtractTableRejectsBadColumnCount(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.ExtractTable(context.Background(), []byte("img"), 0, "")
	assert.ErrorIs(t, err, ErrColumnCount)
	assert.False(t, called, "no request may be made for an invalid column count")
}

func TestServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.EstimateColumns(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = client.ExtractTable(context.Background(), []byte("img"), 2, "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestExtractTableRejectsRaggedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"cells": [][]string{{"a", "b"}, {"c"}},
		})
	})

	_, err := client.ExtractTable(context.Background(), []byte("img"), 2, "")
	assert.Error(t, err)
}
