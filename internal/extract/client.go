// Package extract implements the client for the external receipt
// recognition service.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/veranek/receiptwise/internal/common"
	"github.com/veranek/receiptwise/internal/model"
)

// Client sends a receipt image to the recognition endpoint and parses the
// structured draft it returns. One request per user action; the caller
// re-enters the pipeline on failure rather than retrying here.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// Config holds the extraction endpoint settings.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// draftResponse is the service's success body. Every field is optional;
// absent fields decode to "".
type draftResponse struct {
	Vendor   string `json:"vendor"`
	Total    string `json:"total"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

// NewClient creates a new extraction client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: extraction endpoint", common.ErrMissingConfig)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Extract sends the image and the known category names as one multipart
// request and returns the parsed draft. Any transport failure or
// non-success status resolves uniformly to ErrExtractionFailed with no
// partial draft.
func (c *Client) Extract(ctx context.Context, artifact model.ImageArtifact, knownCategories []string) (model.Draft, error) {
	body, contentType, err := encodeRequest(artifact, knownCategories)
	if err != nil {
		return model.Draft{}, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return model.Draft{}, fmt.Errorf("%w: failed to create request: %v", common.ErrExtractionFailed, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "apikey "+c.apiKey)
	}

	slog.Debug("Requesting receipt extraction",
		"endpoint", c.endpoint,
		"image_bytes", len(artifact.Data),
		"categories", len(knownCategories))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Draft{}, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return model.Draft{}, fmt.Errorf("%w: status %d - %s", common.ErrExtractionFailed, resp.StatusCode, string(detail))
	}

	var parsed draftResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return model.Draft{}, fmt.Errorf("%w: failed to decode response: %v", common.ErrExtractionFailed, err)
	}

	// Fields absent from the response stay "", so the confirmation editor
	// always has a defined value to render.
	draft := model.Draft{
		Vendor:   parsed.Vendor,
		Total:    parsed.Total,
		Category: parsed.Category,
		Date:     parsed.Date,
	}

	slog.Debug("Extraction succeeded",
		"vendor", draft.Vendor,
		"category", draft.Category)
	return draft, nil
}

// encodeRequest builds the multipart body: field "file" with the binary
// image and field "categories" with a JSON-encoded array of names.
func encodeRequest(artifact model.ImageArtifact, knownCategories []string) (*bytes.Buffer, string, error) {
	if knownCategories == nil {
		knownCategories = []string{}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, artifact.Name))
	if artifact.ContentType != "" {
		header.Set("Content-Type", artifact.ContentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write image: %w", err)
	}

	names, err := json.Marshal(knownCategories)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode categories: %w", err)
	}
	if err := writer.WriteField("categories", string(names)); err != nil {
		return nil, "", fmt.Errorf("failed to write categories field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize body: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
