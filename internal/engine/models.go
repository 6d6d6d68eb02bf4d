package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	vault_errors "imagevault/pkg/errors"
)

// Model is one background-removal model: it takes the original image bytes
// and returns a cutout with the background stripped, alpha channel included.
type Model interface {
	Cutout(ctx context.Context, original []byte) ([]byte, error)
}

// ModelFunc adapts a plain function to the Model interface.
type ModelFunc func(ctx context.Context, original []byte) ([]byte, error)

func (f ModelFunc) Cutout(ctx context.Context, original []byte) ([]byte, error) {
	return f(ctx, original)
}

// ModelInfo describes one supported model for API consumers.
type ModelInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// modelCatalog is the fixed set of supported models. Requests naming
// anything else are rejected before any processing starts.
var modelCatalog = []ModelInfo{
	{Name: "u2net", Description: "General purpose, good quality"},
	{Name: "u2netp", Description: "Lighter version of u2net"},
	{Name: "silueta", Description: "Good for people and portraits"},
	{Name: "isnet-general-use", Description: "High accuracy general use"},
}

// SupportedModels returns a copy of the model catalog.
func SupportedModels() []ModelInfo {
	out := make([]ModelInfo, len(modelCatalog))
	copy(out, modelCatalog)
	return out
}

// IsSupported reports whether name is in the model catalog.
func IsSupported(name string) bool {
	for _, m := range modelCatalog {
		if m.Name == name {
			return true
		}
	}
	return false
}

func supportedNames() string {
	names := make([]string, len(modelCatalog))
	for i, m := range modelCatalog {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}

// HTTPModel invokes a rembg-compatible inference server over HTTP. The image
// goes out as a multipart file upload with the model selected by query
// parameter; the response body is the processed image.
type HTTPModel struct {
	endpoint string
	model    string
	client   *http.Client
}

func NewHTTPModel(endpoint, model string, timeout time.Duration) *HTTPModel {
	return &HTTPModel{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

// HTTPModels builds one HTTPModel per catalog entry against the same server.
func HTTPModels(endpoint string, timeout time.Duration) map[string]Model {
	models := make(map[string]Model, len(modelCatalog))
	for _, info := range modelCatalog {
		models[info.Name] = NewHTTPModel(endpoint, info.Name, timeout)
	}
	return models
}

func (m *HTTPModel) Cutout(ctx context.Context, original []byte) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "image")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(original); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	target := m.endpoint
	if u, err := url.Parse(m.endpoint); err == nil {
		q := u.Query()
		q.Set("model", m.model)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: inference request: %v", vault_errors.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: inference server returned status %d", vault_errors.ErrExternalService, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
