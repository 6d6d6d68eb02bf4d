package caption

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"imagevault/pkg/logger"
)

// DefaultTimeout bounds a single captioning request. The call is best
// effort; unrelated requests must never wait on a slow caption service.
const DefaultTimeout = 30 * time.Second

type request struct {
	Image string `json:"image"`
	Model string `json:"model"`
}

type response struct {
	Caption string `json:"caption"`
}

// Client calls an external CLIP-interrogation service to generate an image
// description. Every failure mode collapses to "no caption": connection
// errors, timeouts, non-2xx statuses, and empty captions all leave the
// description unset without failing the upload.
type Client struct {
	endpoint string
	http     *http.Client
	log      *logger.Logger
}

func New(endpoint string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Caption returns the generated caption and true, or "" and false when no
// caption could be obtained. It never returns an error.
func (c *Client) Caption(ctx context.Context, imageData []byte) (string, bool) {
	if c.endpoint == "" || len(imageData) == 0 {
		return "", false
	}

	payload, err := json.Marshal(request{
		Image: "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageData),
		Model: "clip",
	})
	if err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", false
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.warnf("caption request failed: %v", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.warnf("caption service returned status %d", resp.StatusCode)
		return "", false
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.warnf("caption response undecodable: %v", err)
		return "", false
	}

	caption := strings.TrimSpace(body.Caption)
	if caption == "" {
		return "", false
	}
	return caption, true
}

func (c *Client) warnf(template string, args ...interface{}) {
	if c.log != nil {
		c.log.Warnf(template, args...)
	}
}
