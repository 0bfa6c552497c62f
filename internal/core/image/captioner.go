package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/devmarkh/converso/internal/apperr"
	"github.com/devmarkh/converso/internal/core"
)

// BlipCaptioner sends raw image bytes to a hosted BLIP captioning model
// (Hugging Face inference API shape) and returns the generated description.
type BlipCaptioner struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewBlipCaptioner(apiURL, apiKey string) *BlipCaptioner {
	return &BlipCaptioner{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *BlipCaptioner) Caption(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(image))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: caption request: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: caption status %d", apperr.ErrUpstream, resp.StatusCode)
	}

	var out []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: caption decode: %v", apperr.ErrUpstream, err)
	}
	if len(out) == 0 || out[0].GeneratedText == "" {
		return "", fmt.Errorf("%w: caption model returned nothing", apperr.ErrUpstream)
	}
	return out[0].GeneratedText, nil
}

var _ core.Captioner = (*BlipCaptioner)(nil)
