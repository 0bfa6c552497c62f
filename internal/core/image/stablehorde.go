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

const clientAgent = "converso-backend"

// HordeClient talks to the Stable Horde asynchronous image-generation API:
// submit a job, then poll its status until the image URL is ready.
type HordeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	pollInterval time.Duration
	maxPolls     int
}

func NewHordeClient(baseURL, apiKey string) *HordeClient {
	return &HordeClient{
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: 5 * time.Second,
		maxPolls:     60,
	}
}

type hordeSubmitRequest struct {
	Prompt string            `json:"prompt"`
	Params hordeSubmitParams `json:"params"`
}

type hordeSubmitParams struct {
	N      int `json:"n"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type hordeSubmitResponse struct {
	ID string `json:"id"`
}

type hordeStatusResponse struct {
	Done        bool `json:"done"`
	Generations []struct {
		Img string `json:"img"`
	} `json:"generations"`
}

// Generate submits the prompt and blocks until the image is ready, the poll
// budget runs out, or ctx is cancelled.
func (c *HordeClient) Generate(ctx context.Context, prompt string) (string, error) {
	id, err := c.submit(ctx, prompt)
	if err != nil {
		return "", err
	}
	return c.poll(ctx, id)
}

func (c *HordeClient) submit(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(hordeSubmitRequest{
		Prompt: prompt,
		Params: hordeSubmitParams{N: 1, Width: 512, Height: 512},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate/async", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-Agent", clientAgent)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: horde submit: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	// The horde answers 202 Accepted when the job is queued.
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("%w: horde submit status %d", apperr.ErrUpstream, resp.StatusCode)
	}

	var out hordeSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.ID == "" {
		return "", fmt.Errorf("%w: horde submit: unusable response", apperr.ErrUpstream)
	}
	return out.ID, nil
}

func (c *HordeClient) poll(ctx context.Context, id string) (string, error) {
	for attempt := 0; attempt < c.maxPolls; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/generate/status/"+id, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Client-Agent", clientAgent)
		req.Header.Set("apikey", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("%w: horde poll: %v", apperr.ErrUpstream, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return "", fmt.Errorf("%w: horde poll status %d", apperr.ErrUpstream, resp.StatusCode)
		}

		var status hordeStatusResponse
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("%w: horde poll: %v", apperr.ErrUpstream, err)
		}

		if status.Done && len(status.Generations) > 0 {
			return status.Generations[0].Img, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return "", fmt.Errorf("%w: image generation timed out", apperr.ErrUpstream)
}

var _ core.ImageGenerator = (*HordeClient)(nil)
