package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/michaelwaves/astrosmurf/internal/config"
	"github.com/michaelwaves/astrosmurf/internal/domain"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

// Client talks to the fal.ai queue API: submit a job, poll its status URL
// until terminal, then fetch the response payload.
type Client struct {
	baseURL      string
	apiKey       string
	imageModel   string
	editModel    string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

var _ ports.MediaSynthesizer = (*Client)(nil)

// NewClient creates a reusable queue client.
func NewClient(cfg config.FalConfig, logger *slog.Logger) *Client {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		imageModel:   cfg.ImageModel,
		editModel:    cfg.EditModel,
		pollInterval: interval,
		httpClient:   &http.Client{},
		logger:       logger,
	}
}

type submitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type resultResponse struct {
	Images []struct {
		URL         string `json:"url"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ContentType string `json:"content_type"`
	} `json:"images"`
}

// TextToImage runs a plain generation job for a single prompt.
func (c *Client) TextToImage(ctx context.Context, prompt string) (domain.SynthesisResult, error) {
	return c.run(ctx, c.imageModel, map[string]any{"prompt": prompt})
}

// ImageEdit runs a persona-conditioned edit job: the prompt plus one
// reference image URL.
func (c *Client) ImageEdit(ctx context.Context, prompt, imageURL string) (domain.SynthesisResult, error) {
	return c.run(ctx, c.editModel, map[string]any{
		"prompt":     prompt,
		"image_urls": []string{imageURL},
	})
}

func (c *Client) run(ctx context.Context, model string, args map[string]any) (domain.SynthesisResult, error) {
	if c.apiKey == "" || c.baseURL == "" || model == "" {
		return domain.SynthesisResult{}, fmt.Errorf("fal client misconfigured")
	}

	var submitted submitResponse
	if err := c.call(ctx, http.MethodPost, c.baseURL+"/"+model, args, &submitted); err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("submit job: %w", err)
	}
	if submitted.StatusURL == "" || submitted.ResponseURL == "" {
		return domain.SynthesisResult{}, fmt.Errorf("submit job: malformed queue response")
	}

	if err := c.waitTerminal(ctx, submitted); err != nil {
		return domain.SynthesisResult{}, err
	}

	var result resultResponse
	if err := c.call(ctx, http.MethodGet, submitted.ResponseURL, nil, &result); err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("fetch result: %w", err)
	}

	out := domain.SynthesisResult{}
	for _, img := range result.Images {
		out.Items = append(out.Items, domain.MediaItem{
			URL:         img.URL,
			Width:       img.Width,
			Height:      img.Height,
			ContentType: img.ContentType,
		})
	}
	return out, nil
}

func (c *Client) waitTerminal(ctx context.Context, job submitResponse) error {
	for {
		var status statusResponse
		if err := c.call(ctx, http.MethodGet, job.StatusURL, nil, &status); err != nil {
			return fmt.Errorf("poll status: %w", err)
		}

		switch status.Status {
		case "COMPLETED":
			return nil
		case "FAILED", "CANCELLED":
			return fmt.Errorf("job %s terminated with status %s", job.RequestID, status.Status)
		}

		if c.logger != nil {
			c.logger.Debug("job pending", "request_id", job.RequestID, "status", status.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) call(ctx context.Context, method, url string, payload any, v any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("fal error %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
