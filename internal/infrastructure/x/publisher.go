package x

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dghubble/oauth1"

	"github.com/michaelwaves/astrosmurf/internal/config"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

const (
	defaultUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	defaultTweetURL  = "https://api.twitter.com/2/tweets"
)

// Publisher posts generated media to X: download the stored artifact, upload
// it through the v1.1 media endpoint, then create a v2 post referencing the
// uploaded media id.
type Publisher struct {
	signed    *http.Client
	download  *http.Client
	uploadURL string
	tweetURL  string
}

var _ ports.SocialPublisher = (*Publisher)(nil)

// NewPublisher builds an OAuth1-signed client from configuration.
func NewPublisher(cfg config.XConfig) *Publisher {
	oauthCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)

	return &Publisher{
		signed:    oauthCfg.Client(oauth1.NoContext, token),
		download:  &http.Client{},
		uploadURL: defaultUploadURL,
		tweetURL:  defaultTweetURL,
	}
}

// PublishMedia posts text with the media at mediaURL attached and returns
// the created post id.
func (p *Publisher) PublishMedia(ctx context.Context, mediaURL, text string) (string, error) {
	blob, err := p.fetchMedia(ctx, mediaURL)
	if err != nil {
		return "", fmt.Errorf("fetch media: %w", err)
	}

	mediaID, err := p.uploadMedia(ctx, blob)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}

	postID, err := p.createPost(ctx, text, mediaID)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return postID, nil
}

func (p *Publisher) fetchMedia(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := p.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (p *Publisher) uploadMedia(ctx context.Context, blob []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(blob); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.signed.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload error %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if parsed.MediaIDString == "" {
		return "", fmt.Errorf("upload response missing media id")
	}
	return parsed.MediaIDString, nil
}

func (p *Publisher) createPost(ctx context.Context, text, mediaID string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"text": text,
		"media": map[string]any{
			"media_ids": []string{mediaID},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tweetURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.signed.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("post error %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode post response: %w", err)
	}
	if parsed.Data.ID == "" {
		return "", fmt.Errorf("post response missing id")
	}
	return parsed.Data.ID, nil
}
