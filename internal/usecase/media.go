package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/michaelwaves/astrosmurf/internal/domain"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

// GeneratedMedia is one successful synthesis result, correlated back to the
// prompt index that produced it.
type GeneratedMedia struct {
	Index int
	URL   string
}

// MediaGenerator fans one synthesis request out per prompt and filters
// failed or malformed results.
type MediaGenerator struct {
	synth  ports.MediaSynthesizer
	logger *slog.Logger
}

// NewMediaGenerator wires the shared synthesis client.
func NewMediaGenerator(synth ports.MediaSynthesizer, logger *slog.Logger) *MediaGenerator {
	return &MediaGenerator{synth: synth, logger: logger}
}

// Generate runs plain text-to-image generation for every prompt.
func (m *MediaGenerator) Generate(ctx context.Context, prompts []string) []GeneratedMedia {
	return m.fanOut(ctx, prompts, func(ctx context.Context, prompt string) ([]string, error) {
		result, err := m.synth.TextToImage(ctx, prompt)
		if err != nil {
			return nil, err
		}
		return urls(result.Items), nil
	})
}

// GenerateWithPersona runs persona-conditioned edit generation: each prompt
// is paired with the persona's reference image.
func (m *MediaGenerator) GenerateWithPersona(ctx context.Context, prompts []string, personaImageURL string) []GeneratedMedia {
	return m.fanOut(ctx, prompts, func(ctx context.Context, prompt string) ([]string, error) {
		result, err := m.synth.ImageEdit(ctx, prompt, personaImageURL)
		if err != nil {
			return nil, err
		}
		return urls(result.Items), nil
	})
}

// fanOut launches one request per prompt, waits for all of them, and keeps
// only results that produced at least one media item. Output preserves
// prompt order; a failing slot never aborts its siblings.
func (m *MediaGenerator) fanOut(ctx context.Context, prompts []string, generate func(context.Context, string) ([]string, error)) []GeneratedMedia {
	slots := make([]*GeneratedMedia, len(prompts))

	var g errgroup.Group
	for i, prompt := range prompts {
		i, prompt := i, prompt
		g.Go(func() error {
			mediaURLs, err := generate(ctx, prompt)
			if err != nil {
				if m.logger != nil {
					m.logger.Warn("media generation failed", "prompt_index", i, "error", err)
				}
				return nil
			}
			if len(mediaURLs) == 0 || mediaURLs[0] == "" {
				if m.logger != nil {
					m.logger.Warn("media generation returned no items", "prompt_index", i)
				}
				return nil
			}
			slots[i] = &GeneratedMedia{Index: i, URL: mediaURLs[0]}
			return nil
		})
	}
	_ = g.Wait()

	var out []GeneratedMedia
	for _, slot := range slots {
		if slot != nil {
			out = append(out, *slot)
		}
	}
	return out
}

func urls(items []domain.MediaItem) []string {
	var out []string
	for _, item := range items {
		out = append(out, item.URL)
	}
	return out
}
