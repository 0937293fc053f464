package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/michaelwaves/astrosmurf/internal/ports"
)

// maxConceptLength bounds the concept text embedded in each request.
const maxConceptLength = 500

const promptSystemTemplate = "You are an expert in creating detailed, creative prompts for text-to-image models that will generate engaging social media %s following the FLUX Prompt Framework: Subject + Action + Style + Context. Your prompts should use structured descriptions with enhancement layers: Visual Layer (lighting, color palette, composition), Technical Layer (camera settings, lens specs), and Atmospheric Layer (mood, emotional tone). Follow optimal prompt length (30-80 words) and prioritize elements by importance (front-load critical elements). Include specific text integration instructions when needed, placing text in quotation marks with clear placement and style descriptions."

// PromptSynthesizer fans one chat request out per concept and returns a
// prompt list aligned with the input.
type PromptSynthesizer struct {
	chat   ports.TextGenerator
	model  string
	logger *slog.Logger
}

// NewPromptSynthesizer wires the shared chat client and the model to use.
func NewPromptSynthesizer(chat ports.TextGenerator, model string, logger *slog.Logger) *PromptSynthesizer {
	return &PromptSynthesizer{chat: chat, model: model, logger: logger}
}

// Synthesize produces one style-conditioned generation prompt per concept.
// Output index i corresponds to concept i regardless of completion order.
// A failed call leaves an empty string in its slot; an error is returned
// only when every call failed.
func (s *PromptSynthesizer) Synthesize(ctx context.Context, concepts []string, style string) ([]string, error) {
	results := make([]string, len(concepts))
	errs := make([]error, len(concepts))

	// Plain errgroup, no shared cancellation: launched siblings run to
	// completion even when one fails.
	var g errgroup.Group
	for i, concept := range concepts {
		i, concept := i, concept
		g.Go(func() error {
			prompt, err := s.synthesizeOne(ctx, concept, style)
			if err != nil {
				errs[i] = err
				if s.logger != nil {
					s.logger.Warn("prompt synthesis failed", "concept_index", i, "error", err)
				}
				return nil
			}
			results[i] = prompt
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if len(concepts) > 0 && failed == len(concepts) {
		return results, fmt.Errorf("all %d prompt requests failed: %w", failed, firstError(errs))
	}
	return results, nil
}

func (s *PromptSynthesizer) synthesizeOne(ctx context.Context, concept, style string) (string, error) {
	user := fmt.Sprintf(
		"Create a detailed text-to-image prompt for a social media %s based on this concept: '%s'. Follow the FLUX framework structure and enhancement layers, with careful attention to word order (most important elements first).",
		style, truncate(concept, maxConceptLength),
	)

	return s.chat.Complete(ctx, ports.ChatRequest{
		Model:       s.model,
		System:      fmt.Sprintf(promptSystemTemplate, style),
		User:        user,
		Temperature: 0.6,
		TopP:        0.7,
		MaxTokens:   2048,
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
