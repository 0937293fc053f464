package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/michaelwaves/astrosmurf/internal/domain"
)

// FlowInput carries everything a media flow needs for one run.
type FlowInput struct {
	Concepts        []string
	Style           string
	PersonaImageURL string
}

// FlowArtifact is one media artifact produced by a flow, still correlated
// to the concept that seeded it.
type FlowArtifact struct {
	Concept   string
	Prompt    string
	MediaType string
	MediaURL  string
}

// Flow produces media artifacts for one pipeline run. Image styles share a
// single flow; the animation style has its own.
type Flow interface {
	Name() string
	Produce(ctx context.Context, in FlowInput) ([]FlowArtifact, error)
}

// FlowRegistry maps style names to their flow. Styles without a dedicated
// flow fall back to the image flow, which conditions its prompts on the
// style string.
type FlowRegistry struct {
	flows    map[string]Flow
	fallback Flow
}

// NewFlowRegistry builds a registry with the given fallback flow.
func NewFlowRegistry(fallback Flow) *FlowRegistry {
	return &FlowRegistry{flows: map[string]Flow{}, fallback: fallback}
}

// Register adds or replaces a flow under its name.
func (r *FlowRegistry) Register(flow Flow) {
	if r.flows == nil {
		r.flows = map[string]Flow{}
	}
	r.flows[flow.Name()] = flow
}

// Resolve returns the flow for a style, or the fallback.
func (r *FlowRegistry) Resolve(style string) Flow {
	if flow, ok := r.flows[style]; ok {
		return flow
	}
	return r.fallback
}

// ImageFlow is the default flow: synthesize one prompt per concept, fan out
// to the image backend, and keep concept correlation through both filters.
type ImageFlow struct {
	prompts *PromptSynthesizer
	media   *MediaGenerator
	logger  *slog.Logger
}

// NewImageFlow wires the prompt and media stages.
func NewImageFlow(prompts *PromptSynthesizer, media *MediaGenerator, logger *slog.Logger) *ImageFlow {
	return &ImageFlow{prompts: prompts, media: media, logger: logger}
}

// Name identifies the flow inside the registry.
func (f *ImageFlow) Name() string {
	return "image"
}

// Produce runs stages 3 and 4: prompts, blank filtering, generation.
func (f *ImageFlow) Produce(ctx context.Context, in FlowInput) ([]FlowArtifact, error) {
	prompts, err := f.prompts.Synthesize(ctx, in.Concepts, in.Style)
	if err != nil {
		return nil, err
	}

	// Discard blank slots while keeping each prompt tied to its concept.
	var (
		keptPrompts  []string
		keptConcepts []string
	)
	for i, prompt := range prompts {
		if strings.TrimSpace(prompt) == "" {
			continue
		}
		keptPrompts = append(keptPrompts, prompt)
		keptConcepts = append(keptConcepts, in.Concepts[i])
	}
	if len(keptPrompts) == 0 {
		return nil, ErrNoPrompts
	}

	var results []GeneratedMedia
	if in.PersonaImageURL != "" {
		results = f.media.GenerateWithPersona(ctx, keptPrompts, in.PersonaImageURL)
	} else {
		results = f.media.Generate(ctx, keptPrompts)
	}
	if len(results) == 0 {
		return nil, ErrNoMedia
	}

	artifacts := make([]FlowArtifact, 0, len(results))
	for _, result := range results {
		artifacts = append(artifacts, FlowArtifact{
			Concept:   keptConcepts[result.Index],
			Prompt:    keptPrompts[result.Index],
			MediaType: domain.MediaTypeImage,
			MediaURL:  result.URL,
		})
	}
	return artifacts, nil
}

// ManimFlow replaces generation with the animation sub-flow: scene code from
// the concepts, rendered by the external renderer.
type ManimFlow struct {
	scene *SceneGenerator
}

// NewManimFlow wires the scene generator.
func NewManimFlow(scene *SceneGenerator) *ManimFlow {
	return &ManimFlow{scene: scene}
}

// Name identifies the flow inside the registry.
func (f *ManimFlow) Name() string {
	return "manim"
}

// Produce renders one video artifact covering all concepts.
func (f *ManimFlow) Produce(ctx context.Context, in FlowInput) ([]FlowArtifact, error) {
	out, err := f.scene.Produce(ctx, in.Concepts)
	if err != nil {
		return nil, err
	}

	return []FlowArtifact{{
		Concept:   strings.Join(in.Concepts, "\n"),
		Prompt:    truncate(conceptSummary(in.Concepts), maxConceptLength),
		MediaType: domain.MediaTypeVideo,
		MediaURL:  out.MediaURL,
	}}, nil
}
