package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/michaelwaves/astrosmurf/internal/domain"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

func TestImageFlowFiltersBlankPromptsKeepsConcepts(t *testing.T) {
	t.Parallel()

	// The middle concept fails prompt synthesis; its slot is blank and must
	// be filtered while later concepts keep their pairing.
	chat := &fakeChat{respond: func(req ports.ChatRequest) (string, error) {
		if strings.Contains(req.User, "broken") {
			return "", errors.New("backend error")
		}
		return "prompt", nil
	}}
	synth := &fakeSynth{respond: func(prompt string) (domain.SynthesisResult, error) {
		return imageResult("https://cdn/" + prompt + ".png"), nil
	}}
	flow := NewImageFlow(
		NewPromptSynthesizer(chat, "m", nil),
		NewMediaGenerator(synth, nil),
		nil,
	)

	artifacts, err := flow.Produce(context.Background(), FlowInput{
		Concepts: []string{"first", "broken", "third"},
		Style:    "meme",
	})
	if err != nil {
		t.Fatalf("Produce error: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].Concept != "first" || artifacts[1].Concept != "third" {
		t.Fatalf("concept pairing lost after blank filtering: %+v", artifacts)
	}
	for _, a := range artifacts {
		if a.MediaType != domain.MediaTypeImage {
			t.Fatalf("image flow must emit image artifacts, got %q", a.MediaType)
		}
	}
}

func TestImageFlowNoPrompts(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{respond: func(ports.ChatRequest) (string, error) {
		return "   ", nil
	}}
	synth := &fakeSynth{respond: func(string) (domain.SynthesisResult, error) {
		t.Error("generation must not run without usable prompts")
		return domain.SynthesisResult{}, nil
	}}
	flow := NewImageFlow(NewPromptSynthesizer(chat, "m", nil), NewMediaGenerator(synth, nil), nil)

	_, err := flow.Produce(context.Background(), FlowInput{Concepts: []string{"a"}, Style: "meme"})
	if !errors.Is(err, ErrNoPrompts) {
		t.Fatalf("expected ErrNoPrompts, got %v", err)
	}
}

func TestImageFlowNoMedia(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{respond: func(ports.ChatRequest) (string, error) {
		return "prompt", nil
	}}
	synth := &fakeSynth{respond: func(string) (domain.SynthesisResult, error) {
		return domain.SynthesisResult{}, errors.New("all generation failed")
	}}
	flow := NewImageFlow(NewPromptSynthesizer(chat, "m", nil), NewMediaGenerator(synth, nil), nil)

	_, err := flow.Produce(context.Background(), FlowInput{Concepts: []string{"a", "b"}, Style: "meme"})
	if !errors.Is(err, ErrNoMedia) {
		t.Fatalf("expected ErrNoMedia, got %v", err)
	}
}

func TestImageFlowUsesPersonaVariant(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{respond: func(ports.ChatRequest) (string, error) {
		return "prompt", nil
	}}
	synth := &fakeSynth{respond: func(string) (domain.SynthesisResult, error) {
		return imageResult("https://cdn/out.png"), nil
	}}
	flow := NewImageFlow(NewPromptSynthesizer(chat, "m", nil), NewMediaGenerator(synth, nil), nil)

	_, err := flow.Produce(context.Background(), FlowInput{
		Concepts:        []string{"a"},
		Style:           "meme",
		PersonaImageURL: "https://cdn/persona.png",
	})
	if err != nil {
		t.Fatalf("Produce error: %v", err)
	}
	if len(synth.editCalls) != 1 || synth.editCalls[0] != "https://cdn/persona.png" {
		t.Fatalf("persona input must route through image edit, got %v", synth.editCalls)
	}
}

func TestManimFlowEmitsSingleVideoArtifact(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{respond: func(int, string) (string, error) {
		return "/tmp/out/Demo.mp4", nil
	}}
	flow := NewManimFlow(NewSceneGenerator(SceneGeneratorDeps{
		Chat:     sceneChat(),
		Renderer: renderer,
		CodeDir:  t.TempDir(),
	}))

	artifacts, err := flow.Produce(context.Background(), FlowInput{Concepts: []string{"alpha", "beta"}})
	if err != nil {
		t.Fatalf("Produce error: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("the animation flow yields one artifact, got %d", len(artifacts))
	}
	a := artifacts[0]
	if a.MediaType != domain.MediaTypeVideo {
		t.Fatalf("expected video artifact, got %q", a.MediaType)
	}
	if a.Concept != "alpha\nbeta" {
		t.Fatalf("concept field should join inputs, got %q", a.Concept)
	}
	if a.MediaURL != "/tmp/out/Demo.mp4" {
		t.Fatalf("unexpected media url %q", a.MediaURL)
	}
}
