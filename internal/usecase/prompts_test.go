package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/michaelwaves/astrosmurf/internal/ports"
)

func TestSynthesizePreservesOrder(t *testing.T) {
	t.Parallel()

	// Finish later calls first to prove order comes from the slot index,
	// not from completion order.
	chat := &fakeChat{respond: func(req ports.ChatRequest) (string, error) {
		switch {
		case strings.Contains(req.User, "alpha"):
			time.Sleep(30 * time.Millisecond)
			return "prompt for alpha", nil
		case strings.Contains(req.User, "beta"):
			time.Sleep(10 * time.Millisecond)
			return "prompt for beta", nil
		default:
			return "prompt for gamma", nil
		}
	}}
	synth := NewPromptSynthesizer(chat, "test-model", nil)

	prompts, err := synth.Synthesize(context.Background(), []string{"alpha", "beta", "gamma"}, "meme")
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if len(prompts) != 3 {
		t.Fatalf("expected 3 prompts, got %d", len(prompts))
	}
	for i, want := range []string{"prompt for alpha", "prompt for beta", "prompt for gamma"} {
		if prompts[i] != want {
			t.Fatalf("prompts[%d] = %q, want %q", i, prompts[i], want)
		}
	}
}

func TestSynthesizeFailedSlotIsEmptyNotOmitted(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{respond: func(req ports.ChatRequest) (string, error) {
		if strings.Contains(req.User, "cursed") {
			return "", errors.New("backend 500")
		}
		return "ok prompt", nil
	}}
	synth := NewPromptSynthesizer(chat, "test-model", nil)

	prompts, err := synth.Synthesize(context.Background(), []string{"fine", "cursed", "also fine"}, "meme")
	if err != nil {
		t.Fatalf("partial failure must not be an error, got %v", err)
	}
	if len(prompts) != 3 {
		t.Fatalf("index alignment broken: got %d prompts for 3 concepts", len(prompts))
	}
	if prompts[0] != "ok prompt" || prompts[2] != "ok prompt" {
		t.Fatalf("healthy slots corrupted: %v", prompts)
	}
	if prompts[1] != "" {
		t.Fatalf("failed slot should be empty, got %q", prompts[1])
	}
}

func TestSynthesizeBulkFailure(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{respond: func(ports.ChatRequest) (string, error) {
		return "", errors.New("network outage")
	}}
	synth := NewPromptSynthesizer(chat, "test-model", nil)

	_, err := synth.Synthesize(context.Background(), []string{"a", "b"}, "meme")
	if err == nil {
		t.Fatal("expected bulk failure error when every call fails")
	}
	if !strings.Contains(err.Error(), "network outage") {
		t.Fatalf("bulk error should carry the underlying cause, got %v", err)
	}
}

func TestSynthesizeTruncatesLongConcepts(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 2*maxConceptLength)
	chat := &fakeChat{respond: func(req ports.ChatRequest) (string, error) {
		if strings.Contains(req.User, strings.Repeat("x", maxConceptLength+1)) {
			t.Errorf("concept not truncated to %d chars", maxConceptLength)
		}
		return "p", nil
	}}
	synth := NewPromptSynthesizer(chat, "test-model", nil)

	if _, err := synth.Synthesize(context.Background(), []string{long}, "meme"); err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
}

func TestSynthesizeEmptyInput(t *testing.T) {
	t.Parallel()

	synth := NewPromptSynthesizer(&fakeChat{}, "test-model", nil)
	prompts, err := synth.Synthesize(context.Background(), nil, "meme")
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if len(prompts) != 0 {
		t.Fatalf("expected no prompts for no concepts, got %v", prompts)
	}
}
