package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/michaelwaves/astrosmurf/internal/ports"
)

// ErrRenderExhausted marks a run that failed every render attempt.
var ErrRenderExhausted = errors.New("render attempts exhausted")

var codeFenceExpr = regexp.MustCompile("(?s)```(?:python)?\\s*\\n(.*?)\\n```")

const sceneCodePromptTemplate = `Generate complete, executable Manim Python code to create an educational animation explaining this concept:

'%s'

Requirements:
- Create a Scene class that inherits from Scene
- Use Text() for regular text (NOT Tex()). Text() is faster and doesn't require LaTeX
- ONLY use MathTex() or Tex() for mathematical formulas and equations
- Use appropriate Manim shapes (Circle, Rectangle, Square, Arrow, Line, Dot, etc.)
- Include smooth animations (Write, FadeIn, FadeOut, Transform, Create, GrowArrow, etc.)
- Break down the concept into 3-5 clear visual steps
- Position elements using .to_edge(), .shift(), .next_to(), .move_to()
- Include self.wait() between major steps (0.5-1 second)
- Use FadeOut() or self.remove() to clean up previous content before showing new content
- Group related objects in VGroup() so they can be animated together
- Keep the scene clean and ensure the code is syntactically correct and ready to run
- The animation should be 10-30 seconds long
- Import only what you need: from manim import *

Return ONLY the Python code, no explanations.`

const sceneCodeSystem = `You are an expert in creating educational animations using Manim (Mathematical Animation Engine). You specialize in breaking down complex concepts into visual steps, using Text() for regular text and MathTex() only for mathematical notation, cleaning up content between steps with FadeOut(), and writing clean, executable Manim Community Edition code with proper Scene classes and construct() methods. Generate production-ready code that can be directly executed.`

// SceneOutput summarizes a successful animation sub-flow.
type SceneOutput struct {
	MediaURL  string
	LocalPath string
	ScenePath string
	Attempts  int
}

// SceneGenerator produces a rendered animation from extracted concepts:
// generate scene code, save it, render it, and upload the result. Each
// failed attempt regenerates fresh code since model output is
// non-deterministic.
type SceneGenerator struct {
	chat        ports.TextGenerator
	coderModel  string
	renderer    ports.SceneRenderer
	store       ports.ObjectStore
	codeDir     string
	maxAttempts int
	logger      *slog.Logger
}

// SceneGeneratorDeps wires the animation sub-flow collaborators.
type SceneGeneratorDeps struct {
	Chat        ports.TextGenerator
	CoderModel  string
	Renderer    ports.SceneRenderer
	Store       ports.ObjectStore
	CodeDir     string
	MaxAttempts int
	Logger      *slog.Logger
}

// NewSceneGenerator constructs the animation sub-flow.
func NewSceneGenerator(deps SceneGeneratorDeps) *SceneGenerator {
	maxAttempts := deps.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	codeDir := deps.CodeDir
	if codeDir == "" {
		codeDir = "manim/code"
	}
	return &SceneGenerator{
		chat:        deps.Chat,
		coderModel:  deps.CoderModel,
		renderer:    deps.Renderer,
		store:       deps.Store,
		codeDir:     codeDir,
		maxAttempts: maxAttempts,
		logger:      deps.Logger,
	}
}

// Produce runs the full generate-save-render sequence, retrying from scratch
// on failure up to the configured bound. Exhausting every attempt returns
// ErrRenderExhausted wrapping the last failure.
func (s *SceneGenerator) Produce(ctx context.Context, concepts []string) (SceneOutput, error) {
	summary := conceptSummary(concepts)

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		scenePath, videoPath, err := s.attempt(ctx, summary)
		if err != nil {
			lastErr = err
			if s.logger != nil {
				s.logger.Warn("render attempt failed",
					"attempt", attempt,
					"max_attempts", s.maxAttempts,
					"error", err,
				)
			}
			continue
		}

		mediaURL := s.upload(ctx, videoPath)
		if s.logger != nil {
			s.logger.Info("animation produced", "attempt", attempt, "video", videoPath)
		}
		return SceneOutput{
			MediaURL:  mediaURL,
			LocalPath: videoPath,
			ScenePath: scenePath,
			Attempts:  attempt,
		}, nil
	}

	return SceneOutput{}, fmt.Errorf("%w after %d attempts: %w", ErrRenderExhausted, s.maxAttempts, lastErr)
}

func (s *SceneGenerator) attempt(ctx context.Context, summary string) (scenePath, videoPath string, err error) {
	raw, err := s.chat.Complete(ctx, ports.ChatRequest{
		Model:       s.coderModel,
		System:      sceneCodeSystem,
		User:        fmt.Sprintf(sceneCodePromptTemplate, truncate(summary, maxConceptLength)),
		Temperature: 0.7,
		TopP:        0.8,
		MaxTokens:   4096,
		Stream:      true,
	})
	if err != nil {
		return "", "", fmt.Errorf("generate scene code: %w", err)
	}

	scenePath, err = s.saveSceneCode(ExtractPythonCode(raw))
	if err != nil {
		return "", "", err
	}

	videoPath, err = s.renderer.Render(ctx, scenePath)
	if err != nil {
		return scenePath, "", err
	}
	return scenePath, videoPath, nil
}

// upload pushes the rendered video to object storage; on failure the local
// render path is used as the media URL instead of aborting.
func (s *SceneGenerator) upload(ctx context.Context, videoPath string) string {
	if s.store == nil {
		return videoPath
	}
	url, err := s.store.Upload(ctx, videoPath)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("upload failed, falling back to local path", "video", videoPath, "error", err)
		}
		return videoPath
	}
	return url
}

func (s *SceneGenerator) saveSceneCode(code string) (string, error) {
	if err := os.MkdirAll(s.codeDir, 0o755); err != nil {
		return "", fmt.Errorf("create code dir: %w", err)
	}

	name := fmt.Sprintf("scene_%s_%s.py",
		time.Now().Format("20060102_150405"),
		uuid.NewString()[:8],
	)
	path := filepath.Join(s.codeDir, name)
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("write scene file: %w", err)
	}
	return path, nil
}

// ExtractPythonCode pulls the first fenced code block out of a model
// response, or returns the trimmed raw text when no fences are present.
func ExtractPythonCode(raw string) string {
	if match := codeFenceExpr.FindStringSubmatch(raw); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(raw)
}

func conceptSummary(concepts []string) string {
	var b strings.Builder
	for i, concept := range concepts {
		fmt.Fprintf(&b, "\n Concept %d: %s\n", i+1, concept)
	}
	return b.String()
}
