package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/michaelwaves/astrosmurf/internal/domain"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

// Empty-result aborts. These terminate a run without persisting anything
// and are reported as structured failures, not server errors.
var (
	ErrNoConcepts = errors.New("no concepts extracted")
	ErrNoPrompts  = errors.New("no usable prompts")
	ErrNoMedia    = errors.New("no media generated")
)

// SourceDirectInput marks articles submitted as literal text.
const SourceDirectInput = "direct input"

// Extractor derives ordered concepts from article text.
type Extractor interface {
	Extract(ctx context.Context, articleText string) ([]string, error)
}

// Request describes one pipeline run.
type Request struct {
	Source    string
	Text      string
	Style     string
	UserID    *int64
	PersonaID *int64
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Fetcher   ports.ArticleFetcher
	Extractor Extractor
	Flows     *FlowRegistry
	Articles  ports.ArticleRepository
	Media     ports.MediaRepository
	Personas  ports.PersonaRepository
	Logger    *slog.Logger
}

// Pipeline implements the article-to-media fan-out workflow. It holds no
// state between runs; every invocation is independent and re-running the
// same source creates a fresh article and media set.
type Pipeline struct {
	fetcher   ports.ArticleFetcher
	extractor Extractor
	flows     *FlowRegistry
	articles  ports.ArticleRepository
	media     ports.MediaRepository
	personas  ports.PersonaRepository
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		flows:     deps.Flows,
		articles:  deps.Articles,
		media:     deps.Media,
		personas:  deps.Personas,
		logger:    deps.Logger,
	}
}

// Run orchestrates fetch, concept extraction, media production, and
// persistence. The article is created only after media production succeeds;
// per-row media insert failures are logged and excluded from the summary
// without aborting the remaining inserts.
func (p *Pipeline) Run(ctx context.Context, req Request) (*domain.RunResult, error) {
	source, text, err := p.resolveText(ctx, req)
	if err != nil {
		return nil, err
	}

	concepts, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract concepts: %w", err)
	}
	if len(concepts) == 0 {
		return nil, ErrNoConcepts
	}
	p.logger.Info("concepts extracted", "count", len(concepts), "style", req.Style)

	in := FlowInput{Concepts: concepts, Style: req.Style}
	if req.PersonaID != nil {
		persona, err := p.personas.GetByID(ctx, *req.PersonaID)
		if err != nil {
			return nil, fmt.Errorf("load persona %d: %w", *req.PersonaID, err)
		}
		in.PersonaImageURL = persona.ImageURL
	}

	artifacts, err := p.flows.Resolve(req.Style).Produce(ctx, in)
	if err != nil {
		return nil, err
	}

	articleID, err := p.articles.Create(ctx, source, strings.Join(concepts, "\n"), req.UserID)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	result := &domain.RunResult{ArticleID: articleID}
	for _, artifact := range artifacts {
		mediaID, err := p.media.Insert(ctx, domain.Media{
			ArticleID: articleID,
			Prompt:    artifact.Prompt,
			Style:     req.Style,
			MediaType: artifact.MediaType,
			MediaURL:  artifact.MediaURL,
		})
		if err != nil {
			p.logger.Error("persist media entry failed", "article_id", articleID, "error", err)
			continue
		}
		result.Entries = append(result.Entries, domain.MediaEntry{
			MediaID:  mediaID,
			MediaURL: artifact.MediaURL,
			Concept:  artifact.Concept,
		})
	}
	result.MediaCount = len(result.Entries)

	p.logger.Info("pipeline run complete",
		"article_id", articleID,
		"media_count", result.MediaCount,
		"style", req.Style,
	)
	return result, nil
}

func (p *Pipeline) resolveText(ctx context.Context, req Request) (source, text string, err error) {
	if strings.TrimSpace(req.Text) != "" {
		return SourceDirectInput, req.Text, nil
	}
	if strings.TrimSpace(req.Source) == "" {
		return "", "", fmt.Errorf("either a link or article text is required")
	}

	text, err = p.fetcher.Fetch(ctx, req.Source)
	if err != nil {
		return "", "", fmt.Errorf("fetch article: %w", err)
	}
	return req.Source, text, nil
}

// IsAbort reports whether err is an empty-result abort rather than an
// unexpected failure.
func IsAbort(err error) bool {
	return errors.Is(err, ErrNoConcepts) || errors.Is(err, ErrNoPrompts) || errors.Is(err, ErrNoMedia)
}
