package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/michaelwaves/astrosmurf/internal/ports"
)

// The tag pair is a deliberate low-overhead contract with the model: each
// concept comes back wrapped in <concept></concept>. An unterminated open
// tag is simply not a match.
var conceptTagExpr = regexp.MustCompile(`(?s)<concept>\s*(.*?)\s*</concept>`)

// fallbackConcepts keep the pipeline moving when the model response carries
// no usable tags at all.
var fallbackConcepts = []string{
	"Key takeaway from the article",
	"Why this matters",
}

const decomposePromptTemplate = `decompose this article into a series of important concepts. Keep it concise but factual
%s
Return 3-7 concepts in a series of <concept> </concept> tags

Example:
<concept> Here is a concept </concept>`

// ConceptExtractor turns raw article text into an ordered list of concepts
// via a single chat request.
type ConceptExtractor struct {
	chat   ports.TextGenerator
	model  string
	logger *slog.Logger
}

// NewConceptExtractor wires the shared chat client and the model to use.
func NewConceptExtractor(chat ports.TextGenerator, model string, logger *slog.Logger) *ConceptExtractor {
	return &ConceptExtractor{chat: chat, model: model, logger: logger}
}

// Extract asks the model to decompose the article and parses the tagged
// response. Backend errors propagate; parse failures degrade to the
// fallback list and never raise.
func (e *ConceptExtractor) Extract(ctx context.Context, articleText string) ([]string, error) {
	raw, err := e.chat.Complete(ctx, ports.ChatRequest{
		Model:       e.model,
		System:      "You decompose articles into their most important concepts.",
		User:        fmt.Sprintf(decomposePromptTemplate, articleText),
		Temperature: 0.6,
		TopP:        0.7,
		MaxTokens:   4096,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("decompose article: %w", err)
	}

	concepts := ParseConcepts(raw)
	if len(concepts) == 0 {
		if e.logger != nil {
			e.logger.Warn("no concept tags in model response, using fallback concepts")
		}
		return append([]string(nil), fallbackConcepts...), nil
	}
	return concepts, nil
}

// ParseConcepts scans the raw response for tag pairs and returns the trimmed
// inner texts in document order. Empty matches are dropped.
func ParseConcepts(raw string) []string {
	matches := conceptTagExpr.FindAllStringSubmatch(raw, -1)
	var concepts []string
	for _, match := range matches {
		if concept := strings.TrimSpace(match[1]); concept != "" {
			concepts = append(concepts, concept)
		}
	}
	return concepts
}
