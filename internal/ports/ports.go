package ports

import (
	"context"

	"github.com/michaelwaves/astrosmurf/internal/domain"
)

// ArticleFetcher pulls an article from the web and reduces it to plain text.
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ChatRequest is a single chat-completion call against the text/code
// generation backend.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	TopP        float64
	MaxTokens   int
	// Stream requests an incrementally streamed completion; the client
	// accumulates content chunks and separates any reasoning prefix.
	Stream bool
}

// TextGenerator sends chat requests to an OpenAI-compatible backend.
type TextGenerator interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// MediaSynthesizer submits generation jobs to the external image backend and
// waits for terminal completion. The two variants are selected by the
// caller, never inferred.
type MediaSynthesizer interface {
	TextToImage(ctx context.Context, prompt string) (domain.SynthesisResult, error)
	ImageEdit(ctx context.Context, prompt, imageURL string) (domain.SynthesisResult, error)
}

// ArticleRepository persists pipeline source records.
type ArticleRepository interface {
	Create(ctx context.Context, source, text string, userID *int64) (int64, error)
	GetByID(ctx context.Context, id int64) (domain.Article, error)
	Recent(ctx context.Context, limit int) ([]domain.Article, error)
	Delete(ctx context.Context, id int64) error
}

// MediaRepository persists generated media rows.
type MediaRepository interface {
	Insert(ctx context.Context, media domain.Media) (int64, error)
	GetByID(ctx context.Context, id int64) (domain.Media, error)
	ByArticle(ctx context.Context, articleID int64) ([]domain.Media, error)
	List(ctx context.Context, limit int, search string) ([]domain.MediaListing, error)
	Delete(ctx context.Context, id int64) error
}

// PersonaRepository looks up stored reference images.
type PersonaRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Persona, error)
}

// ObjectStore uploads a local file and returns its public URL.
type ObjectStore interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// SocialPublisher uploads a media artifact to the social platform and posts
// it, returning the platform's post identifier.
type SocialPublisher interface {
	PublishMedia(ctx context.Context, mediaURL, text string) (string, error)
}

// SceneRenderer runs the external renderer over a saved scene file and
// returns the rendered video path.
type SceneRenderer interface {
	Render(ctx context.Context, scenePath string) (string, error)
}
