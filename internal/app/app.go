package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/michaelwaves/astrosmurf/internal/config"
	"github.com/michaelwaves/astrosmurf/internal/httpapi"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/fal"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/llm"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/manim"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/s3"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/scrape"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/storage"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/x"
	"github.com/michaelwaves/astrosmurf/internal/logging"
	"github.com/michaelwaves/astrosmurf/internal/ports"
	"github.com/michaelwaves/astrosmurf/internal/usecase"
)

// Application wires configuration and the shared DB handle into the
// pipeline and HTTP transport.
type Application struct {
	cfg    config.Config
	server *http.Server
	logger *slog.Logger
}

// New builds the full dependency graph. All external clients are
// constructed here once and injected; no component creates its own.
func New(ctx context.Context, cfg config.Config, db *sql.DB, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	chat := llm.NewClient(cfg.NVIDIA, logging.Component(baseLogger, "llm"))
	synth := fal.NewClient(cfg.Fal, logging.Component(baseLogger, "fal"))
	fetcher := scrape.NewFetcher(nil)

	articles := storage.NewArticleRepository(db)
	media := storage.NewMediaRepository(db)
	personas := storage.NewPersonaRepository(db)

	var store ports.ObjectStore
	if cfg.S3.Bucket != "" {
		uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			baseLogger.Warn("object store unavailable, renders will use local paths", "error", err)
		} else {
			store = uploader
		}
	}

	extractor := usecase.NewConceptExtractor(chat, cfg.NVIDIA.ChatModel, logging.Component(baseLogger, "extractor"))
	prompts := usecase.NewPromptSynthesizer(chat, cfg.NVIDIA.ChatModel, logging.Component(baseLogger, "prompts"))
	generator := usecase.NewMediaGenerator(synth, logging.Component(baseLogger, "media"))
	scene := usecase.NewSceneGenerator(usecase.SceneGeneratorDeps{
		Chat:        chat,
		CoderModel:  cfg.NVIDIA.CoderModel,
		Renderer:    manim.NewRenderer(cfg.Manim, logging.Component(baseLogger, "renderer")),
		Store:       store,
		CodeDir:     cfg.Manim.CodeDir,
		MaxAttempts: cfg.Manim.MaxAttempts,
		Logger:      logging.Component(baseLogger, "scene"),
	})

	flows := usecase.NewFlowRegistry(usecase.NewImageFlow(prompts, generator, logging.Component(baseLogger, "flow.image")))
	flows.Register(usecase.NewManimFlow(scene))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:   fetcher,
		Extractor: extractor,
		Flows:     flows,
		Articles:  articles,
		Media:     media,
		Personas:  personas,
		Logger:    logging.Component(baseLogger, "pipeline"),
	})

	var publisher ports.SocialPublisher
	if cfg.X.ConsumerKey != "" {
		publisher = x.NewPublisher(cfg.X)
	}

	handler := httpapi.NewHandler(pipeline, articles, media, publisher, logging.Component(baseLogger, "http"))
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: httpapi.NewRouter(handler),
	}

	return &Application{cfg: cfg, server: server, logger: baseLogger}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "address", a.cfg.Server.Address)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
