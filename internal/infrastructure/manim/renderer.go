package manim

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/michaelwaves/astrosmurf/internal/config"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

var sceneClassExpr = regexp.MustCompile(`class\s+(\w+)\s*\(\s*Scene\s*\)`)

// Renderer shells out to the manim binary to turn a generated scene file
// into a video.
type Renderer struct {
	binary   string
	mediaDir string
	quality  string
	logger   *slog.Logger
}

var _ ports.SceneRenderer = (*Renderer)(nil)

// NewRenderer builds a subprocess driver from configuration.
func NewRenderer(cfg config.ManimConfig, logger *slog.Logger) *Renderer {
	binary := cfg.Binary
	if binary == "" {
		binary = "manim"
	}
	quality := cfg.Quality
	if quality == "" {
		quality = "-ql"
	}
	return &Renderer{
		binary:   binary,
		mediaDir: cfg.MediaDir,
		quality:  quality,
		logger:   logger,
	}
}

// Render runs the renderer over scenePath and returns the output video path.
func (r *Renderer) Render(ctx context.Context, scenePath string) (string, error) {
	sceneName, err := sceneClass(scenePath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.binary, r.quality, "--media_dir", r.mediaDir, scenePath, sceneName)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("renderer failed",
				"scene", sceneName,
				"output", tail(string(output), 2000),
			)
		}
		return "", fmt.Errorf("run renderer for scene %s: %w", sceneName, err)
	}

	// Manim writes to <media_dir>/videos/<scene file base>/<quality>/<Scene>.mp4.
	base := strings.TrimSuffix(filepath.Base(scenePath), filepath.Ext(scenePath))
	videoPath := filepath.Join(r.mediaDir, "videos", base, qualityDir(r.quality), sceneName+".mp4")
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("expected video not found at %s: %w", videoPath, err)
	}

	if r.logger != nil {
		r.logger.Info("scene rendered", "scene", sceneName, "video", videoPath)
	}
	return videoPath, nil
}

func sceneClass(scenePath string) (string, error) {
	raw, err := os.ReadFile(scenePath)
	if err != nil {
		return "", fmt.Errorf("read scene file: %w", err)
	}
	match := sceneClassExpr.FindSubmatch(raw)
	if match == nil {
		return "", fmt.Errorf("no Scene class found in %s", scenePath)
	}
	return string(match[1]), nil
}

func qualityDir(quality string) string {
	switch quality {
	case "-qh", "-pqh":
		return "1080p60"
	case "-qm", "-pqm":
		return "720p30"
	default:
		return "480p15"
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
