// Package bootstrap provides dependency initialization for the compose API.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mediaforge/compose-api/internal/compose"
	"github.com/mediaforge/compose-api/internal/config"
	"github.com/mediaforge/compose-api/internal/container"
	"github.com/mediaforge/compose-api/internal/ffmpeg"
	"github.com/mediaforge/compose-api/internal/render"
	"github.com/mediaforge/compose-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	RenderService *render.Service
	Containers    *container.Manager
	// OutputDir is the locally served output directory in link mode,
	// or empty when outputs are inline or published to S3.
	OutputDir string
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	local, err := storage.NewLocalStorage(cfg.ScratchDir, cfg.OutputDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	store, servedOutputs, err := initStorage(cfg, local, logger)
	if err != nil {
		return nil, err
	}

	containers, err := container.NewManager(cfg.ContainerDir)
	if err != nil {
		return nil, fmt.Errorf("create container manager: %w", err)
	}

	builder := compose.NewBuilder(initFontResolver(cfg, logger))
	runner := ffmpeg.NewCLI(cfg.FFmpegPath, cfg.FFprobePath)

	mode := render.ModeInline
	if cfg.LinkMode() {
		mode = render.ModeLink
	}

	svc := render.NewService(
		builder,
		runner,
		store,
		containers,
		logger,
		render.WithMode(mode),
		render.WithTimeout(time.Duration(cfg.ExecTimeoutSec)*time.Second),
	)

	return &Dependencies{
		RenderService: svc,
		Containers:    containers,
		OutputDir:     servedOutputs,
	}, nil
}

// initStorage selects the publication backend. Local publication is
// served statically by this process; S3 publication returns object URLs.
func initStorage(cfg *config.Config, local *storage.LocalStorage, logger *slog.Logger) (storage.Storage, string, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			KeyPrefix:       cfg.S3KeyPrefix,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(local, s3Cfg)
		if err != nil {
			return nil, "", fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 publication configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, "", nil
	}

	logger.Info("local storage configured",
		slog.String("scratch_dir", local.ScratchDir()),
		slog.String("output_dir", local.OutputDir()),
	)

	servedOutputs := ""
	if cfg.LinkMode() {
		servedOutputs = local.OutputDir()
	}
	return local, servedOutputs, nil
}

// initFontResolver selects the font resolution policy from configuration.
func initFontResolver(cfg *config.Config, logger *slog.Logger) compose.FontResolver {
	style := compose.NewStyleResolver(cfg.FontsDir, cfg.DefaultFont)
	if strings.ToLower(cfg.FontFallback) == "check" {
		logger.Info("existence-checked font resolution enabled",
			slog.String("fonts_dir", style.FontsDir),
		)
		return compose.NewCheckedResolver(style)
	}
	return style
}
