// Package render orchestrates one composition request end to end:
// validate the layers, stage scratch files, execute ffmpeg under a
// deadline, collect the artifact, and clean the scratch area whatever
// the outcome.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mediaforge/compose-api/internal/compose"
	"github.com/mediaforge/compose-api/internal/container"
	"github.com/mediaforge/compose-api/internal/ffmpeg"
	"github.com/mediaforge/compose-api/internal/render/reqid"
	"github.com/mediaforge/compose-api/internal/storage"
)

// Mode selects how finished artifacts are returned.
type Mode string

const (
	// ModeInline returns the artifact bytes in the response and deletes
	// the file immediately after reading it.
	ModeInline Mode = "inline"
	// ModeLink publishes the artifact and returns its URL.
	ModeLink Mode = "link"
)

// DefaultTimeout bounds a single ffmpeg invocation when no explicit
// timeout is configured.
const DefaultTimeout = 120 * time.Second

// ProcessingError is a terminal subprocess or artifact-collection
// failure. Stderr carries the captured diagnostics for logging; it is
// never returned verbatim to callers.
type ProcessingError struct {
	Stderr string
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// ComposeImageInput is a request to composite layers onto a generated canvas.
type ComposeImageInput struct {
	// Elements is the raw ordered element list.
	Elements []json.RawMessage
	// Ratio is the canvas aspect-ratio string.
	Ratio string
}

// ComposeVideoInput is a request to composite layers onto a staged base video.
type ComposeVideoInput struct {
	// Elements is the raw ordered element list.
	Elements []json.RawMessage
	// Ratio sizes default image scaling; the base video is not resized.
	Ratio string
	// ContainerID references the staged base video and optional audio.
	ContainerID string
	// LengthSec is an explicit output duration; zero means unset.
	LengthSec float64
}

// Result is the outcome of a successful composition.
type Result struct {
	// RequestID is the unique id assigned to this request.
	RequestID string
	// Data holds the artifact bytes in inline mode.
	Data []byte
	// ContentType is the artifact media type.
	ContentType string
	// URL points at the published artifact in link mode.
	URL string
	// Skipped is the number of malformed elements dropped during parsing.
	Skipped int
}

// Service runs composition requests. All state is request-local; the
// only shared resources are the scratch and output directories, made
// safe by request-unique filenames.
type Service struct {
	builder    *compose.Builder
	runner     ffmpeg.Runner
	store      storage.Storage
	containers *container.Manager
	logger     *slog.Logger
	mode       Mode
	timeout    time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithMode selects the response mode. Default is ModeInline.
func WithMode(m Mode) Option {
	return func(s *Service) { s.mode = m }
}

// WithTimeout bounds each ffmpeg invocation. Default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a render Service.
func NewService(builder *compose.Builder, runner ffmpeg.Runner, store storage.Storage, containers *container.Manager, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		builder:    builder,
		runner:     runner,
		store:      store,
		containers: containers,
		logger:     logger,
		mode:       ModeInline,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the configured response mode.
func (s *Service) Mode() Mode {
	return s.mode
}

// ComposeImage composites layers onto a generated canvas and returns a
// single-frame image. No scratch file is created before validation
// succeeds.
func (s *Service) ComposeImage(ctx context.Context, in ComposeImageInput) (*Result, error) {
	layers, skipped, err := compose.ParseElements(in.Elements)
	if err != nil {
		return nil, err
	}

	w, h := compose.SizeForRatio(in.Ratio)
	canvas := compose.Canvas{Width: w, Height: h}

	graph, err := s.builder.Build(canvas, layers)
	if err != nil {
		return nil, err
	}

	out := compose.OutputParams{Kind: compose.OutputImage}
	return s.execute(ctx, canvas, graph, out, ".png", "image/png", skipped)
}

// ComposeVideo composites layers onto the base video staged in the
// referenced container. A supplied audio track is mapped as the output
// audio, overriding any base audio; without an explicit length the
// shorter of the two streams ends the output, and with one the track is
// looped when it cannot cover the requested duration on its own.
func (s *Service) ComposeVideo(ctx context.Context, in ComposeVideoInput) (*Result, error) {
	layers, skipped, err := compose.ParseElements(in.Elements)
	if err != nil {
		return nil, err
	}

	basePath, err := s.containers.ResolveBaseVideo(in.ContainerID)
	if err != nil {
		return nil, err
	}

	w, h := compose.SizeForRatio(in.Ratio)
	canvas := compose.Canvas{Width: w, Height: h, BaseVideo: basePath}

	graph, err := s.builder.Build(canvas, layers)
	if err != nil {
		return nil, err
	}

	out := compose.OutputParams{
		Kind:        compose.OutputVideo,
		DurationSec: in.LengthSec,
	}
	if audioPath, ok := s.containers.ResolveAudio(in.ContainerID); ok {
		out.AudioPath = audioPath
		if in.LengthSec > 0 {
			// Loop the track only when it cannot cover the requested
			// duration on its own; an unprobeable track is looped too,
			// since -t truncates any excess.
			dur, err := s.runner.ProbeDuration(ctx, audioPath)
			if err != nil || dur < in.LengthSec {
				out.LoopAudio = true
			}
			if err != nil {
				s.logger.Warn("audio probe failed, looping track",
					slog.String("container_id", in.ContainerID),
					slog.String("error", err.Error()),
				)
			}
		} else {
			// No explicit length: play the track once and let the
			// shorter stream end the output.
			out.Shortest = true
		}
	}

	return s.execute(ctx, canvas, graph, out, ".mp4", "video/mp4", skipped)
}

// execute runs the staged → executing → collected → cleaned-up tail of
// a request. Scratch files are removed on every path once staging has
// begun; cleanup failures are logged, never escalated.
func (s *Service) execute(ctx context.Context, canvas compose.Canvas, graph *compose.Graph, out compose.OutputParams, outExt, contentType string, skipped int) (*Result, error) {
	rid := reqid.New()

	var scratch []string
	defer func() {
		if err := s.store.CleanupScratch(context.WithoutCancel(ctx), scratch); err != nil {
			s.logger.Warn("scratch cleanup failed",
				slog.String("request_id", rid),
				slog.String("error", err.Error()),
			)
		}
	}()

	imagePaths := make([]string, 0, len(graph.Files))
	for _, f := range graph.Files {
		p, err := s.store.SaveScratch(ctx, rid+"_"+f.Name, bytes.NewReader(f.Data))
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", f.Name, err)
		}
		scratch = append(scratch, p)
		imagePaths = append(imagePaths, p)
	}

	// Reserve a uniquely named output path; ffmpeg -y overwrites the
	// empty placeholder. The extension must survive for muxer selection.
	outPath, err := s.store.SaveScratch(ctx, rid+outExt, bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("reserve output path: %w", err)
	}
	scratch = append(scratch, outPath)

	args, err := compose.Assemble(canvas, graph, imagePaths, out, outPath)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.runner.Run(runCtx, args); err != nil {
		var ffErr *ffmpeg.Error
		if errors.As(err, &ffErr) {
			s.logger.Error("ffmpeg failed",
				slog.String("request_id", rid),
				slog.String("stderr", ffErr.Stderr),
			)
			return nil, &ProcessingError{Stderr: ffErr.Stderr, Err: err}
		}
		return nil, &ProcessingError{Err: err}
	}

	data, err := os.ReadFile(outPath) // #nosec G304 - path was created by this request
	if err != nil {
		return nil, &ProcessingError{Err: fmt.Errorf("read artifact: %w", err)}
	}

	s.logger.Info("composition finished",
		slog.String("request_id", rid),
		slog.Int("stages", len(graph.Stages)),
		slog.Int("artifact_bytes", len(data)),
		slog.Duration("duration", time.Since(start)),
	)

	res := &Result{
		RequestID:   rid,
		ContentType: contentType,
		Skipped:     skipped,
	}

	if s.mode == ModeLink {
		url, err := s.store.Publish(ctx, rid+outExt, bytes.NewReader(data))
		if err != nil {
			return nil, &ProcessingError{Err: fmt.Errorf("publish artifact: %w", err)}
		}
		res.URL = url
		return res, nil
	}

	res.Data = data
	return res, nil
}
