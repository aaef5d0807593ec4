package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/motionhero/api/internal/client"
	"github.com/motionhero/api/internal/config"
	"github.com/motionhero/api/internal/model"
	"github.com/rs/zerolog"
)

// ErrMissingCredential is returned when no provider key was configured.
var ErrMissingCredential = errors.New("missing FAL_KEY env")

// NoVideoError reports a provider reply without a video location.
type NoVideoError struct {
	RequestID string
	Provider  json.RawMessage
}

func (e *NoVideoError) Error() string {
	return fmt.Sprintf("no video URL in provider response (request %s)", e.RequestID)
}

// ProgressNotifier receives lifecycle events for requests that carry a job id
type ProgressNotifier interface {
	BroadcastProgress(jobID string, update model.QueueUpdate)
	BroadcastComplete(jobID, videoURL string)
	BroadcastError(jobID, message string)
}

// GenerationService turns one image and prompt into one video
type GenerationService struct {
	cfg        config.FalConfig
	store      client.AssetStore
	inferencer client.Inferencer
	notifier   ProgressNotifier
	logger     zerolog.Logger
}

// NewGenerationService wires the service; notifier may be nil.
func NewGenerationService(cfg config.FalConfig, store client.AssetStore, inferencer client.Inferencer, notifier ProgressNotifier, logger zerolog.Logger) *GenerationService {
	return &GenerationService{
		cfg:        cfg,
		store:      store,
		inferencer: inferencer,
		notifier:   notifier,
		logger:     logger.With().Str("component", "generation").Logger(),
	}
}

// IsConfigured reports whether the provider credential is present
func (s *GenerationService) IsConfigured() bool {
	return s.cfg.IsConfigured()
}

// Generate uploads the image, runs the model once and returns the video.
// It never retries.
func (s *GenerationService) Generate(ctx context.Context, in *model.GenerateInput) (*model.GenerateResponse, error) {
	if !s.IsConfigured() {
		return nil, ErrMissingCredential
	}

	result, err := s.generate(ctx, in)
	if err != nil {
		s.notifyError(in.JobID, err)
		return nil, err
	}

	if s.notifier != nil && in.JobID != "" {
		s.notifier.BroadcastComplete(in.JobID, result.VideoURL)
	}
	return result, nil
}

func (s *GenerationService) generate(ctx context.Context, in *model.GenerateInput) (*model.GenerateResponse, error) {
	contentType := detectContentType(in.ContentType, in.Data)
	imageURL, err := s.store.Upload(ctx, uploadName(in.FileName, contentType), contentType, in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	input := model.ProviderInput{
		ImageURL:   imageURL,
		Prompt:     strings.TrimSpace(in.Prompt),
		Resolution: in.Resolution,
	}

	s.logger.Info().
		Str("image_url", input.ImageURL).
		Str("prompt", input.Prompt).
		Str("resolution", string(input.Resolution)).
		Msg("image-to-video request")

	result, err := s.inferencer.Subscribe(ctx, s.cfg.Model, input, s.observer(in.JobID))
	if err != nil {
		return nil, err
	}

	videoURL := model.VideoURL(result.Data)
	if videoURL == "" {
		return nil, &NoVideoError{RequestID: result.RequestID, Provider: result.Data}
	}

	return &model.GenerateResponse{
		VideoURL:  videoURL,
		RequestID: result.RequestID,
	}, nil
}

func (s *GenerationService) observer(jobID string) client.QueueObserver {
	if s.notifier == nil || jobID == "" {
		return nil
	}
	return func(update model.QueueUpdate) {
		s.notifier.BroadcastProgress(jobID, update)
	}
}

func (s *GenerationService) notifyError(jobID string, err error) {
	if s.notifier == nil || jobID == "" {
		return
	}
	message := err.Error()
	var pe *client.ProviderError
	if errors.As(err, &pe) {
		message = pe.Message
	}
	s.notifier.BroadcastError(jobID, message)
}

// detectContentType trusts a specific declared type, otherwise sniffs the bytes
func detectContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}

// uploadName keeps only a safe base name, falling back to a random one
func uploadName(name, contentType string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if base == "" || base == "." || base == "_" || strings.Trim(base, "._") == "" {
		ext := mimetype.Lookup(contentType)
		suffix := ""
		if ext != nil {
			suffix = ext.Extension()
		}
		return uuid.NewString() + suffix
	}
	return base
}
