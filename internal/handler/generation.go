package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/motionhero/api/internal/client"
	"github.com/motionhero/api/internal/model"
	"github.com/motionhero/api/internal/service"
	"github.com/motionhero/api/pkg/response"
	"github.com/rs/zerolog"
)

type GenerationHandler struct {
	service   *service.GenerationService
	validator *validator.Validate
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewGenerationHandler builds the handler; a zero timeout leaves provider
// calls bounded only by the request context.
func NewGenerationHandler(svc *service.GenerationService, v *validator.Validate, timeout time.Duration, logger zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		service:   svc,
		validator: v,
		timeout:   timeout,
		logger:    logger,
	}
}

// RequireCredential fails every request with 500 while no provider key is
// configured, ahead of any other route middleware.
func (h *GenerationHandler) RequireCredential(c *fiber.Ctx) error {
	if !h.service.IsConfigured() {
		return response.ServiceError(c, response.MsgMissingCredential, nil)
	}
	return c.Next()
}

// ImageToVideo handles POST /api/fal/image-to-video
func (h *GenerationHandler) ImageToVideo(c *fiber.Ctx) error {
	if !h.service.IsConfigured() {
		return response.ServiceError(c, response.MsgMissingCredential, nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, response.MsgFileRequired, nil)
	}

	form := model.GenerateForm{
		Prompt:     strings.TrimSpace(c.FormValue("prompt")),
		Resolution: strings.TrimSpace(c.FormValue("resolution")),
		JobID:      strings.TrimSpace(c.FormValue("jobId")),
	}
	if err := h.validator.Struct(&form); err != nil {
		if fieldFailed(err, "Prompt") {
			return response.ValidationError(c, response.MsgPromptRequired, nil)
		}
		return response.ValidationError(c, response.MsgValidationFailed, formatValidationErrors(err))
	}

	// out-of-range values are dropped, not rejected
	resolution, ok := model.ParseResolution(form.Resolution)
	if !ok && form.Resolution != "" {
		h.logger.Debug().Str("resolution", form.Resolution).Msg("ignoring unsupported resolution")
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file", nil)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return response.ServiceError(c, "Failed to read file", nil)
	}

	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.service.Generate(ctx, &model.GenerateInput{
		FileName:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Data:        data,
		Prompt:      form.Prompt,
		Resolution:  resolution,
		JobID:       form.JobID,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return response.OK(c, result)
}

// writeError maps a generation failure onto the public error contract
func (h *GenerationHandler) writeError(c *fiber.Ctx, err error) error {
	var (
		noVideo  *service.NoVideoError
		provider *client.ProviderError
	)

	switch {
	case errors.Is(err, service.ErrMissingCredential):
		return response.ServiceError(c, response.MsgMissingCredential, nil)

	case errors.As(err, &noVideo):
		h.logger.Error().Str("request_id", noVideo.RequestID).RawJSON("provider", rawOrNull(noVideo.Provider)).Msg("no video in provider response")
		if len(noVideo.Provider) == 0 {
			return response.BadGateway(c, response.MsgNoVideo, nil)
		}
		return response.BadGateway(c, response.MsgNoVideo, noVideo.Provider)

	case errors.As(err, &provider):
		h.logger.Error().
			Int("status", provider.Status).
			Str("message", provider.Message).
			RawJSON("body", rawOrNull(provider.Body)).
			Msg("image-to-video provider error")
		if provider.IsValidation() {
			return response.ProviderValidation(c, detailOrNil(provider.Detail()))
		}
		return response.ServiceError(c, provider.Message, detailOrNil(provider.Body))
	}

	h.logger.Error().Err(err).Msg("image-to-video error")
	message := err.Error()
	if message == "" {
		message = response.MsgInternal
	}
	return response.ServiceError(c, message, nil)
}

func fieldFailed(err error, field string) bool {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return false
	}
	for _, e := range validationErrors {
		if e.Field() == field {
			return true
		}
	}
	return false
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}

func rawOrNull(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}

// detailOrNil keeps a nil RawMessage from becoming a non-nil interface
func detailOrNil(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return json.RawMessage(raw)
}
