// Package form holds the client side of a generation: one job, its inputs,
// and the single submission that settles it.
package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/motionhero/api/internal/model"
)

const (
	MaxFileSize     = 10 * 1024 * 1024
	MaxPromptLength = 500

	msgFileTooLarge    = "File too large (max 10MB)"
	msgUnsupportedType = "Unsupported file type (JPEG, PNG or WebP)"
	msgGenericFailure  = "Something went wrong. Please try again."
)

var (
	// ErrCannotGenerate is returned when generate is unavailable: no image,
	// a blank prompt, or a request already in flight.
	ErrCannotGenerate = errors.New("form: generate is unavailable")
	// ErrBusy is returned when the inputs change while a request is in flight.
	ErrBusy = errors.New("form: a request is in flight")
	// ErrFileTooLarge rejects images over MaxFileSize.
	ErrFileTooLarge = errors.New(msgFileTooLarge)
	// ErrUnsupportedType rejects anything but JPEG, PNG and WebP.
	ErrUnsupportedType = errors.New(msgUnsupportedType)
)

// submission is what must hold before a request may leave the form
type submission struct {
	FileName   string `validate:"required"`
	Prompt     string `validate:"required,max=500"`
	Resolution string `validate:"oneof=480p 580p 720p"`
}

// Controller owns one GenerationJob and the inputs that feed it.
type Controller struct {
	mu        sync.Mutex
	job       model.GenerationJob
	fileError string
	inFlight  bool

	submitter Submitter
	validate  *validator.Validate
}

func NewController(s Submitter) *Controller {
	return &Controller{
		job:       model.NewGenerationJob(uuid.NewString()),
		submitter: s,
		validate:  validator.New(),
	}
}

// Job returns a snapshot of the current job
func (c *Controller) Job() model.GenerationJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	job := c.job
	if job.InputImage != nil {
		img := *job.InputImage
		job.InputImage = &img
	}
	return job
}

// FileError is the inline error of the last rejected file selection
func (c *Controller) FileError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileError
}

// InFlight reports whether a submission is outstanding
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// SelectFile validates a picked image. Rejections leave the job untouched
// and set FileError; nothing is sent anywhere.
func (c *Controller) SelectFile(name string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return ErrBusy
	}

	if len(data) > MaxFileSize {
		c.fileError = msgFileTooLarge
		return ErrFileTooLarge
	}

	contentType, ok := imageType(data)
	if !ok {
		c.fileError = msgUnsupportedType
		return ErrUnsupportedType
	}

	preview, err := buildPreview(data)
	if err != nil {
		c.fileError = msgUnsupportedType
		return ErrUnsupportedType
	}

	c.fileError = ""
	c.job.Status = model.JobStatusUploaded
	c.job.InputImage = &model.InputImage{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
		PreviewURL:  preview,
	}
	c.job.ResultVideoURL = ""
	c.job.ErrorMessage = ""
	return nil
}

// SetPrompt stores the prompt, cut to MaxPromptLength characters
func (c *Controller) SetPrompt(prompt string) {
	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		prompt = string([]rune(prompt)[:MaxPromptLength])
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.job.Prompt = prompt
}

// SetResolution selects one of the supported resolutions
func (c *Controller) SetResolution(value string) error {
	r, ok := model.ParseResolution(value)
	if !ok {
		return errors.New("form: unsupported resolution " + value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.job.Resolution = r
	return nil
}

// CanGenerate is true with an image, a non-blank prompt and nothing in flight
func (c *Controller) CanGenerate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canGenerate()
}

func (c *Controller) canGenerate() bool {
	if c.inFlight || c.job.InputImage == nil {
		return false
	}
	return c.validate.Struct(c.submission()) == nil
}

func (c *Controller) submission() submission {
	s := submission{
		Prompt:     strings.TrimSpace(c.job.Prompt),
		Resolution: string(c.job.Resolution),
	}
	if c.job.InputImage != nil {
		s.FileName = c.job.InputImage.Name
		if s.FileName == "" {
			s.FileName = "image"
		}
	}
	return s
}

// Generate sends the one submission and settles the job as success or
// failed. It returns ErrCannotGenerate, without any network call, when
// CanGenerate is false; otherwise the outcome is recorded on the job.
func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	if !c.canGenerate() {
		c.mu.Unlock()
		return ErrCannotGenerate
	}

	c.inFlight = true
	c.job.Status = model.JobStatusProcessing
	c.job.ResultVideoURL = ""
	c.job.ErrorMessage = ""

	img := c.job.InputImage
	req := &SubmitRequest{
		JobID:       c.job.ID,
		FileName:    img.Name,
		ContentType: img.ContentType,
		Data:        img.Data,
		Prompt:      strings.TrimSpace(c.job.Prompt),
		Resolution:  c.job.Resolution,
	}
	c.mu.Unlock()

	videoURL, err := c.submitter.Submit(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		message := err.Error()
		if message == "" {
			message = msgGenericFailure
		}
		c.job.Status = model.JobStatusFailed
		c.job.ErrorMessage = message
		return nil
	}

	c.job.Status = model.JobStatusSuccess
	c.job.ResultVideoURL = videoURL
	return nil
}

// Retry replays Generate after a failure
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	failed := c.job.Status == model.JobStatusFailed
	c.mu.Unlock()

	if !failed {
		return ErrCannotGenerate
	}
	return c.Generate(ctx)
}

// Reset discards the image and any outcome; prompt and resolution stay
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return ErrBusy
	}

	prompt, resolution := c.job.Prompt, c.job.Resolution
	c.job = model.NewGenerationJob(uuid.NewString())
	c.job.Prompt = prompt
	c.job.Resolution = resolution
	c.fileError = ""
	return nil
}
