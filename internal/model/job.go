package model

import "errors"

// InputImage is the image picked by the user plus its local preview.
type InputImage struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
	PreviewURL  string `json:"previewUrl"`
}

// GenerationJob is the client-local record of one generation attempt.
type GenerationJob struct {
	ID             string      `json:"id"`
	Status         JobStatus   `json:"status"`
	InputImage     *InputImage `json:"inputImage,omitempty"`
	Prompt         string      `json:"prompt"`
	Resolution     Resolution  `json:"resolution"`
	ResultVideoURL string      `json:"resultVideoUrl,omitempty"`
	ErrorMessage   string      `json:"errorMessage,omitempty"`
}

// NewGenerationJob returns an idle job with the default resolution.
func NewGenerationJob(id string) GenerationJob {
	return GenerationJob{
		ID:         id,
		Status:     JobStatusIdle,
		Resolution: DefaultResolution,
	}
}

// CheckInvariants verifies the job's status and outcome fields agree.
func (j GenerationJob) CheckInvariants() error {
	if j.ResultVideoURL != "" && j.ErrorMessage != "" {
		return errors.New("job has both a result and an error")
	}
	switch j.Status {
	case JobStatusIdle:
		if j.InputImage != nil {
			return errors.New("idle job holds an image")
		}
	case JobStatusProcessing:
		if j.ResultVideoURL != "" || j.ErrorMessage != "" {
			return errors.New("processing job carries an outcome")
		}
	case JobStatusSuccess:
		if j.ResultVideoURL == "" {
			return errors.New("successful job has no video")
		}
	case JobStatusFailed:
		if j.ErrorMessage == "" {
			return errors.New("failed job has no error message")
		}
	}
	if j.Status != JobStatusIdle && j.InputImage == nil {
		return errors.New("job past idle has no image")
	}
	return nil
}
