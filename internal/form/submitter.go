package form

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/motionhero/api/internal/model"
)

// Submitter sends one generation request and returns the video URL
type Submitter interface {
	Submit(ctx context.Context, req *SubmitRequest) (string, error)
}

// SubmitRequest is the payload of one generation attempt
type SubmitRequest struct {
	JobID       string
	FileName    string
	ContentType string
	Data        []byte
	Prompt      string
	Resolution  model.Resolution
}

// SubmitError is a non-2xx reply, with a message ready to show the user
type SubmitError struct {
	Status  int
	Message string
}

func (e *SubmitError) Error() string {
	return e.Message
}

// HTTPSubmitter posts multipart requests to the generation endpoint
type HTTPSubmitter struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewHTTPSubmitter targets baseURL's image-to-video route. The HTTP client
// has no timeout, matching the server side.
func NewHTTPSubmitter(baseURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		Endpoint:   strings.TrimRight(baseURL, "/") + "/api/fal/image-to-video",
		HTTPClient: &http.Client{},
	}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, r *SubmitRequest) (string, error) {
	body, contentType, err := encodeMultipart(r)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SubmitError{
			Status:  resp.StatusCode,
			Message: ErrorMessage(respBody),
		}
	}

	var result model.GenerateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.VideoURL == "" {
		return "", fmt.Errorf("response has no video URL")
	}

	return result.VideoURL, nil
}

func encodeMultipart(r *SubmitRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, r.FileName))
	partHeader.Set("Content-Type", r.ContentType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(r.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}

	fields := [][2]string{
		{"prompt", r.Prompt},
		{"resolution", string(r.Resolution)},
		{"jobId", r.JobID},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", f[0], err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
