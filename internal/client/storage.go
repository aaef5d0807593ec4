package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// AssetStore defines the interface for publishing an input image
type AssetStore interface {
	Upload(ctx context.Context, name, contentType string, body []byte) (string, error)
	IsConfigured() bool
}

type initiateUploadRequest struct {
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

type initiateUploadResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

// Upload stores body in fal storage and returns its public URL
func (c *FalClient) Upload(ctx context.Context, name, contentType string, body []byte) (string, error) {
	var initiated initiateUploadResponse
	err := c.post(ctx, c.restURL+"/storage/upload/initiate", initiateUploadRequest{
		ContentType: contentType,
		FileName:    name,
	}, &initiated)
	if err != nil {
		return "", fmt.Errorf("failed to initiate upload: %w", err)
	}
	if initiated.UploadURL == "" || initiated.FileURL == "" {
		return "", fmt.Errorf("failed to initiate upload: incomplete response")
	}

	// the upload URL is pre-signed, so no credential goes with it
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, initiated.UploadURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to upload file: %w", newProviderError(resp.StatusCode, respBody))
	}

	c.logger.Debug().Str("file_url", initiated.FileURL).Int("bytes", len(body)).Msg("image uploaded")

	return initiated.FileURL, nil
}
