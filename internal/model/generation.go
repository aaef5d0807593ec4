package model

import "encoding/json"

// GenerateForm holds the text fields of a generation request
type GenerateForm struct {
	Prompt     string `validate:"required"`
	Resolution string
	JobID      string `validate:"omitempty,max=64,printascii"`
}

// GenerateInput is a validated generation request ready for the provider
type GenerateInput struct {
	FileName    string
	ContentType string
	Data        []byte
	Prompt      string
	Resolution  Resolution // empty means the provider default
	JobID       string
}

// GenerateResponse represents a successful generation
type GenerateResponse struct {
	VideoURL  string `json:"videoUrl"`
	RequestID string `json:"requestId"`
}

// ProviderInput is the body sent to the image-to-video model
type ProviderInput struct {
	ImageURL   string     `json:"image_url"`
	Prompt     string     `json:"prompt"`
	Resolution Resolution `json:"resolution,omitempty"`
}

// ProviderOutput is the subset of the model output we read
type ProviderOutput struct {
	Video *struct {
		URL string `json:"url"`
	} `json:"video"`
}

// VideoURL extracts the video location from a raw model output.
func VideoURL(raw json.RawMessage) string {
	var out ProviderOutput
	if len(raw) == 0 || json.Unmarshal(raw, &out) != nil || out.Video == nil {
		return ""
	}
	return out.Video.URL
}

// QueueLog is a log line emitted by the provider while a request runs
type QueueLog struct {
	Message   string `json:"message"`
	Level     string `json:"level,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// QueueUpdate is one status poll of a provider request
type QueueUpdate struct {
	RequestID     string     `json:"request_id,omitempty"`
	Status        string     `json:"status"`
	QueuePosition int        `json:"queue_position,omitempty"`
	Logs          []QueueLog `json:"logs,omitempty"`
}
