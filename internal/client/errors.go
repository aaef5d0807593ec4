package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// ProviderError is a non-2xx reply from the inference provider.
type ProviderError struct {
	Status  int
	Message string
	Body    json.RawMessage // always valid JSON, nil when the provider sent nothing
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.Status, e.Message)
}

// IsValidation reports whether the provider rejected the input itself.
func (e *ProviderError) IsValidation() bool {
	return e.Status == http.StatusUnprocessableEntity
}

// Detail returns the provider's "detail" member when the body has one,
// otherwise the whole body.
func (e *ProviderError) Detail() json.RawMessage {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &body); err == nil && len(body.Detail) > 0 {
		return body.Detail
	}
	return e.Body
}

func newProviderError(status int, body []byte) *ProviderError {
	pe := &ProviderError{
		Status:  status,
		Message: http.StatusText(status),
	}
	if len(body) == 0 {
		return pe
	}

	if !json.Valid(body) {
		pe.Body = quoteBody(body)
		return pe
	}
	pe.Body = json.RawMessage(body)

	var msg struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return pe
	}
	var detail string
	switch {
	case json.Unmarshal(msg.Detail, &detail) == nil && detail != "":
		pe.Message = detail
	case msg.Message != "":
		pe.Message = msg.Message
	case msg.Error != "":
		pe.Message = msg.Error
	}
	return pe
}

// quoteBody wraps a non-JSON reply as a JSON string, leaving HTML readable
func quoteBody(body []byte) json.RawMessage {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(body)); err != nil {
		return nil
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n"))
}
