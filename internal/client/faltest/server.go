// Package faltest runs an in-process stand-in for the fal queue and storage
// APIs so handlers and clients can be exercised end to end.
package faltest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const RequestID = "req-test-1"

// Server records what it receives and answers with the configured replies.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// PendingPolls is how many status polls report IN_QUEUE before COMPLETED.
	PendingPolls int
	// Output is returned from the response URL when ResultStatus is zero.
	Output interface{}
	// ResultStatus/ResultBody override the response URL reply.
	ResultStatus int
	ResultBody   string
	// SubmitStatus/SubmitBody override the queue submit reply.
	SubmitStatus int
	SubmitBody   string
	// UploadStatus fails the pre-signed PUT when non-zero.
	UploadStatus int

	inputs     []map[string]interface{}
	uploads    [][]byte
	uploadType []string
	authHeader []string
	polls      int
}

// New starts a server that completes every request with a video.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		Output: map[string]interface{}{
			"video": map[string]interface{}{"url": "https://cdn.fal.test/out.mp4"},
			"seed":  42,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /storage/upload/initiate", s.initiate)
	mux.HandleFunc("PUT /upload/{name}", s.upload)
	mux.HandleFunc("GET /requests/{id}/status", s.status)
	mux.HandleFunc("GET /requests/{id}", s.result)
	mux.HandleFunc("POST /", s.submit)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Inputs returns every model input submitted so far.
func (s *Server) Inputs() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.inputs...)
}

// Uploads returns the bytes of every uploaded file.
func (s *Server) Uploads() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.uploads...)
}

// UploadTypes returns the Content-Type of every uploaded file.
func (s *Server) UploadTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploadType...)
}

// AuthHeaders returns the Authorization header of every authenticated call.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeader...)
}

func (s *Server) initiate(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	var body struct {
		ContentType string `json:"content_type"`
		FileName    string `json:"file_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.FileName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "file_name is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"upload_url": s.URL + "/upload/" + body.FileName,
		"file_url":   "https://cdn.fal.test/uploads/" + body.FileName,
	})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	status := s.UploadStatus
	if status == 0 {
		s.uploads = append(s.uploads, data)
		s.uploadType = append(s.uploadType, r.Header.Get("Content-Type"))
	}
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)
	var input map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}

	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	status, body := s.SubmitStatus, s.SubmitBody
	s.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"request_id":   RequestID,
		"status_url":   s.URL + "/requests/" + RequestID + "/status",
		"response_url": s.URL + "/requests/" + RequestID,
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)

	s.mu.Lock()
	s.polls++
	pending := s.polls <= s.PendingPolls
	position := s.PendingPolls - s.polls
	s.mu.Unlock()

	if pending {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "IN_QUEUE",
			"queue_position": position,
			"logs":           []interface{}{},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "COMPLETED",
		"logs": []map[string]string{
			{"message": "done", "level": "INFO"},
		},
	})
}

func (s *Server) result(w http.ResponseWriter, r *http.Request) {
	s.recordAuth(r)

	s.mu.Lock()
	status, body, output := s.ResultStatus, s.ResultBody, s.Output
	s.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (s *Server) recordAuth(r *http.Request) {
	s.mu.Lock()
	s.authHeader = append(s.authHeader, r.Header.Get("Authorization"))
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("faltest: encode reply: %v", err))
	}
}

// ValidationBody is a typical provider 422 reply.
func ValidationBody(field, msg string) string {
	loc := `["body","` + strings.ReplaceAll(field, `"`, ``) + `"]`
	return `{"detail":[{"loc":` + loc + `,"msg":"` + msg + `","type":"value_error"}]}`
}
