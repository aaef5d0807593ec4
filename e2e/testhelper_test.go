package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/motionhero/api/internal/client"
	"github.com/motionhero/api/internal/client/faltest"
	"github.com/motionhero/api/internal/config"
	"github.com/motionhero/api/internal/handler"
	"github.com/motionhero/api/internal/middleware"
	"github.com/motionhero/api/internal/router"
	"github.com/motionhero/api/internal/service"
	ws "github.com/motionhero/api/internal/websocket"
)

const testModel = "fal-ai/wan/v2.2-a14b/image-to-video/turbo"

// testApp holds all components needed for testing
type testApp struct {
	app *fiber.App
	fal *faltest.Server
	hub *ws.Hub
}

// setupApp creates a Fiber app wired like main.go against a fake provider.
// An empty key leaves the provider credential unset.
func setupApp(t *testing.T, key string) *testApp {
	t.Helper()

	fal := faltest.New(t)
	log := zerolog.Nop()

	falCfg := config.FalConfig{
		Key:          key,
		QueueURL:     fal.URL,
		RestURL:      fal.URL,
		Model:        testModel,
		PollInterval: time.Millisecond,
	}
	falClient := client.NewFalClient(&falCfg, log)

	hub := ws.NewHub(log)
	go hub.Run()
	t.Cleanup(hub.Stop)

	svc := service.NewGenerationService(falCfg, falClient, falClient, hub, log)
	h := handler.NewGenerationHandler(svc, validator.New(), 0, log)

	app := router.New(router.Deps{
		Logger:      log,
		BodyLimit:   12 * 1024 * 1024,
		Generation:  h,
		RateLimiter: middleware.NewRateLimiter(nil, log),
		Hub:         hub,
		Health: handler.HealthChecks{
			Fal:     falCfg.IsConfigured,
			Storage: falClient.IsConfigured,
		},
	})

	return &testApp{app: app, fal: fal, hub: hub}
}

// formFile describes the file part of a generation request
type formFile struct {
	name        string
	contentType string
	data        []byte
}

// newGenerateRequest builds a multipart/form-data generation request.
// A nil file omits the part; empty field values are omitted too.
func newGenerateRequest(t *testing.T, file *formFile, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}

	if file != nil {
		partHeader := make(textproto.MIMEHeader)
		partHeader.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		partHeader.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(partHeader)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		_, _ = part.Write(file.data)
	}

	writer.Close()

	req, err := http.NewRequest(http.MethodPost, "/api/fal/image-to-video", &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func catJPEG() *formFile {
	data := append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), make([]byte, 2048)...)
	return &formFile{name: "cat.jpg", contentType: "image/jpeg", data: data}
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
