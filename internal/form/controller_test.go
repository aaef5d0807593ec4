package form

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/motionhero/api/internal/model"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	calls    []*SubmitRequest
	videoURL string
	err      error
	// block, when set, holds Submit until it is closed
	block chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, req *SubmitRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return "", f.err
	}
	return f.videoURL, nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func readyController(t *testing.T, sub Submitter) *Controller {
	t.Helper()
	c := NewController(sub)
	if err := c.SelectFile("cat.png", pngBytes(t, 64, 48)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	c.SetPrompt("the cat blinks")
	return c
}

func assertInvariants(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.Job().CheckInvariants(); err != nil {
		t.Fatalf("invariant broken: %v (job %+v)", err, c.Job())
	}
}

func TestNewControllerIsIdle(t *testing.T) {
	c := NewController(&fakeSubmitter{})
	job := c.Job()
	if job.Status != model.JobStatusIdle {
		t.Errorf("expected idle, got %s", job.Status)
	}
	if job.Resolution != model.Resolution480p {
		t.Errorf("expected default 480p, got %s", job.Resolution)
	}
	if c.CanGenerate() {
		t.Error("fresh controller must not be able to generate")
	}
	assertInvariants(t, c)
}

func TestSelectFileBuildsPreview(t *testing.T) {
	c := NewController(&fakeSubmitter{})
	if err := c.SelectFile("cat.png", pngBytes(t, 640, 480)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}

	job := c.Job()
	if job.Status != model.JobStatusUploaded {
		t.Errorf("expected uploaded, got %s", job.Status)
	}
	if job.InputImage.ContentType != "image/png" {
		t.Errorf("expected image/png, got %s", job.InputImage.ContentType)
	}
	if !strings.HasPrefix(job.InputImage.PreviewURL, "data:image/jpeg;base64,") {
		t.Errorf("unexpected preview %q", job.InputImage.PreviewURL)
	}
	assertInvariants(t, c)
}

func TestSelectFileTooLarge(t *testing.T) {
	sub := &fakeSubmitter{}
	c := NewController(sub)
	c.SetPrompt("anything")

	big := make([]byte, MaxFileSize+1)
	err := c.SelectFile("huge.jpg", big)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if c.FileError() != "File too large (max 10MB)" {
		t.Errorf("unexpected file error %q", c.FileError())
	}
	if c.Job().Status != model.JobStatusIdle {
		t.Errorf("status should stay idle, got %s", c.Job().Status)
	}
	if err := c.Generate(context.Background()); !errors.Is(err, ErrCannotGenerate) {
		t.Errorf("expected ErrCannotGenerate, got %v", err)
	}
	if sub.count() != 0 {
		t.Errorf("expected no submission, got %d", sub.count())
	}
}

func TestSelectFileUnsupportedType(t *testing.T) {
	c := NewController(&fakeSubmitter{})
	err := c.SelectFile("notes.txt", []byte("just some text"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if c.Job().InputImage != nil {
		t.Error("rejected file must not be kept")
	}
}

func TestSelectFileClearsPreviousError(t *testing.T) {
	c := NewController(&fakeSubmitter{})
	_ = c.SelectFile("huge.jpg", make([]byte, MaxFileSize+1))
	if err := c.SelectFile("ok.png", pngBytes(t, 8, 8)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if c.FileError() != "" {
		t.Errorf("expected cleared file error, got %q", c.FileError())
	}
}

func TestSetPromptTruncates(t *testing.T) {
	c := NewController(&fakeSubmitter{})
	c.SetPrompt(strings.Repeat("é", MaxPromptLength+20))
	if got := len([]rune(c.Job().Prompt)); got != MaxPromptLength {
		t.Errorf("expected %d characters, got %d", MaxPromptLength, got)
	}
}

func TestSetResolution(t *testing.T) {
	c := NewController(&fakeSubmitter{})
	if err := c.SetResolution("720p"); err != nil {
		t.Fatalf("SetResolution: %v", err)
	}
	if c.Job().Resolution != model.Resolution720p {
		t.Errorf("expected 720p, got %s", c.Job().Resolution)
	}
	if err := c.SetResolution("1080p"); err == nil {
		t.Error("expected 1080p to be rejected")
	}
	if c.Job().Resolution != model.Resolution720p {
		t.Errorf("rejected value must not change resolution, got %s", c.Job().Resolution)
	}
}

func TestWhitespacePromptBlocksGenerate(t *testing.T) {
	sub := &fakeSubmitter{videoURL: "https://cdn.test/v.mp4"}
	c := readyController(t, sub)
	c.SetPrompt("   \t ")

	if c.CanGenerate() {
		t.Error("blank prompt must disable generate")
	}
	if err := c.Generate(context.Background()); !errors.Is(err, ErrCannotGenerate) {
		t.Fatalf("expected ErrCannotGenerate, got %v", err)
	}
	if sub.count() != 0 {
		t.Errorf("expected no submission, got %d", sub.count())
	}
}

func TestGenerateSuccess(t *testing.T) {
	sub := &fakeSubmitter{videoURL: "https://cdn.test/v.mp4"}
	c := readyController(t, sub)
	c.SetPrompt("  the cat blinks  ")
	_ = c.SetResolution("580p")

	if err := c.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	job := c.Job()
	if job.Status != model.JobStatusSuccess {
		t.Fatalf("expected success, got %s", job.Status)
	}
	if job.ResultVideoURL != "https://cdn.test/v.mp4" {
		t.Errorf("unexpected video %q", job.ResultVideoURL)
	}
	assertInvariants(t, c)

	if sub.count() != 1 {
		t.Fatalf("expected one submission, got %d", sub.count())
	}
	req := sub.calls[0]
	if req.Prompt != "the cat blinks" {
		t.Errorf("prompt should be trimmed, got %q", req.Prompt)
	}
	if req.Resolution != model.Resolution580p {
		t.Errorf("expected 580p, got %s", req.Resolution)
	}
	if req.JobID != job.ID {
		t.Errorf("expected job id %s, got %s", job.ID, req.JobID)
	}
}

func TestGenerateFailureThenRetry(t *testing.T) {
	sub := &fakeSubmitter{err: &SubmitError{Status: 500, Message: "upstream down"}}
	c := readyController(t, sub)

	if err := c.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	job := c.Job()
	if job.Status != model.JobStatusFailed || job.ErrorMessage != "upstream down" {
		t.Fatalf("unexpected job %+v", job)
	}
	assertInvariants(t, c)

	sub.err = nil
	sub.videoURL = "https://cdn.test/second.mp4"
	if err := c.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	job = c.Job()
	if job.Status != model.JobStatusSuccess || job.ErrorMessage != "" {
		t.Fatalf("retry should clear error and succeed, got %+v", job)
	}
	assertInvariants(t, c)
	if sub.count() != 2 {
		t.Errorf("expected two submissions, got %d", sub.count())
	}
}

func TestRetryRequiresFailure(t *testing.T) {
	c := readyController(t, &fakeSubmitter{videoURL: "https://cdn.test/v.mp4"})
	if err := c.Retry(context.Background()); !errors.Is(err, ErrCannotGenerate) {
		t.Errorf("expected ErrCannotGenerate, got %v", err)
	}
}

func TestInFlightBlocksChanges(t *testing.T) {
	sub := &fakeSubmitter{videoURL: "https://cdn.test/v.mp4", block: make(chan struct{})}
	c := readyController(t, sub)

	done := make(chan error, 1)
	go func() { done <- c.Generate(context.Background()) }()

	for !c.InFlight() {
		// wait for the submission to start
	}

	job := c.Job()
	if job.Status != model.JobStatusProcessing {
		t.Errorf("expected processing, got %s", job.Status)
	}
	assertInvariants(t, c)
	if c.CanGenerate() {
		t.Error("generate must be disabled while in flight")
	}
	if err := c.Generate(context.Background()); !errors.Is(err, ErrCannotGenerate) {
		t.Errorf("expected ErrCannotGenerate, got %v", err)
	}
	if err := c.Reset(); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy from Reset, got %v", err)
	}
	if err := c.SelectFile("other.png", pngBytes(t, 4, 4)); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy from SelectFile, got %v", err)
	}

	close(sub.block)
	if err := <-done; err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sub.count() != 1 {
		t.Errorf("expected exactly one submission, got %d", sub.count())
	}
}

func TestResetKeepsPromptAndResolution(t *testing.T) {
	c := readyController(t, &fakeSubmitter{videoURL: "https://cdn.test/v.mp4"})
	_ = c.SetResolution("720p")
	if err := c.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	before := c.Job().ID

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	job := c.Job()
	if job.Status != model.JobStatusIdle || job.InputImage != nil || job.ResultVideoURL != "" {
		t.Errorf("reset should discard the job, got %+v", job)
	}
	if job.Prompt != "the cat blinks" || job.Resolution != model.Resolution720p {
		t.Errorf("reset should keep inputs, got %+v", job)
	}
	if job.ID == before {
		t.Error("reset should start a new job id")
	}
	assertInvariants(t, c)
}
