// Command i2v drives the image-to-video form from a terminal: pick an image,
// type a prompt, submit once, and print what the form would show.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/motionhero/api/internal/form"
	"github.com/motionhero/api/internal/logger"
	"github.com/motionhero/api/internal/model"
)

func main() {
	var (
		file       = pflag.StringP("file", "f", "", "image to animate (JPEG, PNG or WebP, max 10MB)")
		prompt     = pflag.StringP("prompt", "p", "", "what the video should show")
		resolution = pflag.StringP("resolution", "r", string(model.DefaultResolution), "output resolution: 480p, 580p or 720p")
		endpoint   = pflag.String("endpoint", "http://localhost:8000", "gateway base URL")
		variant    = pflag.String("variant", form.DefaultVariant, "form presentation: "+strings.Join(form.VariantNames(), ", "))
		retries    = pflag.Int("retries", 0, "replays after a failed generation")
		verbose    = pflag.BoolP("verbose", "v", false, "debug logging")
	)
	pflag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(os.Stderr, "development", level)

	if err := run(log, options{
		file:       *file,
		prompt:     *prompt,
		resolution: *resolution,
		endpoint:   *endpoint,
		variant:    *variant,
		retries:    *retries,
	}); err != nil {
		log.Error().Err(err).Msg("generation failed")
		os.Exit(1)
	}
}

type options struct {
	file       string
	prompt     string
	resolution string
	endpoint   string
	variant    string
	retries    int
}

func run(log zerolog.Logger, opts options) error {
	v, ok := form.LookupVariant(opts.variant)
	if !ok {
		return fmt.Errorf("unknown variant %q", opts.variant)
	}
	if opts.file == "" {
		return fmt.Errorf("--file is required")
	}

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctrl := form.NewController(form.NewHTTPSubmitter(opts.endpoint))
	if err := ctrl.SelectFile(filepath.Base(opts.file), data); err != nil {
		fmt.Print(v.Render(form.ViewOf(ctrl)))
		return err
	}
	ctrl.SetPrompt(opts.prompt)
	if err := ctrl.SetResolution(opts.resolution); err != nil {
		return err
	}

	fmt.Print(v.Render(form.ViewOf(ctrl)))
	if !ctrl.CanGenerate() {
		return fmt.Errorf("a prompt is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("endpoint", opts.endpoint).Str("job_id", ctrl.Job().ID).Msg("submitting")
	if err := ctrl.Generate(ctx); err != nil {
		return err
	}

	for attempt := 1; ctrl.Job().Status == model.JobStatusFailed && attempt <= opts.retries; attempt++ {
		log.Warn().Str("error", ctrl.Job().ErrorMessage).Int("attempt", attempt).Msg("retrying")
		if err := ctrl.Retry(ctx); err != nil {
			return err
		}
	}

	fmt.Print(v.Render(form.ViewOf(ctrl)))

	job := ctrl.Job()
	if job.Status != model.JobStatusSuccess {
		return fmt.Errorf("%s", job.ErrorMessage)
	}
	log.Info().Str("video_url", job.ResultVideoURL).Msg("done")
	return nil
}
