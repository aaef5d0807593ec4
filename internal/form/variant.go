package form

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/motionhero/api/internal/model"
)

// Variant is the presentation of the hero form. Every variant drives the
// same Controller; only the copy differs.
type Variant struct {
	Name              string
	Title             string
	UploadLabel       string
	PromptLabel       string
	PromptPlaceholder string
	ResolutionLabel   string
	Resolutions       map[model.Resolution]string
	GenerateLabel     string
	ProcessingLabel   string
	ProcessingNotice  string
	RetryLabel        string
	EmptyInput        string
	EmptyResult       string
}

var defaultResolutions = map[model.Resolution]string{
	model.Resolution480p: "480p (Faster)",
	model.Resolution580p: "580p (Balanced)",
	model.Resolution720p: "720p (Higher Quality)",
}

var variants = map[string]Variant{
	"classic": {
		Name:              "classic",
		Title:             "Image to Video",
		UploadLabel:       "Upload Image (Required)",
		PromptLabel:       "Prompt (Required)",
		PromptPlaceholder: "Describe what you want the video to show...",
		ResolutionLabel:   "Resolution",
		Resolutions:       defaultResolutions,
		GenerateLabel:     "Generate Video",
		ProcessingLabel:   "Processing...",
		ProcessingNotice:  "Generating video... This may take a few moments.",
		RetryLabel:        "Retry",
		EmptyInput:        "Upload an image to get started",
		EmptyResult:       "Generated video will appear here",
	},
	"compact": {
		Name:              "compact",
		Title:             "Animate your photo",
		UploadLabel:       "Image",
		PromptLabel:       "Prompt",
		PromptPlaceholder: "e.g. the cat jumps onto the sofa",
		ResolutionLabel:   "Quality",
		Resolutions:       defaultResolutions,
		GenerateLabel:     "Animate",
		ProcessingLabel:   "Working...",
		ProcessingNotice:  "Rendering your clip...",
		RetryLabel:        "Try again",
		EmptyInput:        "No image yet",
		EmptyResult:       "Your clip shows up here",
	},
	"split": {
		Name:              "split",
		Title:             "Before / After",
		UploadLabel:       "Source image",
		PromptLabel:       "Motion prompt",
		PromptPlaceholder: "Describe the motion...",
		ResolutionLabel:   "Output resolution",
		Resolutions: map[model.Resolution]string{
			model.Resolution480p: "480p",
			model.Resolution580p: "580p",
			model.Resolution720p: "720p",
		},
		GenerateLabel:    "Generate",
		ProcessingLabel:  "Generating...",
		ProcessingNotice: "Generating video... This may take a few moments.",
		RetryLabel:       "Retry",
		EmptyInput:       "Before",
		EmptyResult:      "After",
	},
	"showcase": {
		Name:              "showcase",
		Title:             "Bring any image to life",
		UploadLabel:       "Drop an image (JPEG, PNG, WebP up to 10MB)",
		PromptLabel:       "What should happen?",
		PromptPlaceholder: "A slow cinematic push-in while leaves fall...",
		ResolutionLabel:   "Resolution",
		Resolutions:       defaultResolutions,
		GenerateLabel:     "Create video",
		ProcessingLabel:   "Creating...",
		ProcessingNotice:  "Hang tight, your video is on its way.",
		RetryLabel:        "Retry",
		EmptyInput:        "Your image",
		EmptyResult:       "Your video",
	},
}

// DefaultVariant is used when no name is given
const DefaultVariant = "classic"

// LookupVariant returns the named variant
func LookupVariant(name string) (Variant, bool) {
	if name == "" {
		name = DefaultVariant
	}
	v, ok := variants[name]
	return v, ok
}

// VariantNames lists the known variants in a stable order
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// View is everything Render needs from a controller
type View struct {
	Job         model.GenerationJob
	FileError   string
	CanGenerate bool
	InFlight    bool
}

// ViewOf snapshots c for rendering
func ViewOf(c *Controller) View {
	return View{
		Job:         c.Job(),
		FileError:   c.FileError(),
		CanGenerate: c.CanGenerate(),
		InFlight:    c.InFlight(),
	}
}

// Render draws the form state as text
func (v Variant) Render(view View) string {
	var b strings.Builder
	job := view.Job

	fmt.Fprintf(&b, "== %s ==\n", v.Title)

	fmt.Fprintf(&b, "%s: ", v.UploadLabel)
	if job.InputImage != nil {
		fmt.Fprintf(&b, "%s (%d bytes)\n", job.InputImage.Name, job.InputImage.Size)
	} else {
		fmt.Fprintf(&b, "%s\n", v.EmptyInput)
	}
	if view.FileError != "" {
		fmt.Fprintf(&b, "  ! %s\n", view.FileError)
	}

	fmt.Fprintf(&b, "%s: %s [%d/%d]\n", v.PromptLabel, orPlaceholder(job.Prompt, v.PromptPlaceholder),
		utf8.RuneCountInString(job.Prompt), MaxPromptLength)

	caption := v.Resolutions[job.Resolution]
	if caption == "" {
		caption = string(job.Resolution)
	}
	fmt.Fprintf(&b, "%s: %s\n", v.ResolutionLabel, caption)

	button := v.GenerateLabel
	if view.InFlight {
		button = v.ProcessingLabel
	}
	state := "enabled"
	if !view.CanGenerate {
		state = "disabled"
	}
	fmt.Fprintf(&b, "[%s] (%s)\n", button, state)

	switch job.Status {
	case model.JobStatusProcessing:
		fmt.Fprintf(&b, "%s\n", v.ProcessingNotice)
	case model.JobStatusFailed:
		fmt.Fprintf(&b, "Error: %s [%s]\n", job.ErrorMessage, v.RetryLabel)
	}

	if job.ResultVideoURL != "" {
		fmt.Fprintf(&b, "Video: %s\n", job.ResultVideoURL)
	} else {
		fmt.Fprintf(&b, "Video: %s\n", v.EmptyResult)
	}

	return b.String()
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return "(" + placeholder + ")"
	}
	return s
}
