// Package setup collects and validates the job details an interview is based on.
package setup

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Mode string

const (
	ModeManual Mode = "manual"
	ModePreset Mode = "preset"
)

const (
	MsgManualRequired = "Job Title and Job Description are required."
	MsgPresetRequired = "Please select a job profile from the list."
)

// Form is what the candidate submitted on the setup screen.
type Form struct {
	Mode           Mode   `json:"mode"`
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	PresetID       string `json:"presetId"`
}

// JobDetails is the validated result handed to the session orchestrator.
type JobDetails struct {
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
}

// ValidationError blocks submission; Message is shown to the candidate as is.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%v)", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

type manualInput struct {
	JobTitle       string `validate:"required"`
	JobDescription string `validate:"required"`
}

type presetInput struct {
	PresetID string `validate:"required"`
}

type Aggregator struct {
	presets  []Preset
	validate *validator.Validate
}

func NewAggregator(presets []Preset) *Aggregator {
	if len(presets) == 0 {
		presets = DefaultPresets()
	}
	return &Aggregator{
		presets:  presets,
		validate: validator.New(),
	}
}

// Presets returns a copy of the selectable job profiles.
func (a *Aggregator) Presets() []Preset {
	out := make([]Preset, len(a.presets))
	copy(out, a.presets)
	return out
}

// Preset looks up a job profile by id.
func (a *Aggregator) Preset(id string) (Preset, bool) {
	for _, p := range a.presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Submit validates the form. Manual entries are trimmed and both fields are
// required; preset entries copy the chosen profile verbatim.
func (a *Aggregator) Submit(form Form) (JobDetails, error) {
	switch form.Mode {
	case ModePreset:
		in := presetInput{PresetID: strings.TrimSpace(form.PresetID)}
		if err := a.validate.Struct(in); err != nil {
			return JobDetails{}, &ValidationError{Message: MsgPresetRequired, Cause: err}
		}
		preset, ok := a.Preset(in.PresetID)
		if !ok {
			return JobDetails{}, &ValidationError{Message: MsgPresetRequired, Cause: fmt.Errorf("unknown preset %q", in.PresetID)}
		}
		return JobDetails{JobTitle: preset.Title, JobDescription: preset.Description}, nil
	case ModeManual, "":
		in := manualInput{
			JobTitle:       strings.TrimSpace(form.JobTitle),
			JobDescription: strings.TrimSpace(form.JobDescription),
		}
		if err := a.validate.Struct(in); err != nil {
			return JobDetails{}, &ValidationError{Message: MsgManualRequired, Cause: err}
		}
		return JobDetails{JobTitle: in.JobTitle, JobDescription: in.JobDescription}, nil
	default:
		return JobDetails{}, &ValidationError{Message: fmt.Sprintf("Unknown job details source %q.", form.Mode)}
	}
}
