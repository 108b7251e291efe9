package setup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitManual(t *testing.T) {
	agg := NewAggregator(nil)

	details, err := agg.Submit(Form{Mode: ModeManual, JobTitle: "  Go Developer ", JobDescription: "\nBuild APIs.\n"})
	require.NoError(t, err)
	assert.Equal(t, JobDetails{JobTitle: "Go Developer", JobDescription: "Build APIs."}, details)
}

func TestSubmitManualRequiresBothFields(t *testing.T) {
	agg := NewAggregator(nil)

	for _, form := range []Form{
		{Mode: ModeManual, JobTitle: "Go Developer", JobDescription: "   "},
		{Mode: ModeManual, JobTitle: "", JobDescription: "Build APIs."},
		{},
	} {
		_, err := agg.Submit(form)
		require.Error(t, err)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
		assert.Equal(t, MsgManualRequired, verr.Message)
	}
}

func TestSubmitPresetCopiesVerbatim(t *testing.T) {
	agg := NewAggregator(nil)
	preset, ok := agg.Preset("pm")
	require.True(t, ok)

	details, err := agg.Submit(Form{Mode: ModePreset, PresetID: "pm", JobTitle: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "Product Manager", details.JobTitle)
	assert.Equal(t, preset.Description, details.JobDescription)
}

func TestSubmitPresetRequiresKnownSelection(t *testing.T) {
	agg := NewAggregator(nil)

	for _, id := range []string{"", "  ", "astronaut"} {
		_, err := agg.Submit(Form{Mode: ModePreset, PresetID: id})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, MsgPresetRequired, verr.Message)
	}
}

func TestSubmitUnknownMode(t *testing.T) {
	_, err := NewAggregator(nil).Submit(Form{Mode: "telepathy"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestDefaultPresets(t *testing.T) {
	presets := DefaultPresets()
	require.Len(t, presets, 3)
	assert.Equal(t, "frontend", presets[0].ID)
	assert.Equal(t, "Senior Frontend Engineer", presets[0].Title)
	assert.Contains(t, presets[0].Description, "TypeScript and GraphQL is a plus.")
	assert.Equal(t, "UX/UI Designer", presets[2].Title)
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "presets.yaml")
	require.NoError(t, os.WriteFile(good, []byte("- id: sre\n  title: SRE\n  description: Keep it up.\n"), 0o600))

	presets, err := LoadPresets(good)
	require.NoError(t, err)
	assert.Equal(t, []Preset{{ID: "sre", Title: "SRE", Description: "Keep it up."}}, presets)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("- {id: a, title: A, description: x}\n- {id: a, title: B, description: y}\n"), 0o600))
	_, err = LoadPresets(dup)
	assert.ErrorContains(t, err, "duplicate preset id")

	_, err = LoadPresets(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	defaults, err := LoadPresets("")
	require.NoError(t, err)
	assert.Len(t, defaults, 3)
}
