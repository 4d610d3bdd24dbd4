package domain

import (
	"context"
	"errors"
	"fmt"
)

// Resolution steps, reported on failure so operators can see which of
// the five fetches broke without a partial config ever escaping.
const (
	StepFormSettings   = "form_settings"
	StepPreset         = "preset"
	StepPresetProducts = "preset_products"
	StepProducts       = "products"
	StepPickupWindows  = "pickup_windows"
)

var (
	// ErrNotFound means the preset row itself does not exist.
	ErrNotFound = errors.New("preset_not_found")
	// ErrDisabled means the preset exists but has no enabled form
	// settings, so the public form is not orderable right now.
	ErrDisabled = errors.New("form_disabled")
)

// ResolutionError wraps a store failure from one resolution step.
type ResolutionError struct {
	Step string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("form config resolution failed at %s: %v", e.Step, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

type Service interface {
	Resolve(ctx context.Context, presetID int64) (*FormConfig, error)
}
