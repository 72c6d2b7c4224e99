// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"fmt"

	"github.com/gviegas/raster/driver"
)

// AllocationFailure reports that device memory could not be obtained
// during Init or UploadScene. It is fatal: the Pipeline must be
// re-initialized from scratch.
type AllocationFailure struct {
	Op    string // The failed upload, e.g. "upload positions"; "upload" for a texture.
	Cause error
}

func (e *AllocationFailure) Error() string {
	return fmt.Sprintf("engine: allocation failure during %s: %v", e.Op, e.Cause)
}

func (e *AllocationFailure) Unwrap() error { return e.Cause }

// InvalidScene reports that a primitive group is missing a required
// attribute or carries one of the wrong shape. It is fatal for that
// group; the caller may choose to skip the group and continue
// uploading the rest of the scene.
type InvalidScene struct {
	Group int    // Index of the offending group within the Scene.
	Field string // Name of the missing or malformed field.
}

func (e *InvalidScene) Error() string {
	return fmt.Sprintf("engine: invalid scene: group %d: %s", e.Group, e.Field)
}

// DispatchFailure reports that the execution fabric aborted a frame.
// The frame that produced it must be discarded, but the Pipeline
// remains usable: subsequent calls to Rasterize may still succeed.
type DispatchFailure struct {
	Stage string
	Cause error
}

func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("engine: dispatch failure in %s: %v", e.Stage, e.Cause)
}

func (e *DispatchFailure) Unwrap() error { return e.Cause }

// wrapDispatch converts a non-nil error returned by a Device dispatch
// into a *DispatchFailure, preserving a *driver.DispatchFailure cause
// so callers can still errors.As into the driver-level detail.
func wrapDispatch(stage string, err error) error {
	if err == nil {
		return nil
	}
	if df, ok := err.(*driver.DispatchFailure); ok {
		return &DispatchFailure{Stage: stage, Cause: df}
	}
	return &DispatchFailure{Stage: stage, Cause: err}
}
