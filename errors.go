package main

import "fmt"

// InvalidInputError blocks the pipeline before the model is invoked.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// ModelLoadError is fatal at startup: the process must not accept input
// with a missing or malformed model artifact.
type ModelLoadError struct {
	Path   string
	Reason string
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("loading model %s: %s", e.Path, e.Reason)
}

// EmptyCohortError replaces the silent NaN means of an empty cohort.
type EmptyCohortError struct {
	Department string
	Cohort     string
}

func (e *EmptyCohortError) Error() string {
	return fmt.Sprintf("no reference rows for department %q (cohort %s)", e.Department, e.Cohort)
}

// GenerationUnavailableError reports an exhausted retry budget against the
// text-generation service. Upstream results stay valid for partial display.
type GenerationUnavailableError struct {
	Attempts int
	Err      error
}

func (e *GenerationUnavailableError) Error() string {
	return fmt.Sprintf("text generation unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationUnavailableError) Unwrap() error { return e.Err }

// DocumentRenderError marks a failed export; the prediction and narrative
// it wraps remain valid and the export can be retried.
type DocumentRenderError struct {
	Err error
}

func (e *DocumentRenderError) Error() string {
	return fmt.Sprintf("rendering report document: %v", e.Err)
}

func (e *DocumentRenderError) Unwrap() error { return e.Err }
