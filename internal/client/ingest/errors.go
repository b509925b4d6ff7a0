package ingest

import (
	"fmt"
	"strings"
)

// Failure identifies one image that could not be ingested.
type Failure struct {
	Index  int
	Source string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("image %d (%s): %v", f.Index+1, f.Source, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// BatchError reports the failed images of a batch. Successful siblings are
// in the Batch returned alongside it.
type BatchError struct {
	ListingID string
	Failures  []Failure
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d image(s) failed to upload: %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
