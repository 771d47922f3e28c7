package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means the raw dataset could not be found or fetched.
	ErrDataUnavailable = errors.New("input data unavailable")

	// ErrSchemaMismatch means required columns are missing from a table.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrArtifactMissing means the processed artifact has not been produced yet.
	ErrArtifactMissing = errors.New("processed artifact missing")
)

// ArtifactMissingMessage is the instruction shown when the dashboard starts
// before the transform has run.
func ArtifactMissingMessage(path string) string {
	return fmt.Sprintf("No processed data found at %s. Run the transform first: climaterisk transform", path)
}
