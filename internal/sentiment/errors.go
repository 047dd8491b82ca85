package sentiment

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactLoad matches every *ArtifactLoadError.
	ErrArtifactLoad = errors.New("loading model artifact")

	// ErrScoring is returned when classifying with a scorer that was never loaded.
	ErrScoring = errors.New("sentiment scorer not initialized")
)

// ArtifactLoadError reports a model artifact that is missing, unreadable or
// does not decode into a valid vectorizer or classifier.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrArtifactLoad, e.Err)
	}
	return fmt.Sprintf("%v %s: %v", ErrArtifactLoad, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

func (e *ArtifactLoadError) Is(target error) bool {
	return target == ErrArtifactLoad
}

func loadError(path string, format string, args ...any) error {
	return &ArtifactLoadError{Path: path, Err: fmt.Errorf(format, args...)}
}
