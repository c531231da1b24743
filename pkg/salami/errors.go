package salami

import (
	"errors"

	"github.com/himanishpuri/salami/pkg/salami/audio"
)

var (
	// ErrInvalidAnnotator is returned for annotator indexes outside {1, 2}.
	ErrInvalidAnnotator = errors.New("invalid annotator")
	// ErrMissingAnnotation is returned when an expected annotation file is
	// absent. It is joined with fs.ErrNotExist.
	ErrMissingAnnotation = errors.New("missing annotation")
	// ErrMalformedAnnotation is returned for annotation files that cannot be
	// parsed or whose times are not strictly increasing.
	ErrMalformedAnnotation = errors.New("malformed annotation")
	// ErrMalformedEstimate is returned for estimate files that cannot be
	// parsed.
	ErrMalformedEstimate = errors.New("malformed estimate")
	// ErrNotFound is returned when an ID has no audio in the index.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedFormat is returned for indexed files that cannot be decoded
	// as audio, such as pickled feature files.
	ErrUnsupportedFormat = audio.ErrUnsupportedFormat
)
