package model

import "github.com/pkg/errors"

var (
	// ErrMalformedInput means the export is not valid JSON or not a list.
	ErrMalformedInput = errors.New("malformed input")
	// ErrEmptyDataset means flattening produced no messages to summarise.
	ErrEmptyDataset = errors.New("empty dataset")
)

// ErrorKind names the failure class of err for user-facing reports.
// It returns "" for errors outside the known classes.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedInput):
		return "MalformedInputError"
	case errors.Is(err, ErrEmptyDataset):
		return "EmptyDatasetError"
	default:
		return ""
	}
}
