package domain

import "errors"

var (
	// ErrMalformedRecord means a single raw input could not be interpreted
	// as a review record. The caller decides whether to skip or abort.
	ErrMalformedRecord = errors.New("malformed review record")

	// ErrInvalidToggle means a selection toggle request had the wrong shape.
	ErrInvalidToggle = errors.New("invalid selection toggle request")

	ErrNotFound = errors.New("not found")
)
