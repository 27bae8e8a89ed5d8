package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// record rejections
	ErrMissingName = errors.New("missing name")
	ErrMissingCity = errors.New("missing contact_info.city")
	ErrNotObject   = errors.New("record is not a JSON object")

	// file failures
	ErrNotArray = errors.New("top-level JSON value is not an array")

	ErrEmptyQuery = errors.New("empty query")
	ErrNoAnswerer = errors.New("answer generation not configured")
)
