package domain

import "errors"

var (
	// ErrInvalidArgument is returned for bad enum values or malformed input shapes.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when no matching participant, content, or group exists.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on uniqueness violations: duplicate registration,
	// duplicate settings singleton, or a lost content-version race.
	ErrConflict = errors.New("conflict")
	// ErrParse is returned for malformed tabular uploads.
	ErrParse = errors.New("parse error")
	// ErrUnauthorized is returned when the admin gate rejects a request.
	ErrUnauthorized = errors.New("unauthorized")
)
