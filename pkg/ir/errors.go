package ir

import "errors"

var (
	// ErrMethodNotFound is returned by front ends when no method matches.
	ErrMethodNotFound = errors.New("method not found")

	// ErrUnsupportedSyntax is returned by front ends for statements they
	// cannot translate.
	ErrUnsupportedSyntax = errors.New("unsupported syntax")
)
