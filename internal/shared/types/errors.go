package types

import "errors"

// Sentinel errors for the catalog error taxonomy. Wrap with fmt.Errorf and
// %w; test with errors.Is.
var (
	// ErrInvalidName means a family name failed the validity predicate.
	// Raised immediately, never cached.
	ErrInvalidName = errors.New("invalid package name")

	// ErrNotFound means a requested path vanished or never existed. Lookup
	// misses during discovery return nil results instead; this error is
	// reserved for listing a missing directory or loading a vanished file.
	ErrNotFound = errors.New("not found")

	// ErrMetadataMissing means a package resource resolved but no metadata
	// file exists at load time. This is a hard failure on first data access,
	// distinguishing "identity resolved" from "data available".
	ErrMetadataMissing = errors.New("missing package definition file")

	// ErrParse means the metadata loader could not parse a located file.
	ErrParse = errors.New("parse error")
)
