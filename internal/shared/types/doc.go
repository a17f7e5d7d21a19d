// Package types provides shared data structures for the packfs catalog engine.
//
// This package defines the core types used across all catalog components,
// ensuring consistent data structures between the repository facade, the
// resource layer, and the metadata loader.
//
// Core Types:
//   - Document: parsed package metadata (field name -> value)
//   - StateHandle: opaque staleness token derived from a file mtime
//
// Error Taxonomy:
//   - ErrInvalidName: family name failed validation
//   - ErrNotFound: requested path or resource does not exist on disk
//   - ErrMetadataMissing: resource resolved but no metadata file exists
//   - ErrParse: a located file could not be parsed
//
// Example Usage:
//
//	doc, err := pkg.Data()
//	if errors.Is(err, types.ErrMetadataMissing) {
//	    // resource identity resolved, data not yet on disk
//	}
package types
