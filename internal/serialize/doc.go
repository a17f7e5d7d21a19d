// Package serialize turns on-disk metadata files into documents.
//
// Two structured formats are supported, tried in fixed priority order by
// callers: YAML (primary, via goccy/go-yaml) and TOML (legacy, via
// pelletier/go-toml). A plain-text format exists for legacy changelog and
// release-time files.
package serialize
