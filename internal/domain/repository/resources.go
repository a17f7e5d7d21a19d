package repository

import (
	"os"
	"path/filepath"

	"github.com/packfs/packfs/internal/domain/registry"
	"github.com/packfs/packfs/internal/serialize"
	"github.com/packfs/packfs/internal/shared/types"
)

// Family is the set of all versions of one named package.
type Family interface {
	registry.Resource

	// Name is the family name.
	Name() string
	// Location is the catalog root the family was resolved from.
	Location() string
	// URI locates the family on disk (directory or combined file path).
	URI() string
	// Packages yields one package per version, unmemoized; use
	// Repository.Packages for the cached form.
	Packages() ([]Package, error)
	// LastReleaseTime is the backing path's mtime in unix seconds, or 0
	// when the path is inaccessible. Never errors.
	LastReleaseTime() int64
}

// Package is one version of a family, carrying a lazily loaded document.
type Package interface {
	registry.Resource

	Name() string
	// Version is "" for the sole package of an unversioned family.
	Version() string
	// URI locates the package's data on disk.
	URI() string
	// Base is the package's on-disk directory, "" for the combined layout.
	Base() string
	// Data loads the metadata document on first call and caches it.
	// Returns types.ErrMetadataMissing when no file exists yet; load
	// failures are not cached, a retry after the file appears succeeds.
	Data() (types.Document, error)
	// StateHandle is the metadata file's staleness token.
	StateHandle() types.StateHandle
	// Variants yields the package's build configurations, unmemoized.
	Variants() ([]Variant, error)
	// Parent resolves the owning family through the registry.
	Parent() Family
}

// Variant is one build configuration of a package.
type Variant interface {
	registry.Resource

	Name() string
	Version() string
	// Index is registry.NoIndex when the package declares no variants
	// list and the package itself is the single variant.
	Index() int
	// Root is the variant's filesystem root, "" for the combined layout.
	Root() string
	// Parent resolves the owning package through the registry.
	Parent() Package
}

// metadataFilename is the stem of a package definition file.
const metadataFilename = "package"

// findMetadataFile probes dir for a metadata file, trying each supported
// format extension in priority order.
func findMetadataFile(dir, stem string) (string, serialize.FileFormat, bool) {
	for _, format := range serialize.Formats {
		path := filepath.Join(dir, stem+"."+format.Extension())
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, format, true
		}
	}
	return "", "", false
}

// mtimeOrZero is the IO-degraded stat: unix seconds, 0 on any failure.
func mtimeOrZero(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}

// variantIndexes expands a document's variants list into resource indexes.
// No variants means one implicit variant with no index.
func variantIndexes(doc types.Document) []int {
	n := len(doc.GetList("variants"))
	if n == 0 {
		return []int{registry.NoIndex}
	}
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	return indexes
}
