package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/packfs/packfs/internal/domain/registry"
	"github.com/packfs/packfs/internal/serialize"
	"github.com/packfs/packfs/internal/shared/types"
)

// splitFamily is a family backed by a subdirectory, one subdirectory per
// version.
type splitFamily struct {
	repo     *Repository
	location string
	name     string
}

func (f *splitFamily) ResourceKey() registry.Key {
	return registry.Key{
		Kind:     registry.KindFamily,
		Location: f.location,
		Name:     f.name,
		Index:    registry.NoIndex,
	}
}

func (f *splitFamily) Name() string     { return f.name }
func (f *splitFamily) Location() string { return f.location }

func (f *splitFamily) path() string { return filepath.Join(f.location, f.name) }
func (f *splitFamily) URI() string  { return f.path() }

func (f *splitFamily) LastReleaseTime() int64 {
	// a variant publish touches the family directory, so its mtime tracks
	// the newest release
	return mtimeOrZero(f.path())
}

// Packages checks for an unversioned metadata file before any version scan;
// if present it shadows every version subdirectory.
func (f *splitFamily) Packages() ([]Package, error) {
	if _, _, ok := findMetadataFile(f.path(), metadataFilename); ok {
		pkg := f.repo.splitPackage(f.location, f.name, "")
		return []Package{pkg}, nil
	}

	versions, err := f.repo.listing.VersionDirs(f.path())
	if err != nil {
		return nil, err
	}
	packages := make([]Package, 0, len(versions))
	for _, v := range versions {
		packages = append(packages, f.repo.splitPackage(f.location, f.name, v))
	}
	return packages, nil
}

// splitPackage is one version directory (or the unversioned family root).
// File probe and document load resolve on demand and cache in place; a
// failed probe or load is retried on the next call.
type splitPackage struct {
	repo     *Repository
	location string
	name     string
	version  string

	mu         sync.Mutex
	filePath   string
	fileFormat serialize.FileFormat
	doc        types.Document
}

func (p *splitPackage) ResourceKey() registry.Key {
	return registry.Key{
		Kind:     registry.KindPackage,
		Location: p.location,
		Name:     p.name,
		Version:  p.version,
		Index:    registry.NoIndex,
	}
}

func (p *splitPackage) Name() string    { return p.name }
func (p *splitPackage) Version() string { return p.version }

func (p *splitPackage) path() string {
	path := filepath.Join(p.location, p.name)
	if p.version != "" {
		path = filepath.Join(path, p.version)
	}
	return path
}

func (p *splitPackage) Base() string { return p.path() }

func (p *splitPackage) URI() string {
	path, _, _ := p.resolveFile()
	return path
}

// resolveFile probes for the metadata file, memoizing only success so a
// package resolved before its file lands re-probes later.
func (p *splitPackage) resolveFile() (string, serialize.FileFormat, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolveFileLocked()
}

func (p *splitPackage) resolveFileLocked() (string, serialize.FileFormat, bool) {
	if p.filePath != "" {
		return p.filePath, p.fileFormat, true
	}
	path, format, ok := findMetadataFile(p.path(), metadataFilename)
	if ok {
		p.filePath, p.fileFormat = path, format
	}
	return path, format, ok
}

func (p *splitPackage) StateHandle() types.StateHandle {
	path, _, ok := p.resolveFile()
	if !ok {
		return types.HandleUnset
	}
	info, err := os.Stat(path)
	if err != nil {
		return types.HandleUnset
	}
	return types.HandleFromTime(info.ModTime())
}

func (p *splitPackage) Data() (types.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc != nil {
		return p.doc, nil
	}

	path, format, ok := p.resolveFileLocked()
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrMetadataMissing, p.path())
	}

	doc, err := serialize.Load(path, format)
	p.repo.metrics.RecordLoad(string(format), err)
	if err != nil {
		return nil, err
	}

	if _, ok := doc["timestamp"]; !ok {
		if err := p.repo.backfillLegacy(doc, filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	p.doc = doc
	return doc, nil
}

func (p *splitPackage) Variants() ([]Variant, error) {
	doc, err := p.Data()
	if err != nil {
		return nil, err
	}
	indexes := variantIndexes(doc)
	variants := make([]Variant, 0, len(indexes))
	for _, idx := range indexes {
		variants = append(variants, p.repo.splitVariant(p.location, p.name, p.version, idx))
	}
	return variants, nil
}

func (p *splitPackage) Parent() Family {
	return p.repo.splitFamily(p.location, p.name)
}

// splitVariant holds no parent reference; the owning package is re-resolved
// through the registry from the variant's own identity.
type splitVariant struct {
	repo     *Repository
	location string
	name     string
	version  string
	index    int
}

func (v *splitVariant) ResourceKey() registry.Key {
	return registry.Key{
		Kind:     registry.KindVariant,
		Location: v.location,
		Name:     v.name,
		Version:  v.version,
		Index:    v.index,
	}
}

func (v *splitVariant) Name() string    { return v.name }
func (v *splitVariant) Version() string { return v.version }
func (v *splitVariant) Index() int      { return v.index }

func (v *splitVariant) Root() string {
	return v.Parent().Base()
}

func (v *splitVariant) Parent() Package {
	return v.repo.splitPackage(v.location, v.name, v.version)
}
