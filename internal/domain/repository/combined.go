package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/packfs/packfs/internal/domain/registry"
	"github.com/packfs/packfs/internal/serialize"
	"github.com/packfs/packfs/internal/shared/types"
	"github.com/packfs/packfs/internal/shared/version"
)

// combinedFamily is a family backed by one file holding every version,
// with optional per-version-range overrides.
type combinedFamily struct {
	repo     *Repository
	location string
	name     string
	ext      string

	mu        sync.Mutex
	doc       types.Document
	versions  []string
	overrides []override
}

// override is one declared version_overrides entry, in declaration order.
type override struct {
	rng  version.Range
	data types.Document
}

func (f *combinedFamily) ResourceKey() registry.Key {
	return registry.Key{
		Kind:     registry.KindCombinedFamily,
		Location: f.location,
		Name:     f.name,
		Ext:      f.ext,
		Index:    registry.NoIndex,
	}
}

func (f *combinedFamily) Name() string     { return f.name }
func (f *combinedFamily) Location() string { return f.location }

func (f *combinedFamily) filePath() string {
	return filepath.Join(f.location, f.name+"."+f.ext)
}

func (f *combinedFamily) URI() string { return f.filePath() }

func (f *combinedFamily) LastReleaseTime() int64 {
	return mtimeOrZero(f.filePath())
}

func (f *combinedFamily) Packages() ([]Package, error) {
	if err := f.load(); err != nil {
		return nil, err
	}

	if len(f.versions) == 0 {
		pkg := f.repo.combinedPackage(f.location, f.name, f.ext, "")
		return []Package{pkg}, nil
	}

	packages := make([]Package, 0, len(f.versions))
	for _, v := range f.versions {
		packages = append(packages, f.repo.combinedPackage(f.location, f.name, f.ext, v))
	}
	return packages, nil
}

// load parses the family file once, extracting the declared version list
// and the overrides in declaration order.
func (f *combinedFamily) load() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc != nil {
		return nil
	}

	format, ok := serialize.FormatForExtension(f.ext)
	if !ok {
		return fmt.Errorf("%w: %s: unknown extension %q", types.ErrParse, f.filePath(), f.ext)
	}

	raw, err := serialize.ReadRaw(f.filePath())
	if err != nil {
		return err
	}
	doc, err := serialize.Parse(raw, format, f.filePath())
	f.repo.metrics.RecordLoad(string(format), err)
	if err != nil {
		return err
	}

	versions := make([]string, 0)
	for _, v := range doc.GetList("versions") {
		versions = append(versions, scalarString(v))
	}

	overrides, err := parseOverrides(doc, raw, format, f.filePath())
	if err != nil {
		return err
	}

	f.doc = doc
	f.versions = versions
	f.overrides = overrides
	return nil
}

func (f *combinedFamily) familyDoc() (types.Document, []override, error) {
	if err := f.load(); err != nil {
		return nil, nil, err
	}
	return f.doc, f.overrides, nil
}

// parseOverrides realizes version_overrides in declaration order. Decoded
// maps have no order; serialize.KeyOrder recovers the declared order of the
// range expressions, which is load-bearing when ranges overlap.
func parseOverrides(doc types.Document, raw []byte, format serialize.FileFormat, path string) ([]override, error) {
	section, ok := doc["version_overrides"].(map[string]interface{})
	if !ok || len(section) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(section))
	for expr := range section {
		keys = append(keys, expr)
	}
	exprs, err := serialize.KeyOrder(raw, format, "version_overrides", keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: version_overrides: %v", types.ErrParse, path, err)
	}

	overrides := make([]override, 0, len(exprs))
	for _, expr := range exprs {
		rng, err := version.ParseRange(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: version_overrides: %v", types.ErrParse, path, err)
		}
		fragment, ok := section[expr].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s: version_overrides[%q] is not a mapping", types.ErrParse, path, expr)
		}
		overrides = append(overrides, override{rng: rng, data: types.Document(fragment)})
	}
	return overrides, nil
}

// scalarString renders a scalar declared loosely (a YAML bare 1.0 decodes
// as a float) back to its version-string form.
func scalarString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// combinedPackage is one declared version inside a combined family file.
type combinedPackage struct {
	repo     *Repository
	location string
	name     string
	ext      string
	version  string

	mu  sync.Mutex
	doc types.Document
}

func (p *combinedPackage) ResourceKey() registry.Key {
	return registry.Key{
		Kind:     registry.KindCombinedPackage,
		Location: p.location,
		Name:     p.name,
		Ext:      p.ext,
		Version:  p.version,
		Index:    registry.NoIndex,
	}
}

func (p *combinedPackage) Name() string    { return p.name }
func (p *combinedPackage) Version() string { return p.version }

func (p *combinedPackage) family() *combinedFamily {
	return p.repo.combinedFamily(p.location, p.name, p.ext)
}

func (p *combinedPackage) URI() string {
	return fmt.Sprintf("%s<%s>", p.family().filePath(), p.version)
}

// Base is always empty: the combined layout has no per-package directory.
func (p *combinedPackage) Base() string { return "" }

// StateHandle is the family file's mtime; one write to the family file
// invalidates every package of the family at once.
func (p *combinedPackage) StateHandle() types.StateHandle {
	info, err := os.Stat(p.family().filePath())
	if err != nil {
		return types.HandleUnset
	}
	return types.HandleFromTime(info.ModTime())
}

// Data derives this package's document from the family document: strip the
// version list, stamp the version, and apply the first override whose range
// contains it, in declaration order.
func (p *combinedPackage) Data() (types.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc != nil {
		return p.doc, nil
	}

	familyDoc, overrides, err := p.family().familyDoc()
	if err != nil {
		return nil, err
	}

	doc := familyDoc.Copy()
	delete(doc, "versions")

	if p.version != "" {
		doc["version"] = p.version
		ver := version.Parse(p.version)
		for _, o := range overrides {
			if o.rng.Contains(ver) {
				for k, v := range o.data {
					doc[k] = v
				}
				break
			}
		}
	}
	delete(doc, "version_overrides")

	p.doc = doc
	return doc, nil
}

func (p *combinedPackage) Variants() ([]Variant, error) {
	doc, err := p.Data()
	if err != nil {
		return nil, err
	}
	indexes := variantIndexes(doc)
	variants := make([]Variant, 0, len(indexes))
	for _, idx := range indexes {
		variants = append(variants, p.repo.combinedVariant(p.location, p.name, p.ext, p.version, idx))
	}
	return variants, nil
}

func (p *combinedPackage) Parent() Family {
	return p.family()
}

// combinedVariant lives entirely inside the family file; it has no
// filesystem root.
type combinedVariant struct {
	repo     *Repository
	location string
	name     string
	ext      string
	version  string
	index    int
}

func (v *combinedVariant) ResourceKey() registry.Key {
	return registry.Key{
		Kind:     registry.KindCombinedVariant,
		Location: v.location,
		Name:     v.name,
		Ext:      v.ext,
		Version:  v.version,
		Index:    v.index,
	}
}

func (v *combinedVariant) Name() string    { return v.name }
func (v *combinedVariant) Version() string { return v.version }
func (v *combinedVariant) Index() int      { return v.index }
func (v *combinedVariant) Root() string    { return "" }

func (v *combinedVariant) Parent() Package {
	return v.repo.combinedPackage(v.location, v.name, v.ext, v.version)
}
