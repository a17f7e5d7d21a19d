package repository

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/packfs/packfs/internal/domain/listing"
	"github.com/packfs/packfs/internal/domain/registry"
	"github.com/packfs/packfs/internal/infrastructure/logging"
	"github.com/packfs/packfs/internal/infrastructure/monitoring"
	"github.com/packfs/packfs/internal/serialize"
	"github.com/packfs/packfs/internal/shared/types"
	"github.com/packfs/packfs/internal/shared/utils"
)

// RepositoryType tags the storage backend in repository UIDs.
const RepositoryType = "filesystem"

// DefaultMaxChangelogChars bounds changelogs recovered from legacy metadata.
const DefaultMaxChangelogChars = 65536

// Options configures a Repository. The zero value is usable: no-op logger,
// no metrics, default changelog budget.
type Options struct {
	Logger            *logging.Logger
	Metrics           *monitoring.Metrics
	MaxChangelogChars int
}

// UID identifies the physical directory behind a repository, so an outer
// multi-repository layer can detect two configured locations that are in
// fact the same directory.
type UID struct {
	Kind     string
	Location string
	Inode    uint64
}

// Repository is the entry point for catalog queries over one root location.
// It owns its listing cache, resource registry and memo tables; repositories
// over different locations share no state. Safe for concurrent readers.
type Repository struct {
	location string
	instance string
	log      *logging.Logger
	metrics  *monitoring.Metrics

	maxChangelogChars int

	listing   *listing.Cache
	resources *registry.Manager

	familyByName sync.Map // name -> Family
	packagesMemo sync.Map // family registry.Key -> []Package
	variantsMemo sync.Map // package registry.Key -> []Variant

	familiesMu  sync.Mutex
	familiesKey listing.Key
	familiesSeq []Family
}

// New creates a repository over location. No filesystem access happens
// until the first query.
func New(location string, opts Options) *Repository {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	maxChars := opts.MaxChangelogChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChangelogChars
	}

	exts := make([]string, 0, len(serialize.Formats))
	for _, f := range serialize.Formats {
		exts = append(exts, f.Extension())
	}

	r := &Repository{
		location:          filepath.Clean(location),
		instance:          uuid.NewString(),
		log:               log,
		metrics:           opts.Metrics,
		maxChangelogChars: maxChars,
		listing:           listing.New(utils.IsValidPackageName, exts, opts.Metrics),
		resources:         registry.NewManager(opts.Metrics),
	}
	r.log.Debug("Opened package repository",
		zap.String("location", r.location),
		zap.String("instance", r.instance))
	return r
}

// Location returns the catalog root.
func (r *Repository) Location() string { return r.location }

// UID stats the root location and returns the repository's identity.
func (r *Repository) UID() (UID, error) {
	info, err := os.Stat(r.location)
	if err != nil {
		return UID{}, fmt.Errorf("stat %s: %w", r.location, err)
	}
	uid := UID{Kind: RepositoryType, Location: r.location}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		uid.Inode = st.Ino
	}
	return uid, nil
}

// GetFamily looks up one family by name. A malformed name is an error; a
// missing family is a nil result, not an error. Found families are memoized
// per name; misses are not, so a family created later is picked up.
func (r *Repository) GetFamily(name string) (Family, error) {
	if err := utils.ValidatePackageName(name); err != nil {
		return nil, err
	}

	if cached, ok := r.familyByName.Load(name); ok {
		return cached.(Family), nil
	}

	var family Family
	// a directory takes precedence over a same-named combined file
	if info, err := os.Stat(filepath.Join(r.location, name)); err == nil && info.IsDir() {
		family = r.splitFamily(r.location, name)
	} else if _, format, ok := findMetadataFile(r.location, name); ok {
		family = r.combinedFamily(r.location, name, format.Extension())
	} else {
		return nil, nil
	}

	r.familyByName.Store(name, family)
	return family, nil
}

// Families lists every family in the catalog root. The realized sequence is
// memoized against the root listing fingerprint and re-derived only when
// the root directory's mtime changes.
func (r *Repository) Families() ([]Family, error) {
	key, err := r.listing.Fingerprint(r.location)
	if err != nil {
		return nil, err
	}

	r.familiesMu.Lock()
	defer r.familiesMu.Unlock()
	if r.familiesSeq != nil && r.familiesKey == key {
		return r.familiesSeq, nil
	}

	entries, err := r.listing.FamilyEntries(r.location)
	if err != nil {
		return nil, err
	}

	families := make([]Family, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			families = append(families, r.splitFamily(r.location, e.Name))
		} else {
			families = append(families, r.combinedFamily(r.location, e.Name, e.Ext))
		}
	}

	r.familiesKey = key
	r.familiesSeq = families
	return families, nil
}

// FindFamilies lists families whose name matches a doublestar glob pattern.
func (r *Repository) FindFamilies(pattern string) ([]Family, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	families, err := r.Families()
	if err != nil {
		return nil, err
	}
	matched := make([]Family, 0, len(families))
	for _, f := range families {
		if ok, _ := doublestar.Match(pattern, f.Name()); ok {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// Packages returns the family's packages, memoizing the realized sequence
// per resource so repeated calls do not re-walk the filesystem.
func (r *Repository) Packages(family Family) ([]Package, error) {
	key := family.ResourceKey()
	if cached, ok := r.packagesMemo.Load(key); ok {
		return cached.([]Package), nil
	}

	packages, err := family.Packages()
	if err != nil {
		return nil, err
	}
	actual, _ := r.packagesMemo.LoadOrStore(key, packages)
	return actual.([]Package), nil
}

// Variants returns the package's variants, memoized per resource.
func (r *Repository) Variants(pkg Package) ([]Variant, error) {
	key := pkg.ResourceKey()
	if cached, ok := r.variantsMemo.Load(key); ok {
		return cached.([]Variant), nil
	}

	variants, err := pkg.Variants()
	if err != nil {
		return nil, err
	}
	actual, _ := r.variantsMemo.LoadOrStore(key, variants)
	return actual.([]Variant), nil
}

// ParentFamily resolves a package's owning family.
func (r *Repository) ParentFamily(pkg Package) Family { return pkg.Parent() }

// ParentPackage resolves a variant's owning package.
func (r *Repository) ParentPackage(v Variant) Package { return v.Parent() }

// VariantStateHandle returns the staleness token of the variant's owning
// package.
func (r *Repository) VariantStateHandle(v Variant) types.StateHandle {
	return v.Parent().StateHandle()
}

// LastReleaseTime reports when family last saw a release, in unix seconds.
// Never errors; an inaccessible path reads as 0 (unknown).
func (r *Repository) LastReleaseTime(family Family) int64 {
	return family.LastReleaseTime()
}

// Warm primes the listing caches by walking family and version directories
// concurrently. Purely an optimization: queries after a warm run hit memory
// for discovery.
func (r *Repository) Warm() error {
	if _, err := r.listing.FamilyEntries(r.location); err != nil {
		return err
	}

	conf := fastwalk.Config{Follow: true}
	root := r.location
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() || p == root {
			return nil
		}
		// family level: list version dirs, then stop descending
		if utils.IsValidPackageName(d.Name()) {
			_, _ = r.listing.VersionDirs(p)
		}
		return fs.SkipDir
	})
	if err != nil {
		return fmt.Errorf("warm %s: %w", root, err)
	}

	r.log.Debug("Warmed listing caches",
		zap.String("location", root),
		zap.Int("resources", r.resources.Size()))
	return nil
}

// -- registry-mediated constructors

func (r *Repository) splitFamily(location, name string) Family {
	key := registry.Key{Kind: registry.KindFamily, Location: location, Name: name, Index: registry.NoIndex}
	res := r.resources.Get(key, func() registry.Resource {
		return &splitFamily{repo: r, location: location, name: name}
	})
	return res.(Family)
}

func (r *Repository) splitPackage(location, name, ver string) Package {
	key := registry.Key{Kind: registry.KindPackage, Location: location, Name: name, Version: ver, Index: registry.NoIndex}
	res := r.resources.Get(key, func() registry.Resource {
		return &splitPackage{repo: r, location: location, name: name, version: ver}
	})
	return res.(Package)
}

func (r *Repository) splitVariant(location, name, ver string, index int) Variant {
	key := registry.Key{Kind: registry.KindVariant, Location: location, Name: name, Version: ver, Index: index}
	res := r.resources.Get(key, func() registry.Resource {
		return &splitVariant{repo: r, location: location, name: name, version: ver, index: index}
	})
	return res.(Variant)
}

func (r *Repository) combinedFamily(location, name, ext string) *combinedFamily {
	key := registry.Key{Kind: registry.KindCombinedFamily, Location: location, Name: name, Ext: ext, Index: registry.NoIndex}
	res := r.resources.Get(key, func() registry.Resource {
		return &combinedFamily{repo: r, location: location, name: name, ext: ext}
	})
	return res.(*combinedFamily)
}

func (r *Repository) combinedPackage(location, name, ext, ver string) Package {
	key := registry.Key{Kind: registry.KindCombinedPackage, Location: location, Name: name, Ext: ext, Version: ver, Index: registry.NoIndex}
	res := r.resources.Get(key, func() registry.Resource {
		return &combinedPackage{repo: r, location: location, name: name, ext: ext, version: ver}
	})
	return res.(Package)
}

func (r *Repository) combinedVariant(location, name, ext, ver string, index int) Variant {
	key := registry.Key{Kind: registry.KindCombinedVariant, Location: location, Name: name, Ext: ext, Version: ver, Index: index}
	res := r.resources.Get(key, func() registry.Resource {
		return &combinedVariant{repo: r, location: location, name: name, ext: ext, version: ver, index: index}
	})
	return res.(Variant)
}
