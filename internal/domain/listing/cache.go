package listing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/packfs/packfs/internal/infrastructure/monitoring"
	"github.com/packfs/packfs/internal/shared/types"
)

// FamilyEntry is one family candidate discovered in a catalog root.
type FamilyEntry struct {
	// Name is the family name (file extension already stripped).
	Name string
	// Ext is the metadata extension for combined-family files, "" for
	// split-family directories.
	Ext string
}

// IsDir reports whether the entry is a split-family directory.
func (e FamilyEntry) IsDir() bool { return e.Ext == "" }

// Key fingerprints one directory's identity and modification time.
type Key struct {
	Path  string
	Inode uint64
	MTime int64
}

// Cache memoizes directory listings keyed by fingerprint. Safe for
// concurrent readers; entries are replaced wholesale, never mutated.
type Cache struct {
	valid    func(string) bool
	exts     []string
	metrics  *monitoring.Metrics
	families sync.Map // dir path -> *familyListing
	versions sync.Map // dir path -> *versionListing
}

type familyListing struct {
	key     Key
	entries []FamilyEntry
}

type versionListing struct {
	key   Key
	names []string
}

// New creates a cache. valid is the package-name predicate applied during
// family discovery; exts are the recognized metadata extensions (without
// dot) in priority order.
func New(valid func(string) bool, exts []string, metrics *monitoring.Metrics) *Cache {
	return &Cache{valid: valid, exts: exts, metrics: metrics}
}

// Fingerprint stats dir and returns its cache key. A missing or unlistable
// directory yields an error wrapping types.ErrNotFound.
func (c *Cache) Fingerprint(dir string) (Key, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Key{}, fmt.Errorf("%w: %s", types.ErrNotFound, dir)
		}
		return Key{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	key := Key{Path: dir, MTime: info.ModTime().UnixNano()}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		key.Inode = st.Ino
	}
	return key, nil
}

// FamilyEntries lists family candidates directly under dir: subdirectories
// passing the name predicate (split families) and files with a recognized
// metadata extension whose stem passes it (combined families). The result
// is in name-sorted listing order.
func (c *Cache) FamilyEntries(dir string) ([]FamilyEntry, error) {
	key, err := c.Fingerprint(dir)
	if err != nil {
		c.metrics.RecordListingError()
		return nil, err
	}

	if cached, ok := c.families.Load(dir); ok {
		if l := cached.(*familyListing); l.key == key {
			c.metrics.RecordListing(true)
			return l.entries, nil
		}
	}
	c.metrics.RecordListing(false)

	entries, err := c.scanFamilies(dir)
	if err != nil {
		c.metrics.RecordListingError()
		return nil, err
	}
	c.families.Store(dir, &familyListing{key: key, entries: entries})
	return entries, nil
}

// VersionDirs lists version subdirectories of a family directory, excluding
// reserved dot-prefixed entries.
func (c *Cache) VersionDirs(dir string) ([]string, error) {
	key, err := c.Fingerprint(dir)
	if err != nil {
		c.metrics.RecordListingError()
		return nil, err
	}

	if cached, ok := c.versions.Load(dir); ok {
		if l := cached.(*versionListing); l.key == key {
			c.metrics.RecordListing(true)
			return l.names, nil
		}
	}
	c.metrics.RecordListing(false)

	names, err := c.scanVersions(dir)
	if err != nil {
		c.metrics.RecordListingError()
		return nil, err
	}
	c.versions.Store(dir, &versionListing{key: key, names: names})
	return names, nil
}

func (c *Cache) scanFamilies(dir string) ([]FamilyEntry, error) {
	dirents, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	entries := []FamilyEntry{}
	for _, d := range dirents {
		name := d.Name()
		if isDir(dir, d) {
			if c.valid(name) {
				entries = append(entries, FamilyEntry{Name: name})
			}
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if !c.recognized(ext) {
			continue
		}
		stem := strings.TrimSuffix(name, "."+ext)
		if c.valid(stem) {
			entries = append(entries, FamilyEntry{Name: stem, Ext: ext})
		}
	}
	return entries, nil
}

func (c *Cache) scanVersions(dir string) ([]string, error) {
	dirents, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if isDir(dir, d) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (c *Cache) recognized(ext string) bool {
	for _, e := range c.exts {
		if e == ext {
			return true
		}
	}
	return false
}

func readDir(dir string) ([]os.DirEntry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	return dirents, nil
}

// isDir follows symlinks, so a linked version directory still counts.
func isDir(dir string, d os.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, d.Name()))
	return err == nil && info.IsDir()
}
