package listing

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packfs/packfs/internal/shared/types"
	"github.com/packfs/packfs/internal/shared/utils"
)

func newCache() *Cache {
	return New(utils.IsValidPackageName, []string{"yaml", "toml"}, nil)
}

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(path, 0o755))
	return path
}

func touch(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.WriteFile(path, []byte("name: x\n"), 0o644))
	return path
}

func TestFamilyEntries(t *testing.T) {
	root := t.TempDir()
	mkdir(t, root, "python")
	mkdir(t, root, "maya_utils")
	touch(t, root, "combined.yaml")
	touch(t, root, "legacy.toml")
	touch(t, root, "README.md")       // unrecognized extension
	touch(t, root, "bad name.yaml")   // invalid stem
	mkdir(t, root, "not-a-package")   // invalid directory name
	touch(t, root, "loose")           // no extension at all

	entries, err := newCache().FamilyEntries(root)
	require.NoError(t, err)

	assert.ElementsMatch(t, []FamilyEntry{
		{Name: "python"},
		{Name: "maya_utils"},
		{Name: "combined", Ext: "yaml"},
		{Name: "legacy", Ext: "toml"},
	}, entries)
}

func TestVersionDirs(t *testing.T) {
	root := t.TempDir()
	fam := mkdir(t, root, "python")
	mkdir(t, fam, "2.7.0")
	mkdir(t, fam, "3.11")
	mkdir(t, fam, ".metadata") // reserved prefix excluded
	touch(t, fam, "package.yaml")

	names, err := newCache().VersionDirs(fam)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2.7.0", "3.11"}, names)
}

func TestMissingDirectory(t *testing.T) {
	c := newCache()

	_, err := c.FamilyEntries(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = c.VersionDirs(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestInvalidationOnMTimeChange(t *testing.T) {
	root := t.TempDir()
	fam := mkdir(t, root, "python")
	mkdir(t, fam, "1.0")

	c := newCache()
	names, err := c.VersionDirs(fam)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0"}, names)

	// adding a subdirectory updates the family dir mtime; force a distinct
	// timestamp so coarse filesystem clocks cannot mask the change
	mkdir(t, fam, "2.0")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(fam, future, future))

	names, err = c.VersionDirs(fam)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.0", "2.0"}, names)
}

func TestCachedResultReusedWhileKeyStable(t *testing.T) {
	root := t.TempDir()
	fam := mkdir(t, root, "python")
	mkdir(t, fam, "1.0")

	c := newCache()
	first, err := c.VersionDirs(fam)
	require.NoError(t, err)

	second, err := c.VersionDirs(fam)
	require.NoError(t, err)

	// same backing slice: served from cache, not re-scanned
	assert.Same(t, &first[0], &second[0])
}

func TestFingerprintChangesWithMTime(t *testing.T) {
	root := t.TempDir()
	c := newCache()

	k1, err := c.Fingerprint(root)
	require.NoError(t, err)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(root, future, future))

	k2, err := c.Fingerprint(root)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1.Path, k2.Path)
	assert.Equal(t, k1.Inode, k2.Inode)
}
