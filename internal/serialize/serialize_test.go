package serialize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packfs/packfs/internal/shared/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "package.yaml", "name: python\nversion: '2.7'\nrequires:\n- utils-1\n")

	doc, err := Load(path, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "python", doc.GetString("name"))
	assert.Equal(t, "2.7", doc.GetString("version"))
	assert.Equal(t, []string{"utils-1"}, doc.GetStrings("requires"))
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "package.toml", "name = \"python\"\nversion = \"2.7\"\n")

	doc, err := Load(path, FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, "python", doc.GetString("name"))
	assert.Equal(t, "2.7", doc.GetString("version"))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), FormatYAML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "package.yaml", "name: [unclosed\n")

	_, err := Load(path, FormatYAML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrParse))
}

func TestLoadEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "package.yaml", "")

	doc, err := Load(path, FormatYAML)
	require.NoError(t, err)
	assert.NotNil(t, doc)
	assert.Empty(t, doc)
}

func TestFormatForExtension(t *testing.T) {
	f, ok := FormatForExtension("yaml")
	assert.True(t, ok)
	assert.Equal(t, FormatYAML, f)

	f, ok = FormatForExtension("toml")
	assert.True(t, ok)
	assert.Equal(t, FormatTOML, f)

	_, ok = FormatForExtension("py")
	assert.False(t, ok)
}

func TestKeyOrderYAML(t *testing.T) {
	raw := []byte("name: x\nversion_overrides:\n    '1.1+':\n        a: 1\n    '1.1':\n        a: 2\n    '1.0':\n        a: 3\n")

	ordered, err := KeyOrder(raw, FormatYAML, "version_overrides", []string{"1.0", "1.1", "1.1+"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1+", "1.1", "1.0"}, ordered)
}

func TestKeyOrderTOML(t *testing.T) {
	raw := []byte("name = \"x\"\n\n[version_overrides.\"1.1+\"]\na = 1\n[version_overrides.\"1.1\"]\na = 2\n")

	ordered, err := KeyOrder(raw, FormatTOML, "version_overrides", []string{"1.1", "1.1+"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1+", "1.1"}, ordered)
}

func TestLoadText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "release_time.txt", "1400000000\n")

	text, err := LoadText(path)
	require.NoError(t, err)
	assert.Equal(t, "1400000000\n", text)
}
