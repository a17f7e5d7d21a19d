package repository

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadOnlyPackage(t *testing.T, repo *Repository, name string) Package {
	t.Helper()
	fam, err := repo.GetFamily(name)
	require.NoError(t, err)
	require.NotNil(t, fam)
	packages, err := repo.Packages(fam)
	require.NoError(t, err)
	require.Len(t, packages, 1)
	return packages[0]
}

func TestBackfillFromMetadataDir(t *testing.T) {
	root := t.TempDir()
	verDir := filepath.Join(root, "python", "1.0")
	write(t, filepath.Join(verDir, "package.yaml"), "name: python\n")
	write(t, filepath.Join(verDir, legacyMetadataDir, legacyReleaseTime), "1400000000\n")
	write(t, filepath.Join(verDir, legacyMetadataDir, legacyChangelog), "initial release\n")

	repo := newRepo(t, root)
	doc, err := loadOnlyPackage(t, repo, "python").Data()
	require.NoError(t, err)

	assert.EqualValues(t, 1400000000, doc["timestamp"])
	assert.Equal(t, "initial release\n", doc.GetString("changelog"))
}

func TestBackfillMalformedReleaseTimeIgnored(t *testing.T) {
	root := t.TempDir()
	verDir := filepath.Join(root, "python", "1.0")
	write(t, filepath.Join(verDir, "package.yaml"), "name: python\n")
	write(t, filepath.Join(verDir, legacyMetadataDir, legacyReleaseTime), "not-a-number\n")

	repo := newRepo(t, root)
	doc, err := loadOnlyPackage(t, repo, "python").Data()
	require.NoError(t, err)

	// best-effort: the load succeeds and the timestamp stays absent
	assert.NotContains(t, doc, "timestamp")
}

func TestBackfillSkippedWhenTimestampPresent(t *testing.T) {
	root := t.TempDir()
	verDir := filepath.Join(root, "python", "1.0")
	write(t, filepath.Join(verDir, "package.yaml"), "name: python\ntimestamp: 42\n")
	write(t, filepath.Join(verDir, legacyMetadataDir, legacyReleaseTime), "1400000000\n")
	write(t, filepath.Join(verDir, legacyMetadataDir, legacyChangelog), "old notes\n")

	repo := newRepo(t, root)
	doc, err := loadOnlyPackage(t, repo, "python").Data()
	require.NoError(t, err)

	assert.EqualValues(t, 42, doc["timestamp"])
	assert.NotContains(t, doc, "changelog")
}

func TestBackfillFromReleaseYaml(t *testing.T) {
	root := t.TempDir()
	verDir := filepath.Join(root, "python", "1.0")
	write(t, filepath.Join(verDir, "package.yaml"), "name: python\nauthors: [keeper]\n")
	write(t, filepath.Join(verDir, legacyReleaseFile),
		"timestamp: 1300000000\nauthors: [legacy_author]\nchangelog:\n- line one\n- line two\n")

	repo := newRepo(t, root)
	doc, err := loadOnlyPackage(t, repo, "python").Data()
	require.NoError(t, err)

	assert.EqualValues(t, 1300000000, doc["timestamp"])
	// list-of-lines changelog joined into one blob
	assert.Equal(t, "line one\nline two", doc.GetString("changelog"))
	// fields already present are never overwritten by legacy data
	assert.Equal(t, []string{"keeper"}, doc.GetStrings("authors"))
}

func TestBackfillPrefersReleaseYamlOverMetadataDir(t *testing.T) {
	root := t.TempDir()
	verDir := filepath.Join(root, "python", "1.0")
	write(t, filepath.Join(verDir, "package.yaml"), "name: python\n")
	write(t, filepath.Join(verDir, legacyReleaseFile), "timestamp: 1300000000\n")
	write(t, filepath.Join(verDir, legacyMetadataDir, legacyReleaseTime), "1400000000\n")

	repo := newRepo(t, root)
	doc, err := loadOnlyPackage(t, repo, "python").Data()
	require.NoError(t, err)

	assert.EqualValues(t, 1300000000, doc["timestamp"])
}

func TestChangelogTruncation(t *testing.T) {
	root := t.TempDir()
	verDir := filepath.Join(root, "python", "1.0")
	write(t, filepath.Join(verDir, "package.yaml"), "name: python\n")
	write(t, filepath.Join(verDir, legacyMetadataDir, legacyChangelog), strings.Repeat("x", 100))

	repo := New(root, Options{MaxChangelogChars: 20})
	doc, err := loadOnlyPackage(t, repo, "python").Data()
	require.NoError(t, err)

	changelog := doc.GetString("changelog")
	assert.Len(t, changelog, 20+len(truncationMarker))
	assert.Equal(t, strings.Repeat("x", 20)+truncationMarker, changelog)
}

func TestChangelogTruncationKeepsRuneBoundary(t *testing.T) {
	// 50 two-byte runes; a 21-byte budget lands mid-rune and must back off
	root := t.TempDir()
	verDir := filepath.Join(root, "python", "1.0")
	write(t, filepath.Join(verDir, "package.yaml"), "name: python\n")
	write(t, filepath.Join(verDir, legacyMetadataDir, legacyChangelog), strings.Repeat("é", 50))

	repo := New(root, Options{MaxChangelogChars: 21})
	doc, err := loadOnlyPackage(t, repo, "python").Data()
	require.NoError(t, err)

	changelog := doc.GetString("changelog")
	assert.True(t, utf8.ValidString(changelog))
	assert.Equal(t, strings.Repeat("é", 10)+truncationMarker, changelog)
}

func TestChangelogWithinBudgetUntouched(t *testing.T) {
	// a changelog at most budget+marker long is left alone
	root := t.TempDir()
	verDir := filepath.Join(root, "python", "1.0")
	write(t, filepath.Join(verDir, "package.yaml"), "name: python\n")
	write(t, filepath.Join(verDir, legacyMetadataDir, legacyChangelog), strings.Repeat("y", 23))

	repo := New(root, Options{MaxChangelogChars: 20})
	doc, err := loadOnlyPackage(t, repo, "python").Data()
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("y", 23), doc.GetString("changelog"))
}

func TestListChangelogJoinedBeforeLengthCheck(t *testing.T) {
	root := t.TempDir()
	verDir := filepath.Join(root, "python", "1.0")
	write(t, filepath.Join(verDir, "package.yaml"), "name: python\n")
	// 3 lines of 10 chars join to 32 chars, over a 25-char budget
	write(t, filepath.Join(verDir, legacyReleaseFile),
		"changelog:\n- aaaaaaaaaa\n- bbbbbbbbbb\n- cccccccccc\n")

	repo := New(root, Options{MaxChangelogChars: 25})
	doc, err := loadOnlyPackage(t, repo, "python").Data()
	require.NoError(t, err)

	joined := "aaaaaaaaaa\nbbbbbbbbbb\ncccccccccc"
	assert.Equal(t, joined[:25]+truncationMarker, doc.GetString("changelog"))
}
