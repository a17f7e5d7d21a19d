package repository

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/packfs/packfs/internal/serialize"
	"github.com/packfs/packfs/internal/shared/types"

	"go.uber.org/zap"
)

// Legacy on-disk names, kept for catalogs written by old release tooling.
const (
	legacyReleaseFile = "release.yaml"
	legacyMetadataDir = ".metadata"
	legacyChangelog   = "changelog.txt"
	legacyReleaseTime = "release_time.txt"
	truncationMarker  = "..."
)

// backfillLegacy fills fields a pre-timestamp package definition lacks,
// from whichever legacy source exists under dir. Fields already present in
// doc are never overwritten. Best-effort: a missing source leaves doc
// untouched, a malformed release-time integer is silently skipped.
func (r *Repository) backfillLegacy(doc types.Document, dir string) error {
	legacy, err := r.loadLegacy(dir)
	if err != nil {
		return err
	}
	if len(legacy) == 0 {
		return nil
	}

	merged := false
	for k, v := range legacy {
		if _, exists := doc[k]; !exists {
			doc[k] = v
			merged = true
		}
	}
	if merged {
		r.metrics.RecordLegacyMigration()
		r.log.Debug("Backfilled legacy release metadata",
			zap.String("dir", dir))
	}
	return nil
}

func (r *Repository) loadLegacy(dir string) (types.Document, error) {
	releasePath := filepath.Join(dir, legacyReleaseFile)
	if info, err := os.Stat(releasePath); err == nil && !info.IsDir() {
		data, err := serialize.Load(releasePath, serialize.FormatYAML)
		if err != nil {
			return nil, err
		}
		r.normalizeChangelog(data)
		return data, nil
	}

	metaDir := filepath.Join(dir, legacyMetadataDir)
	if info, err := os.Stat(metaDir); err != nil || !info.IsDir() {
		return nil, nil
	}

	data := types.Document{}

	if text, err := serialize.LoadText(filepath.Join(metaDir, legacyChangelog)); err == nil {
		data["changelog"] = r.truncateChangelog(text)
	}

	if text, err := serialize.LoadText(filepath.Join(metaDir, legacyReleaseTime)); err == nil {
		// malformed integers leave the timestamp absent rather than
		// failing the whole load
		if ts, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
			data["timestamp"] = ts
		}
	}

	return data, nil
}

// normalizeChangelog fixes up changelogs from old release tooling: they can
// arrive as a list of lines, and can exceed the configured budget since old
// releases did not truncate before publishing.
func (r *Repository) normalizeChangelog(data types.Document) {
	raw, ok := data["changelog"]
	if !ok {
		return
	}

	var changelog string
	switch v := raw.(type) {
	case string:
		changelog = v
	case []interface{}:
		lines := make([]string, 0, len(v))
		for _, line := range v {
			lines = append(lines, scalarString(line))
		}
		changelog = strings.Join(lines, "\n")
	default:
		return
	}

	data["changelog"] = r.truncateChangelog(changelog)
}

func (r *Repository) truncateChangelog(changelog string) string {
	maxlen := r.maxChangelogChars
	if len(changelog) <= maxlen+len(truncationMarker) {
		return changelog
	}
	// back off to a rune boundary so the cut never splits a multi-byte rune
	cut := maxlen
	for cut > 0 && !utf8.RuneStart(changelog[cut]) {
		cut--
	}
	return changelog[:cut] + truncationMarker
}
