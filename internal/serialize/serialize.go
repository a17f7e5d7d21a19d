package serialize

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/packfs/packfs/internal/shared/types"
)

// FileFormat identifies a metadata file format by its extension.
type FileFormat string

const (
	// FormatYAML is the primary structured metadata format.
	FormatYAML FileFormat = "yaml"
	// FormatTOML is the legacy structured metadata format.
	FormatTOML FileFormat = "toml"
	// FormatText is plain text, used by legacy changelog/release-time files.
	FormatText FileFormat = "txt"
)

// Formats lists the structured formats in probe priority order.
var Formats = []FileFormat{FormatYAML, FormatTOML}

// Extension returns the file extension (without dot) for the format.
func (f FileFormat) Extension() string { return string(f) }

// FormatForExtension maps an extension (without dot) to a structured format.
func FormatForExtension(ext string) (FileFormat, bool) {
	switch ext {
	case "yaml":
		return FormatYAML, true
	case "toml":
		return FormatTOML, true
	}
	return "", false
}

// Load reads and parses a metadata file into a document. A vanished path
// yields an error wrapping types.ErrNotFound; malformed content yields one
// wrapping types.ErrParse.
func Load(path string, format FileFormat) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, format, path)
}

// Parse parses raw metadata content. path is used for error reporting only.
func Parse(data []byte, format FileFormat, path string) (types.Document, error) {
	var doc types.Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrParse, path, err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrParse, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s: unsupported format %q", types.ErrParse, path, format)
	}
	if doc == nil {
		doc = types.Document{}
	}
	return doc, nil
}

// LoadText reads a plain-text file whole.
func LoadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", types.ErrNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// KeyOrder sorts keys by their declaration order inside the named top-level
// mapping of raw. Map decoding loses mapping order, which matters when the
// keys are range expressions applied first-match-wins. YAML order comes from
// an order-preserving re-decode; TOML has no ordered decode, so order is
// recovered from the raw bytes, anchored to each key's quoted form so a key
// that is a prefix of another ("1.1" vs "1.1+") cannot tie with it.
func KeyOrder(raw []byte, format FileFormat, section string, keys []string) ([]string, error) {
	if format == FormatYAML {
		return yamlKeyOrder(raw, section, keys)
	}
	return scanKeyOrder(raw, section, keys), nil
}

func yamlKeyOrder(raw []byte, section string, keys []string) ([]string, error) {
	var ms yaml.MapSlice
	if err := yaml.UnmarshalWithOptions(raw, &ms, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	for _, item := range ms {
		if fmt.Sprintf("%v", item.Key) != section {
			continue
		}
		nested, ok := item.Value.(yaml.MapSlice)
		if !ok {
			break
		}
		ordered := make([]string, 0, len(nested))
		for _, it := range nested {
			ordered = append(ordered, fmt.Sprintf("%v", it.Key))
		}
		return ordered, nil
	}
	return keys, nil
}

func scanKeyOrder(raw []byte, section string, keys []string) []string {
	start := bytes.Index(raw, []byte(section))
	if start < 0 {
		start = 0
	}
	tail := raw[start:]
	ordered := append([]string(nil), keys...)
	sort.Slice(ordered, func(i, j int) bool {
		oi, oj := keyOffset(tail, ordered[i]), keyOffset(tail, ordered[j])
		if oi != oj {
			return oi < oj
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}

// keyOffset prefers the quoted spellings of key; a bare match is only a
// fallback, and a key absent from the tail sorts last.
func keyOffset(tail []byte, key string) int {
	for _, form := range []string{`"` + key + `"`, `'` + key + `'`} {
		if i := bytes.Index(tail, []byte(form)); i >= 0 {
			return i
		}
	}
	if i := bytes.Index(tail, []byte(key)); i >= 0 {
		return i
	}
	return len(tail)
}

// ReadRaw reads a metadata file without parsing it. Combined families use
// this to recover mapping declaration order the decoders discard.
func ReadRaw(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
