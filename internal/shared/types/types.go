package types

import "time"

// Document is a parsed package metadata document. It is loaded once and
// treated as immutable after load; consumers must not mutate it.
type Document map[string]interface{}

// Copy returns a shallow copy, used when a derived document (e.g. a combined
// package) needs to diverge from its parent without touching it.
func (d Document) Copy() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// GetString returns a string field, or "" when absent or not a string.
func (d Document) GetString(key string) string {
	s, _ := d[key].(string)
	return s
}

// GetStrings returns a field declared as a sequence of strings. Scalars of
// other types inside the sequence are skipped.
func (d Document) GetStrings(key string) []string {
	raw, ok := d[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetList returns a field declared as a sequence, or nil.
func (d Document) GetList(key string) []interface{} {
	raw, _ := d[key].([]interface{})
	return raw
}

// StateHandle is an opaque staleness token derived from a file modification
// time. Consumers compare handles across accesses to detect on-disk change;
// the zero handle means "unset" (no metadata file was found).
type StateHandle int64

// HandleUnset is the sentinel for a package with no resolved metadata file.
const HandleUnset StateHandle = 0

// HandleFromTime derives a state handle from a file modification time.
func HandleFromTime(t time.Time) StateHandle {
	return StateHandle(t.UnixNano())
}

// IsSet reports whether the handle carries a real modification time.
func (h StateHandle) IsSet() bool {
	return h != HandleUnset
}
