// Package version implements the dotted version scheme used by catalog
// packages and the range expressions used by combined-family overrides.
//
// Versions are not semver: tokens like "BETA" are legal ("2.0.BETA.16") and
// order lexically against other alphanumeric tokens, while purely numeric
// tokens order numerically.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an immutable parsed version.
type Version struct {
	raw    string
	tokens []token
}

type token struct {
	num     int64
	str     string
	numeric bool
}

func parseToken(s string) token {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return token{num: n, str: s, numeric: true}
	}
	return token{str: s}
}

func compareTokens(a, b token) int {
	if a.numeric && b.numeric {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.str, b.str)
}

// Parse parses a version string. Tokens are separated by '.' or '-'; the
// empty string parses to the empty (unversioned) version.
func Parse(s string) Version {
	if s == "" {
		return Version{}
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-'
	})
	tokens := make([]token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, parseToken(f))
	}
	return Version{raw: s, tokens: tokens}
}

// String returns the original string form.
func (v Version) String() string { return v.raw }

// IsEmpty reports whether this is the empty (unversioned) version.
func (v Version) IsEmpty() bool { return len(v.tokens) == 0 }

// Compare returns -1, 0 or 1 ordering a against b. The empty version sorts
// before everything; a version sorts before its descendants ("1.0" < "1.0.5").
func Compare(a, b Version) int {
	n := len(a.tokens)
	if len(b.tokens) < n {
		n = len(b.tokens)
	}
	for i := 0; i < n; i++ {
		if c := compareTokens(a.tokens[i], b.tokens[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.tokens) < len(b.tokens):
		return -1
	case len(a.tokens) > len(b.tokens):
		return 1
	}
	return 0
}

// Next returns the smallest version strictly greater than v and all of v's
// descendants, by bumping v's last token. Used as the exclusive upper bound
// of a plain-version range: "1.0" covers [1.0, 1.1).
func (v Version) Next() Version {
	if v.IsEmpty() {
		return v
	}
	out := Version{raw: v.raw, tokens: make([]token, len(v.tokens))}
	copy(out.tokens, v.tokens)
	last := &out.tokens[len(out.tokens)-1]
	if last.numeric {
		last.num++
		last.str = strconv.FormatInt(last.num, 10)
	} else {
		// "\x00" is the immediate lexical successor suffix
		last.str += "\x00"
	}
	return out
}

// Range is a parsed version-range expression.
type Range struct {
	expr      string
	lower     Version // inclusive; empty = unbounded
	upper     Version // exclusive unless upperIncl; empty = unbounded
	upperIncl bool    // "lo..hi": hi itself is in range, its descendants are not
	exact     bool    // "==X": exact match on X only
}

// ParseRange parses a range expression. Supported forms:
//
//	""          any version
//	"1.0"       1.0 and its descendants: [1.0, 1.1)
//	"1.1+"      at least 1.1
//	"<2"        less than 2
//	"==1.0"     exactly 1.0
//	"1.0..1.2"  inclusive span: 1.0 through 1.2 itself
func ParseRange(expr string) (Range, error) {
	r := Range{expr: expr}
	switch {
	case expr == "":
		return r, nil
	case strings.HasPrefix(expr, "=="):
		v := Parse(strings.TrimPrefix(expr, "=="))
		if v.IsEmpty() {
			return r, fmt.Errorf("malformed range %q", expr)
		}
		r.lower, r.exact = v, true
		return r, nil
	case strings.HasPrefix(expr, "<"):
		v := Parse(strings.TrimPrefix(expr, "<"))
		if v.IsEmpty() {
			return r, fmt.Errorf("malformed range %q", expr)
		}
		r.upper = v
		return r, nil
	case strings.HasSuffix(expr, "+"):
		v := Parse(strings.TrimSuffix(expr, "+"))
		if v.IsEmpty() {
			return r, fmt.Errorf("malformed range %q", expr)
		}
		r.lower = v
		return r, nil
	case strings.Contains(expr, ".."):
		parts := strings.SplitN(expr, "..", 2)
		lo, hi := Parse(parts[0]), Parse(parts[1])
		if lo.IsEmpty() || hi.IsEmpty() {
			return r, fmt.Errorf("malformed range %q", expr)
		}
		r.lower, r.upper, r.upperIncl = lo, hi, true
		return r, nil
	default:
		v := Parse(expr)
		r.lower, r.upper = v, v.Next()
		return r, nil
	}
}

// String returns the original expression.
func (r Range) String() string { return r.expr }

// Contains reports whether v falls within the range.
func (r Range) Contains(v Version) bool {
	if r.exact {
		return Compare(v, r.lower) == 0
	}
	if !r.lower.IsEmpty() && Compare(v, r.lower) < 0 {
		return false
	}
	if !r.upper.IsEmpty() {
		c := Compare(v, r.upper)
		if c > 0 || (c == 0 && !r.upperIncl) {
			return false
		}
	}
	return true
}
