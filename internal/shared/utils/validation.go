package utils

import (
	"fmt"
	"regexp"

	"github.com/packfs/packfs/internal/shared/types"
)

// Name length limits
const (
	MaxNameLength = 256
)

// Regular expressions for validation
var (
	// PackageNamePattern allows alphanumeric and underscore tokens joined by
	// single dots: "python", "python_utils", "ext.plugin_2".
	PackageNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)
)

// IsValidPackageName reports whether name is a legal package family name.
func IsValidPackageName(name string) bool {
	if name == "" || len(name) > MaxNameLength {
		return false
	}
	return PackageNamePattern.MatchString(name)
}

// ValidatePackageName is the raising variant of IsValidPackageName, for
// user-facing lookups where a malformed name is a caller error.
func ValidatePackageName(name string) error {
	if !IsValidPackageName(name) {
		return fmt.Errorf("%w: %q", types.ErrInvalidName, name)
	}
	return nil
}
