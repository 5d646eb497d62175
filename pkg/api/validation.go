package api

import (
	"regexp"
	"strings"
)

// MaxPackageIDLength is the longest package identifier the feed accepts.
const MaxPackageIDLength = 100

var (
	packageIDPattern = regexp.MustCompile(`^\w+([_.-]\w+)*$`)
	versionPattern   = regexp.MustCompile(`^\d+(\.\d+){1,3}(-[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?(\+[0-9A-Za-z.-]+)?$`)
)

// ValidatePackageID reports whether id is a well-formed package identifier.
func ValidatePackageID(id string) bool {
	return len(id) > 0 && len(id) <= MaxPackageIDLength && packageIDPattern.MatchString(id)
}

// ValidateVersion reports whether v is a well-formed (semantic) version string.
func ValidateVersion(v string) bool {
	return versionPattern.MatchString(v)
}

// NormalizeVersion strips build metadata and trailing zero revision
// components so that "1.0.0.0" and "1.0.0+abc" both normalize to "1.0.0".
func NormalizeVersion(v string) string {
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v = v[:i]
	}
	release, pre, hasPre := strings.Cut(v, "-")
	parts := strings.Split(release, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	if len(parts) == 4 && parts[3] == "0" {
		parts = parts[:3]
	}
	out := strings.Join(parts, ".")
	if hasPre {
		out += "-" + pre
	}
	return out
}

// IsPrereleaseVersion reports whether v carries a prerelease label.
func IsPrereleaseVersion(v string) bool {
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v = v[:i]
	}
	return strings.Contains(v, "-")
}
