package update

import (
	"fmt"
	"strconv"
	"strings"
)

// Version represents a parsed dotted numeric version such as "1.0.53" or "v2.1".
// Any number of components is accepted; missing trailing components compare as zero.
type Version struct {
	Parts []int
	Raw   string
}

// ParseVersion parses a version string in the format "v1.0.4" or "1.0.4".
// Every dot-separated component must be a non-negative decimal integer.
func ParseVersion(v string) (*Version, error) {
	raw := v
	v = strings.TrimSpace(v)
	if len(v) > 0 && (v[0] == 'v' || v[0] == 'V') {
		v = v[1:]
	}

	if v == "" {
		return nil, fmt.Errorf("%w: %q is empty", ErrInvalidVersion, raw)
	}

	fields := strings.Split(v, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		if f == "" || strings.TrimLeft(f, "0123456789") != "" {
			return nil, fmt.Errorf("%w: component %q of %q is not numeric", ErrInvalidVersion, f, raw)
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: component %q of %q: %v", ErrInvalidVersion, f, raw, err)
		}
		parts = append(parts, n)
	}

	return &Version{Parts: parts, Raw: raw}, nil
}

// String returns the version in "vX.Y.Z" form.
func (v *Version) String() string {
	strs := make([]string, len(v.Parts))
	for i, p := range v.Parts {
		strs[i] = strconv.Itoa(p)
	}
	return "v" + strings.Join(strs, ".")
}

// Compare compares two versions and returns:
//   - -1 if v < other
//   - 0 if v == other
//   - 1 if v > other
func (v *Version) Compare(other *Version) int {
	n := max(len(v.Parts), len(other.Parts))
	for i := 0; i < n; i++ {
		if c := compareInts(component(v.Parts, i), component(other.Parts, i)); c != 0 {
			return c
		}
	}
	return 0
}

// IsNewerThan returns true if v is newer than other.
func (v *Version) IsNewerThan(other *Version) bool {
	return v.Compare(other) > 0
}

// IsNewer reports whether candidate is strictly greater than current.
// Both strings must parse with ParseVersion, otherwise an error wrapping
// ErrInvalidVersion is returned.
func IsNewer(candidate, current string) (bool, error) {
	c, err := ParseVersion(candidate)
	if err != nil {
		return false, fmt.Errorf("parsing candidate version: %w", err)
	}
	cur, err := ParseVersion(current)
	if err != nil {
		return false, fmt.Errorf("parsing current version: %w", err)
	}
	return c.IsNewerThan(cur), nil
}

// IsDev returns true for development builds that carry no release version.
func IsDev(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "dev"
}

func component(parts []int, i int) int {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

// compareInts compares two integers and returns -1, 0, or 1.
func compareInts(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
