package persist

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

func parseVersion(raw string) (*version.Version, error) {
	v, err := version.NewSemver(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidVersion, raw, err)
	}
	return v, nil
}

// resetReason reports why a stored record must be replaced, or "" when it
// can be kept. Components compare numerically, so 1.10.0 is newer than 1.9.9.
func resetReason(record *Record, configured *version.Version) string {
	if record == nil {
		return "missing"
	}
	stored, err := version.NewSemver(record.Version)
	if err != nil {
		return "invalid_version"
	}
	if stored.LessThan(configured) {
		return "outdated"
	}
	return ""
}
