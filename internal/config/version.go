package config

import (
	"fmt"
	"strconv"
	"strings"
)

// SchemaVersion is a config file's major.minor schema version.
type SchemaVersion struct {
	Major int
	Minor int
}

// ParseVersion parses "X.Y" or "X". An empty string is the first schema.
func ParseVersion(s string) (SchemaVersion, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SchemaVersion{Major: 1}, nil
	}

	majorStr, minorStr, hasMinor := strings.Cut(s, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 {
		return SchemaVersion{}, fmt.Errorf("invalid schema version %q", s)
	}
	v := SchemaVersion{Major: major}
	if hasMinor {
		if v.Minor, err = strconv.Atoi(minorStr); err != nil || v.Minor < 0 {
			return SchemaVersion{}, fmt.Errorf("invalid schema version %q", s)
		}
	}
	return v, nil
}

func (v SchemaVersion) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// SupportedVersions lists the schema majors this build reads.
var SupportedVersions = []SchemaVersion{{Major: 1, Minor: 0}}

// IsSupportedVersion reports whether v's major is readable. Minor bumps
// only add optional fields.
func IsSupportedVersion(v SchemaVersion) bool {
	for _, s := range SupportedVersions {
		if s.Major == v.Major {
			return true
		}
	}
	return false
}
