package metadata

import (
	"fmt"
	"strings"

	"sfperms/internal/manifest"
)

// Kind selects permission sets or profiles.
type Kind string

const (
	PermissionSet Kind = "permissionset"
	Profile       Kind = "profile"
)

// ParseKind accepts the singular, plural and manifest spellings of a kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "permissionset", "permissionsets", "permission-set", "permission-sets", "ps":
		return PermissionSet, nil
	case "profile", "profiles":
		return Profile, nil
	}
	return "", fmt.Errorf("unknown metadata kind %q (want permissionsets or profiles)", s)
}

// ManifestType is the package.xml type name listing entities of this kind.
func (k Kind) ManifestType() string {
	if k == Profile {
		return manifest.TypeProfile
	}
	return manifest.TypePermissionSet
}

// DirName is the report directory segment for this kind.
func (k Kind) DirName() string {
	if k == Profile {
		return "profiles"
	}
	return "permissionsets"
}

// FileSuffix is the source-format file suffix for this kind.
func (k Kind) FileSuffix() string {
	if k == Profile {
		return ".profile-meta.xml"
	}
	return ".permissionset-meta.xml"
}

func (k Kind) String() string { return string(k) }
