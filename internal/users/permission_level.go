package users

import (
	"errors"
	"fmt"
	"strings"
)

const (
	permissionLevelReadValueConstant         = "read"
	permissionLevelWriteValueConstant        = "write"
	permissionLevelAdminValueConstant        = "admin"
	unsupportedPermissionTemplateConstant    = "unsupported permission level %q (choose read, write, or admin)"
	permissionLevelEmptyValueMessageConstant = "permission level must be provided"
)

// PermissionLevel enumerates the repository access levels the service grants.
type PermissionLevel string

// Permission level enumerations in order of escalating access.
const (
	PermissionLevelRead  PermissionLevel = PermissionLevel(permissionLevelReadValueConstant)
	PermissionLevelWrite PermissionLevel = PermissionLevel(permissionLevelWriteValueConstant)
	PermissionLevelAdmin PermissionLevel = PermissionLevel(permissionLevelAdminValueConstant)
)

// PermissionLevelNames lists the accepted permission level spellings.
func PermissionLevelNames() []string {
	return []string{
		permissionLevelReadValueConstant,
		permissionLevelWriteValueConstant,
		permissionLevelAdminValueConstant,
	}
}

// ParsePermissionLevel validates a textual permission level. The enumerated
// choice set is the only client-side validation; any other value the remote
// service would reject anyway.
func ParsePermissionLevel(candidate string) (PermissionLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	if len(normalized) == 0 {
		return "", errors.New(permissionLevelEmptyValueMessageConstant)
	}

	switch PermissionLevel(normalized) {
	case PermissionLevelRead, PermissionLevelWrite, PermissionLevelAdmin:
		return PermissionLevel(normalized), nil
	default:
		return "", fmt.Errorf(unsupportedPermissionTemplateConstant, candidate)
	}
}
