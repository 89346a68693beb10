package command

import "strings"

// Role is a self-declared member role tag. The enumeration is closed;
// anything else folds to RoleNone.
type Role string

const (
	RoleNone        Role = "none"
	RoleDesign      Role = "design"
	RoleEngineering Role = "engineering"
	RoleProduct     Role = "product"
	RoleMarketing   Role = "marketing"
	RoleQA          Role = "qa"
)

// roleAliases folds the spoken variants of each role into its canonical
// value. Matching happens against singular forms; plural trailing "s" is
// stripped before lookup.
var roleAliases = map[string]Role{
	"design":           RoleDesign,
	"designer":         RoleDesign,
	"engineering":      RoleEngineering,
	"engineer":         RoleEngineering,
	"developer":        RoleEngineering,
	"dev":              RoleEngineering,
	"product":          RoleProduct,
	"pm":               RoleProduct,
	"product manager":  RoleProduct,
	"marketing":        RoleMarketing,
	"marketer":         RoleMarketing,
	"qa":               RoleQA,
	"tester":           RoleQA,
	"quality engineer": RoleQA,
}

// Roles returns the closed set of assignable roles, RoleNone included.
func Roles() []Role {
	return []Role{RoleNone, RoleDesign, RoleEngineering, RoleProduct, RoleMarketing, RoleQA}
}

// ValidRole reports whether value is a member of the closed role set.
func ValidRole(value Role) bool {
	for _, role := range Roles() {
		if role == value {
			return true
		}
	}
	return false
}

// CanonicalRole resolves a role mention, plural or singular, with or
// without a leading article, to its canonical role.
func CanonicalRole(mention string) (Role, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(mention))
	for _, article := range []string{"the ", "all ", "a "} {
		cleaned = strings.TrimPrefix(cleaned, article)
	}
	if role, ok := roleAliases[cleaned]; ok {
		return role, true
	}
	if trimmed := strings.TrimSuffix(cleaned, "s"); trimmed != cleaned {
		if role, ok := roleAliases[trimmed]; ok {
			return role, true
		}
	}
	return RoleNone, false
}
