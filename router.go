package authkit

import "strings"

// Canonical role families. Every raw role string the gateway can report
// normalizes to exactly one of these.
const (
	RoleStudent           = "student"
	RoleAdmin             = "admin"
	RoleInstructor        = "instructor"
	RoleCorporate         = "corporate"
	RoleCorporateEmployee = "corporate-employee"
	RoleParent            = "parent"
)

// Default dashboard destination per canonical role.
const (
	destStudent           = "/dashboard"
	destAdmin             = "/admin"
	destInstructor        = "/instructor"
	destCorporate         = "/corporate"
	destCorporateEmployee = "/corporate/employee"
	destParent            = "/parent"
)

// Demo-booking destination per canonical role, used when the caller carries
// a demo-scheduling intent and no explicit redirect.
const (
	demoStudent           = "/demo/student"
	demoAdmin             = "/demo/admin"
	demoInstructor        = "/demo/instructor"
	demoCorporate         = "/demo/corporate"
	demoCorporateEmployee = "/demo/corporate"
	demoParent            = "/demo/parent"
)

var roleAliases = map[string]string{
	"student": RoleStudent,
	"learner": RoleStudent,
	"user":    RoleStudent,

	"admin":         RoleAdmin,
	"super-admin":   RoleAdmin,
	"superadmin":    RoleAdmin,
	"administrator": RoleAdmin,

	"instructor": RoleInstructor,
	"teacher":    RoleInstructor,
	"tutor":      RoleInstructor,
	"faculty":    RoleInstructor,

	"corporate":  RoleCorporate,
	"enterprise": RoleCorporate,
	"corp":       RoleCorporate,

	"corporate-employee": RoleCorporateEmployee,
	"corporate_employee": RoleCorporateEmployee,
	"corp-employee":      RoleCorporateEmployee,
	"employee":           RoleCorporateEmployee,

	"parent":   RoleParent,
	"guardian": RoleParent,
}

// NormalizeRole lowercases and trims a raw role string and maps it onto its
// canonical family. Unrecognized and empty roles map to the student role.
func NormalizeRole(raw string) string {
	if canonical, ok := roleAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return canonical
	}
	return RoleStudent
}

// ResolveDestination maps (role, explicit redirect, demo intent) to one
// destination path. Precedence: a well-formed explicit redirect always wins;
// demo intent then routes to the role-specific booking page; otherwise the
// role's default dashboard. Unrecognized roles get the student destination.
//
// The function is pure: same inputs, same path, no side effects.
func ResolveDestination(role, redirect string, demoIntent bool) string {
	if wellFormedRedirect(redirect) {
		return redirect
	}

	canonical := NormalizeRole(role)

	if demoIntent {
		switch canonical {
		case RoleAdmin:
			return demoAdmin
		case RoleInstructor:
			return demoInstructor
		case RoleCorporate:
			return demoCorporate
		case RoleCorporateEmployee:
			return demoCorporateEmployee
		case RoleParent:
			return demoParent
		default:
			return demoStudent
		}
	}

	switch canonical {
	case RoleAdmin:
		return destAdmin
	case RoleInstructor:
		return destInstructor
	case RoleCorporate:
		return destCorporate
	case RoleCorporateEmployee:
		return destCorporateEmployee
	case RoleParent:
		return destParent
	default:
		return destStudent
	}
}

// wellFormedRedirect accepts only same-origin absolute paths. A protocol-
// relative "//host" target would leave the site and is rejected.
func wellFormedRedirect(redirect string) bool {
	if len(redirect) < 1 || redirect[0] != '/' {
		return false
	}
	return len(redirect) == 1 || redirect[1] != '/'
}
