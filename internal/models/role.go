package models

// Role is the profile role attached to a session.
type Role string

// Role constants. Only SUPER, ADMINISTRADOR and MODERADOR carry moderation rights.
const (
	RoleSuper         Role = "SUPER"
	RoleAdministrador Role = "ADMINISTRADOR"
	RoleModerador     Role = "MODERADOR"
	RoleAtleta        Role = "ATLETA"
	RoleAgente        Role = "AGENTE"
	RoleClube         Role = "CLUBE"
	RoleImprensa      Role = "IMPRENSA"
	RoleTorcedor      Role = "TORCEDOR"
)

// AdminRoles is the fixed set of roles allowed to moderate.
var AdminRoles = []Role{RoleSuper, RoleAdministrador, RoleModerador}

// IsAdmin reports whether r is in AdminRoles.
func (r Role) IsAdmin() bool {
	for _, admin := range AdminRoles {
		if r == admin {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}
