package auth

// RoleValidator is the permission surface shared by roles and token claims.
type RoleValidator interface {
	CanRead(resource string) bool
	CanEdit(resource string) bool
	CanCreate(resource string) bool
	CanDelete(resource string) bool
	HasRole(role string) bool
	IsAtLeast(minRole UserRole) bool
}

// rank places the role on the guest < member < admin < owner ladder.
// Unknown roles have no rank and fail every permission check.
func (r UserRole) rank() (int, bool) {
	switch r {
	case RoleGuest:
		return 0, true
	case RoleMember:
		return 1, true
	case RoleAdmin:
		return 2, true
	case RoleOwner:
		return 3, true
	}
	return 0, false
}

// IsValid reports whether the role is one of the predefined roles.
func (r UserRole) IsValid() bool {
	_, ok := r.rank()
	return ok
}

// CanRead is granted to every known role, guests included.
func (r UserRole) CanRead() bool {
	return r.IsAtLeast(RoleGuest)
}

// CanEdit requires at least membership.
func (r UserRole) CanEdit() bool {
	return r.IsAtLeast(RoleMember)
}

// CanCreate requires at least admin.
func (r UserRole) CanCreate() bool {
	return r.IsAtLeast(RoleAdmin)
}

// CanDelete stays with the owner tier.
func (r UserRole) CanDelete() bool {
	return r.IsAtLeast(RoleOwner)
}

// IsAtLeast reports whether the role sits at or above minRole on the ladder.
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	mine, ok := r.rank()
	if !ok {
		return false
	}

	floor, ok := minRole.rank()
	if !ok {
		return false
	}

	return mine >= floor
}

// GetAllRoles returns the predefined roles in ascending order of privilege.
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleGuest,
		RoleMember,
		RoleAdmin,
		RoleOwner,
	}
}

// ParseRole converts a raw string into a UserRole, reporting whether the
// value names a known role.
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
