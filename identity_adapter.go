package auth

// UserIdentity is the token facing snapshot of a stored user. It copies the
// fields token issuance needs, so holders of an identity cannot reach back
// into the persisted record.
type UserIdentity struct {
	id       string
	username string
	email    string
	role     string
	status   UserStatus
}

// NewIdentityFromUser snapshots a user into an Identity. Returns nil for a
// nil user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}

	return UserIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		role:     string(user.Role),
		status:   user.Status,
	}
}

func (u UserIdentity) ID() string { return u.id }

func (u UserIdentity) Username() string { return u.username }

func (u UserIdentity) Email() string { return u.email }

func (u UserIdentity) Role() string { return u.role }

// Status reports the account lifecycle state. Rows that predate the status
// column read as active.
func (u UserIdentity) Status() UserStatus {
	if u.status == "" {
		return UserStatusActive
	}
	return u.status
}

var _ Identity = UserIdentity{}
