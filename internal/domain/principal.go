package domain

import "strings"

// PrincipalKind differentiates user and admin identities.
type PrincipalKind string

const (
	PrincipalUser  PrincipalKind = "user"
	PrincipalAdmin PrincipalKind = "admin"
)

// Valid reports whether k is a known kind.
func (k PrincipalKind) Valid() bool {
	return k == PrincipalUser || k == PrincipalAdmin
}

// Subject is a principal lookup key together with the store it belongs to.
type Subject struct {
	Kind PrincipalKind
	Key  string
}

// UserSubject builds the subject for an end-user.
func UserSubject(email string) Subject {
	return Subject{Kind: PrincipalUser, Key: email}
}

// AdminSubject builds the subject for an administrator.
func AdminSubject(username string) Subject {
	return Subject{Kind: PrincipalAdmin, Key: username}
}

// InferSubject derives the kind from the shape of key: anything containing
// "@" is an email and therefore a user. Only tokens issued without a kind
// claim go through this path; an admin username containing "@" would be
// misrouted, which is why admin usernames may not contain one.
func InferSubject(key string) Subject {
	if strings.Contains(key, "@") {
		return UserSubject(key)
	}
	return AdminSubject(key)
}

// Principal is either a User or an Admin, selected by Kind.
type Principal struct {
	Kind  PrincipalKind
	User  *User
	Admin *Admin
}

// UserPrincipal wraps an end-user.
func UserPrincipal(u *User) Principal {
	return Principal{Kind: PrincipalUser, User: u}
}

// AdminPrincipal wraps an administrator.
func AdminPrincipal(a *Admin) Principal {
	return Principal{Kind: PrincipalAdmin, Admin: a}
}

// Key returns the lookup key of the wrapped entity.
func (p Principal) Key() string {
	switch p.Kind {
	case PrincipalUser:
		if p.User != nil {
			return p.User.Email
		}
	case PrincipalAdmin:
		if p.Admin != nil {
			return p.Admin.Username
		}
	}
	return ""
}

// IsSuperadmin reports whether the principal carries the superadmin flag.
func (p Principal) IsSuperadmin() bool {
	return p.Kind == PrincipalAdmin && p.Admin != nil && p.Admin.IsSuperadmin
}

// PasswordHash returns the stored hash of the wrapped entity.
func (p Principal) PasswordHash() string {
	switch {
	case p.User != nil:
		return p.User.PasswordHash
	case p.Admin != nil:
		return p.Admin.PasswordHash
	}
	return ""
}
