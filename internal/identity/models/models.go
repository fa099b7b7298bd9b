// Package models holds the identity domain types shared by the identity
// service, its stores, and the gateway.
package models

// Principal is the verified identity derived from a session token. It is
// reconstructed from the token on every call and never persisted; the
// embedded roles trade revocation latency for lookup-free verification.
type Principal struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the principal carries the named role.
// Matching is case-sensitive and exact.
func (p *Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// User is a directory entry. Home coordinates are nil until the user
// first sets a designated area.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Status    string
	HomeLat   *float64
	HomeLon   *float64
}

// FullName joins first and last names the way the directory displays them.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Credential pairs a user with their stored password hash and the
// persistent failed-attempt counter.
type Credential struct {
	UserID              int64
	PasswordHash        string
	FailedLoginAttempts int
}

// UserWithCredential is the login-path projection: profile, credential,
// and role names resolved in one store read.
type UserWithCredential struct {
	User
	Credential
	Roles []string
}

// Registration is the input for creating a new account.
type Registration struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	BirthDate   string `json:"birth_date"`
	BirthPlace  string `json:"birth_place"`
	FullAddress string `json:"full_address"`
	PhoneNumber string `json:"phone_number"`
}

// HomeArea is a user's designated check-in location. The radius applied
// around it is deployment configuration, not user data.
type HomeArea struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DefaultRole is granted to every registered account.
const DefaultRole = "Employee"

// AdminRole gates administrative operations at the gateway.
const AdminRole = "Admin"
