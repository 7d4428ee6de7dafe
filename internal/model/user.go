package model

// Role names understood by the collaborator API.  The portal only ever
// compares against these values; unknown roles are carried verbatim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Identity is the user record returned by GET /users/me and by the login
// endpoint.  A snapshot of it is persisted next to the credential so that a
// reloaded browser session can render immediately, but that copy is never
// trusted until the server has confirmed it.
//
// Fields:
//
//	ID       – users.id on the collaborator side; zero means "no identity".
//	Username – display/login name.
//	Email    – contact address (optional in /users/me payloads).
//	Role     – USER or ADMIN.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// Valid reports whether the identity carries the fields every consumer
// relies on.  Only the id is mandatory.
func (i *Identity) Valid() bool {
	return i != nil && i.ID != 0
}

// IsAdmin reports whether the identity holds the ADMIN role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
