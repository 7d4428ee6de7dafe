package session

import (
	"net/url"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// Phase is where the store is in its lifecycle.
type Phase string

const (
	// PhaseLoading: bootstrap has not settled yet.
	PhaseLoading Phase = "LOADING"
	// PhaseAnonymous: no credential.
	PhaseAnonymous Phase = "ANONYMOUS"
	// PhaseOptimistic: a cached identity is shown while the server is
	// asked to confirm it.  Still counts as loading.
	PhaseOptimistic Phase = "OPTIMISTIC"
	// PhaseVerified: the server confirmed the identity behind the token.
	PhaseVerified Phase = "VERIFIED"
)

// State is an immutable snapshot of the session.  Token and User are either
// both set or both empty.
type State struct {
	Phase Phase           `json:"phase"`
	Token string          `json:"-"`
	User  *model.Identity `json:"user,omitempty"`
}

// Authenticated reports whether a credential and identity are present.
func (s State) Authenticated() bool {
	return s.Token != "" && s.User.Valid()
}

// Loading reports whether bootstrap or login verification is in progress.
// Auth gates must wait instead of deciding while this is true.
func (s State) Loading() bool {
	return s.Phase == PhaseLoading || s.Phase == PhaseOptimistic
}

// UserID returns the identity id, or 0.
func (s State) UserID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func anonymous() State { return State{Phase: PhaseAnonymous} }

// LoginPath is the login entry point; from is where the browser returns
// after logging in.
func LoginPath(from string) string {
	return "/login?" + url.Values{"from": {from}}.Encode()
}
