package auth

import "net/http"

// Identity names the owner of progress records. The zero value is the
// Anonymous identity: the feature stays usable without login, so "no
// authenticated user" is an explicit state, never an error.
type Identity struct {
	ActorID string `json:"actor_id"`
}

// Anonymous is the identity used when no credentials resolve.
var Anonymous = Identity{}

// IsAnonymous reports whether the identity carries no authenticated actor.
func (id Identity) IsAnonymous() bool { return id.ActorID == "" }

// Resolver resolves request credentials to an Identity.
//
// Resolution never fails: missing, malformed, or unknown credentials
// downgrade to Anonymous rather than erroring, so neither writes nor reads
// ever block on identity resolution.
type Resolver interface {
	Resolve(r *http.Request) Identity
}
