package auth

import "net/http"

const (
	// LocalDevAPIKey is the hardcoded API key for local development only.
	LocalDevAPIKey = "sk_local_flowtide_dev_key"

	// localDevActorID is the actor the dev key resolves to.
	localDevActorID = "flowtide-dev"
)

// KeyringResolver maps bearer API keys to actor IDs. Any failure along the
// way (no header, malformed header, unknown key) resolves to Anonymous.
type KeyringResolver struct {
	keys map[string]string
}

// NewKeyringResolver creates a resolver over a fixed key-to-actor map.
// The map is not copied; callers must not mutate it afterwards.
func NewKeyringResolver(keys map[string]string) *KeyringResolver {
	return &KeyringResolver{keys: keys}
}

// NewDevResolver returns a resolver that recognizes only the hardcoded
// development key.
func NewDevResolver() *KeyringResolver {
	return NewKeyringResolver(map[string]string{LocalDevAPIKey: localDevActorID})
}

// Resolve implements Resolver.
func (k *KeyringResolver) Resolve(r *http.Request) Identity {
	apiKey, err := ExtractAPIKey(r)
	if err != nil {
		return Anonymous
	}
	actor, ok := k.keys[apiKey]
	if !ok {
		return Anonymous
	}
	return Identity{ActorID: actor}
}
