package services

// Actor is the identity issuing a request: an authenticated user id, or
// anonymous when the id is empty. Authentication itself happens upstream;
// this layer only consumes the resulting identity.
type Actor struct {
	ID string
}

// Anonymous reports whether the actor carries no identity.
func (a Actor) Anonymous() bool { return a.ID == "" }

// limitKey selects the rate-limit bucket for an actor. Authenticated actors
// get a per-user bucket; anonymous actors are bucketed by their network
// origin when the caller supplies one, and otherwise share a single bucket so
// unauthenticated abuse stays bounded even without per-IP plumbing.
func limitKey(a Actor, origin string) string {
	if !a.Anonymous() {
		return "user:" + a.ID
	}
	if origin != "" {
		return "ip:" + origin
	}
	return "anon"
}
