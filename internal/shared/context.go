package shared

import "context"

// Actor describes the authenticated admin performing a request.
// The login flow itself lives outside this service; middleware resolves
// the bearer token and stores the actor here.
type Actor struct {
	ID     int64
	Name   string
	Role   string
	Status string
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context, nil when absent.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
