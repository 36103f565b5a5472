package model

import "context"

type clientKey struct{}

// WithClient installs client as the scoped model.Client for descendants of
// ctx. This is the third of the three session-resolution modes a Generate
// stage may use (§4.2): read the session from the current execution context
// rather than have it injected directly or via a relay.
func WithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext retrieves the model.Client installed by WithClient.
func ClientFromContext(ctx context.Context) (Client, bool) {
	c, ok := ctx.Value(clientKey{}).(Client)
	return c, ok
}
