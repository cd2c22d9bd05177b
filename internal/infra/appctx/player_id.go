package appctx

import "context"

type ctxKey string

const playerIDKey ctxKey = "playerID"

// WithPlayerID stores the authenticated player id on the context.
func WithPlayerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, playerIDKey, id)
}

// PlayerID extracts the player id from the context.
func PlayerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(playerIDKey).(string)
	return id, ok
}
