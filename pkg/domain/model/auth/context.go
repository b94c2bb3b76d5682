package auth

import "context"

type ctxPrincipalKey struct{}

func With(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey{}, p)
}

func From(ctx context.Context) *Principal {
	if p, ok := ctx.Value(ctxPrincipalKey{}).(*Principal); ok {
		return p
	}
	return nil
}
