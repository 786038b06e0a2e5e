package config

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying c.
func NewContext(ctx context.Context, c Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the Config stored by NewContext, or the zero Config.
func FromContext(ctx context.Context) Config {
	c, _ := ctx.Value(ctxKey{}).(Config)
	return c
}
