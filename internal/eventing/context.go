package eventing

import "context"

type (
	envelopeKey    struct{}
	correlationKey struct{}
)

// WithEnvelope exposes the envelope of the event being delivered to handlers.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, envelopeKey{}, env)
}

// EnvelopeFromContext returns the envelope set by the publisher, if any.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(envelopeKey{}).(Envelope)
	return env, ok
}

// WithCorrelationID tags events published under ctx, usually with the HTTP
// request id.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if correlationID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, correlationID)
}

// MetaFromContext collects envelope overrides carried by ctx.
func MetaFromContext(ctx context.Context) Meta {
	meta := Meta{}
	if corr, ok := ctx.Value(correlationKey{}).(string); ok {
		meta.CorrelationID = corr
	}
	return meta
}
