package conf

import "context"

// Ambient overrides ride the context rather than any mutable global, so
// concurrent call chains never observe each other and the override's
// lifetime is exactly the scope of the derived context, error paths
// included.

type ambientKey struct{}

// WithOverride returns a context carrying the given overlay on top of any
// overlays already present. The parent context keeps its own stack.
func WithOverride(ctx context.Context, o Overlay) context.Context {
	existing := AmbientOverlays(ctx)
	stack := make([]Overlay, 0, len(existing)+1)
	stack = append(stack, existing...)
	stack = append(stack, o)
	return context.WithValue(ctx, ambientKey{}, stack)
}

// AmbientOverlays returns the override stack attached to the context in push
// order. The returned slice must not be mutated.
func AmbientOverlays(ctx context.Context) []Overlay {
	if ctx == nil {
		return nil
	}
	stack, _ := ctx.Value(ambientKey{}).([]Overlay)
	return stack
}

// ResolveContext resolves defaults < ambient overlays < explicit override.
// A nil explicit override applies no final layer.
func ResolveContext(ctx context.Context, defaults CallConfig, explicit *Overlay) (CallConfig, error) {
	layers := append([]Overlay(nil), AmbientOverlays(ctx)...)
	if explicit != nil {
		layers = append(layers, *explicit)
	}
	return Resolve(defaults, layers...)
}
