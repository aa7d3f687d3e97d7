package clusterviz

import "github.com/Carmen-Shannon/oxy-cls/engine/renderstate"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithStateCache shares a render state cache with other users of the device, so state set
// by one is known to the others and only differences are issued.
//
// Parameters:
//   - cache: the shared cache
//
// Returns:
//   - RendererBuilderOption: a function that applies the cache option to a renderer
func WithStateCache(cache *renderstate.Cache) RendererBuilderOption {
	return func(r *renderer) {
		r.state = cache
	}
}

// WithBaseState sets the state the renderer restores after drawing. Defaults to renderstate.Default.
//
// Parameters:
//   - s: the state to restore
//
// Returns:
//   - RendererBuilderOption: a function that applies the base state option to a renderer
func WithBaseState(s renderstate.RenderState) RendererBuilderOption {
	return func(r *renderer) {
		r.baseState = s
	}
}
