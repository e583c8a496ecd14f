// Package core provides the component abstractions the form steps are built on.
package core

import (
	"context"
	"io"
	"sort"
)

// Component is the interface that every server-side step implements.
// Components hold local draft state, handle user interactions and
// render HTML after every event.
type Component interface {
	// Name returns the unique identifier for this component type.
	Name() string

	// Mount is called whenever the component becomes the active one.
	// It reloads local state from the shared store.
	Mount(ctx context.Context) error

	// Render returns the current HTML representation of the component.
	// This is called after Mount and after each event.
	Render(ctx context.Context) Renderer

	// HandleEvent processes user interactions (field edits, toggles, clicks).
	// The event string identifies the action, and payload contains event data.
	HandleEvent(ctx context.Context, event string, payload map[string]any) error
}

// Renderer is the interface for rendering HTML content.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc is an adapter to allow ordinary functions to be used as Renderers.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// BaseComponent provides default implementations for Component methods.
// Embed this in components to avoid implementing unused methods.
type BaseComponent struct{}

// Mount does nothing by default.
func (BaseComponent) Mount(ctx context.Context) error {
	return nil
}

// HandleEvent rejects every event by default.
func (BaseComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	return UnknownEvent(event)
}

// ComponentRegistry manages registered component factories.
type ComponentRegistry struct {
	components map[string]func() Component
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		components: make(map[string]func() Component),
	}
}

// Register adds a component factory to the registry.
func (r *ComponentRegistry) Register(name string, factory func() Component) {
	r.components[name] = factory
}

// Get retrieves a component factory by name.
func (r *ComponentRegistry) Get(name string) (func() Component, bool) {
	f, ok := r.components[name]
	return f, ok
}

// Create instantiates a new component by name.
func (r *ComponentRegistry) Create(name string) (Component, bool) {
	f, ok := r.components[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Names returns the registered names, sorted.
func (r *ComponentRegistry) Names() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
