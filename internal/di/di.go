// Package di provides a minimal dependency injection container with
// type-safe tokens for cross-module service resolution.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves registered services by name.
type ServiceRegistry interface {
	Get(name string) any
}

// Container registers services and resolves them lazily as singletons.
type Container interface {
	ServiceRegistry
	// Register stores an already-constructed value under name.
	Register(name string, value any)
	// RegisterFactory stores a factory invoked once on first Get.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

// Token is a typed handle for a service registered in the container.
type Token[T any] struct {
	name string
}

// NewToken creates a token bound to the given service name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the service name behind the token.
func (t Token[T]) Name() string { return t.name }

// RegisterToken registers a typed factory for the token's service.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token's service from the registry. It panics if the
// service is missing or of the wrong type; wiring errors are programmer
// errors and should fail loudly at startup.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	v := sr.Get(tok.name)
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has type %T, not the registered token type", tok.name, v))
	}
	return typed
}

type entry struct {
	once    sync.Once
	value   any
	factory func(ServiceRegistry) any
}

// container is the default Container implementation. Registration happens
// during startup from a single goroutine; resolution is safe concurrently.
type container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{entries: make(map[string]*entry)}
}

func (c *container) Register(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &entry{value: value}
	e.once.Do(func() {})
	c.entries[name] = e
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{factory: factory}
}

func (c *container) Get(name string) any {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("di: service %q is not registered", name))
	}

	e.once.Do(func() {
		if e.factory != nil {
			e.value = e.factory(c)
		}
	})
	return e.value
}
