package host

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wasmbridge/wasmbridge/internal/engine"
)

// Manager owns the execution engine and an instance pool per loaded guest
// module.
type Manager struct {
	//nolint:containedctx // Context is stored in the struct intentionally to allow reuse across module operations.
	ctx    context.Context
	engine *engine.Engine
	pools  map[string]*InstancePool
	mu     sync.RWMutex
}

// NewManager creates a manager with a fresh engine.
func NewManager(ctx context.Context) (*Manager, error) {
	eng, err := engine.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return &Manager{ctx: ctx, engine: eng, pools: make(map[string]*InstancePool)}, nil
}

// LoadModule reads a module image from disk and registers an instance pool
// for it under name.
func (m *Manager) LoadModule(name, path string, exports Exports, poolSize int) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read module %s: %w", path, err)
	}

	factory := func() (*Instance, error) {
		mod, err := m.engine.Load(m.ctx, name, image)
		if err != nil {
			return nil, fmt.Errorf("failed to load module %s: %w", name, err)
		}

		return NewInstance(name, mod, exports), nil
	}

	m.mu.Lock()
	m.pools[name] = NewInstancePool(poolSize, factory)
	m.mu.Unlock()

	log.Info().Str("module", name).Str("path", path).Msg("loaded wasm module")

	return nil
}

// RegisterEmbedded registers a pool backed by the in-process guest under
// name. Used when no .wasm artifact is available.
func (m *Manager) RegisterEmbedded(name string, exports Exports, poolSize int) {
	factory := func() (*Instance, error) {
		return NewInstance(name, engine.NewEmbedded(), exports), nil
	}

	m.mu.Lock()
	m.pools[name] = NewInstancePool(poolSize, factory)
	m.mu.Unlock()

	log.Info().Str("module", name).Msg("registered embedded module")
}

// Acquire returns an instance of the named module.
func (m *Manager) Acquire(name string) (*Instance, error) {
	m.mu.RLock()
	pool, ok := m.pools[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown module: %s", name)
	}

	return pool.Get()
}

// Release returns an instance to its pool.
func (m *Manager) Release(name string, inst *Instance) {
	m.mu.RLock()
	pool, ok := m.pools[name]
	m.mu.RUnlock()
	if !ok {
		_ = inst.Close(m.ctx)
		return
	}

	pool.Put(m.ctx, inst)
}

// Context returns the context the manager was created with.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Close closes the underlying engine and every instance on it.
func (m *Manager) Close() error {
	return m.engine.Close(m.ctx)
}
