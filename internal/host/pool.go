package host

import "context"

// InstancePool manages a pool of instances of one guest module so independent
// calls can run on independent guests. Instances never share tables, so a
// handle from one must never be presented to another.
type InstancePool struct {
	pool    chan *Instance
	maxSize int
	factory func() (*Instance, error)
}

// NewInstancePool returns a pool that creates instances on demand up to
// maxSize.
func NewInstancePool(maxSize int, factory func() (*Instance, error)) *InstancePool {
	return &InstancePool{
		pool:    make(chan *Instance, maxSize),
		maxSize: maxSize,
		factory: factory,
	}
}

// Get returns an instance from the pool, creating a new one if needed.
func (p *InstancePool) Get() (*Instance, error) {
	select {
	case inst := <-p.pool:
		return inst, nil
	default:
		if len(p.pool) < p.maxSize {
			return p.factory()
		}
		// Wait for an instance to become available.
		return <-p.pool, nil
	}
}

// Put returns an instance to the pool. Broken instances are closed and
// dropped: after a trap their allocation table is not trustworthy.
func (p *InstancePool) Put(ctx context.Context, inst *Instance) {
	if inst.Broken() {
		_ = inst.Close(ctx)
		return
	}

	select {
	case p.pool <- inst:
		// returned to pool
	default:
		// pool full, drop instance
		_ = inst.Close(ctx)
	}
}
