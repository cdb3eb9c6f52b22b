package sim

import (
	"sync"

	"github.com/LyesMestiri/atom/internal/particle"
)

// FieldPool recycles field sample buffers between steps and runs.
type FieldPool struct {
	pool sync.Pool
}

func NewFieldPool() *FieldPool {
	return &FieldPool{}
}

// Get returns a zeroed buffer of length n.
func (p *FieldPool) Get(n int) []particle.Field {
	if v, ok := p.pool.Get().(*[]particle.Field); ok && cap(*v) >= n {
		return (*v)[:n]
	}
	return make([]particle.Field, n)
}

func (p *FieldPool) Put(fs []particle.Field) {
	clear(fs[:cap(fs)])
	p.pool.Put(&fs)
}
