package retrieval

import (
	"context"
	"sync"
)

// LoadFunc builds the index. It is called at most once per Resources.
type LoadFunc func(ctx context.Context) (*Index, error)

// Resources memoizes the process-wide index. The first call to Get runs the
// loader; every later call returns the same index or the same error. There
// is no way to reset it.
type Resources struct {
	load  LoadFunc
	once  sync.Once
	index *Index
	err   error
}

// NewResources wraps load.
func NewResources(load LoadFunc) *Resources {
	return &Resources{load: load}
}

// Get returns the memoized index, loading it on first use.
func (r *Resources) Get(ctx context.Context) (*Index, error) {
	r.once.Do(func() {
		r.index, r.err = r.load(ctx)
	})
	return r.index, r.err
}
