package phasor

import (
	"sync"
)

// Releasable is any resource backed by Arrow memory: tables, columns and
// datasets. Call Release when done with it.
//
// The recommended pattern is defer:
//
//	ds, err := phasor.NewDataset(df, "t", "run")
//	if err != nil {
//		return err
//	}
//	defer ds.Release()
type Releasable interface {
	Release()
}

// MemoryManager tracks resources and releases them together. It is useful
// for pipelines producing many intermediate datasets, where a defer per
// result gets unwieldy.
//
// The MemoryManager is safe for concurrent use from multiple goroutines.
//
// Example:
//
//	err := phasor.WithMemoryManager(func(m *phasor.MemoryManager) error {
//		regridded, err := ds.Regrid(axis)
//		if err != nil {
//			return err
//		}
//		m.Track(regridded)
//		spectrum, err := regridded.FourierTransform()
//		if err != nil {
//			return err
//		}
//		m.Track(spectrum)
//		return out.WriteDataset(ctx, spectrum)
//	})
type MemoryManager struct {
	resources []Releasable
	mu        sync.Mutex
}

// NewMemoryManager creates an empty memory manager
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{}
}

// Track adds a resource to be released by ReleaseAll. Nil resources are
// ignored.
func (m *MemoryManager) Track(resource Releasable) {
	if resource == nil {
		return
	}
	m.mu.Lock()
	m.resources = append(m.resources, resource)
	m.mu.Unlock()
}

// Count returns the number of tracked resources
func (m *MemoryManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// ReleaseAll releases tracked resources, most recent first, and forgets them
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.resources) - 1; i >= 0; i-- {
		m.resources[i].Release()
	}
	m.resources = m.resources[:0]
}

// WithMemoryManager runs fn with a fresh manager and releases everything it
// tracked once fn returns.
func WithMemoryManager(fn func(*MemoryManager) error) error {
	manager := NewMemoryManager()
	defer manager.ReleaseAll()
	return fn(manager)
}

// WithDataset builds a Dataset with factory, runs fn on it and releases it.
func WithDataset(factory func() (*Dataset, error), fn func(*Dataset) error) error {
	ds, err := factory()
	if err != nil {
		return err
	}
	defer ds.Release()
	return fn(ds)
}
