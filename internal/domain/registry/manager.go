package registry

import (
	"sync"
	"sync/atomic"

	"github.com/packfs/packfs/internal/infrastructure/monitoring"
)

// Kind tags a resource type. The set is closed: three roles (family,
// package, variant), each in a split and a combined flavor.
type Kind string

const (
	KindFamily          Kind = "filesystem.family"
	KindPackage         Kind = "filesystem.package"
	KindVariant         Kind = "filesystem.variant"
	KindCombinedFamily  Kind = "filesystem.family.combined"
	KindCombinedPackage Kind = "filesystem.package.combined"
	KindCombinedVariant Kind = "filesystem.variant.combined"
)

// NoIndex marks a variant key without an explicit index, and is the Index
// value for all family and package keys.
const NoIndex = -1

// Key is the value-equality identity of a resource. Unused parameters stay
// at their zero value ("" / NoIndex) so equal identities always compare equal.
type Key struct {
	Kind     Kind
	Location string
	Name     string
	Ext      string
	Version  string
	Index    int
}

// Resource is anything the registry memoizes.
type Resource interface {
	ResourceKey() Key
}

// Manager resolves keys to singleton resource instances.
type Manager struct {
	resources sync.Map // Key -> Resource
	size      int64
	metrics   *monitoring.Metrics
}

// NewManager creates a registry manager.
func NewManager(metrics *monitoring.Metrics) *Manager {
	return &Manager{metrics: metrics}
}

// Get returns the singleton resource for key, constructing it via build on
// first access. Concurrent first access for one key may run build more than
// once, but LoadOrStore guarantees a single winner: every caller receives
// the same instance.
func (m *Manager) Get(key Key, build func() Resource) Resource {
	if cached, ok := m.resources.Load(key); ok {
		return cached.(Resource)
	}

	res := build()
	actual, loaded := m.resources.LoadOrStore(key, res)
	if !loaded {
		atomic.AddInt64(&m.size, 1)
		m.metrics.RecordResource()
	}
	return actual.(Resource)
}

// Lookup returns the memoized resource for key without constructing.
func (m *Manager) Lookup(key Key) (Resource, bool) {
	cached, ok := m.resources.Load(key)
	if !ok {
		return nil, false
	}
	return cached.(Resource), true
}

// Size returns the number of memoized resources.
func (m *Manager) Size() int {
	return int(atomic.LoadInt64(&m.size))
}
