package engine

// BulkBackendFactory builds a BulkBackend on top of an execution backend.
// Factories register themselves by name via init() in their own package,
// which keeps engine free of dependencies on concrete bulk implementations.
type BulkBackendFactory func(backend ExecutionBackend) (BulkBackend, error)

var bulkFactories = make(map[string]BulkBackendFactory)

// RegisterBulkBackend registers a factory under a name. The first
// registration for a name wins.
func RegisterBulkBackend(name string, factory BulkBackendFactory) {
	if factory == nil || name == "" {
		return
	}
	if _, exists := bulkFactories[name]; !exists {
		bulkFactories[name] = factory
	}
}

// NewBulkBackend instantiates a registered bulk backend by name.
// An unknown name is a configuration error, surfaced immediately.
func NewBulkBackend(name string, backend ExecutionBackend) (BulkBackend, error) {
	factory, ok := bulkFactories[name]
	if !ok {
		return nil, &BackendUnavailableError{
			Backend: name,
			Reason:  "no bulk backend registered under this name",
		}
	}
	return factory(backend)
}
