package datasource

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// DatasourceAdapterInfo describes a registered dialect.
type DatasourceAdapterInfo struct {
	Type        string `json:"type"`         // normalized dialect: "mysql", "postgresql", ...
	DisplayName string `json:"display_name"` // "MySQL", "Apache Doris"
	Driver      string `json:"driver"`       // database/sql driver name
}

// Factory builds a Connection for a normalized spec. It must not connect.
type Factory func(spec ConnectionSpec, logger *zap.Logger) (Connection, error)

// DatasourceAdapterRegistration contains info + factory for creating connections.
type DatasourceAdapterRegistration struct {
	Info    DatasourceAdapterInfo
	Factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DatasourceAdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg DatasourceAdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered dialects, sorted by type.
func RegisteredAdapters() []DatasourceAdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasourceAdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetFactory returns the factory for a normalized dialect.
// Returns nil if the dialect is not registered.
func GetFactory(dialect string) Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dialect]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks if a dialect is available.
func IsRegistered(dialect string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dialect]
	return ok
}
