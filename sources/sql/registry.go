package exportsql

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-tabular-export/export"
)

// Registry maps database/sql driver names to dialects.
type Registry struct {
	mu       sync.RWMutex
	dialects map[string]Dialect
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{dialects: make(map[string]Dialect)}
}

// DefaultDialects returns a registry with the bundled dialects keyed by the
// driver names they serve.
func DefaultDialects() *Registry {
	reg := NewRegistry()
	_ = reg.Register(SQLite{}, "sqlite", "sqlite3", "sqliteshim")
	_ = reg.Register(Postgres{}, "postgres", "pgx")
	_ = reg.Register(MySQL{}, "mysql")
	return reg
}

// Register binds a dialect to one or more driver names.
func (r *Registry) Register(dialect Dialect, drivers ...string) error {
	if dialect == nil {
		return export.NewError(export.KindValidation, "dialect is required", nil)
	}
	if len(drivers) == 0 {
		return export.NewError(export.KindValidation, "driver name is required", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, driver := range drivers {
		key := strings.ToLower(strings.TrimSpace(driver))
		if key == "" {
			return export.NewError(export.KindValidation, "driver name is required", nil)
		}
		if _, exists := r.dialects[key]; exists {
			return export.NewError(export.KindValidation, fmt.Sprintf("driver %q already registered", key), nil)
		}
		r.dialects[key] = dialect
	}
	return nil
}

// Resolve returns the dialect for a driver name.
func (r *Registry) Resolve(driver string) (Dialect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dialect, ok := r.dialects[strings.ToLower(strings.TrimSpace(driver))]
	return dialect, ok
}
