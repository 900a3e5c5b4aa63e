package compute

import (
	"fmt"
	"sort"
)

// Backend runs a row-parallel kernel. Dispatch must return only after fn has
// completed for every row in [0, rows).
type Backend interface {
	Name() string
	Available() bool
	Workers() int
	Dispatch(rows int, fn func(start, end int))
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil && activeBackend != b {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

func AutoSelectBackend() Backend {
	cpu := NewCPUBackend(0)
	if cpu.Available() && cpu.Workers() > 1 {
		return cpu
	}
	return NewSerialBackend()
}

var factories = map[string]func(workers int) Backend{
	"cpu":    func(workers int) Backend { return NewCPUBackend(workers) },
	"serial": func(int) Backend { return NewSerialBackend() },
}

// ByName constructs a backend from its configuration name. workers <= 0
// selects the backend's default.
func ByName(name string, workers int) (Backend, error) {
	if name == "" || name == "auto" {
		return AutoSelectBackend(), nil
	}
	fn, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s (available: %v)", name, Names())
	}
	return fn(workers), nil
}

// Names lists the registered backend names.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
