package model

import (
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// Backend names a compute device family.
type Backend string

const (
	BackendMPS  Backend = "mps"
	BackendCUDA Backend = "cuda"
	BackendCPU  Backend = "cpu"
)

// Probe reports whether a backend is usable on this host.
type Probe func() bool

type backendEntry struct {
	name     Backend
	priority int
	probe    Probe
}

var (
	backendsMu sync.RWMutex
	backends   = map[Backend]backendEntry{}
)

func init() {
	RegisterBackend(BackendMPS, 30, func() bool {
		return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
	})
	RegisterBackend(BackendCUDA, 20, func() bool {
		if v, ok := os.LookupEnv("CUDA_VISIBLE_DEVICES"); ok {
			return v != "" && v != "-1"
		}
		_, err := os.Stat("/dev/nvidia0")
		return err == nil
	})
	RegisterBackend(BackendCPU, 0, func() bool { return true })
}

// RegisterBackend adds or replaces a backend probe. Higher priority wins
// when no preference is given.
func RegisterBackend(name Backend, priority int, probe Probe) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = backendEntry{name: name, priority: priority, probe: probe}
}

// AvailableBackends lists usable backends, best first.
func AvailableBackends() []Backend {
	backendsMu.RLock()
	entries := make([]backendEntry, 0, len(backends))
	for _, e := range backends {
		entries = append(entries, e)
	}
	backendsMu.RUnlock()

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].priority != entries[b].priority {
			return entries[a].priority > entries[b].priority
		}
		return entries[a].name < entries[b].name
	})
	var out []Backend
	for _, e := range entries {
		if e.probe == nil || e.probe() {
			out = append(out, e.name)
		}
	}
	return out
}

// SelectBackend returns preferred when it is available, otherwise the best
// available backend, falling back to cpu.
func SelectBackend(preferred string) Backend {
	available := AvailableBackends()
	want := Backend(strings.ToLower(strings.TrimSpace(preferred)))
	for _, b := range available {
		if want != "" && b == want {
			return b
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return BackendCPU
}
