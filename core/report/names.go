package report

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NameRegistry labels the addresses a run touched so gas reports can show
// "SimpleAccount" instead of a raw address.
type NameRegistry struct {
	mu     sync.RWMutex
	labels map[common.Address]string
}

func NewNameRegistry() *NameRegistry {
	return &NameRegistry{labels: make(map[common.Address]string)}
}

// Add records label for addr. The zero address is never labelled and an
// existing label is overwritten.
func (r *NameRegistry) Add(addr common.Address, label string) {
	if addr == (common.Address{}) || label == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[addr] = label
}

func (r *NameRegistry) Label(addr common.Address) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	label, ok := r.labels[addr]
	return label, ok
}

func (r *NameRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.labels)
}

// Map returns the labels keyed by lowercase 0x address.
func (r *NameRegistry) Map() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.labels))
	for addr, label := range r.labels {
		out[strings.ToLower(addr.Hex())] = label
	}
	return out
}
