package memory

import (
	"context"
	"strings"
	"sync"
)

type disposableDomainRepo struct {
	mu      sync.Mutex
	domains map[string]bool
}

func (r *disposableDomainRepo) IsDisposable(_ context.Context, domain string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.domains[strings.ToLower(domain)]
}
