package upload

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rcm-webdev/insight-lens/internal/intake"
	"github.com/rcm-webdev/insight-lens/internal/models"
)

// PolicyStore holds the process-wide admission policy.
type PolicyStore struct {
	mu          sync.RWMutex
	cfg         models.UploadConfig
	sizeCeiling int64 // 0 means unbounded
}

// NewPolicyStore creates a store with the given policy. Invalid policies
// fall back to the defaults.
func NewPolicyStore(cfg models.UploadConfig) *PolicyStore {
	cfg = intake.Normalize(cfg)
	if err := intake.CheckPolicy(cfg); err != nil {
		cfg = intake.DefaultUploadConfig()
	}
	return &PolicyStore{cfg: cfg}
}

// Get returns a copy of the current policy.
func (p *PolicyStore) Get() models.UploadConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := p.cfg
	out.AcceptedTypes = slices.Clone(p.cfg.AcceptedTypes)
	out.AcceptedExtensions = slices.Clone(p.cfg.AcceptedExtensions)
	return out
}

// LimitFileSize bounds the maxFileSize later updates may set. Files above
// the HTTP body limit never reach admission, so the policy must stay below it.
func (p *PolicyStore) LimitFileSize(ceiling int64) {
	p.mu.Lock()
	p.sizeCeiling = ceiling
	p.mu.Unlock()
}

// Update replaces the policy.
func (p *PolicyStore) Update(cfg models.UploadConfig) (models.UploadConfig, error) {
	cfg = intake.Normalize(cfg)
	if err := intake.CheckPolicy(cfg); err != nil {
		return models.UploadConfig{}, err
	}

	p.mu.Lock()
	if p.sizeCeiling > 0 && cfg.MaxFileSize > p.sizeCeiling {
		p.mu.Unlock()
		return models.UploadConfig{}, fmt.Errorf("%w: maxFileSize must not exceed %d bytes", intake.ErrInvalidPolicy, p.sizeCeiling)
	}
	p.cfg = cfg
	p.mu.Unlock()

	return p.Get(), nil
}
