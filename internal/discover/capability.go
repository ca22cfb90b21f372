package discover

import "sync"

// CapabilityState describes whether an external service is usable and, when
// it is not, why.
type CapabilityState string

// Capability states. A missing credential is a configuration problem known
// before any call; an upstream rejection means the credential was presented
// and refused.
const (
	CapabilityEnabled           CapabilityState = "enabled"
	CapabilityMissingCredential CapabilityState = "disabled:missing_credential"
	CapabilityUpstreamRejected  CapabilityState = "disabled:upstream_rejected"
)

// Capability names.
const (
	CapabilitySearch     = "search"
	CapabilityExtraction = "extraction"
	CapabilityEnrichment = "enrichment"
)

// Capabilities tracks per-service state for the lifetime of the process.
type Capabilities struct {
	mu     sync.RWMutex
	states map[string]CapabilityState
}

// NewCapabilities builds a registry with every capability enabled unless
// its credential is absent.
func NewCapabilities(haveSearch, haveModel, haveEnrich bool) *Capabilities {
	state := func(have bool) CapabilityState {
		if have {
			return CapabilityEnabled
		}
		return CapabilityMissingCredential
	}
	return &Capabilities{states: map[string]CapabilityState{
		CapabilitySearch:     state(haveSearch),
		CapabilityExtraction: state(haveModel),
		CapabilityEnrichment: state(haveEnrich),
	}}
}

// Enabled reports whether a capability is currently usable.
func (c *Capabilities) Enabled(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.states[name] == CapabilityEnabled
}

// MarkRejected flips an enabled capability to upstream-rejected. A
// capability already disabled for a missing credential keeps that state.
func (c *Capabilities) MarkRejected(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states[name] == CapabilityEnabled {
		c.states[name] = CapabilityUpstreamRejected
	}
}

// Snapshot returns a copy of all capability states, for the health endpoint.
func (c *Capabilities) Snapshot() map[string]CapabilityState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]CapabilityState, len(c.states))
	for k, v := range c.states {
		out[k] = v
	}
	return out
}
