package rulepack

import "sync/atomic"

// Holder publishes the current engines to concurrent readers.
type Holder struct {
	current atomic.Pointer[Engines]
}

// NewHolder creates a holder serving engines.
func NewHolder(engines *Engines) *Holder {
	h := &Holder{}
	h.current.Store(engines)
	return h
}

// Current returns the engines in effect.
func (h *Holder) Current() *Engines {
	return h.current.Load()
}

// Store replaces the engines in effect.
func (h *Holder) Store(engines *Engines) {
	h.current.Store(engines)
}
