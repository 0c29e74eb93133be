package soap

import (
	"sync"
)

// OverrideSlot holds at most one pending canned response.
// A slot belongs to a client type, not to a client instance: every client of that type built with the same
// OverrideRegistry sees the same slot. A value stays pending until a call consumes it or it is cleared.
type OverrideSlot struct {
	mu    sync.Mutex
	value Response
}

// Set stores resp for the next call, replacing any unconsumed value. It reports whether one was replaced.
// Set(nil) clears the slot.
func (s *OverrideSlot) Set(resp Response) (replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced = s.value != nil
	s.value = resp
	return replaced
}

// Take reads and clears the slot in one step.
func (s *OverrideSlot) Take() (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := s.value
	s.value = nil
	return resp, resp != nil
}

// Clear drops any pending value.
func (s *OverrideSlot) Clear() {
	s.mu.Lock()
	s.value = nil
	s.mu.Unlock()
}

// Pending reports whether a value is waiting to be consumed.
func (s *OverrideSlot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value != nil
}

// OverrideRegistry owns one OverrideSlot per client type.
// Test and simulation harnesses share a registry with the clients they drive.
type OverrideRegistry struct {
	mu    sync.Mutex
	slots map[string]*OverrideSlot
}

// NewOverrideRegistry creates an empty registry
func NewOverrideRegistry() *OverrideRegistry {
	return &OverrideRegistry{slots: make(map[string]*OverrideSlot)}
}

// Slot returns the slot for clientType, creating it on first use
func (r *OverrideRegistry) Slot(clientType string) *OverrideSlot {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[clientType]
	if !ok {
		slot = &OverrideSlot{}
		r.slots[clientType] = slot
	}
	return slot
}

// Set makes resp the response of the next call on clientType. Last write wins.
func (r *OverrideRegistry) Set(clientType string, resp Response) (replaced bool) {
	return r.Slot(clientType).Set(resp)
}

// Clear drops the pending response of clientType.
func (r *OverrideRegistry) Clear(clientType string) {
	r.Slot(clientType).Clear()
}
