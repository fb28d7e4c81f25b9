// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package circuit

// Snapshottable is implemented by components that want their bookkeeping
// state (charge, temperature, accumulated energy, ...) captured by
// Circuit.Snapshot and later restored by Circuit.Restore. Structural
// state -- a component's pin-to-Unknown binding -- is never part of a
// snapshot; Restore only ever runs against a circuit already built with
// the same topology.
type Snapshottable interface {
	Component
	Encode() ([]byte, error)
	Decode(data []byte) error
}

// Snapshot captures the encoded state of every Snapshottable component
// currently in the circuit, keyed by component identity, mirroring the
// stage-checkpoint role of the teacher's Domain.backup().
func (c *Circuit) Snapshot() map[Component][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[Component][]byte)
	for _, e := range c.entries {
		s, ok := e.c.(Snapshottable)
		if !ok {
			continue
		}
		data, err := s.Encode()
		if err != nil {
			c.log("circuit: snapshot encode failed for %T: %v\n", e.c, err)
			continue
		}
		out[e.c] = data
	}
	return out
}

// Restore replays a snapshot produced by Snapshot back into the matching
// components, identified by identity. A component present in snap but no
// longer in the circuit (or vice versa) is skipped rather than treated as
// an error, mirroring Domain.restore()'s tolerance for a stage boundary
// that added or removed elements.
func (c *Circuit) Restore(snap map[Component][]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		data, ok := snap[e.c]
		if !ok {
			continue
		}
		s, ok := e.c.(Snapshottable)
		if !ok {
			continue
		}
		if err := s.Decode(data); err != nil {
			c.log("circuit: snapshot decode failed for %T: %v\n", e.c, err)
		}
	}
}
