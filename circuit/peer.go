// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package circuit

// MapPeers is a trivial PeerResolver backed by an explicit map, useful
// for tests and for small hosts that don't need a full topology-
// discovery layer (spec §6 names topology discovery as an external
// collaborator; this is a minimal stand-in, not a replacement for it).
type MapPeers struct {
	links map[pinKey]pinKey
}

// NewMapPeers returns an empty MapPeers.
func NewMapPeers() *MapPeers {
	return &MapPeers{links: make(map[pinKey]pinKey)}
}

// Join records that (c1, pin1) and (c2, pin2) are physically joined. The
// link is symmetric: either side resolves to the other.
func (m *MapPeers) Join(c1 Component, pin1 int, c2 Component, pin2 int) {
	m.links[pinKey{c1, pin1}] = pinKey{c2, pin2}
	m.links[pinKey{c2, pin2}] = pinKey{c1, pin1}
}

// Peer implements PeerResolver.
func (m *MapPeers) Peer(c Component, pin int) (Component, int, bool) {
	k, ok := m.links[pinKey{c, pin}]
	if !ok {
		return nil, 0, false
	}
	return k.c, k.pin, true
}
