// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package comp implements the component library of §4.3: the per-type
// stamps and post-solve updates each circuit element contributes across
// its add-to/initialize/update-state/apply-state/deinitialize/
// remove-from lifecycle. Every type here implements circuit.Component
// (and, where applicable, circuit.NonLinear, circuit.ACSource,
// circuit.PowerSource, circuit.PowerSink or circuit.Thermal).
package comp

import (
	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gocircuit/mna"
)

// Terminal labels passed to Circuit.GetNode. Two-terminal parts use
// TerminalA/TerminalB; the transformer's secondary winding uses
// TerminalC/TerminalD. These are fixed per component type, not assigned
// by the host -- the host wires terminals together (or to ground)
// through a circuit.PeerResolver, never by picking a pin number.
const (
	TerminalA = 0
	TerminalB = 1
	TerminalC = 2
	TerminalD = 3
)

// GMin is the small leak-to-ground admittance Resistor (and so Line)
// stamps at each of its pins to keep A non-singular when a node would
// otherwise float (§4.3 Resistor).
const GMin = 1e-9

// Breaker/Switch constants (§4.3 Breaker; §9 Open Question (b) notes
// RClosed is an untuned numerical compromise, not a derived value).
const (
	RClosed = 1e-4 // ohms, through-resistance when closed
	RGnd    = 1e6  // ohms, always-on ground leak to prevent floating islands
)

// twoPin is embedded by every two-terminal component to track its bound
// Unknowns across the add-to/remove-from lifecycle (§6 "base add_to
// binds pin_a, pin_b").
type twoPin struct {
	a, b *mna.Unknown
}

func (p *twoPin) bind(ctx *circuit.Circuit, self circuit.Component) {
	p.a = ctx.GetNode(self, TerminalA)
	p.b = ctx.GetNode(self, TerminalB)
}

func (p *twoPin) unbind(ctx *circuit.Circuit, self circuit.Component) {
	ctx.RemoveNodeReference(self, TerminalA)
	ctx.RemoveNodeReference(self, TerminalB)
	p.a, p.b = nil, nil
}

func (p *twoPin) usesConnection(pin int) bool {
	return pin == TerminalA || pin == TerminalB
}

// Vab returns the solved voltage across a part's two pins.
func (p *twoPin) Vab(s *mna.Solver) complex128 {
	return s.At(p.a) - s.At(p.b)
}
