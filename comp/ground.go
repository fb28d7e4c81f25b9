// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gocircuit/mna"
)

// Ground is a one-terminal marker that firmly ties its pin to the
// reference node, for hosts that find it more natural to attach an
// explicit ground part than to rely on the pin-index convention
// pin < 0 (§3 "pin sharing", generalized).
type Ground struct {
	a *mna.Unknown
}

func (g *Ground) AddTo(ctx *circuit.Circuit)      { g.a = ctx.GetNode(g, TerminalA) }
func (g *Ground) RemoveFrom(ctx *circuit.Circuit) { ctx.RemoveNodeReference(g, TerminalA); g.a = nil }

func (g *Ground) Initialize(ctx *circuit.Circuit) {
	ctx.Solver.AddAdmittance(g.a, nil, complex(1/RClosed, 0))
}

func (g *Ground) Deinitialize(ctx *circuit.Circuit) {
	ctx.Solver.AddAdmittance(g.a, nil, complex(-1/RClosed, 0))
}

func (g *Ground) UpdateState(ctx *circuit.Circuit) {}
func (g *Ground) ApplyState(ctx *circuit.Circuit)  {}

func (g *Ground) UsesConnection(pin int) bool { return pin == TerminalA }
