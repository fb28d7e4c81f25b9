// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gocircuit/mna"
)

// Transformer couples a primary winding (pins a,b) to a secondary
// winding (pins c,d) through mutual inductance (§4.3 Transformer). Only
// meaningful at AC; at DC it contributes no stamp at all.
type Transformer struct {
	// Ratio is secondary turns / primary turns.
	Ratio float64

	// K, L1 follow the spec's fixed defaults (0.999, 0.1 H) but are
	// exposed for hosts that need a different winding.
	K  float64
	L1 float64

	pa, pb *mna.Unknown // primary
	sc, sd *mna.Unknown // secondary
	i1, i2 *mna.Unknown // branch currents

	acStamped bool

	Vp, Vs complex128
	Ip, Is complex128
}

// NewTransformer returns a transformer with the spec's default coupling
// (k=0.999, L1=0.1H) and the given turns ratio, unattached.
func NewTransformer(ratio float64) *Transformer {
	return &Transformer{Ratio: ratio, K: 0.999, L1: 0.1}
}

func (t *Transformer) l2() float64 { return t.L1 * t.Ratio * t.Ratio }
func (t *Transformer) m() float64  { return t.K * t.L1 * t.Ratio }

func (t *Transformer) AddTo(ctx *circuit.Circuit) {
	t.pa = ctx.GetNode(t, TerminalA)
	t.pb = ctx.GetNode(t, TerminalB)
	t.sc = ctx.GetNode(t, TerminalC)
	t.sd = ctx.GetNode(t, TerminalD)
}

func (t *Transformer) RemoveFrom(ctx *circuit.Circuit) {
	ctx.RemoveNodeReference(t, TerminalA)
	ctx.RemoveNodeReference(t, TerminalB)
	ctx.RemoveNodeReference(t, TerminalC)
	ctx.RemoveNodeReference(t, TerminalD)
	t.pa, t.pb, t.sc, t.sd = nil, nil, nil, nil
}

func (t *Transformer) Initialize(ctx *circuit.Circuit) {
	w := ctx.Frequency()
	if w == 0 {
		t.acStamped = false
		return
	}
	t.i1 = ctx.AllocUnknown()
	t.i2 = ctx.AllocUnknown()
	ctx.Solver.StampTransformer(t.pa, t.pb, t.sc, t.sd, t.i1, t.i2, w*t.L1, w*t.l2(), w*t.m())
	t.acStamped = true
}

func (t *Transformer) Deinitialize(ctx *circuit.Circuit) {
	if !t.acStamped {
		return
	}
	ctx.FreeUnknown(t.i1)
	ctx.FreeUnknown(t.i2)
	t.i1, t.i2 = nil, nil
	t.acStamped = false
	ctx.InvalidateFromComponent()
}

func (t *Transformer) UpdateState(ctx *circuit.Circuit) {}

func (t *Transformer) ApplyState(ctx *circuit.Circuit) {
	s := ctx.Solver
	t.Vp = s.At(t.pa) - s.At(t.pb)
	t.Vs = s.At(t.sc) - s.At(t.sd)
	if t.acStamped {
		t.Ip = s.At(t.i1)
		t.Is = s.At(t.i2)
	} else {
		t.Ip, t.Is = 0, 0
	}
}

func (t *Transformer) UsesConnection(pin int) bool {
	return pin == TerminalA || pin == TerminalB || pin == TerminalC || pin == TerminalD
}
