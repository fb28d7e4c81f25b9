// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gocircuit/mna"
)

// Inductor is a two-terminal storage element (§4.3 Inductor). At AC
// (ω != 0) it stamps a pure reactance; at DC it is replaced by a
// backward-Euler companion model built on a branch-current Unknown i.
// The voltage-source stamp orients x[i] from b to a, so the current from
// a to b is I = -x[i], and an extra -(L/Δt) term on the branch row gives
//
//	V(a) - V(b) = (L/Δt) * (I - I_prev)
//
// with the z-side refreshed every tick from the previous solved current
// (UpdateState).
type Inductor struct {
	twoPin

	Henries float64

	acRegime bool        // which regime Initialize last stamped, for Deinitialize
	i        *mna.Unknown // DC-only branch-current Unknown

	Iprev complex128 // previous tick's solved current, seeds the companion model

	V complex128
	I complex128
	E float64 // stored energy, joules
}

// NewInductor returns an Inductor of the given inductance, unattached.
func NewInductor(henries float64) *Inductor {
	return &Inductor{Henries: henries}
}

func (n *Inductor) AddTo(ctx *circuit.Circuit)      { n.bind(ctx, n) }
func (n *Inductor) RemoveFrom(ctx *circuit.Circuit) { n.unbind(ctx, n) }

func (n *Inductor) Initialize(ctx *circuit.Circuit) {
	w := ctx.Frequency()
	n.acRegime = w != 0
	if n.acRegime {
		ctx.Solver.AddReactance(n.a, n.b, w*n.Henries)
		return
	}
	n.i = ctx.AllocUnknown()
	ctx.Solver.StampVoltageSource(n.a, n.b, n.i)
	ctx.Solver.AddAdmittance(n.i, nil, complex(-n.Henries/ctx.TimeDelta(), 0))
}

func (n *Inductor) Deinitialize(ctx *circuit.Circuit) {
	if n.acRegime {
		ctx.Solver.AddReactance(n.a, n.b, -ctx.Frequency()*n.Henries)
		return
	}
	ctx.Solver.AddAdmittance(n.i, nil, complex(n.Henries/ctx.TimeDelta(), 0))
	ctx.FreeUnknown(n.i)
	n.i = nil
}

func (n *Inductor) UpdateState(ctx *circuit.Circuit) {
	if n.acRegime {
		return
	}
	ctx.Solver.SetVoltage(n.i, complex(n.Henries/ctx.TimeDelta(), 0)*n.Iprev)
}

func (n *Inductor) ApplyState(ctx *circuit.Circuit) {
	n.V = n.Vab(ctx.Solver)
	if n.acRegime {
		n.I = n.V / complex(0, ctx.Frequency()*n.Henries)
	} else {
		n.I = -ctx.Solver.At(n.i)
	}
	n.Iprev = n.I
	mag := real(n.I)*real(n.I) + imag(n.I)*imag(n.I)
	n.E = 0.5 * n.Henries * mag
}

func (n *Inductor) UsesConnection(pin int) bool { return n.usesConnection(pin) }

type inductorState struct {
	IprevRe, IprevIm float64
}

// Encode implements circuit.Snapshottable, capturing the previous-tick
// branch current the backward-Euler companion model needs to resume.
func (n *Inductor) Encode() ([]byte, error) {
	return gobEncode(inductorState{IprevRe: real(n.Iprev), IprevIm: imag(n.Iprev)})
}

func (n *Inductor) Decode(data []byte) error {
	var st inductorState
	if err := gobDecode(data, &st); err != nil {
		return err
	}
	n.Iprev = complex(st.IprevRe, st.IprevIm)
	return nil
}
