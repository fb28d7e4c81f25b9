// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"github.com/cpmech/gocircuit/circuit"
)

// Capacitor is a two-terminal storage element (§4.3 Capacitor). At AC it
// stamps a pure reactance X_c = -1/(ωC); at DC it is replaced by a
// backward-Euler companion admittance Y_eq = C/Δt plus an equivalent
// current I_eq = Y_eq * V_prev refreshed every tick.
type Capacitor struct {
	twoPin

	Farads float64

	acRegime bool

	Vprev complex128

	V complex128
	I complex128
	Q float64 // stored charge, coulombs (DC only)
	E float64 // stored energy, joules
}

// NewCapacitor returns a Capacitor of the given capacitance, unattached.
func NewCapacitor(farads float64) *Capacitor {
	return &Capacitor{Farads: farads}
}

func (c *Capacitor) AddTo(ctx *circuit.Circuit)      { c.bind(ctx, c) }
func (c *Capacitor) RemoveFrom(ctx *circuit.Circuit) { c.unbind(ctx, c) }

func (c *Capacitor) Initialize(ctx *circuit.Circuit) {
	w := ctx.Frequency()
	c.acRegime = w != 0
	if c.acRegime {
		xc := -1 / (w * c.Farads)
		ctx.Solver.AddReactance(c.a, c.b, xc)
		return
	}
	ctx.Solver.AddAdmittance(c.a, c.b, complex(c.Farads/ctx.TimeDelta(), 0))
}

func (c *Capacitor) Deinitialize(ctx *circuit.Circuit) {
	if c.acRegime {
		xc := -1 / (ctx.Frequency() * c.Farads)
		ctx.Solver.AddReactance(c.a, c.b, -xc)
		return
	}
	ctx.Solver.AddAdmittance(c.a, c.b, complex(-c.Farads/ctx.TimeDelta(), 0))
}

func (c *Capacitor) UpdateState(ctx *circuit.Circuit) {
	if c.acRegime {
		return
	}
	Ieq := complex(c.Farads/ctx.TimeDelta(), 0) * c.Vprev
	ctx.Solver.AddCurrent(c.b, c.a, Ieq)
}

func (c *Capacitor) ApplyState(ctx *circuit.Circuit) {
	c.V = c.Vab(ctx.Solver)
	if c.acRegime {
		xc := -1 / (ctx.Frequency() * c.Farads)
		c.I = c.V / complex(0, xc)
		c.Q = 0
	} else {
		c.Q = c.Farads * real(c.V)
		c.I = complex(c.Farads/ctx.TimeDelta(), 0) * (c.V - c.Vprev)
	}
	c.Vprev = c.V
	c.E = 0.5 * c.Q * c.Q / c.Farads
}

func (c *Capacitor) UsesConnection(pin int) bool { return c.usesConnection(pin) }

type capacitorState struct {
	VprevRe, VprevIm float64
}

// Encode implements circuit.Snapshottable, capturing the previous-tick
// terminal voltage the backward-Euler companion model needs to resume.
func (c *Capacitor) Encode() ([]byte, error) {
	return gobEncode(capacitorState{VprevRe: real(c.Vprev), VprevIm: imag(c.Vprev)})
}

func (c *Capacitor) Decode(data []byte) error {
	var st capacitorState
	if err := gobDecode(data, &st); err != nil {
		return err
	}
	c.Vprev = complex(st.VprevRe, st.VprevIm)
	return nil
}
