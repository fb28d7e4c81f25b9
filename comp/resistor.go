// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"math/cmplx"

	"github.com/cpmech/gocircuit/circuit"
)

// Resistor is a plain linear two-terminal part (§4.3 Resistor).
type Resistor struct {
	twoPin

	// Ohms is the resistance between pin a and pin b.
	Ohms float64

	// derived, refreshed by ApplyState
	V complex128
	I complex128
	P float64 // dissipated power, watts
}

// NewResistor returns a Resistor of the given resistance, unattached.
func NewResistor(ohms float64) *Resistor {
	return &Resistor{Ohms: ohms}
}

func (r *Resistor) AddTo(ctx *circuit.Circuit)   { r.bind(ctx, r) }
func (r *Resistor) RemoveFrom(ctx *circuit.Circuit) { r.unbind(ctx, r) }

func (r *Resistor) Initialize(ctx *circuit.Circuit) {
	ctx.Solver.AddAdmittance(r.a, nil, complex(GMin, 0))
	ctx.Solver.AddAdmittance(r.b, nil, complex(GMin, 0))
	ctx.Solver.AddResistance(r.a, r.b, r.Ohms)
}

func (r *Resistor) Deinitialize(ctx *circuit.Circuit) {
	ctx.Solver.AddAdmittance(r.a, nil, complex(-GMin, 0))
	ctx.Solver.AddAdmittance(r.b, nil, complex(-GMin, 0))
	ctx.Solver.AddResistance(r.a, r.b, -r.Ohms)
}

func (r *Resistor) UpdateState(ctx *circuit.Circuit) {}

func (r *Resistor) ApplyState(ctx *circuit.Circuit) {
	r.V = r.Vab(ctx.Solver)
	r.I = r.V / complex(r.Ohms, 0)
	r.P = real(r.V * cmplx.Conj(r.I))
}

func (r *Resistor) UsesConnection(pin int) bool { return r.usesConnection(pin) }
