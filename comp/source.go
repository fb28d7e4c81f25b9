// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"math"
	"math/cmplx"

	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gocircuit/mna"
	"github.com/cpmech/gosl/fun"
)

// phasor evaluates a real-valued magnitude schedule at time t and turns
// it into a complex phasor at the given phase (radians). DC sources use
// phase 0, where this collapses to a plain real value.
func phasor(setting fun.Func, t, phaseRad float64) complex128 {
	mag := setting.F(t, nil)
	return complex(mag*math.Cos(phaseRad), mag*math.Sin(phaseRad))
}

// VoltageSource is an ideal voltage source (§4.3 Voltage source).
type VoltageSource struct {
	twoPin

	// Setting is the source's magnitude schedule; Const(v) for a fixed
	// value, or any other fun.Func for a time-varying one.
	Setting fun.Func
	Phase   float64 // radians

	// Frequency is the source's declared angular frequency (0 for DC);
	// reconcileFrequency uses this across every ACSource in a circuit.
	Frequency float64

	i *mna.Unknown
	t float64 // elapsed time, advanced by UpdateState

	I complex128
}

// NewVoltageSource returns a DC voltage source with a fixed setting.
func NewVoltageSource(volts float64) *VoltageSource {
	return &VoltageSource{Setting: Const(volts)}
}

func (v *VoltageSource) AddTo(ctx *circuit.Circuit)      { v.bind(ctx, v) }
func (v *VoltageSource) RemoveFrom(ctx *circuit.Circuit) { v.unbind(ctx, v) }

func (v *VoltageSource) Initialize(ctx *circuit.Circuit) {
	v.i = ctx.AllocUnknown()
	ctx.Solver.StampVoltageSource(v.a, v.b, v.i)
}

func (v *VoltageSource) Deinitialize(ctx *circuit.Circuit) {
	ctx.FreeUnknown(v.i)
	v.i = nil
}

func (v *VoltageSource) UpdateState(ctx *circuit.Circuit) {
	v.t += ctx.TimeDelta()
	ctx.Solver.SetVoltage(v.i, phasor(v.Setting, v.t, v.Phase))
}

func (v *VoltageSource) ApplyState(ctx *circuit.Circuit) {
	v.I = ctx.Solver.At(v.i)
}

func (v *VoltageSource) UsesConnection(pin int) bool { return v.usesConnection(pin) }
func (v *VoltageSource) SourceFrequency() float64    { return v.Frequency }

// CurrentSource is a non-ideal current source with internal resistance
// RInt (§4.3 Current source).
type CurrentSource struct {
	twoPin

	Setting   fun.Func
	Phase     float64
	RInt      float64
	Frequency float64

	t      float64
	lastI  complex128 // this tick's I_setting

	V     complex128
	IDraw complex128
	PDraw float64
}

// NewCurrentSource returns a DC current source with a fixed setting and
// the given internal resistance (0 for an ideal source).
func NewCurrentSource(amps, rInt float64) *CurrentSource {
	return &CurrentSource{Setting: Const(amps), RInt: rInt}
}

func (s *CurrentSource) AddTo(ctx *circuit.Circuit)      { s.bind(ctx, s) }
func (s *CurrentSource) RemoveFrom(ctx *circuit.Circuit) { s.unbind(ctx, s) }

func (s *CurrentSource) Initialize(ctx *circuit.Circuit) {
	if s.RInt != 0 {
		ctx.Solver.AddResistance(s.a, s.b, s.RInt)
	}
}

func (s *CurrentSource) Deinitialize(ctx *circuit.Circuit) {
	if s.RInt != 0 {
		ctx.Solver.AddResistance(s.a, s.b, -s.RInt)
	}
}

func (s *CurrentSource) UpdateState(ctx *circuit.Circuit) {
	s.t += ctx.TimeDelta()
	s.lastI = phasor(s.Setting, s.t, s.Phase)
	ctx.Solver.AddCurrent(s.a, s.b, s.lastI)
}

func (s *CurrentSource) ApplyState(ctx *circuit.Circuit) {
	s.V = -s.Vab(ctx.Solver) // V = x[b]-x[a]
	if s.RInt != 0 {
		s.IDraw = s.lastI - s.V/complex(s.RInt, 0)
	} else {
		s.IDraw = s.lastI
	}
	s.PDraw = real(s.V * cmplx.Conj(s.IDraw))
}

func (s *CurrentSource) UsesConnection(pin int) bool { return s.usesConnection(pin) }
func (s *CurrentSource) SourceFrequency() float64    { return s.Frequency }
