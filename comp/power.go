// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"math/cmplx"

	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gosl/fun"
)

// scaledPower turns a power schedule into the equivalent current
// schedule I(t) = 2*P(t)/Vnom for PowerSource's companion current
// source (§4.3 "Power source (derived from current source)").
type scaledPower struct {
	p    fun.Func
	vnom float64
}

func (s scaledPower) F(t float64, x []float64) float64 { return 2 * s.p.F(t, x) / s.vnom }

// G, H and Grad scale the underlying schedule's derivatives the same way
// F scales its value, completing the fun.Func interface.
func (s scaledPower) G(t float64, x []float64) float64    { return 2 * s.p.G(t, x) / s.vnom }
func (s scaledPower) H(t float64, x []float64) float64    { return 2 * s.p.H(t, x) / s.vnom }
func (s scaledPower) Grad(t float64, x []float64) []float64 {
	g := s.p.Grad(t, x)
	out := make([]float64, len(g))
	for i, v := range g {
		out[i] = 2 * v / s.vnom
	}
	return out
}

// PowerSource is a current source whose internal resistance is sized so
// the nominal operating point (Vnom, Pnom) sits at the peak of the
// delivered-power curve (§4.3 Power source).
type PowerSource struct {
	CurrentSource

	EnergyOut float64
}

// NewPowerSource returns a power source targeting Pnom watts at Vnom
// volts, unattached.
func NewPowerSource(vnom, pnom float64) *PowerSource {
	rInt := vnom * vnom / (2 * pnom)
	return &PowerSource{
		CurrentSource: CurrentSource{
			Setting: scaledPower{p: Const(pnom), vnom: vnom},
			RInt:    rInt,
		},
	}
}

// SetTargetPower replaces the power schedule driving this source, with
// vnom setting the power-to-current scale I = 2*P/vnom. RInt keeps the
// value sized at construction; it is not recomputed from vnom.
func (ps *PowerSource) SetTargetPower(p fun.Func, vnom float64) {
	ps.Setting = scaledPower{p: p, vnom: vnom}
}

// AddTo and RemoveFrom bind the pins under the PowerSource's own
// identity, so peers joined to it (not its embedded CurrentSource)
// resolve.
func (ps *PowerSource) AddTo(ctx *circuit.Circuit)      { ps.bind(ctx, ps) }
func (ps *PowerSource) RemoveFrom(ctx *circuit.Circuit) { ps.unbind(ctx, ps) }

func (ps *PowerSource) ApplyState(ctx *circuit.Circuit) {
	ps.CurrentSource.ApplyState(ctx)
	ps.EnergyOut = ps.PDraw * ctx.TimeDelta()
}

// EnergyOutput implements circuit.PowerSource.
func (ps *PowerSource) EnergyOutput() float64 { return ps.EnergyOut }

// PowerSink is a non-linear load that holds constant power once its
// terminal voltage clears VNom, behaves resistively below that, and
// disconnects outside [VMin, VMax] (§4.3 Power sink).
type PowerSink struct {
	twoPin

	PTarget    fun.Func
	VMin       float64
	VNom       float64
	VMax       float64
	Inductance float64

	t float64

	// latchedV is the terminal voltage at the end of the previous tick,
	// the hysteresis state spec §9 Open Question (a) says to latch on
	// and refresh only in ApplyState, so a single tick's NR iterations
	// never flip regime mid-solve.
	latchedV complex128

	V           complex128
	I           complex128
	PDelivered  float64
	PowerFactor float64
	EnergyIn    float64
}

// NewPowerSink returns a power sink with a fixed target power, unattached.
func NewPowerSink(pTarget, vMin, vNom, vMax float64) *PowerSink {
	return &PowerSink{PTarget: Const(pTarget), VMin: vMin, VNom: vNom, VMax: vMax}
}

func (ps *PowerSink) AddTo(ctx *circuit.Circuit)      { ps.bind(ctx, ps) }
func (ps *PowerSink) RemoveFrom(ctx *circuit.Circuit) { ps.unbind(ctx, ps) }

func (ps *PowerSink) Initialize(ctx *circuit.Circuit) {}
func (ps *PowerSink) Deinitialize(ctx *circuit.Circuit) {}

func (ps *PowerSink) UpdateState(ctx *circuit.Circuit) {
	ps.t += ctx.TimeDelta()
}

// currentAt evaluates the piecewise load characteristic at the live
// voltage v, but decides which branch of the characteristic applies
// using the latched pre-tick voltage (hysteresis).
func (ps *PowerSink) currentAt(v complex128, w float64) (I, dIdV complex128) {
	mag := cmplx.Abs(ps.latchedV)
	target := ps.PTarget.F(ps.t, nil)
	switch {
	case mag < ps.VMin || mag > ps.VMax:
		return 0, 0
	case mag < ps.VNom:
		zload := complex(ps.VNom*ps.VNom/target, 0) + complex(0, w*ps.Inductance)
		return v / zload, 1 / zload
	default:
		I = complex(target, 0) / cmplx.Conj(v)
		dIdV = complex(-target, 0) / (v * v)
		return
	}
}

func (ps *PowerSink) UpdateDifferentialState(ctx *circuit.Circuit) {
	v := ps.Vab(ctx.Solver)
	I, dIdV := ps.currentAt(v, ctx.Frequency())
	ctx.Solver.AddNonlinearCurrent(ps.a, ps.b, I, dIdV, -dIdV)
}

func (ps *PowerSink) ApplyState(ctx *circuit.Circuit) {
	ps.V = ps.Vab(ctx.Solver)
	ps.I, _ = ps.currentAt(ps.V, ctx.Frequency())
	S := ps.V * cmplx.Conj(ps.I)
	ps.PDelivered = real(S)
	if mag := cmplx.Abs(S); mag != 0 {
		ps.PowerFactor = real(S) / mag
	} else {
		ps.PowerFactor = 0
	}
	ps.latchedV = ps.V
	ps.EnergyIn = ps.PDelivered * ctx.TimeDelta()
}

func (ps *PowerSink) UsesConnection(pin int) bool { return ps.usesConnection(pin) }

// EnergyInput implements circuit.PowerSink.
func (ps *PowerSink) EnergyInput() float64 { return ps.EnergyIn }

type powerSinkState struct {
	T                    float64
	LatchedVRe, LatchedVIm float64
}

// Encode implements circuit.Snapshottable, capturing the hysteresis
// latch and elapsed-time clock the piecewise load characteristic needs
// to resume in the same regime it left off in.
func (ps *PowerSink) Encode() ([]byte, error) {
	return gobEncode(powerSinkState{T: ps.t, LatchedVRe: real(ps.latchedV), LatchedVIm: imag(ps.latchedV)})
}

func (ps *PowerSink) Decode(data []byte) error {
	var st powerSinkState
	if err := gobDecode(data, &st); err != nil {
		return err
	}
	ps.t = st.T
	ps.latchedV = complex(st.LatchedVRe, st.LatchedVIm)
	return nil
}
