// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"math/cmplx"

	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gocircuit/mna"
)

// Battery is a voltage source with an internal series resistance and a
// state of charge that depletes as it delivers power (§4.3 Battery). The
// companion model introduces an internal node vX: a voltage source runs
// from pin b to vX, and a series resistance RInt runs from vX to pin a.
type Battery struct {
	twoPin

	Nominal   float64 // open-circuit voltage at full charge
	RInt      float64
	MaxCharge float64
	Charge    float64 // current state of charge, same units as MaxCharge

	vx *mna.Unknown
	i  *mna.Unknown

	Vprev complex128 // last tick's terminal voltage, for phase alignment

	V complex128
	I complex128
	P float64
}

// NewBattery returns a battery starting at full charge, unattached.
func NewBattery(nominal, rInt, maxCharge float64) *Battery {
	return &Battery{Nominal: nominal, RInt: rInt, MaxCharge: maxCharge, Charge: maxCharge}
}

func (bt *Battery) AddTo(ctx *circuit.Circuit)      { bt.bind(ctx, bt) }
func (bt *Battery) RemoveFrom(ctx *circuit.Circuit) { bt.unbind(ctx, bt) }

func (bt *Battery) Initialize(ctx *circuit.Circuit) {
	bt.vx = ctx.AllocUnknown()
	bt.i = ctx.AllocUnknown()
	ctx.Solver.StampVoltageSource(bt.b, bt.vx, bt.i)
	ctx.Solver.AddResistance(bt.vx, bt.a, bt.RInt)
}

func (bt *Battery) Deinitialize(ctx *circuit.Circuit) {
	ctx.Solver.AddResistance(bt.vx, bt.a, -bt.RInt)
	ctx.FreeUnknown(bt.i)
	ctx.FreeUnknown(bt.vx)
	bt.i, bt.vx = nil, nil
}

func (bt *Battery) UpdateState(ctx *circuit.Circuit) {
	mag := (bt.Charge / bt.MaxCharge) * bt.Nominal
	phase := 0.0
	if bt.Vprev != 0 {
		phase = cmplx.Phase(bt.Vprev)
	}
	ctx.Solver.SetVoltage(bt.i, cmplx.Rect(mag, phase))
}

func (bt *Battery) ApplyState(ctx *circuit.Circuit) {
	bt.V = bt.Vab(ctx.Solver)
	bt.I = ctx.Solver.At(bt.i)
	bt.P = real(bt.V * cmplx.Conj(bt.I))
	bt.Vprev = bt.V

	// x[i] runs from vX to b through the source, so P < 0 while the
	// battery delivers power
	bt.Charge += bt.P * ctx.TimeDelta()
	if bt.Charge < 0 {
		bt.Charge = 0
	}
	if bt.Charge > bt.MaxCharge {
		bt.Charge = bt.MaxCharge
	}
}

func (bt *Battery) UsesConnection(pin int) bool { return bt.usesConnection(pin) }

type batteryState struct {
	Charge           float64
	VprevRe, VprevIm float64
}

// Encode implements circuit.Snapshottable, capturing state of charge and
// the phase-reference voltage (structural pin bindings are never part of
// a snapshot).
func (bt *Battery) Encode() ([]byte, error) {
	return gobEncode(batteryState{Charge: bt.Charge, VprevRe: real(bt.Vprev), VprevIm: imag(bt.Vprev)})
}

func (bt *Battery) Decode(data []byte) error {
	var st batteryState
	if err := gobDecode(data, &st); err != nil {
		return err
	}
	bt.Charge = st.Charge
	bt.Vprev = complex(st.VprevRe, st.VprevIm)
	return nil
}
