// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import (
	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gocircuit/mna"
)

// AmmeterProbe is a zero-volt voltage source: it forces no drop across
// its own pins, so the branch current the solver assigns it is exactly
// the current flowing between whatever it is wired in series with
// (§4.3 instrumentation, derived from the voltage-source stamp with
// Vsetting = 0).
type AmmeterProbe struct {
	twoPin

	i *mna.Unknown

	Current complex128
}

func (am *AmmeterProbe) AddTo(ctx *circuit.Circuit)      { am.bind(ctx, am) }
func (am *AmmeterProbe) RemoveFrom(ctx *circuit.Circuit) { am.unbind(ctx, am) }

func (am *AmmeterProbe) Initialize(ctx *circuit.Circuit) {
	am.i = ctx.AllocUnknown()
	ctx.Solver.StampVoltageSource(am.a, am.b, am.i)
}

func (am *AmmeterProbe) Deinitialize(ctx *circuit.Circuit) {
	ctx.FreeUnknown(am.i)
	am.i = nil
}

func (am *AmmeterProbe) UpdateState(ctx *circuit.Circuit) {
	ctx.Solver.SetVoltage(am.i, 0)
}

func (am *AmmeterProbe) ApplyState(ctx *circuit.Circuit) {
	am.Current = ctx.Solver.At(am.i)
}

func (am *AmmeterProbe) UsesConnection(pin int) bool { return am.usesConnection(pin) }

// VoltmeterProbe contributes no stamp at all; it just reads the
// potential difference between its pins each tick (§4.3 instrumentation).
type VoltmeterProbe struct {
	twoPin

	Voltage complex128
}

func (vm *VoltmeterProbe) AddTo(ctx *circuit.Circuit)        { vm.bind(ctx, vm) }
func (vm *VoltmeterProbe) RemoveFrom(ctx *circuit.Circuit)   { vm.unbind(ctx, vm) }
func (vm *VoltmeterProbe) Initialize(ctx *circuit.Circuit)   {}
func (vm *VoltmeterProbe) Deinitialize(ctx *circuit.Circuit) {}
func (vm *VoltmeterProbe) UpdateState(ctx *circuit.Circuit)  {}

func (vm *VoltmeterProbe) ApplyState(ctx *circuit.Circuit) {
	vm.Voltage = vm.Vab(ctx.Solver)
}

func (vm *VoltmeterProbe) UsesConnection(pin int) bool { return vm.usesConnection(pin) }
