// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import "github.com/cpmech/gocircuit/circuit"

// Switch is an ideal, host-commanded two-state part: closed is a short
// (through-resistance RClosed, same numerical compromise as Breaker),
// open is an open circuit. Both states always carry the RGnd leak to
// ground so an open switch never floats a node. Unlike Breaker, a
// Switch's state never changes on its own -- there is no thermal
// supervisor watching it, only SetOpen.
type Switch struct {
	twoPin

	open bool

	V complex128
	I complex128
}

// NewSwitch returns a switch in the given initial state, unattached.
func NewSwitch(open bool) *Switch {
	return &Switch{open: open}
}

func (s *Switch) Open() bool { return s.open }

func (s *Switch) AddTo(ctx *circuit.Circuit)      { s.bind(ctx, s) }
func (s *Switch) RemoveFrom(ctx *circuit.Circuit) { s.unbind(ctx, s) }

func (s *Switch) Initialize(ctx *circuit.Circuit) {
	ctx.Solver.AddAdmittance(s.a, nil, complex(1/RGnd, 0))
	ctx.Solver.AddAdmittance(s.b, nil, complex(1/RGnd, 0))
	if !s.open {
		ctx.Solver.AddResistance(s.a, s.b, RClosed)
	}
}

func (s *Switch) Deinitialize(ctx *circuit.Circuit) {
	ctx.Solver.AddAdmittance(s.a, nil, complex(-1/RGnd, 0))
	ctx.Solver.AddAdmittance(s.b, nil, complex(-1/RGnd, 0))
	if !s.open {
		ctx.Solver.AddResistance(s.a, s.b, -RClosed)
	}
}

func (s *Switch) UpdateState(ctx *circuit.Circuit) {}

func (s *Switch) ApplyState(ctx *circuit.Circuit) {
	s.V = s.Vab(ctx.Solver)
	if s.open {
		s.I = 0
	} else {
		s.I = s.V / complex(RClosed, 0)
	}
}

func (s *Switch) UsesConnection(pin int) bool { return s.usesConnection(pin) }

// SetOpen commands the switch, retracting and reapplying its own stamp
// under the circuit's lock (same pattern as Breaker.SetClosed).
func (s *Switch) SetOpen(ctx *circuit.Circuit, open bool) {
	if open == s.open {
		return
	}
	ctx.WithLock(func() {
		s.Deinitialize(ctx)
		s.open = open
		s.Initialize(ctx)
	})
}
