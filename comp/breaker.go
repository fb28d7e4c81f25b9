// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import "github.com/cpmech/gocircuit/circuit"

// Breaker is a two-state switch with an always-on ground leak at each
// pin, so an open breaker never leaves a node floating (§4.3 Breaker).
// Unlike Switch, a Breaker is meant to be tripped by an external
// supervisor reacting to a Line's temperature, not commanded directly
// by the host as its primary interface (though SetClosed is available
// for both).
type Breaker struct {
	twoPin

	closed bool

	V complex128
	I complex128
}

// NewBreaker returns a breaker in the given initial state, unattached.
func NewBreaker(closed bool) *Breaker {
	return &Breaker{closed: closed}
}

func (b *Breaker) Closed() bool { return b.closed }

func (b *Breaker) AddTo(ctx *circuit.Circuit)      { b.bind(ctx, b) }
func (b *Breaker) RemoveFrom(ctx *circuit.Circuit) { b.unbind(ctx, b) }

func (b *Breaker) Initialize(ctx *circuit.Circuit) {
	ctx.Solver.AddAdmittance(b.a, nil, complex(1/RGnd, 0))
	ctx.Solver.AddAdmittance(b.b, nil, complex(1/RGnd, 0))
	if b.closed {
		ctx.Solver.AddResistance(b.a, b.b, RClosed)
	}
}

func (b *Breaker) Deinitialize(ctx *circuit.Circuit) {
	ctx.Solver.AddAdmittance(b.a, nil, complex(-1/RGnd, 0))
	ctx.Solver.AddAdmittance(b.b, nil, complex(-1/RGnd, 0))
	if b.closed {
		ctx.Solver.AddResistance(b.a, b.b, -RClosed)
	}
}

func (b *Breaker) UpdateState(ctx *circuit.Circuit) {}

func (b *Breaker) ApplyState(ctx *circuit.Circuit) {
	b.V = b.Vab(ctx.Solver)
	if b.closed {
		b.I = b.V / complex(RClosed, 0)
	} else {
		b.I = 0
	}
}

func (b *Breaker) UsesConnection(pin int) bool { return b.usesConnection(pin) }

// SetClosed toggles the breaker mid-operation: the stamp it placed at
// Initialize is retracted and reapplied for the new state, under the
// circuit's lock, without forcing a full topology re-stamp of every
// other component (§4.3 "On state change mid-operation").
func (b *Breaker) SetClosed(ctx *circuit.Circuit, closed bool) {
	if closed == b.closed {
		return
	}
	ctx.WithLock(func() {
		b.Deinitialize(ctx)
		b.closed = closed
		b.Initialize(ctx)
	})
}
