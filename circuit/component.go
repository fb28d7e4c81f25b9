// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package circuit

// Component defines what every circuit element must implement (spec §6).
// The circuit owns components by identity; a component never holds a
// back-reference to its circuit, following the re-architecture of spec
// §9 ("cyclic ownership between circuit and components") — instead each
// lifecycle method receives the owning Circuit as a context value.
type Component interface {
	// AddTo binds the component's pins to Unknowns via ctx's pin-to-node
	// map (spec §3: detached -> added to circuit).
	AddTo(ctx *Circuit)

	// RemoveFrom unbinds the component's pins (spec §3: deinitialized ->
	// removed from circuit). Must be called after Deinitialize.
	RemoveFrom(ctx *Circuit)

	// Initialize places the component's stamps into ctx's matrix A.
	// Idempotent: called again after Deinitialize on a value change, or
	// after the circuit clears A wholesale on topology change.
	Initialize(ctx *Circuit)

	// Deinitialize retracts exactly the stamps Initialize placed, so that
	// re-initializing restores A bit-for-bit (spec §8 invariant).
	Deinitialize(ctx *Circuit)

	// UpdateState stamps the component's per-tick inputs into ctx's z
	// vector. Must never mutate A (spec §5's single most important
	// performance invariant).
	UpdateState(ctx *Circuit)

	// ApplyState reads the solved x vector and updates the component's
	// own derived bookkeeping (charge, temperature, energy, ...).
	ApplyState(ctx *Circuit)

	// UsesConnection reports whether the component has a pin at index
	// pin, for host-side topology queries.
	UsesConnection(pin int) bool
}

// NonLinear is implemented by components that contribute to the
// Newton-Raphson Jacobian/residual instead of (or in addition to) A/z.
// The circuit calls UpdateDifferentialState once per NR iteration, after
// the solver has reset J to A and F to the linear residual (spec §6
// "Non-linear opt-in").
type NonLinear interface {
	Component
	UpdateDifferentialState(ctx *Circuit)
}

// ACSource is implemented by components whose electrical behavior
// declares a single-frequency AC operating point (voltage and current
// sources). SourceFrequency returns 0 for a DC source.
type ACSource interface {
	Component
	SourceFrequency() float64
}

// PowerSource is implemented by components the orchestrator treats as
// delivering energy to the host (spec §6): each tick it reads
// EnergyOutput() (joules for that tick) and forwards EnergyOutput()/Δt
// watts to the backing device.
type PowerSource interface {
	Component
	EnergyOutput() float64
}

// PowerSink is implemented by components the orchestrator treats as
// drawing energy from the circuit on behalf of the host.
type PowerSink interface {
	Component
	EnergyInput() float64
}

// Thermal is implemented by components that track a temperature the host
// may want to read each tick (e.g. comp.Line, for the external cable
// supervisor of spec §6).
type Thermal interface {
	Component
	Temperature() float64
}
