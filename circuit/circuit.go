// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package circuit mediates between a set of Components and an mna.Solver:
// it owns the pin-to-Unknown mapping, reconciles the single AC operating
// frequency, and drives the per-tick initialize/update/solve/apply
// pipeline of spec §2 and §4.2.
package circuit

import (
	"fmt"
	"sync"

	"github.com/cpmech/gocircuit/mna"
	"github.com/cpmech/gosl/io"
)

// PeerResolver answers "what pin is physically joined to (c, pin)?" for
// the host's topology. The circuit consults it on the first request for
// a pin so that joined pins share one Unknown (spec §3 "Pin sharing").
// A host with no topology layer yet may pass nil; every pin then gets
// its own Unknown.
type PeerResolver interface {
	Peer(c Component, pin int) (peerComponent Component, peerPin int, ok bool)
}

type pinKey struct {
	c   Component
	pin int
}

type nodeEntry struct {
	unknown *mna.Unknown
	refs    map[pinKey]bool
}

type componentEntry struct {
	c        Component
	attached bool // AddTo has run
	stamped  bool // Initialize has run since the last Deinitialize
}

// Circuit owns a topology of Components and the solver backing them. Per
// spec §5 the circuit itself is the monitor guarding its own solve state:
// the component-list, tick, invalidation, status and snapshot methods
// take its lock. The component-facing helpers (GetNode,
// RemoveNodeReference, AllocUnknown, FreeUnknown,
// InvalidateFromComponent) and Frequency, TimeDelta and SetTimeDelta do
// not lock.
type Circuit struct {
	Solver *mna.Solver
	Peers  PeerResolver

	// Logger receives diagnostic lines the way gofem routes verbose
	// output through gosl/io; defaults to io.Pf-backed helpers.
	Logger func(format string, args ...interface{})

	mu          sync.Mutex
	entries     []*componentEntry
	byComponent map[Component]*componentEntry
	nonlinear   []NonLinear
	nodes       map[pinKey]*nodeEntry
	unknowns    []*mna.Unknown // every Unknown this circuit currently holds in the solver, for renumbering

	frequency   float64
	timeDelta   float64
	initialized bool

	lastDiagnostic string
}

// New returns an empty, uninitialized circuit with the given fixed tick
// duration (spec §3 "time_delta").
func New(timeDelta float64) *Circuit {
	return &Circuit{
		Solver:      mna.NewSolver(),
		byComponent: make(map[Component]*componentEntry),
		nodes:       make(map[pinKey]*nodeEntry),
		timeDelta:   timeDelta,
	}
}

func (c *Circuit) log(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger(format, args...)
		return
	}
	io.Pf(format, args...)
}

// Frequency returns the circuit's single AC angular-source frequency (0
// for DC), valid since the last successful (re)initialization.
func (c *Circuit) Frequency() float64 { return c.frequency }

// TimeDelta returns the fixed per-tick simulation duration in seconds.
func (c *Circuit) TimeDelta() float64 { return c.timeDelta }

// SetTimeDelta changes the tick duration; per spec §9 this invalidates
// every dynamic-element (backward-Euler companion) stamp, so callers must
// also Invalidate the circuit.
func (c *Circuit) SetTimeDelta(dt float64) { c.timeDelta = dt }

// Initialized reports whether A has been stamped since the last topology
// change.
func (c *Circuit) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// LastDiagnostic returns a human-readable description of the most recent
// structured diagnostic (FrequencyConflict, SingularMatrix, ...), or "".
func (c *Circuit) LastDiagnostic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDiagnostic
}

// --- component list management ------------------------------------------

// AddComponent appends c to the component list. If the circuit is
// currently initialized, c.AddTo and c.Initialize run immediately;
// otherwise they are deferred to the next ProcessTick's reinitialization
// (spec §4.2).
func (c *Circuit) AddComponent(comp Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addComponentLocked(comp)
}

func (c *Circuit) addComponentLocked(comp Component) {
	e := &componentEntry{c: comp}
	c.entries = append(c.entries, e)
	c.byComponent[comp] = e
	if nl, ok := comp.(NonLinear); ok {
		c.nonlinear = append(c.nonlinear, nl)
	}
	if c.initialized {
		comp.AddTo(c)
		e.attached = true
		comp.Initialize(c)
		e.stamped = true
	}
}

// RemoveComponent reverses AddComponent: Deinitialize (if stamped) then
// RemoveFrom (if attached) run immediately.
func (c *Circuit) RemoveComponent(comp Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeComponentLocked(comp)
}

func (c *Circuit) removeComponentLocked(comp Component) {
	e, ok := c.byComponent[comp]
	if !ok {
		return
	}
	if e.stamped {
		comp.Deinitialize(c)
		e.stamped = false
	}
	if e.attached {
		comp.RemoveFrom(c)
		e.attached = false
	}
	delete(c.byComponent, comp)
	for i, other := range c.entries {
		if other == e {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	for i, nl := range c.nonlinear {
		if cc, ok := nl.(Component); ok && cc == comp {
			c.nonlinear = append(c.nonlinear[:i], c.nonlinear[i+1:]...)
			break
		}
	}
}

// Components returns a snapshot of the component list in insertion order.
func (c *Circuit) Components() []Component {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Component, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.c
	}
	return out
}

// PowerSources returns every component implementing PowerSource, in
// insertion order (spec §3 "Filtered lists").
func (c *Circuit) PowerSources() []PowerSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []PowerSource
	for _, e := range c.entries {
		if ps, ok := e.c.(PowerSource); ok {
			out = append(out, ps)
		}
	}
	return out
}

// PowerSinks returns every component implementing PowerSink, in
// insertion order.
func (c *Circuit) PowerSinks() []PowerSink {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []PowerSink
	for _, e := range c.entries {
		if pk, ok := e.c.(PowerSink); ok {
			out = append(out, pk)
		}
	}
	return out
}

// --- pin <-> Unknown mapping ---------------------------------------------

// GetNode returns the Unknown bound to (comp, pin), allocating one (or
// adopting a peer's) on first request. pin < 0 means ground and always
// returns nil (spec §3).
//
// Like RemoveNodeReference, AllocUnknown and FreeUnknown below, this is
// only ever called from within a Component's lifecycle methods, which
// only ever run while the Circuit's own lock is already held (see
// ProcessTick, AddComponent, WithLock) -- so it must not lock again.
func (c *Circuit) GetNode(comp Component, pin int) *mna.Unknown {
	if pin < 0 {
		return nil
	}
	key := pinKey{comp, pin}
	if n, ok := c.nodes[key]; ok {
		return n.unknown
	}

	// consult the peer resolver: if the joined pin already has an
	// Unknown, reuse it and record this pin as another reference. A
	// peer pin < 0 means the resolver is telling us this terminal is
	// wired directly to ground (spec §3).
	if c.Peers != nil {
		if peerC, peerPin, ok := c.Peers.Peer(comp, pin); ok {
			if peerPin < 0 {
				return nil
			}
			peerKey := pinKey{peerC, peerPin}
			if n, ok := c.nodes[peerKey]; ok {
				n.refs[key] = true
				c.nodes[key] = n
				return n.unknown
			}
		}
	}

	u := c.allocUnknown()
	n := &nodeEntry{unknown: u, refs: map[pinKey]bool{key: true}}
	c.nodes[key] = n
	return u
}

// RemoveNodeReference drops the (comp, pin) mapping entry; if no other
// entry references the underlying Unknown, it is removed from the solver
// (spec §3 "Reference counting").
func (c *Circuit) RemoveNodeReference(comp Component, pin int) {
	if pin < 0 {
		return
	}
	key := pinKey{comp, pin}
	n, ok := c.nodes[key]
	if !ok {
		return
	}
	delete(n.refs, key)
	delete(c.nodes, key)
	if len(n.refs) == 0 {
		c.freeUnknown(n.unknown)
	}
}

// AllocUnknown gives a component a branch-current (or other auxiliary)
// Unknown not tied to a pin, e.g. a voltage source's branch current or a
// transformer's winding currents.
func (c *Circuit) AllocUnknown() *mna.Unknown {
	return c.allocUnknown()
}

func (c *Circuit) allocUnknown() *mna.Unknown {
	u := c.Solver.AddUnknown()
	c.unknowns = append(c.unknowns, u)
	return u
}

// FreeUnknown releases an Unknown obtained from AllocUnknown.
func (c *Circuit) FreeUnknown(u *mna.Unknown) {
	c.freeUnknown(u)
}

func (c *Circuit) freeUnknown(u *mna.Unknown) {
	if u == nil || !u.Valid() {
		return
	}
	idx := u.Index()
	c.Solver.RemoveUnknown(u)
	mna.Renumber(c.unknowns, idx)
	for i, other := range c.unknowns {
		if other == u {
			c.unknowns = append(c.unknowns[:i], c.unknowns[i+1:]...)
			break
		}
	}
}

// WithLock runs fn while holding the circuit's lock, for host code that
// needs to call a component's Deinitialize/Initialize pair directly
// outside of ProcessTick (spec §4.2 "Topology changes": e.g. a breaker
// toggled by the host between ticks).
func (c *Circuit) WithLock(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Invalidate clears the initialized flag so the next ProcessTick
// re-stamps A from scratch (spec §4.2 "Topology changes").
func (c *Circuit) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = false
}

// InvalidateFromComponent is Invalidate's lock-free twin, for components
// that must force a full re-stamp from within their own Deinitialize
// (e.g. comp.Transformer, whose removed branch-current Unknowns shift
// every later Unknown's index) -- same rationale as GetNode above.
func (c *Circuit) InvalidateFromComponent() {
	c.initialized = false
}

// --- frequency reconciliation ---------------------------------------------

// FrequencyConflictError is returned by reconcileFrequency when two AC
// sources declare incompatible non-zero frequencies (spec §7).
type FrequencyConflictError struct {
	A, B float64
}

func (e *FrequencyConflictError) Error() string {
	return fmt.Sprintf("mna: FrequencyConflict: sources declare %g rad/s and %g rad/s", e.A, e.B)
}

// reconcileFrequency scans every ACSource component and returns the
// single frequency they agree on, or an error if two disagree (spec
// §4.2, §8).
func (c *Circuit) reconcileFrequency() (float64, error) {
	var freq float64
	var haveFreq bool
	for _, e := range c.entries {
		src, ok := e.c.(ACSource)
		if !ok {
			continue
		}
		f := src.SourceFrequency()
		if f == 0 {
			continue
		}
		if !haveFreq {
			freq, haveFreq = f, true
			continue
		}
		if f != freq {
			return 0, &FrequencyConflictError{A: freq, B: f}
		}
	}
	return freq, nil
}

// --- the per-tick pipeline -------------------------------------------------

// ProcessTick runs the hot path of spec §2/§4.2/§5: reinitialize if the
// topology changed, clear z, update every component's inputs, solve
// (linear, then Newton-Raphson if any non-linear component is present),
// then let every component apply the solution to its own state.
func (c *Circuit) ProcessTick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		freq, err := c.reconcileFrequency()
		if err != nil {
			c.lastDiagnostic = err.Error()
			c.log("%v; keeping previous frequency %g rad/s, skipping solve this tick\n", err, c.frequency)
			return
		}
		// retract every stamp and free every Unknown placed under the
		// previous frequency before re-stamping from a clean A
		for _, e := range c.entries {
			if e.stamped {
				e.c.Deinitialize(c)
				e.stamped = false
			}
		}
		c.frequency = freq
		c.Solver.ClearA()
		for _, e := range c.entries {
			if !e.attached {
				e.c.AddTo(c)
				e.attached = true
			}
			e.c.Initialize(c)
			e.stamped = true
		}
		c.initialized = true
	}

	c.Solver.ClearZ()
	for _, e := range c.entries {
		e.c.UpdateState(c)
	}

	c.Solver.Solve()

	if len(c.nonlinear) > 0 {
		c.Solver.RunNR(func() {
			for _, nl := range c.nonlinear {
				nl.UpdateDifferentialState(c)
			}
		})
	}

	switch c.Solver.Stats.LastDiagnostic {
	case mna.DiagSingularMatrix:
		c.lastDiagnostic = mna.DiagSingularMatrix.String()
	case mna.DiagNRNonConvergence:
		c.lastDiagnostic = mna.DiagNRNonConvergence.String()
	default:
		c.lastDiagnostic = ""
	}

	for _, e := range c.entries {
		e.c.ApplyState(c)
	}
}

// --- merge -----------------------------------------------------------------

// Merge moves every component from b into a and empties b, for use when
// topology discovery finds that two previously separate circuits are now
// electrically connected (spec §4.2).
func Merge(a, b *Circuit) {
	b.mu.Lock()
	moving := make([]Component, len(b.entries))
	for i, e := range b.entries {
		moving[i] = e.c
	}
	for _, comp := range moving {
		b.removeComponentLocked(comp)
	}
	b.mu.Unlock()

	a.mu.Lock()
	for _, comp := range moving {
		a.addComponentLocked(comp)
	}
	a.mu.Unlock()
}
