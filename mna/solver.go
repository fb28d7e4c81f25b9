// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mna

import (
	"math/cmplx"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

// NR damping and convergence constants (spec §4.1).
const (
	RelTol       = 1e-4
	AbsTol       = 1e-4
	dampedIters  = 3
	dampedFactor = 0.2
	maxNRIters   = 20
)

// Diagnostic is a structured, non-fatal condition raised by the solver
// per spec §7. The solver never returns these as Go errors out of the
// per-tick pipeline; it logs them once and Circuit records the latest one.
type Diagnostic int

const (
	NoDiagnostic Diagnostic = iota
	DiagSingularMatrix
	DiagNRNonConvergence
)

func (d Diagnostic) String() string {
	switch d {
	case DiagSingularMatrix:
		return "SingularMatrix"
	case DiagNRNonConvergence:
		return "NRNonConvergence"
	default:
		return "none"
	}
}

// Stats accumulates lightweight counters a host can surface as a health
// indicator; not part of spec.md's hard contract (see SPEC_FULL.md).
type Stats struct {
	Factorizations int
	LastNRIters    int
	LastDiagnostic Diagnostic

	// ResidualNorms holds |F| after each NR iteration of the last RunNR
	// call, index 0..LastNRIters-1, for a host that wants to eyeball
	// convergence behaviour the way gofem's iteration summaries do.
	ResidualNorms []float64
}

// Solver owns the complex-valued MNA matrices A, z, x and, for circuits
// with non-linear stamps, the Newton-Raphson Jacobian J and residual F.
// It is the monitor object for a single Circuit's solve state (§5): all
// of its methods are expected to be called while holding the owning
// Circuit's mutex.
type Solver struct {
	A [][]complex128
	z []complex128
	x []complex128
	J [][]complex128
	F []complex128

	// UseQR selects QR factorization (recommended for AC networks, §9)
	// instead of partial-pivot LU (the default, appropriate for mostly-DC
	// circuits).
	UseQR bool

	// Debug enables the index assertion (§7): a stamp, SetVoltage or
	// AddCurrent on an index at or past N panics. A removed Unknown
	// reports index -1, the same as ground, so stamps on it are silent
	// no-ops even with Debug set. Disabled by default, the way the
	// teacher guards expensive checks behind a verbose flag.
	Debug bool

	Stats Stats

	fact  *cfactorization
	valid bool // true if fact is valid for the current A
}

// NewSolver returns an empty solver with no unknowns.
func NewSolver() *Solver {
	return &Solver{}
}

// N returns the number of unknowns currently owned by the solver.
func (s *Solver) N() int { return len(s.z) }

// AddUnknown allocates one new Unknown, growing A and z by one row/column
// and invalidating the cached factorization and x (spec §4.1).
func (s *Solver) AddUnknown() *Unknown {
	n := s.N()
	s.A = cmatGrow(s.A, 1)
	s.z = append(s.z, 0)
	s.x = append(s.x, 0)
	s.invalidate()
	return &Unknown{index: n}
}

// AddUnknowns allocates n new Unknowns at once.
func (s *Solver) AddUnknowns(n int) []*Unknown {
	out := make([]*Unknown, n)
	for i := range out {
		out[i] = s.AddUnknown()
	}
	return out
}

// RemoveUnknown drops u's row/column from A and its entries from z and x,
// invalidates the cached factorization, and sets u's index to -1 (spec
// §3, §4.1). It does not renumber the later Unknowns; the caller does
// that with Renumber.
func (s *Solver) RemoveUnknown(u *Unknown) {
	if u == nil || !u.Valid() {
		return
	}
	idx := u.index
	s.A = cmatRemove(s.A, idx)
	s.z = append(s.z[:idx], s.z[idx+1:]...)
	s.x = append(s.x[:idx], s.x[idx+1:]...)
	u.index = -1
	s.invalidate()
}

// Renumber decrements the index of every Unknown in knowns whose index is
// greater than the removed index. Circuit calls this immediately after
// RemoveUnknown since the Solver itself has no reference back to the
// Unknowns it has handed out (it only owns the matrix storage).
func Renumber(knowns []*Unknown, removedIndex int) {
	for _, k := range knowns {
		if k != nil && k.index > removedIndex {
			k.index--
		}
	}
}

func (s *Solver) invalidate() {
	s.valid = false
	s.fact = nil
}

// ClearZ zeroes the right-hand side vector at the start of each tick's
// update phase (spec §4.2, §5); A is never touched here.
func (s *Solver) ClearZ() {
	for i := range s.z {
		s.z[i] = 0
	}
}

// ClearA zeroes every entry of A without changing the set of Unknowns,
// the way Circuit re-stamps from a clean slate on a topology change
// (spec §2) without discarding the Unknowns components already hold.
func (s *Solver) ClearA() {
	for i := range s.A {
		row := s.A[i]
		for j := range row {
			row[j] = 0
		}
	}
	s.invalidate()
}

func (s *Solver) checkIndex(idx int, what string) bool {
	if idx < 0 {
		return false // ground
	}
	if idx >= len(s.z) {
		if s.Debug {
			chk.Panic("mna: dangling Unknown used in %s (index=%d, N=%d)", what, idx, len(s.z))
		}
		return false
	}
	return true
}

// --- A-stamps (invalidate the factorization) --------------------------

// AddAdmittance applies admittance Y between Unknowns a and b (either may
// be nil, meaning ground), per spec §4.1's stamp semantics.
func (s *Solver) AddAdmittance(a, b *Unknown, Y complex128) {
	ai, bi := a.Index(), b.Index()
	s.addAdmittanceIdx(ai, bi, Y)
}

func (s *Solver) addAdmittanceIdx(ai, bi int, Y complex128) {
	validA := s.checkIndex(ai, "AddAdmittance")
	validB := s.checkIndex(bi, "AddAdmittance")
	if validA {
		s.A[ai][ai] += Y
	}
	if validB {
		s.A[bi][bi] += Y
	}
	if validA && validB {
		s.A[ai][bi] -= Y
		s.A[bi][ai] -= Y
	}
	s.invalidate()
}

// AddImpedance applies impedance Z between a and b: AddAdmittance(a,b,1/Z).
func (s *Solver) AddImpedance(a, b *Unknown, Z complex128) {
	s.AddAdmittance(a, b, 1/Z)
}

// AddResistance applies resistance R (real ohms) between a and b.
func (s *Solver) AddResistance(a, b *Unknown, R float64) {
	s.AddImpedance(a, b, complex(R, 0))
}

// AddReactance applies reactance X (imaginary ohms) between a and b.
func (s *Solver) AddReactance(a, b *Unknown, X float64) {
	s.AddImpedance(a, b, complex(0, X))
}

// StampVoltageSource stamps the branch-current pattern for a voltage
// source between pins a,b using branch-current Unknown i (spec §4.1).
// The convention is V(b) - V(a) = v; SetVoltage sets v via the z-vector.
func (s *Solver) StampVoltageSource(a, b, i *Unknown) {
	ai, bi, ii := a.Index(), b.Index(), i.Index()
	if !s.checkIndex(ii, "StampVoltageSource") {
		return
	}
	if s.checkIndex(ai, "StampVoltageSource") {
		s.A[ii][ai] += -1
		s.A[ai][ii] += -1
	}
	if s.checkIndex(bi, "StampVoltageSource") {
		s.A[ii][bi] += 1
		s.A[bi][ii] += 1
	}
	s.invalidate()
}

// StampTransformer stamps a two-winding transformer's magnetic coupling
// between primary pins a,b and secondary pins c,d, with branch-current
// Unknowns i1 (primary), i2 (secondary), and angular inductances
// wL1, wL2, wM (spec §4.1). AC-only: callers must not call this at DC.
func (s *Solver) StampTransformer(a, b, c, d, i1, i2 *Unknown, wL1, wL2, wM float64) {
	ai, bi := a.Index(), b.Index()
	ci, di := c.Index(), d.Index()
	i1i, i2i := i1.Index(), i2.Index()
	if s.checkIndex(ai, "StampTransformer") && s.checkIndex(i1i, "StampTransformer") {
		s.A[ai][i1i] += 1
		s.A[i1i][ai] += 1
	}
	if s.checkIndex(bi, "StampTransformer") && s.checkIndex(i1i, "StampTransformer") {
		s.A[bi][i1i] -= 1
		s.A[i1i][bi] -= 1
	}
	if s.checkIndex(ci, "StampTransformer") && s.checkIndex(i2i, "StampTransformer") {
		s.A[ci][i2i] += 1
		s.A[i2i][ci] += 1
	}
	if s.checkIndex(di, "StampTransformer") && s.checkIndex(i2i, "StampTransformer") {
		s.A[di][i2i] -= 1
		s.A[i2i][di] -= 1
	}
	if s.checkIndex(i1i, "StampTransformer") {
		s.A[i1i][i1i] -= complex(0, wL1)
	}
	if s.checkIndex(i2i, "StampTransformer") {
		s.A[i2i][i2i] -= complex(0, wL2)
	}
	if s.checkIndex(i1i, "StampTransformer") && s.checkIndex(i2i, "StampTransformer") {
		s.A[i1i][i2i] -= complex(0, wM)
		s.A[i2i][i1i] -= complex(0, wM)
	}
	s.invalidate()
}

// --- z-stamps (do not invalidate the factorization) --------------------

// SetVoltage sets z[i] = v for a voltage source's branch-current Unknown i.
func (s *Solver) SetVoltage(i *Unknown, v complex128) {
	idx := i.Index()
	if s.checkIndex(idx, "SetVoltage") {
		s.z[idx] = v
	}
}

// AddCurrent injects current I from b to a: z[a] -= I; z[b] += I. This
// accumulates on top of any previous value set this tick (spec §4.1).
func (s *Solver) AddCurrent(a, b *Unknown, I complex128) {
	ai, bi := a.Index(), b.Index()
	if s.checkIndex(ai, "AddCurrent") {
		s.z[ai] -= I
	}
	if s.checkIndex(bi, "AddCurrent") {
		s.z[bi] += I
	}
}

// --- solution accessors -------------------------------------------------

// At returns x[u.Index()], or 0 for a ground (nil) Unknown.
func (s *Solver) At(u *Unknown) complex128 {
	idx := u.Index()
	if idx < 0 || idx >= len(s.x) {
		return 0
	}
	return s.x[idx]
}

// --- linear solve --------------------------------------------------------

// Solve performs the linear solve of spec §4.1: factor A if the cache is
// stale, then solve A x = z. A singular A leaves x as zero and records
// DiagSingularMatrix; Solve never returns an error.
func (s *Solver) Solve() {
	n := s.N()
	if n == 0 {
		return
	}
	if !s.valid {
		if s.UseQR {
			s.fact = cQRFactor(s.A)
		} else {
			s.fact = cLUFactor(s.A)
		}
		s.valid = true
		s.Stats.Factorizations++
	}
	if s.fact.singular {
		for i := range s.x {
			s.x[i] = 0
		}
		s.Stats.LastDiagnostic = DiagSingularMatrix
		io.Pfred("mna: singular A, leaving x = 0 for this tick\n")
		return
	}
	if s.fact.useQR {
		s.x = cQRSolve(s.fact, s.z)
	} else {
		s.x = cLUSolve(s.fact, s.z)
	}
}

// --- non-linear stamps and Newton-Raphson iteration ---------------------

// AddNonlinearCurrent contributes a non-linear branch current I(Va,Vb)
// and its partial derivatives to the residual F and Jacobian J in place
// of z and A (spec §4.1). Only valid between BeginNRIteration and
// SolveNRIteration.
func (s *Solver) AddNonlinearCurrent(a, b *Unknown, I, dIdVa, dIdVb complex128) {
	ai, bi := a.Index(), b.Index()
	if s.checkIndex(ai, "AddNonlinearCurrent") {
		s.F[ai] += I
	}
	if s.checkIndex(bi, "AddNonlinearCurrent") {
		s.F[bi] -= I
	}
	if s.checkIndex(ai, "AddNonlinearCurrent") {
		s.J[ai][ai] += dIdVa
	}
	if s.checkIndex(bi, "AddNonlinearCurrent") {
		s.J[bi][bi] -= dIdVb
	}
	if s.checkIndex(ai, "AddNonlinearCurrent") && s.checkIndex(bi, "AddNonlinearCurrent") {
		s.J[ai][bi] += dIdVb
		s.J[bi][ai] -= dIdVa
	}
}

// BeginNRIteration seeds J with the linear Jacobian baseline A and F with
// the linear residual baseline A*x - z, ready for non-linear components
// to add their contributions (spec §4.1).
func (s *Solver) BeginNRIteration() {
	n := s.N()
	s.J = CMatAlloc(n)
	for i := 0; i < n; i++ {
		copy(s.J[i], s.A[i])
	}
	s.F = make([]complex128, n)
	for i := 0; i < n; i++ {
		var sum complex128
		for j := 0; j < n; j++ {
			sum += s.A[i][j] * s.x[j]
		}
		s.F[i] = sum - s.z[i]
	}
}

// SolveNRIteration solves J dx = -F, applies a damped update to x, and
// reports whether the iteration has converged per spec §4.1's tolerance.
// n is the 0-based iteration count within the current tick's NR loop
// (controls the damping factor: 0.2 for the first 3 iterations, 1.0
// thereafter).
func (s *Solver) SolveNRIteration(n int) (converged bool) {
	size := s.N()
	if size == 0 {
		return true
	}
	negF := make([]complex128, size)
	for i := range negF {
		negF[i] = -s.F[i]
	}
	jf := cLUFactor(s.J)
	var dx []complex128
	if jf.singular {
		dx = make([]complex128, size)
		s.Stats.LastDiagnostic = DiagSingularMatrix
		io.Pfred("mna: singular Jacobian during NR iteration %d\n", n)
	} else {
		dx = cLUSolve(jf, negF)
	}
	k := dampedFactor
	if n >= dampedIters {
		k = 1.0
	}
	converged = true
	for i := range s.x {
		step := complex(k, 0) * dx[i]
		s.x[i] += step
		if cmplx.Abs(step) >= RelTol*cmplx.Abs(s.x[i])+AbsTol {
			converged = false
		}
	}
	return
}

// RunNR runs the bounded Newton-Raphson loop (spec §4.1: up to
// maxNRIters, damped updates, non-convergence logged but never fatal).
// stampNonlinear is called once per iteration, after BeginNRIteration has
// reset J and F, to let every non-linear component add its contribution.
func (s *Solver) RunNR(stampNonlinear func()) {
	if len(s.Stats.ResidualNorms) != maxNRIters {
		s.Stats.ResidualNorms = make([]float64, maxNRIters)
	}
	la.VecFill(s.Stats.ResidualNorms, 0)

	for it := 0; it < maxNRIters; it++ {
		s.BeginNRIteration()
		stampNonlinear()
		s.Stats.ResidualNorms[it] = cResidualNorm(s.F)
		converged := s.SolveNRIteration(it)
		s.Stats.LastNRIters = it + 1
		if converged {
			s.Stats.LastDiagnostic = NoDiagnostic
			return
		}
	}
	s.Stats.LastDiagnostic = DiagNRNonConvergence
	io.Pfyel("mna: NR loop did not converge within %d iterations\n", maxNRIters)
}

// cResidualNorm returns the infinity-norm of a complex residual vector.
func cResidualNorm(f []complex128) float64 {
	var max float64
	for _, v := range f {
		if a := cmplx.Abs(v); a > max {
			max = a
		}
	}
	return max
}
