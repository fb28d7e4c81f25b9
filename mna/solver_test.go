// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mna

import (
	"math/cmplx"
	"testing"
)

func closeEnough(t *testing.T, name string, got, want complex128, tol float64) {
	t.Helper()
	if cmplx.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v", name, got, want)
	}
}

func TestAddRemoveUnknownRenumbers(t *testing.T) {
	s := NewSolver()
	unknowns := s.AddUnknowns(3)
	if s.N() != 3 {
		t.Fatalf("N() = %d, want 3", s.N())
	}
	for i, u := range unknowns {
		if u.Index() != i {
			t.Fatalf("unknown %d has index %d", i, u.Index())
		}
	}
	s.RemoveUnknown(unknowns[0])
	Renumber(unknowns, 0)
	if s.N() != 2 {
		t.Fatalf("N() after remove = %d, want 2", s.N())
	}
	if unknowns[0].Valid() {
		t.Errorf("removed unknown should be invalid")
	}
	if unknowns[1].Index() != 0 || unknowns[2].Index() != 1 {
		t.Errorf("surviving unknowns not renumbered contiguously: %d, %d", unknowns[1].Index(), unknowns[2].Index())
	}
}

func TestAddAdmittanceCancels(t *testing.T) {
	s := NewSolver()
	a, b := s.AddUnknown(), s.AddUnknown()
	before := CMatAlloc(2)
	for i := range before {
		copy(before[i], s.A[i])
	}
	Y := complex(1.5, -0.3)
	s.AddAdmittance(a, b, Y)
	s.AddAdmittance(a, b, -Y)
	for i := range s.A {
		for j := range s.A[i] {
			if s.A[i][j] != before[i][j] {
				t.Errorf("A[%d][%d] = %v, want %v (stamp/unstamp did not cancel)", i, j, s.A[i][j], before[i][j])
			}
		}
	}
}

// TestDCDivider reproduces spec §8 reference scenario 1: a two-node
// circuit, 24V source to node 0, 100 ohm from node 0 to node 1, 1000 ohm
// from node 1 to ground.
func TestDCDivider(t *testing.T) {
	s := NewSolver()
	n0 := s.AddUnknown()
	n1 := s.AddUnknown()
	ibr := s.AddUnknown()

	s.StampVoltageSource(nil, n0, ibr)
	s.AddResistance(n0, n1, 100)
	s.AddResistance(n1, nil, 1000)

	s.SetVoltage(ibr, complex(24, 0))
	s.Solve()

	closeEnough(t, "V0", s.At(n0), complex(24, 0), 1e-9)
	closeEnough(t, "V1", s.At(n1), complex(21.8181818, 0), 1e-4)
	closeEnough(t, "Isource", s.At(ibr), complex(-0.021818, 0), 1e-4)
}

// TestCurrentSourceLoad reproduces spec §8 reference scenario 2.
func TestCurrentSourceLoad(t *testing.T) {
	s := NewSolver()
	n0 := s.AddUnknown()
	n1 := s.AddUnknown()
	ibr := s.AddUnknown()

	s.StampVoltageSource(nil, n0, ibr)
	s.AddResistance(n0, n1, 400)

	s.SetVoltage(ibr, complex(24, 0))
	s.AddCurrent(n1, nil, complex(0.05, 0))
	s.Solve()

	closeEnough(t, "V0", s.At(n0), complex(24, 0), 1e-9)
	closeEnough(t, "V1", s.At(n1), complex(4, 0), 1e-4)
	closeEnough(t, "Isource", s.At(ibr), complex(-0.05, 0), 1e-4)
}

func TestSingularMatrixYieldsZeroSolution(t *testing.T) {
	s := NewSolver()
	n0 := s.AddUnknown()
	s.AddCurrent(n0, nil, complex(1, 0))
	// n0 floats: no admittance stamped anywhere, A is all zeros => singular.
	s.Solve()
	if s.At(n0) != 0 {
		t.Errorf("singular circuit should leave x = 0, got %v", s.At(n0))
	}
	if s.Stats.LastDiagnostic != DiagSingularMatrix {
		t.Errorf("expected DiagSingularMatrix, got %v", s.Stats.LastDiagnostic)
	}
}

// TestRunNRTracksResidualNorms exercises a linear "nonlinear" current
// I(V) = k*(V-target), whose Newton step is exact: after three steps
// damped by 0.2 the first full step (the fourth iteration) lands on the
// target, to check Stats.ResidualNorms is populated and sized to the
// iteration budget.
func TestRunNRTracksResidualNorms(t *testing.T) {
	s := NewSolver()
	n0 := s.AddUnknown()

	const target = 5.0
	const k = 2.0

	s.RunNR(func() {
		v := s.At(n0)
		i := (v - complex(target, 0)) * complex(k, 0)
		s.AddNonlinearCurrent(n0, nil, i, complex(k, 0), 0)
	})

	closeEnough(t, "converged voltage", s.At(n0), complex(target, 0), 1e-6)

	if s.Stats.LastNRIters == 0 {
		t.Fatalf("expected at least one NR iteration to run")
	}
	if len(s.Stats.ResidualNorms) != maxNRIters {
		t.Fatalf("ResidualNorms length = %d, want %d", len(s.Stats.ResidualNorms), maxNRIters)
	}
	if s.Stats.ResidualNorms[0] == 0 {
		t.Errorf("expected a nonzero residual norm on the first iteration")
	}
}
