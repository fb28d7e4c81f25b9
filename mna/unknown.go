// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mna

// Unknown is an opaque handle identifying one equation/variable pair in
// the solver: one row/column of A, one entry of z and x. Index is
// mutable: surviving Unknowns are renumbered (see Renumber) whenever one
// is removed, so callers must always dereference Index() rather than cache
// it across a structural edit.
type Unknown struct {
	index int // current row/column in A; -1 once removed from the solver
}

// Index returns the Unknown's current position in the matrix ordering,
// or -1 if it has been removed from the solver.
func (u *Unknown) Index() int {
	if u == nil {
		return -1
	}
	return u.index
}

// Valid reports whether this Unknown still owns a row/column in the
// solver. A dangling Unknown (Valid() == false) has index -1, which the
// solver's stamps treat as ground; Solver.Debug does not flag it.
func (u *Unknown) Valid() bool {
	return u != nil && u.index >= 0
}
