// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mna implements Modified Nodal Analysis: a complex-valued
// coefficient matrix A, right-hand side z and solution x, plus an
// optional Newton-Raphson correction loop (Jacobian J, residual F) for
// circuits with non-linear stamps.
package mna
