// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mna

import (
	"math"
	"math/cmplx"
)

// CMatAlloc allocates a square n x n complex matrix, following the same
// row-major [][]complex128 convention as gosl/la.MatAlloc for real
// matrices.
func CMatAlloc(n int) [][]complex128 {
	m := make([][]complex128, n)
	buf := make([]complex128, n*n)
	for i := range m {
		m[i] = buf[i*n : (i+1)*n]
	}
	return m
}

// cmatGrow returns a new (n+k) x (n+k) matrix with m copied into the
// top-left block and zeros elsewhere.
func cmatGrow(m [][]complex128, k int) [][]complex128 {
	n := len(m)
	out := CMatAlloc(n + k)
	for i := 0; i < n; i++ {
		copy(out[i][:n], m[i])
	}
	return out
}

// cmatRemove returns a new (n-1) x (n-1) matrix with row/col idx deleted.
func cmatRemove(m [][]complex128, idx int) [][]complex128 {
	n := len(m)
	out := CMatAlloc(n - 1)
	oi := 0
	for i := 0; i < n; i++ {
		if i == idx {
			continue
		}
		oj := 0
		for j := 0; j < n; j++ {
			if j == idx {
				continue
			}
			out[oi][oj] = m[i][j]
			oj++
		}
		oi++
	}
	return out
}

// cfactorization is a cached LU (with partial pivoting) or QR
// factorization of a square complex matrix, used to avoid refactoring A
// on every tick when only z has changed (see Solver.Solve).
type cfactorization struct {
	// LU fields
	lu   [][]complex128 // combined L (unit diagonal, below) and U (on/above diagonal)
	piv  []int          // row permutation from partial pivoting
	sign float64        // sign of the permutation, for determinant bookkeeping

	// QR fields (used when useQR is set, for potentially rank-deficient
	// AC networks per spec §4.1 step 1)
	useQR bool
	q     [][]complex128
	r     [][]complex128

	singular bool
}

// cLUFactor computes an LU factorization of m with partial pivoting.
// Returns singular=true if a zero pivot is encountered (within tolerance).
func cLUFactor(m [][]complex128) (f *cfactorization) {
	n := len(m)
	a := CMatAlloc(n)
	for i := range m {
		copy(a[i], m[i])
	}
	piv := make([]int, n)
	for i := range piv {
		piv[i] = i
	}
	sign := 1.0
	const tiny = 1e-300
	for k := 0; k < n; k++ {
		// partial pivot: largest magnitude in column k at/below row k
		maxRow, maxVal := k, cmplx.Abs(a[k][k])
		for i := k + 1; i < n; i++ {
			if v := cmplx.Abs(a[i][k]); v > maxVal {
				maxRow, maxVal = i, v
			}
		}
		if maxVal < tiny {
			return &cfactorization{lu: a, piv: piv, sign: sign, singular: true}
		}
		if maxRow != k {
			a[k], a[maxRow] = a[maxRow], a[k]
			piv[k], piv[maxRow] = piv[maxRow], piv[k]
			sign = -sign
		}
		pivotVal := a[k][k]
		for i := k + 1; i < n; i++ {
			factor := a[i][k] / pivotVal
			a[i][k] = factor
			if factor == 0 {
				continue
			}
			for j := k + 1; j < n; j++ {
				a[i][j] -= factor * a[k][j]
			}
		}
	}
	return &cfactorization{lu: a, piv: piv, sign: sign}
}

// cLUSolve solves A x = b given a factorization from cLUFactor.
func cLUSolve(f *cfactorization, b []complex128) []complex128 {
	n := len(f.lu)
	y := make([]complex128, n)
	for i := 0; i < n; i++ {
		y[i] = b[f.piv[i]]
		for j := 0; j < i; j++ {
			y[i] -= f.lu[i][j] * y[j]
		}
	}
	x := make([]complex128, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= f.lu[i][j] * x[j]
		}
		x[i] = sum / f.lu[i][i]
	}
	return x
}

// cQRFactor computes a Householder QR factorization, used for AC
// networks where reactive stamps can produce near-singular LU blocks
// (§9 "Matrix representation").
func cQRFactor(m [][]complex128) *cfactorization {
	n := len(m)
	r := CMatAlloc(n)
	for i := range m {
		copy(r[i], m[i])
	}
	q := CMatAlloc(n)
	for i := 0; i < n; i++ {
		q[i][i] = 1
	}
	for k := 0; k < n; k++ {
		// Householder vector for column k, rows k..n-1
		var normx float64
		for i := k; i < n; i++ {
			normx += real(r[i][k])*real(r[i][k]) + imag(r[i][k])*imag(r[i][k])
		}
		normx = math.Sqrt(normx)
		if normx == 0 {
			continue
		}
		alpha := -phaseUnit(r[k][k]) * complex(normx, 0)
		v := make([]complex128, n)
		v[k] = r[k][k] - alpha
		for i := k + 1; i < n; i++ {
			v[i] = r[i][k]
		}
		var vnorm2 float64
		for i := k; i < n; i++ {
			vnorm2 += real(v[i])*real(v[i]) + imag(v[i])*imag(v[i])
		}
		if vnorm2 == 0 {
			continue
		}
		// apply Householder reflector H = I - 2 v v^H / (v^H v) to R and accumulate into Q
		applyHouseholderLeft(r, v, vnorm2, k, n)
		applyHouseholderRight(q, v, vnorm2, k, n)
	}
	singular := false
	for i := 0; i < n; i++ {
		if cmplx.Abs(r[i][i]) < 1e-300 {
			singular = true
			break
		}
	}
	return &cfactorization{useQR: true, q: q, r: r, singular: singular}
}

func applyHouseholderLeft(r [][]complex128, v []complex128, vnorm2 float64, k, n int) {
	for j := k; j < n; j++ {
		var dot complex128
		for i := k; i < n; i++ {
			dot += cmplx.Conj(v[i]) * r[i][j]
		}
		coef := complex(2, 0) * dot / complex(vnorm2, 0)
		for i := k; i < n; i++ {
			r[i][j] -= coef * v[i]
		}
	}
}

func applyHouseholderRight(q [][]complex128, v []complex128, vnorm2 float64, k, n int) {
	for i := 0; i < n; i++ {
		var dot complex128
		for j := k; j < n; j++ {
			dot += q[i][j] * v[j]
		}
		coef := complex(2, 0) * dot / complex(vnorm2, 0)
		for j := k; j < n; j++ {
			q[i][j] -= coef * cmplx.Conj(v[j])
		}
	}
}

func phaseUnit(c complex128) complex128 {
	if c == 0 {
		return 1
	}
	return c / complex(cmplx.Abs(c), 0)
}

// cQRSolve solves A x = b given Q, R from cQRFactor: A = Q R, so
// x = R^-1 Q^H b.
func cQRSolve(f *cfactorization, b []complex128) []complex128 {
	n := len(f.r)
	qtb := make([]complex128, n)
	for i := 0; i < n; i++ {
		var sum complex128
		for j := 0; j < n; j++ {
			sum += cmplx.Conj(f.q[j][i]) * b[j]
		}
		qtb[i] = sum
	}
	x := make([]complex128, n)
	for i := n - 1; i >= 0; i-- {
		sum := qtb[i]
		for j := i + 1; j < n; j++ {
			sum -= f.r[i][j] * x[j]
		}
		if cmplx.Abs(f.r[i][i]) < 1e-300 {
			x[i] = 0
			continue
		}
		x[i] = sum / f.r[i][i]
	}
	return x
}
