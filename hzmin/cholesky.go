// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import "math"

// ldltPositive factors the symmetric n×n row-major matrix a into L·D·Lᵀ
// with unit lower triangular L and positive diagonal D, overwriting the
// lower triangle of f (strict lower part holds L, diagonal holds D).
// The upper triangle of a is never referenced.
//
// Indefiniteness is not an error: a nonpositive pivot dⱼ is replaced by its
// magnitude |dⱼ| (floored at eps×max|aᵢᵢ|), so a negative-curvature
// direction keeps its scale instead of receiving an identity-shift damp.
// The result is the factorization of a nearby positive definite matrix that
// agrees with a wherever a already has positive curvature.
func ldltPositive(n int, a, f []float64) {

	nn := uint(n * n)
	if n <= 0 || nn > uint(len(a)) || nn > uint(len(f)) {
		panic("bound check error")
	}

	floor := zero
	for j := 0; j < n; j++ {
		floor = math.Max(floor, math.Abs(a[j*n+j]))
	}
	floor = math.Max(eps*floor, eps)

	for j := 0; j < n; j++ {
		// dⱼ = aⱼⱼ - Σ lⱼₖ² dₖ
		d := a[j*n+j]
		for k := 0; k < j; k++ {
			l := f[j*n+k]
			d -= l * l * f[k*n+k]
		}
		if d < floor {
			// Flip the curvature sign rather than damping it.
			d = math.Max(math.Abs(d), floor)
		}
		f[j*n+j] = d

		// lᵢⱼ = (aᵢⱼ - Σ lᵢₖ lⱼₖ dₖ) / dⱼ
		for i := j + 1; i < n; i++ {
			s := a[i*n+j]
			for k := 0; k < j; k++ {
				s -= f[i*n+k] * f[j*n+k] * f[k*n+k]
			}
			f[i*n+j] = s / d
		}
	}
}

// ldltSolve solves L·D·Lᵀ·x = b given a factor produced by ldltPositive.
// b is left untouched; x and b may alias.
func ldltSolve(n int, f, b, x []float64) {

	nn := uint(n * n)
	if n <= 0 || nn > uint(len(f)) || n > len(b) || n > len(x) {
		panic("bound check error")
	}

	// Forward substitution with unit L.
	for i := 0; i < n; i++ {
		s := b[i]
		for k := 0; k < i; k++ {
			s -= f[i*n+k] * x[k]
		}
		x[i] = s
	}
	// Diagonal scaling.
	for i := 0; i < n; i++ {
		x[i] /= f[i*n+i]
	}
	// Backward substitution with Lᵀ.
	for i := n - 1; i >= 0; i-- {
		s := x[i]
		for k := i + 1; k < n; k++ {
			s -= f[k*n+i] * x[k]
		}
		x[i] = s
	}
}
