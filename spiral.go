package xodr2net

import (
	"math"
)

// fresnel computes the Fresnel integrals
//
//	C(x) = integral of cos(pi/2 * t^2) dt from 0 to x
//	S(x) = integral of sin(pi/2 * t^2) dt from 0 to x
//
// A Taylor series is used for small arguments and the asymptotic expansion with
// auxiliary functions for large ones. Both converge to well below the geometric
// tolerances used elsewhere in the package
func fresnel(x float64) (c, s float64) {
	if x < 0 {
		c, s = fresnel(-x)
		return -c, -s
	}
	if x == 0 {
		return 0, 0
	}
	if x <= 3.0 {
		return fresnelSeries(x)
	}
	return fresnelAsymptotic(x)
}

// fresnelSeries sums the alternating Taylor series, accurate for arguments up to ~3
func fresnelSeries(x float64) (c, s float64) {
	u := math.Pi / 2 * x * x
	// C: term_n = (-1)^n * u^(2n) / (2n)! * x / (4n+1)
	// S: term_n = (-1)^n * u^(2n+1) / (2n+1)! * x / (4n+3)
	termC := x
	termS := x * u
	c = termC
	s = termS / 3
	for n := 1; n < 60; n++ {
		termC *= -u * u / float64(2*n*(2*n-1))
		termS *= -u * u / float64(2*n*(2*n+1))
		dc := termC / float64(4*n+1)
		ds := termS / float64(4*n+3)
		c += dc
		s += ds
		if math.Abs(dc) < 1e-18 && math.Abs(ds) < 1e-18 {
			break
		}
	}
	return c, s
}

// fresnelAsymptotic evaluates the expansion
//
//	C(x) = 1/2 + f(x)*sin(pi/2*x^2) - g(x)*cos(pi/2*x^2)
//	S(x) = 1/2 - f(x)*cos(pi/2*x^2) - g(x)*sin(pi/2*x^2)
//
// where f and g are summed until the smallest term of the divergent series
func fresnelAsymptotic(x float64) (c, s float64) {
	u := math.Pi * x * x
	// f(x) = 1/(pi*x) * sum (-1)^m (4m-1)!! / u^(2m)
	// g(x) = 1/(pi*x*u) * sum (-1)^m (4m+1)!! / u^(2m)
	f := 0.0
	g := 0.0
	termF := 1.0
	termG := 1.0
	prevF := math.Inf(1)
	for m := 0; m < 16; m++ {
		if math.Abs(termF) > prevF {
			break
		}
		f += termF
		g += termG
		prevF = math.Abs(termF)
		k := float64(4*m + 1)
		termF *= -(k) * (k + 2) / (u * u)
		termG *= -(k + 2) * (k + 4) / (u * u)
	}
	f /= math.Pi * x
	g /= math.Pi * x * u
	arg := math.Pi / 2 * x * x
	sin, cos := math.Sincos(arg)
	c = 0.5 + f*sin - g*cos
	s = 0.5 - f*cos - g*sin
	return c, s
}

// odrSpiral evaluates an Euler spiral whose curvature changes with rate curvDot per
// arc length unit at running position s (measured from the point of zero curvature).
// It returns the position in the local spiral frame together with the tangent angle
func odrSpiral(s, curvDot float64) (x, y, t float64) {
	a := math.Sqrt(math.Pi / math.Abs(curvDot))
	c, sf := fresnel(s / a)
	x = c * a
	y = sf * a
	if curvDot < 0 {
		y = -y
	}
	t = s * s * curvDot * 0.5
	return x, y, t
}
