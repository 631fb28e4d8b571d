package geo

import (
	"errors"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// ErrNoConvergence is returned by Vincenty when the iteration does not settle,
// which happens for nearly antipodal points.
var ErrNoConvergence = errors.New("vincenty: failed to converge")

const (
	vincentyMaxIterations = 200
	// vincentyTolerance is relative to lambda; short segments have a tiny
	// lambda and still need full precision.
	vincentyTolerance = 1e-12
)

// Vincenty returns the ellipsoidal distance in meters between two lon/lat
// points given in degrees, using Vincenty's inverse formula on the ellipsoid
// with the given semi-axes (meters).
func Vincenty(p1, p2 orb.Point, semiMajor, semiMinor float64) (float64, error) {
	if p1 == p2 {
		return 0, nil
	}

	a, b := semiMajor, semiMinor
	f := (a - b) / a

	L := (p2[0] - p1[0]) * math.Pi / 180
	U1 := math.Atan((1 - f) * math.Tan(p1[1]*math.Pi/180))
	U2 := math.Atan((1 - f) * math.Tan(p2[1]*math.Pi/180))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	lambda := L
	var sinSigma, cosSigma, sigma, cos2Alpha, cos2SigmaM float64
	converged := false

	for i := 0; i < vincentyMaxIterations; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		x := cosU2 * sinLambda
		y := cosU1*sinU2 - sinU1*cosU2*cosLambda
		sinSigma = math.Sqrt(x*x + y*y)
		if sinSigma == 0 {
			return 0, nil // coincident
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cos2Alpha = 1 - sinAlpha*sinAlpha
		if cos2Alpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		} else {
			cos2SigmaM = 0 // equatorial line
		}

		C := f / 16 * cos2Alpha * (4 + f*(4-3*cos2Alpha))
		prev := lambda
		lambda = L + (1-C)*f*sinAlpha*
			(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-prev) <= vincentyTolerance*math.Abs(lambda) {
			converged = true
			break
		}
	}
	if !converged {
		return 0, ErrNoConvergence
	}

	u2 := cos2Alpha * (a*a - b*b) / (b * b)
	A := 1 + u2/16384*(4096+u2*(-768+u2*(320-175*u2)))
	B := u2 / 1024 * (256 + u2*(-128+u2*(74-47*u2)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return b * A * (sigma - deltaSigma), nil
}

// GreatCircle returns the spherical distance in meters between two lon/lat
// points on a sphere of the given radius.
func GreatCircle(p1, p2 orb.Point, radius float64) float64 {
	ll1 := s2.LatLngFromDegrees(p1[1], p1[0])
	ll2 := s2.LatLngFromDegrees(p2[1], p2[0])
	return ll1.Distance(ll2).Radians() * radius
}

// GeodesicDistance measures between two lon/lat points on the ellipsoid.
// When Vincenty cannot converge it falls back to a great circle on the
// sphere with the ellipsoid's mean radius.
func GeodesicDistance(p1, p2 orb.Point, semiMajor, semiMinor float64) float64 {
	d, err := Vincenty(p1, p2, semiMajor, semiMinor)
	if err != nil {
		return GreatCircle(p1, p2, (2*semiMajor+semiMinor)/3)
	}
	return d
}

// GeodesicLength sums GeodesicDistance over consecutive lon/lat vertices.
func GeodesicLength(ls orb.LineString, semiMajor, semiMinor float64) float64 {
	total := 0.0
	for i := 0; i < len(ls)-1; i++ {
		total += GeodesicDistance(ls[i], ls[i+1], semiMajor, semiMinor)
	}
	return total
}
