package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// SegmentLengths returns the Euclidean length of every segment of ls along
// with their sum, in the coordinates' native units.
func SegmentLengths(ls orb.LineString) (float64, []float64) {
	if len(ls) < 2 {
		return 0, nil
	}

	total := 0.0
	dists := make([]float64, len(ls)-1)
	for i := 0; i < len(ls)-1; i++ {
		dists[i] = planar.Distance(ls[i], ls[i+1])
		total += dists[i]
	}
	return total, dists
}

// Length returns the parametric length of the line: the Euclidean sum of its
// segments in native coordinate units. This is the axis PointAt walks.
func (l Line) Length() float64 {
	total, _ := SegmentLengths(l.vertices)
	return total
}

// PointAt returns the point reached by walking t native units along the
// vertex chain. t is clamped to [0, Length()].
func (l Line) PointAt(t float64) orb.Point {
	pts := l.PointsAt([]float64{t})
	return pts[0]
}

// PointsAt resolves several parametric positions in one pass over the
// segments. ts must be non-decreasing; each value is clamped to
// [0, Length()].
func (l Line) PointsAt(ts []float64) []orb.Point {
	out := make([]orb.Point, len(ts))
	if len(ts) == 0 {
		return out
	}

	total, dists := SegmentLengths(l.vertices)
	seg := 0
	walked := 0.0 // parametric distance at the start of seg

	for i, t := range ts {
		switch {
		case math.IsNaN(t) || t <= 0:
			out[i] = l.vertices[0]
			continue
		case t >= total:
			out[i] = l.vertices[len(l.vertices)-1]
			continue
		}

		// advance to the segment containing t
		for seg < len(dists)-1 && walked+dists[seg] < t {
			walked += dists[seg]
			seg++
		}

		d := dists[seg]
		if d == 0 {
			out[i] = l.vertices[seg+1]
			continue
		}
		out[i] = interpolatePoint(l.vertices[seg], l.vertices[seg+1], (t-walked)/d)
	}

	return out
}

// interpolatePoint calculates a point on the straight segment between two
// points. t=0 returns start, t=1 returns end.
func interpolatePoint(start, end orb.Point, t float64) orb.Point {
	if t <= 0 {
		return start
	}
	if t >= 1 {
		return end
	}
	return orb.Point{
		start[0] + t*(end[0]-start[0]),
		start[1] + t*(end[1]-start[1]),
	}
}
