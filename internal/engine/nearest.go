package engine

import (
	"math/bits"

	"github.com/roach88/tripleq/internal/ir"
)

// NearestMatch picks the buffer element closest to the hint (x, y).
//
// Subject is compared to x and object to y by squared euclidean distance.
// Only elements matching p whose predicate passes active are eligible,
// but the best candidate starts at buffer[0] regardless, so a non-empty
// buffer always yields a result. Ties keep the earliest element.
//
// Returns false only for an empty buffer.
func NearestMatch(buffer []ir.Triple, p ir.Pattern, active func(ir.ID) bool, x, y uint64) (ir.Triple, bool) {
	if len(buffer) == 0 {
		return ir.Triple{}, false
	}

	best := buffer[0]
	bestDist := distance(best, x, y)
	for _, t := range buffer {
		if !p.Match(t) || !active(t.Predicate) {
			continue
		}
		d := distance(t, x, y)
		if d.less(bestDist) {
			best, bestDist = t, d
		}
	}
	return best, true
}

// dist128 is an unsigned 128-bit value; squared distances of 64-bit ids
// do not fit in 64 bits.
type dist128 struct {
	hi, lo uint64
}

func (d dist128) less(o dist128) bool {
	if d.hi != o.hi {
		return d.hi < o.hi
	}
	return d.lo < o.lo
}

func distance(t ir.Triple, x, y uint64) dist128 {
	dx := absDiff(uint64(t.Subject), x)
	dy := absDiff(uint64(t.Object), y)

	hx, lx := bits.Mul64(dx, dx)
	hy, ly := bits.Mul64(dy, dy)
	lo, carry := bits.Add64(lx, ly, 0)
	hi, overflow := bits.Add64(hx, hy, carry)
	if overflow != 0 {
		return dist128{hi: ^uint64(0), lo: ^uint64(0)}
	}
	return dist128{hi: hi, lo: lo}
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
