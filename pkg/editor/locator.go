package editor

import "math"

// LineAtCaret returns the Line holding the caret, or nil when the caret is
// outside the surface.
func LineAtCaret(s *Surface, c Caret) *Line {
	return s.Line(c.Line)
}

// LineAtPoint returns the Line whose box contains y, falling back to the
// vertically nearest box. It returns nil when no layout is known.
func LineAtPoint(s *Surface, y float64) *Line {
	var (
		nearest  *Line
		distance = math.Inf(1)
	)
	for _, l := range s.lines {
		b, ok := s.boxes[l.ID]
		if !ok {
			continue
		}
		if y >= b.Top && y < b.Top+b.Height {
			return l
		}
		d := math.Min(math.Abs(y-b.Top), math.Abs(y-(b.Top+b.Height)))
		if d < distance {
			nearest, distance = l, d
		}
	}
	return nearest
}
