package editor

import "strings"

const (
	PlaceholderEmpty   = "Start writing…"
	PlaceholderFocused = "Type '/' for commands"
	PlaceholderAI      = "Ask AI anything… (Enter to send)"
)

// Caret is a collapsed selection inside a Line. Offset counts runes.
type Caret struct {
	Line   LineID `json:"line"`
	Offset int    `json:"offset"`
}

// Box is the client-reported geometry of a Line.
type Box struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Height float64 `json:"height"`
}

type LineBox struct {
	Line LineID `json:"line"`
	Box
}

// Surface is the ordered list of Lines being edited. Only the Mutator writes
// to it; everything else reads.
type Surface struct {
	lines []*Line
	caret Caret
	boxes map[LineID]Box

	// fresh stays true until the caret first lands in the surface.
	fresh bool
}

func newSurface() *Surface {
	return &Surface{
		boxes: make(map[LineID]Box),
		fresh: true,
	}
}

func (s *Surface) Lines() []*Line {
	return append([]*Line(nil), s.lines...)
}

func (s *Surface) Len() int {
	return len(s.lines)
}

func (s *Surface) At(i int) *Line {
	if i < 0 || i >= len(s.lines) {
		return nil
	}
	return s.lines[i]
}

func (s *Surface) Line(id LineID) *Line {
	if i := s.IndexOf(id); i >= 0 {
		return s.lines[i]
	}
	return nil
}

func (s *Surface) IndexOf(id LineID) int {
	if id == "" {
		return -1
	}
	for i, l := range s.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s *Surface) Caret() Caret {
	return s.caret
}

func (s *Surface) Box(id LineID) (Box, bool) {
	b, ok := s.boxes[id]
	return b, ok
}

// Text joins the plain text of every Line with newlines.
func (s *Surface) Text() string {
	parts := make([]string, 0, len(s.lines))
	for _, l := range s.lines {
		parts = append(parts, l.PlainText())
	}
	return strings.Join(parts, "\n")
}

func (s *Surface) flagged() []*Line {
	var out []*Line
	for _, l := range s.lines {
		if l.AIPrompt {
			out = append(out, l)
		}
	}
	return out
}
