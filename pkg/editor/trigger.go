package editor

// Glyph is the face of the floating insert button.
type Glyph string

const (
	GlyphPlus    Glyph = "plus"
	GlyphSparkle Glyph = "sparkle"
)

type trigger struct {
	line          LineID
	center        float64
	pointerInside bool
	hovered       bool
	visible       bool
}

// PointerMove tracks the pointer inside the surface at vertical offset y.
func (e *Editor) PointerMove(y float64) {
	if e.closed {
		return
	}
	e.trigger.pointerInside = true
	if !e.menu.IsOpen() && e.ai.mode == AIInactive {
		if l := LineAtPoint(e.surface, y); l != nil {
			e.trigger.line = l.ID
		}
	}
	e.refreshTrigger()
}

func (e *Editor) PointerLeave() {
	if e.closed {
		return
	}
	e.trigger.pointerInside = false
	e.refreshTrigger()
}

// ButtonHover reports the pointer entering or leaving the button itself.
func (e *Editor) ButtonHover(on bool) {
	if e.closed {
		return
	}
	e.trigger.hovered = on
	e.refreshTrigger()
}

// TriggerClick opens the insertion menu below the hovered Line. It does
// nothing while AI authoring is active.
func (e *Editor) TriggerClick() error {
	if e.closed {
		return ErrClosed
	}
	if e.ai.mode != AIInactive {
		return nil
	}
	line := e.surface.Line(e.trigger.line)
	if line == nil {
		return ErrLineNotFound
	}
	e.mutator.MoveCaretEnd(line.ID)
	e.menu.Open(e.anchorBelow(line.ID), OpenerPlus, line.ID)
	e.refreshTrigger()
	return nil
}

// Glyph returns the button face: sparkle while the hovered or focused Line is
// the AI subject.
func (e *Editor) Glyph() Glyph {
	if e.ai.mode != AIInactive &&
		(e.trigger.line == e.ai.line || e.surface.caret.Line == e.ai.line) {
		return GlyphSparkle
	}
	return GlyphPlus
}

func (e *Editor) refreshTrigger() {
	t := e.trigger
	if e.ai.mode != AIInactive {
		// the button stays on the AI subject as its indicator
		t.line = e.ai.line
	}
	if e.surface.Line(t.line) == nil {
		t.line = ""
	}
	if b, ok := e.surface.Box(t.line); ok {
		t.center = b.Top + b.Height/2
	}
	t.visible = t.line != "" &&
		(t.pointerInside || t.hovered || e.menu.IsOpen() || e.ai.mode != AIInactive)
}
