package editor

import (
	"strings"

	"github.com/google/uuid"
)

// AIMode is the authoring state of the AI subject Line.
type AIMode string

const (
	AIInactive AIMode = "inactive"
	AIActive   AIMode = "active"
	AITyping   AIMode = "typing"
)

// aiMachine holds the authoring state. mode != AIInactive iff line names the
// one flagged Line, except while an exit is deferred during typing.
type aiMachine struct {
	mode AIMode
	line LineID

	// typing counts inputs since the last settle; deferred holds an exit
	// requested while typing was in progress.
	typing   int
	deferred bool
	settle   *debounce

	backspaceArmed bool
	backspace      *debounce
}

func newAIMachine(loop Loop) *aiMachine {
	return &aiMachine{
		mode:      AIInactive,
		settle:    newDebounce(loop, TypingSettle),
		backspace: newDebounce(loop, DoubleBackspaceWindow),
	}
}

func (m *aiMachine) reset() {
	m.mode = AIInactive
	m.line = ""
	m.typing = 0
	m.deferred = false
	m.settle.Cancel()
	m.backspace.Cancel()
	m.backspaceArmed = false
}

// StartAIPrompt makes target (or a new Line after it, when target is not
// empty) the AI subject, optionally seeded with text.
func (e *Editor) StartAIPrompt(target LineID, seed string) {
	if e.closed {
		return
	}
	if e.ai.mode != AIInactive {
		e.exitAI(false)
	}

	var subject LineID
	line := e.surface.Line(target)
	if line != nil && line.Kind.Editable() && line.IsEmpty() {
		e.mutator.SetKind(target, KindParagraph)
		subject = target
	} else {
		subject = e.mutator.InsertAfter(target, NewLine(KindParagraph, "")).ID
	}

	e.ai.reset()
	e.ai.mode = AIActive
	e.ai.line = subject
	e.mutator.SetAIPrompt(subject, true)
	if seed != "" {
		e.mutator.SetText(subject, seed)
	}
	e.mutator.MoveCaretEnd(subject)
	e.refreshTrigger()
}

// aiInput moves the subject into typing and re-arms the settle timer.
func (e *Editor) aiInput(id LineID) {
	if e.ai.mode == AIInactive || e.ai.line != id {
		// input landed in a Line still flagged after a restructure
		e.ai.reset()
		e.ai.line = id
	}
	e.ai.mode = AITyping
	e.ai.typing++
	e.ai.settle.Trigger(e.settleAI)
}

func (e *Editor) settleAI() {
	e.ai.typing = 0
	deferred := e.ai.deferred
	e.ai.deferred = false
	if e.ai.mode != AITyping && !deferred {
		return
	}

	line := e.surface.Line(e.ai.line)
	if line == nil || !line.AIPrompt {
		if l := e.findFlagged(); l != nil {
			e.ai.line = l.ID
			line = l
		}
	}
	switch {
	case line == nil || !line.AIPrompt:
		e.exitAI(false)
	case line.IsEmpty():
		e.exitAI(false)
	default:
		e.ai.mode = AIActive
	}
	e.refreshTrigger()
}

// requestExit leaves authoring unless the subject is mid-typing, in which
// case the exit is replayed at the next settle.
func (e *Editor) requestExit() {
	if e.ai.mode == AITyping && e.ai.typing > 0 {
		e.ai.deferred = true
		return
	}
	e.exitAI(false)
}

// exitAI leaves authoring. With clear, the subject is emptied and the caret
// moved to its start.
func (e *Editor) exitAI(clear bool) {
	id := e.ai.line
	e.ai.reset()
	if e.surface.Line(id) == nil {
		return
	}
	e.mutator.SetAIPrompt(id, false)
	if clear {
		e.mutator.Clear(id)
		e.mutator.MoveCaretStart(id)
	}
}

// aiBackspace exits authoring when the caret is at the start, the Line is
// (nearly) empty, or this is the second Backspace inside the window.
func (e *Editor) aiBackspace(line *Line, offset int) bool {
	if offset <= 0 || runeLen(strings.TrimSpace(line.Text)) <= 1 || e.ai.backspaceArmed {
		e.exitAI(true)
		return true
	}
	e.ai.backspaceArmed = true
	e.ai.backspace.Trigger(func() {
		e.ai.backspaceArmed = false
	})
	return false
}

// resyncAI reconciles the machine with the flags present on the surface. It
// runs after every mutation.
func (e *Editor) resyncAI() {
	if e.ai.mode == AIInactive {
		if l := e.findFlagged(); l != nil {
			e.ai.mode = AIActive
			e.ai.line = l.ID
		}
		return
	}
	if l := e.surface.Line(e.ai.line); l != nil && l.AIPrompt {
		return
	}
	if l := e.findFlagged(); l != nil {
		e.ai.line = l.ID
		return
	}
	e.requestExit()
}

func (e *Editor) findFlagged() *Line {
	if flagged := e.surface.flagged(); len(flagged) > 0 {
		return flagged[0]
	}
	return nil
}

// submit sends the subject's prompt to the gateway. Authoring ends at once;
// the pending exchange lives on the Line until it resolves.
func (e *Editor) submit(line *Line) {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return
	}
	above, below := composeContext(e.surface, line.ID)
	x := &Exchange{
		ID:           uuid.NewString(),
		PromptText:   text,
		ContextAbove: above,
		ContextBelow: below,
		Status:       ExchangePending,
	}

	id := line.ID
	e.ai.reset()
	e.mutator.SetExchange(id, KindAIPending, x, "")
	e.mutator.MoveCaretStart(id)

	prompt := x.Prompt()
	e.loop.Spawn(func() func() {
		markup, err := e.gateway.Complete(e.ctx, prompt)
		return func() {
			e.resolveExchange(id, x, markup, err)
		}
	})
}
