// Package editor is a headless rich-text editing core: a surface of Lines,
// a slash-command insertion menu, a floating insert button and an AI
// authoring flow that sends prompts to a Gateway.
//
// An Editor is not safe for concurrent use. Every method, and every callback
// it schedules through its Loop, must run on the loop goroutine.
package editor

import (
	"context"
	"strings"
)

type Editor struct {
	loop      Loop
	gateway   Gateway
	suggester Suggester
	observer  Observer
	ctx       context.Context

	surface *Surface
	mutator *Mutator
	menu    *Menu
	trigger *trigger
	ai      *aiMachine

	suggest     *debounce
	suggestions []Suggestion
	lastText    string

	reveals map[string]Timer
	closed  bool
}

type Option func(*Editor)

func WithSuggester(s Suggester) Option {
	return func(e *Editor) {
		e.suggester = s
	}
}

func WithObserver(o Observer) Option {
	return func(e *Editor) {
		e.observer = o
	}
}

func WithCatalog(catalog []InsertionOption) Option {
	return func(e *Editor) {
		e.menu = newMenu(catalog)
	}
}

// WithContext sets the context handed to gateway calls.
func WithContext(ctx context.Context) Option {
	return func(e *Editor) {
		e.ctx = ctx
	}
}

// New returns an Editor holding a single empty Line.
func New(loop Loop, gateway Gateway, opts ...Option) *Editor {
	e := &Editor{
		loop:    loop,
		gateway: gateway,
		ctx:     context.Background(),
		surface: newSurface(),
		menu:    newMenu(DefaultCatalog()),
		trigger: &trigger{},
		ai:      newAIMachine(loop),
		suggest: newDebounce(loop, SuggestDebounce),
		reveals: make(map[string]Timer),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.mutator = newMutator(e.surface, e.afterMutation)
	e.mutator.Reset(nil)
	return e
}

func (e *Editor) Surface() *Surface { return e.surface }
func (e *Editor) Mutator() *Mutator { return e.mutator }
func (e *Editor) Menu() *Menu       { return e.menu }
func (e *Editor) AIMode() AIMode    { return e.ai.mode }
func (e *Editor) AILine() LineID    { return e.ai.line }
func (e *Editor) Value() string     { return e.surface.HTML() }
func (e *Editor) Closed() bool      { return e.closed }
func (e *Editor) Suggestions() []Suggestion {
	return append([]Suggestion(nil), e.suggestions...)
}

// Input applies text typed into a Line, with the caret left at caret.
func (e *Editor) Input(id LineID, text string, caret int) error {
	if e.closed {
		return ErrClosed
	}
	line := e.surface.Line(id)
	if line == nil {
		return ErrLineNotFound
	}
	if !line.Kind.Editable() {
		return ErrNotEditable
	}
	e.mutator.SetText(id, text)
	e.mutator.MoveCaret(id, caret)

	if line.AIPrompt {
		e.aiInput(id)
	} else {
		e.detectSlash(line, e.surface.caret.Offset)
	}
	e.refreshTrigger()
	return nil
}

// SetCell edits one cell of a table Line.
func (e *Editor) SetCell(id LineID, row, col int, text string) error {
	if e.closed {
		return ErrClosed
	}
	if !e.mutator.SetCell(id, row, col, text) {
		return ErrLineNotFound
	}
	return nil
}

// ToggleChecked flips a to-do Line.
func (e *Editor) ToggleChecked(id LineID) error {
	if e.closed {
		return ErrClosed
	}
	line := e.surface.Line(id)
	if line == nil || line.Kind != KindTodo {
		return ErrLineNotFound
	}
	e.mutator.SetChecked(id, !line.Checked)
	return nil
}

// MoveCaret records a selection change reported by the client.
func (e *Editor) MoveCaret(c Caret) error {
	if e.closed {
		return ErrClosed
	}
	if !e.mutator.MoveCaret(c.Line, c.Offset) {
		return ErrLineNotFound
	}
	if e.menu.IsOpen() && e.menu.OpenedBy() == OpenerSlash && e.menu.Target() != c.Line {
		e.menu.Close()
	}
	e.refreshTrigger()
	return nil
}

type KeyEvent struct {
	Key    string
	Shift  bool
	Line   LineID
	Offset int
}

const (
	KeyEnter     = "Enter"
	KeyTab       = "Tab"
	KeyEscape    = "Escape"
	KeyBackspace = "Backspace"
	KeyArrowUp   = "ArrowUp"
	KeyArrowDown = "ArrowDown"
)

// Key handles a key press. It returns true when the editor consumed the key
// and the client must not apply its default behavior.
func (e *Editor) Key(ev KeyEvent) bool {
	if e.closed {
		return false
	}
	defer e.refreshTrigger()

	if e.menu.IsOpen() {
		switch ev.Key {
		case KeyArrowDown:
			e.menu.MoveSelection(1)
			return true
		case KeyArrowUp:
			e.menu.MoveSelection(-1)
			return true
		case KeyEnter, KeyTab:
			e.chooseHighlighted()
			return true
		case KeyEscape:
			e.menu.Close()
			return true
		}
	}

	line := LineAtCaret(e.surface, Caret{Line: ev.Line, Offset: ev.Offset})
	if line == nil {
		return false
	}
	e.mutator.MoveCaret(line.ID, ev.Offset)

	if line.AIPrompt {
		switch {
		case ev.Key == KeyEnter && !ev.Shift:
			e.submit(line)
			return true
		case ev.Key == KeyBackspace:
			return e.aiBackspace(line, ev.Offset)
		}
		return false
	}

	switch {
	case ev.Key == KeyEnter && !ev.Shift:
		return e.splitLine(line, ev.Offset)
	case ev.Key == KeyBackspace && ev.Offset == 0:
		return e.mergeBackward(line)
	}
	return false
}

// ChooseOption runs the visible option at index against the menu's target.
func (e *Editor) ChooseOption(index int) error {
	if e.closed {
		return ErrClosed
	}
	if !e.menu.IsOpen() {
		return ErrMenuClosed
	}
	opts := e.menu.Options()
	if index < 0 || index >= len(opts) {
		return ErrOptionOutOfRange
	}
	e.choose(opts[index])
	e.refreshTrigger()
	return nil
}

// ClickOutside dismisses the menu without choosing.
func (e *Editor) ClickOutside() {
	if e.closed {
		return
	}
	e.menu.Close()
	e.refreshTrigger()
}

// InsertBlock inserts a block of kind for target: an empty editable target is
// transformed in place, otherwise a new Line follows it. The caret ends up in
// the inserted block.
func (e *Editor) InsertBlock(target LineID, kind Kind) {
	var id LineID
	line := e.surface.Line(target)
	if line != nil && line.Kind.Editable() && line.IsEmpty() && !line.AIPrompt {
		e.mutator.SetKind(target, kind)
		id = target
	} else {
		id = e.mutator.InsertAfter(target, NewLine(kind, "")).ID
	}

	if !kind.Editable() {
		// dividers and tables are not typed into, continue below them
		id = e.mutator.InsertAfter(id, NewLine(KindParagraph, "")).ID
	}
	e.mutator.MoveCaretEnd(id)
}

// SetLayout records the client-side geometry of the Lines.
func (e *Editor) SetLayout(boxes []LineBox) {
	if e.closed {
		return
	}
	e.mutator.SetLayout(boxes)
	e.refreshTrigger()
}

// Load replaces the surface with serialized markup. Line IDs and AI flags
// carried by the markup are kept, and in-flight exchanges survive for Lines
// that are still present.
func (e *Editor) Load(markup string) error {
	if e.closed {
		return ErrClosed
	}
	lines, err := parseMarkup(markup)
	if err != nil {
		return err
	}
	flagged := false
	for _, l := range lines {
		if old := e.surface.Line(l.ID); old != nil && old.Exchange != nil {
			l.Kind, l.Exchange, l.HTML, l.Text = old.Kind, old.Exchange, old.HTML, ""
			l.AIPrompt = false
		}
		if l.AIPrompt {
			l.AIPrompt = !flagged
			flagged = true
		}
	}
	e.mutator.Reset(lines)
	e.refreshTrigger()
	return nil
}

// Close cancels every timer. Late continuations are ignored.
func (e *Editor) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.suggest.Cancel()
	e.ai.reset()
	for id, t := range e.reveals {
		t.Stop()
		delete(e.reveals, id)
	}
}

func (e *Editor) detectSlash(line *Line, caret int) {
	bySlash := e.menu.IsOpen() && e.menu.OpenedBy() == OpenerSlash && e.menu.Target() == line.ID
	intent, filter := DetectSlash(line.Text, caret, bySlash)
	switch intent {
	case SlashOpen:
		e.menu.Open(e.anchorBelow(line.ID), OpenerSlash, line.ID)
	case SlashUpdate:
		e.menu.UpdateFilter(filter)
	case SlashClose:
		e.menu.Close()
	}
}

func (e *Editor) chooseHighlighted() {
	if opt, ok := e.menu.Highlighted(); ok {
		e.choose(opt)
	}
}

func (e *Editor) choose(opt InsertionOption) {
	target := e.menu.Target()
	bySlash := e.menu.OpenedBy() == OpenerSlash
	e.menu.Close()

	if line := e.surface.Line(target); line != nil && bySlash {
		caret := runeLen(line.Text)
		if c := e.surface.caret; c.Line == target {
			caret = c.Offset
		}
		text, offset := StripSlashCommand(line.Text, caret)
		e.mutator.SetText(target, text)
		e.mutator.MoveCaret(target, offset)
	}
	if opt.Action != nil {
		opt.Action(e, target)
	}
}

func (e *Editor) splitLine(line *Line, offset int) bool {
	if line.Kind == KindCode {
		return false
	}
	if line.Kind.continues() && line.IsEmpty() {
		// Enter on an empty list item leaves the list
		e.mutator.SetKind(line.ID, KindParagraph)
		return true
	}
	runes := []rune(line.Text)
	if offset > len(runes) {
		offset = len(runes)
	}
	if offset < 0 {
		offset = 0
	}
	kind := KindParagraph
	if line.Kind.continues() {
		kind = line.Kind
	}
	e.mutator.SetText(line.ID, string(runes[:offset]))
	next := e.mutator.InsertAfter(line.ID, NewLine(kind, string(runes[offset:])))
	e.mutator.MoveCaretStart(next.ID)
	return true
}

// mergeBackward folds line's text into the Line above. Lines whose content
// is not plain text are never merged away.
func (e *Editor) mergeBackward(line *Line) bool {
	if !line.Kind.Editable() {
		return false
	}
	i := e.surface.IndexOf(line.ID)
	prev := e.surface.At(i - 1)
	if prev == nil {
		return false
	}
	switch {
	case prev.Kind == KindDivider:
		e.mutator.Remove(prev.ID)
		e.mutator.MoveCaretStart(line.ID)
		return true
	case !prev.Kind.Editable() || prev.AIPrompt:
		return false
	}
	offset := runeLen(prev.Text)
	e.mutator.SetText(prev.ID, prev.Text+line.Text)
	e.mutator.Remove(line.ID)
	e.mutator.MoveCaret(prev.ID, offset)
	return true
}

func (e *Editor) anchorBelow(id LineID) Position {
	b, ok := e.surface.Box(id)
	if !ok {
		return Position{}
	}
	return Position{X: b.Left, Y: b.Top + b.Height}
}

func (e *Editor) afterMutation() {
	e.resyncAI()
	if text := e.surface.Text(); text != e.lastText {
		e.lastText = text
		e.scheduleSuggestions()
	}
}

func (e *Editor) scheduleSuggestions() {
	if e.suggester == nil || e.closed {
		return
	}
	e.suggest.Trigger(func() {
		text := e.lastText
		if strings.TrimSpace(text) == "" {
			e.suggestions = nil
			return
		}
		e.loop.Spawn(func() func() {
			items, err := e.suggester.Suggest(e.ctx, text)
			return func() {
				if e.closed || err != nil || text != e.lastText {
					return
				}
				e.suggestions = items
			}
		})
	})
}
