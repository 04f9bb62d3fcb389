package editor

// Mutator applies structural edits to a Surface. It keeps at least one Line
// in the surface, recomputes placeholders after every edit and then notifies
// its owner. Notifications raised while one is being handled are queued and
// replayed, never nested.
type Mutator struct {
	s        *Surface
	onChange func()

	notifying bool
	queued    bool
}

func newMutator(s *Surface, onChange func()) *Mutator {
	return &Mutator{s: s, onChange: onChange}
}

// InsertAfter places l after ref. A missing ref appends at the end.
func (m *Mutator) InsertAfter(ref LineID, l *Line) *Line {
	i := m.s.IndexOf(ref)
	if i < 0 {
		m.s.lines = append(m.s.lines, l)
	} else {
		m.s.lines = append(m.s.lines, nil)
		copy(m.s.lines[i+2:], m.s.lines[i+1:])
		m.s.lines[i+1] = l
	}
	m.commit()
	return l
}

// Replace swaps the Line id for l. A missing id appends l at the end.
func (m *Mutator) Replace(id LineID, l *Line) *Line {
	if i := m.s.IndexOf(id); i >= 0 {
		m.s.lines[i] = l
		delete(m.s.boxes, id)
	} else {
		m.s.lines = append(m.s.lines, l)
	}
	if m.s.caret.Line == id {
		m.s.caret = Caret{Line: l.ID}
	}
	m.commit()
	return l
}

func (m *Mutator) Remove(id LineID) bool {
	i := m.s.IndexOf(id)
	if i < 0 {
		return false
	}
	m.s.lines = append(m.s.lines[:i], m.s.lines[i+1:]...)
	delete(m.s.boxes, id)
	if m.s.caret.Line == id {
		m.s.caret = Caret{}
	}
	m.commit()
	return true
}

func (m *Mutator) SetText(id LineID, text string) bool {
	return m.update(id, func(l *Line) {
		l.Text = text
	})
}

// SetKind changes the block type, dropping content the new kind cannot hold.
func (m *Mutator) SetKind(id LineID, kind Kind) bool {
	return m.update(id, func(l *Line) {
		l.Kind = kind
		l.HTML = ""
		l.Exchange = nil
		l.Cells = nil
		if kind == KindTable {
			l.Cells = [][]string{{"", ""}, {"", ""}}
			l.Text = ""
		}
		if kind == KindDivider {
			l.Text = ""
		}
		if !kind.Editable() {
			l.AIPrompt = false
		}
	})
}

// Clear empties the Line, leaving a single empty-line marker.
func (m *Mutator) Clear(id LineID) bool {
	return m.update(id, func(l *Line) {
		l.Text = ""
		l.HTML = ""
		l.Checked = false
	})
}

// SetAIPrompt flags the Line as the AI subject. Flagging one Line unflags
// every other. Only editable Lines can be flagged.
func (m *Mutator) SetAIPrompt(id LineID, on bool) bool {
	l := m.s.Line(id)
	if l == nil || (on && !l.Kind.Editable()) {
		return false
	}
	for _, l := range m.s.lines {
		switch {
		case l.ID == id:
			l.AIPrompt = on
		case on:
			l.AIPrompt = false
		}
	}
	m.commit()
	return true
}

// SetExchange turns the Line into an exchange block of the given kind.
func (m *Mutator) SetExchange(id LineID, kind Kind, x *Exchange, markup string) bool {
	return m.update(id, func(l *Line) {
		l.Kind = kind
		l.Text = ""
		l.HTML = markup
		l.Cells = nil
		l.AIPrompt = false
		l.Exchange = x
	})
}

// Promote keeps an exchange's markup as ordinary content.
func (m *Mutator) Promote(id LineID) bool {
	return m.update(id, func(l *Line) {
		l.Kind = KindRich
		l.Exchange = nil
	})
}

func (m *Mutator) SetChecked(id LineID, checked bool) bool {
	return m.update(id, func(l *Line) {
		l.Checked = checked
	})
}

func (m *Mutator) SetCell(id LineID, row, col int, text string) bool {
	l := m.s.Line(id)
	if l == nil || row < 0 || row >= len(l.Cells) || col < 0 || col >= len(l.Cells[row]) {
		return false
	}
	return m.update(id, func(l *Line) {
		l.Cells[row][col] = text
	})
}

// MoveCaret places the caret in id at offset, clamped to the Line's text.
func (m *Mutator) MoveCaret(id LineID, offset int) bool {
	l := m.s.Line(id)
	if l == nil {
		return false
	}
	if n := runeLen(l.Text); offset > n {
		offset = n
	}
	if offset < 0 {
		offset = 0
	}
	m.s.caret = Caret{Line: id, Offset: offset}
	m.s.fresh = false
	m.commit()
	return true
}

func (m *Mutator) MoveCaretStart(id LineID) bool {
	return m.MoveCaret(id, 0)
}

func (m *Mutator) MoveCaretEnd(id LineID) bool {
	l := m.s.Line(id)
	if l == nil {
		return false
	}
	return m.MoveCaret(id, runeLen(l.Text))
}

// SetLayout records client geometry. Boxes for unknown Lines are ignored.
func (m *Mutator) SetLayout(boxes []LineBox) {
	m.s.boxes = make(map[LineID]Box, len(boxes))
	for _, b := range boxes {
		if m.s.Line(b.Line) != nil {
			m.s.boxes[b.Line] = b.Box
		}
	}
}

// Reset replaces every Line of the surface.
func (m *Mutator) Reset(lines []*Line) {
	m.s.lines = append([]*Line(nil), lines...)
	if m.s.Line(m.s.caret.Line) == nil {
		m.s.caret = Caret{}
	}
	for id := range m.s.boxes {
		if m.s.Line(id) == nil {
			delete(m.s.boxes, id)
		}
	}
	m.commit()
}

func (m *Mutator) update(id LineID, fn func(l *Line)) bool {
	l := m.s.Line(id)
	if l == nil {
		return false
	}
	fn(l)
	if m.s.caret.Line == id {
		if n := runeLen(l.Text); m.s.caret.Offset > n {
			m.s.caret.Offset = n
		}
	}
	m.commit()
	return true
}

func (m *Mutator) commit() {
	if len(m.s.lines) == 0 {
		m.s.lines = append(m.s.lines, NewLine(KindParagraph, ""))
	}
	m.refreshPlaceholders()

	if m.onChange == nil {
		return
	}
	if m.notifying {
		m.queued = true
		return
	}
	m.notifying = true
	defer func() { m.notifying = false }()
	for {
		m.queued = false
		m.onChange()
		if !m.queued {
			return
		}
	}
}

func (m *Mutator) refreshPlaceholders() {
	lone := m.s.fresh && len(m.s.lines) == 1
	for _, l := range m.s.lines {
		l.Placeholder = ""
		if !l.Kind.Editable() || !l.IsEmpty() {
			continue
		}
		switch {
		case l.AIPrompt:
			l.Placeholder = PlaceholderAI
		case l.ID == m.s.caret.Line:
			l.Placeholder = PlaceholderFocused
		case lone:
			l.Placeholder = PlaceholderEmpty
		}
	}
}
