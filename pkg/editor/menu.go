package editor

import "strings"

// Opener records what opened the insertion menu.
type Opener string

const (
	OpenerNone  Opener = "none"
	OpenerSlash Opener = "slash"
	OpenerPlus  Opener = "plus"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AskAIOptionID identifies the option synthesized when no catalog entry matches.
const AskAIOptionID = "ask_ai"

// Menu is the insertion dropdown. While open, the selection always indexes a
// visible option; closing clears the filter.
type Menu struct {
	catalog []InsertionOption

	open     bool
	filter   string
	selected int
	openedBy Opener
	position Position
	target   LineID
	visible  []InsertionOption
}

func newMenu(catalog []InsertionOption) *Menu {
	return &Menu{catalog: catalog, openedBy: OpenerNone}
}

func (m *Menu) Open(pos Position, by Opener, target LineID) {
	m.open = true
	m.filter = ""
	m.selected = 0
	m.openedBy = by
	m.position = pos
	m.target = target
	m.visible = m.filtered("")
	if len(m.visible) == 0 {
		m.Close()
	}
}

// UpdateFilter narrows the options to those whose label or description
// contains text, case-insensitively.
func (m *Menu) UpdateFilter(text string) {
	if !m.open {
		return
	}
	m.filter = text
	m.visible = m.filtered(text)
	m.selected = 0
	if len(m.visible) == 0 {
		m.Close()
	}
}

// MoveSelection moves the highlight by dir, clamped at both ends.
func (m *Menu) MoveSelection(dir int) {
	if !m.open {
		return
	}
	m.selected += dir
	if m.selected > len(m.visible)-1 {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Menu) Highlighted() (InsertionOption, bool) {
	if !m.open || m.selected >= len(m.visible) {
		return InsertionOption{}, false
	}
	return m.visible[m.selected], true
}

func (m *Menu) Close() {
	m.open = false
	m.filter = ""
	m.selected = 0
	m.openedBy = OpenerNone
	m.target = ""
	m.visible = nil
}

func (m *Menu) IsOpen() bool       { return m.open }
func (m *Menu) Filter() string     { return m.filter }
func (m *Menu) Selected() int      { return m.selected }
func (m *Menu) OpenedBy() Opener   { return m.openedBy }
func (m *Menu) Position() Position { return m.position }
func (m *Menu) Target() LineID     { return m.target }

func (m *Menu) Options() []InsertionOption {
	return append([]InsertionOption(nil), m.visible...)
}

func (m *Menu) filtered(text string) []InsertionOption {
	needle := strings.ToLower(text)
	var out []InsertionOption
	for _, opt := range m.catalog {
		if needle == "" ||
			strings.Contains(strings.ToLower(opt.Label), needle) ||
			strings.Contains(strings.ToLower(opt.Description), needle) {
			out = append(out, opt)
		}
	}
	if len(out) == 0 && text != "" {
		out = append(out, askAIOption(text))
	}
	return out
}

func askAIOption(text string) InsertionOption {
	return InsertionOption{
		ID:          AskAIOptionID,
		Label:       "Ask AI to " + text + "…",
		Description: "Draft it with AI from what you typed",
		Action: func(ed *Editor, target LineID) {
			ed.StartAIPrompt(target, text)
		},
	}
}
