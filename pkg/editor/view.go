package editor

// Controls offered on a resolved exchange.
const (
	ControlAccept   = "accept"
	ControlDismiss  = "dismiss"
	ControlTryAgain = "try_again"
)

// View is a render-ready snapshot of the Editor.
type View struct {
	Value       string       `json:"value"`
	Lines       []LineView   `json:"lines"`
	Caret       Caret        `json:"caret"`
	Menu        MenuView     `json:"menu"`
	Trigger     TriggerView  `json:"trigger"`
	AIMode      AIMode       `json:"ai_mode"`
	AILine      LineID       `json:"ai_line,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

type LineView struct {
	ID          LineID        `json:"id"`
	Kind        Kind          `json:"kind"`
	Text        string        `json:"text,omitempty"`
	HTML        string        `json:"html,omitempty"`
	Cells       [][]string    `json:"cells,omitempty"`
	Checked     bool          `json:"checked,omitempty"`
	AIPrompt    bool          `json:"ai_prompt,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Exchange    *ExchangeView `json:"exchange,omitempty"`
}

type ExchangeView struct {
	ID        string         `json:"id"`
	Prompt    string         `json:"prompt"`
	Status    ExchangeStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	Revealing bool           `json:"revealing"`
	Controls  []string       `json:"controls,omitempty"`
}

type OptionView struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type MenuView struct {
	Open     bool         `json:"open"`
	Filter   string       `json:"filter"`
	Selected int          `json:"selected"`
	OpenedBy Opener       `json:"opened_by"`
	Position Position     `json:"position"`
	Target   LineID       `json:"target,omitempty"`
	Options  []OptionView `json:"options,omitempty"`
}

type TriggerView struct {
	Visible bool    `json:"visible"`
	Line    LineID  `json:"line,omitempty"`
	Top     float64 `json:"top"`
	Glyph   Glyph   `json:"glyph"`
}

// View snapshots the current state. The result shares nothing with the Editor.
func (e *Editor) View() View {
	v := View{
		Value:       e.Value(),
		Caret:       e.surface.caret,
		AIMode:      e.ai.mode,
		AILine:      e.ai.line,
		Suggestions: e.Suggestions(),
		Menu: MenuView{
			Open:     e.menu.open,
			Filter:   e.menu.filter,
			Selected: e.menu.selected,
			OpenedBy: e.menu.openedBy,
			Position: e.menu.position,
			Target:   e.menu.target,
		},
		Trigger: TriggerView{
			Visible: e.trigger.visible,
			Line:    e.trigger.line,
			Top:     e.trigger.center,
			Glyph:   e.Glyph(),
		},
	}
	for _, opt := range e.menu.visible {
		v.Menu.Options = append(v.Menu.Options, OptionView{
			ID:          opt.ID,
			Label:       opt.Label,
			Description: opt.Description,
		})
	}
	for _, l := range e.surface.lines {
		v.Lines = append(v.Lines, lineView(l))
	}
	return v
}

func lineView(l *Line) LineView {
	lv := LineView{
		ID:          l.ID,
		Kind:        l.Kind,
		Text:        l.Text,
		HTML:        l.HTML,
		Checked:     l.Checked,
		AIPrompt:    l.AIPrompt,
		Placeholder: l.Placeholder,
	}
	for _, row := range l.Cells {
		lv.Cells = append(lv.Cells, append([]string(nil), row...))
	}
	if x := l.Exchange; x != nil {
		xv := &ExchangeView{
			ID:        x.ID,
			Prompt:    x.PromptText,
			Status:    x.Status,
			Error:     x.Err,
			Revealing: x.Revealing(),
		}
		switch x.Status {
		case ExchangeSucceeded:
			xv.Controls = []string{ControlAccept, ControlDismiss}
		case ExchangeFailed:
			xv.Controls = []string{ControlTryAgain, ControlDismiss}
		}
		if xv.Revealing {
			lv.HTML = RevealHTML(x.ResponseHTML, x.revealed)
		}
		lv.Exchange = xv
	}
	return lv
}
