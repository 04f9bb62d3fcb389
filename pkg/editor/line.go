package editor

import (
	"strings"

	"github.com/google/uuid"
)

type LineID string

// Kind is the block type of a Line.
type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindHeading1  Kind = "heading1"
	KindHeading2  Kind = "heading2"
	KindHeading3  Kind = "heading3"
	KindBulleted  Kind = "bulleted"
	KindNumbered  Kind = "numbered"
	KindTodo      Kind = "todo"
	KindQuote     Kind = "quote"
	KindCode      Kind = "code"
	KindDivider   Kind = "divider"
	KindTable     Kind = "table"

	// KindRich holds accepted AI output as markup.
	KindRich Kind = "rich"

	KindAIPending  Kind = "ai_pending"
	KindAIResponse Kind = "ai_response"
	KindAIError    Kind = "ai_error"
)

// Editable reports whether the Line holds plain text typed by the user.
func (k Kind) Editable() bool {
	switch k {
	case KindParagraph, KindHeading1, KindHeading2, KindHeading3,
		KindBulleted, KindNumbered, KindTodo, KindQuote, KindCode:
		return true
	}
	return false
}

// continues reports whether Enter at the end of a Line of this kind keeps the kind.
func (k Kind) continues() bool {
	return k == KindBulleted || k == KindNumbered || k == KindTodo
}

// Line is a block-level node of the editing surface.
type Line struct {
	ID       LineID
	Kind     Kind
	Text     string
	HTML     string
	Cells    [][]string
	Checked  bool
	AIPrompt bool

	Placeholder string
	Exchange    *Exchange
}

// NewLine returns a detached Line with a fresh ID.
func NewLine(kind Kind, text string) *Line {
	l := &Line{
		ID:   LineID(uuid.NewString()),
		Kind: kind,
		Text: text,
	}
	if kind == KindTable {
		l.Cells = [][]string{{"", ""}, {"", ""}}
	}
	return l
}

// PlainText returns the textual content of the Line regardless of its kind.
func (l *Line) PlainText() string {
	switch {
	case l.Kind == KindTable:
		var rows []string
		for _, row := range l.Cells {
			rows = append(rows, strings.Join(row, " "))
		}
		return strings.TrimSpace(strings.Join(rows, "\n"))
	case l.HTML != "":
		return markupText(l.HTML)
	}
	return l.Text
}

// IsEmpty reports whether the Line has no visible text.
func (l *Line) IsEmpty() bool {
	text := strings.ReplaceAll(l.PlainText(), "\u200b", "")
	return strings.TrimSpace(text) == ""
}

func runeLen(s string) int {
	return len([]rune(s))
}
