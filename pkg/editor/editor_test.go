package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEditorHasOneLineWithPlaceholder(t *testing.T) {
	ed, _, _ := newTestEditor(t)

	require.Equal(t, 1, ed.Surface().Len())
	line := ed.Surface().At(0)
	assert.Equal(t, KindParagraph, line.Kind)
	assert.Equal(t, PlaceholderEmpty, line.Placeholder)
	assert.Equal(t, AIInactive, ed.AIMode())
}

func TestSlashWithNoMatchStartsAIPrompt(t *testing.T) {
	ed, _, gw := newTestEditor(t)
	id := firstLine(ed)

	require.NoError(t, ed.Input(id, "/", 1))
	require.True(t, ed.Menu().IsOpen())
	assert.Equal(t, OpenerSlash, ed.Menu().OpenedBy())

	require.NoError(t, ed.Input(id, "/xyz123", 7))
	opts := ed.Menu().Options()
	require.Len(t, opts, 1)
	assert.Equal(t, "Ask AI to xyz123…", opts[0].Label)

	assert.True(t, ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 7}))

	assert.False(t, ed.Menu().IsOpen())
	assert.Empty(t, ed.Menu().Filter())
	assert.Equal(t, AIActive, ed.AIMode())
	assert.Equal(t, id, ed.AILine())
	require.Equal(t, 1, ed.Surface().Len())
	line := ed.Surface().At(0)
	assert.True(t, line.AIPrompt)
	assert.Equal(t, "xyz123", line.Text)
	assert.Empty(t, gw.Calls())
}

func TestSlashMenuInsertsBlock(t *testing.T) {
	tests := []struct {
		name      string
		seed      string
		command   string
		wantKinds []Kind
		wantText  string
	}{
		{name: "heading in place", command: "/heading", wantKinds: []Kind{KindHeading1}},
		{name: "list after text", seed: "intro ", command: "/bull", wantKinds: []Kind{KindParagraph, KindBulleted}, wantText: "intro "},
		{name: "divider adds paragraph", command: "/divider", wantKinds: []Kind{KindDivider, KindParagraph}},
		{name: "table adds paragraph", command: "/table", wantKinds: []Kind{KindTable, KindParagraph}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _, _ := newTestEditor(t)
			id := firstLine(ed)

			text := tt.seed
			for _, r := range tt.command {
				text += string(r)
				require.NoError(t, ed.Input(id, text, len([]rune(text))))
			}
			require.True(t, ed.Menu().IsOpen())
			require.NoError(t, ed.ChooseOption(0))

			var kinds []Kind
			for _, l := range ed.Surface().Lines() {
				kinds = append(kinds, l.Kind)
			}
			assert.Equal(t, tt.wantKinds, kinds)
			assert.Equal(t, tt.wantText, ed.Surface().At(0).Text)

			last := ed.Surface().At(ed.Surface().Len() - 1)
			assert.Equal(t, last.ID, ed.Surface().Caret().Line, "caret lands in the inserted block")
		})
	}
}

func TestMenuKeyboard(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	id := firstLine(ed)
	require.NoError(t, ed.Input(id, "/", 1))

	assert.True(t, ed.Key(KeyEvent{Key: KeyArrowDown, Line: id, Offset: 1}))
	assert.True(t, ed.Key(KeyEvent{Key: KeyArrowDown, Line: id, Offset: 1}))
	assert.Equal(t, 2, ed.Menu().Selected())
	assert.True(t, ed.Key(KeyEvent{Key: KeyArrowUp, Line: id, Offset: 1}))
	assert.Equal(t, 1, ed.Menu().Selected())

	assert.True(t, ed.Key(KeyEvent{Key: KeyEscape, Line: id, Offset: 1}))
	assert.False(t, ed.Menu().IsOpen())
	assert.Equal(t, "/", ed.Surface().At(0).Text, "escape chooses nothing")

	require.NoError(t, ed.Input(id, "/", 1))
	ed.Key(KeyEvent{Key: KeyArrowDown, Line: id, Offset: 1})
	assert.True(t, ed.Key(KeyEvent{Key: KeyTab, Line: id, Offset: 1}))
	assert.Equal(t, KindHeading2, ed.Surface().At(0).Kind)
	assert.Empty(t, ed.Surface().At(0).Text)
}

func TestClickOutsideClosesMenu(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	id := firstLine(ed)
	require.NoError(t, ed.Input(id, "/", 1))
	require.NoError(t, ed.Input(id, "/li", 3))
	require.True(t, ed.Menu().IsOpen())

	ed.ClickOutside()
	assert.False(t, ed.Menu().IsOpen())
	assert.Empty(t, ed.Menu().Filter())
}

func TestChooseOptionErrors(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	assert.ErrorIs(t, ed.ChooseOption(0), ErrMenuClosed)

	id := firstLine(ed)
	require.NoError(t, ed.Input(id, "/", 1))
	assert.ErrorIs(t, ed.ChooseOption(99), ErrOptionOutOfRange)
	assert.ErrorIs(t, ed.ChooseOption(-1), ErrOptionOutOfRange)
}

func TestCaretLeavingLineClosesSlashMenu(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ids := seedLines(ed, KindParagraph, "", "other")
	require.NoError(t, ed.Input(ids[0], "/", 1))
	require.True(t, ed.Menu().IsOpen())

	require.NoError(t, ed.MoveCaret(Caret{Line: ids[1], Offset: 2}))
	assert.False(t, ed.Menu().IsOpen())
}

func TestEnterSplitsLine(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		text      string
		offset    int
		wantKinds []Kind
		wantTexts []string
	}{
		{name: "paragraph middle", kind: KindParagraph, text: "hello world", offset: 5,
			wantKinds: []Kind{KindParagraph, KindParagraph}, wantTexts: []string{"hello", " world"}},
		{name: "list continues", kind: KindBulleted, text: "item", offset: 4,
			wantKinds: []Kind{KindBulleted, KindBulleted}, wantTexts: []string{"item", ""}},
		{name: "heading ends", kind: KindHeading1, text: "Title", offset: 5,
			wantKinds: []Kind{KindHeading1, KindParagraph}, wantTexts: []string{"Title", ""}},
		{name: "empty list item leaves list", kind: KindTodo, text: "", offset: 0,
			wantKinds: []Kind{KindParagraph}, wantTexts: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _, _ := newTestEditor(t)
			ids := seedLines(ed, tt.kind, tt.text)

			assert.True(t, ed.Key(KeyEvent{Key: KeyEnter, Line: ids[0], Offset: tt.offset}))

			var kinds []Kind
			var texts []string
			for _, l := range ed.Surface().Lines() {
				kinds = append(kinds, l.Kind)
				texts = append(texts, l.Text)
			}
			assert.Equal(t, tt.wantKinds, kinds)
			assert.Equal(t, tt.wantTexts, texts)
		})
	}
}

func TestShiftEnterAndCodeAreLeftToClient(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ids := seedLines(ed, KindCode, "x := 1")
	assert.False(t, ed.Key(KeyEvent{Key: KeyEnter, Line: ids[0], Offset: 6}))

	ids = seedLines(ed, KindParagraph, "text")
	assert.False(t, ed.Key(KeyEvent{Key: KeyEnter, Shift: true, Line: ids[0], Offset: 2}))
	assert.Equal(t, 1, ed.Surface().Len())
}

func TestBackspaceMergesLines(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ids := seedLines(ed, KindParagraph, "foo", "bar")

	assert.True(t, ed.Key(KeyEvent{Key: KeyBackspace, Line: ids[1], Offset: 0}))
	require.Equal(t, 1, ed.Surface().Len())
	assert.Equal(t, "foobar", ed.Surface().At(0).Text)
	assert.Equal(t, Caret{Line: ids[0], Offset: 3}, ed.Surface().Caret())

	assert.False(t, ed.Key(KeyEvent{Key: KeyBackspace, Line: ids[0], Offset: 0}), "nothing above")
}

func TestBackspaceRemovesDividerAbove(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	divider := NewLine(KindDivider, "")
	para := NewLine(KindParagraph, "after")
	ed.Mutator().Reset([]*Line{divider, para})

	assert.True(t, ed.Key(KeyEvent{Key: KeyBackspace, Line: para.ID, Offset: 0}))
	require.Equal(t, 1, ed.Surface().Len())
	assert.Equal(t, para.ID, ed.Surface().At(0).ID)
}

func TestBackspaceKeepsNonTextLines(t *testing.T) {
	tests := []struct {
		name string
		line func() *Line
	}{
		{name: "accepted answer", line: func() *Line {
			l := NewLine(KindRich, "")
			l.HTML = "<p>Accepted AI answer with many words</p>"
			return l
		}},
		{name: "table", line: func() *Line {
			l := NewLine(KindTable, "")
			l.Cells[0][0] = "precious"
			return l
		}},
		{name: "failed exchange", line: func() *Line {
			l := NewLine(KindAIError, "")
			l.Exchange = &Exchange{ID: "x", PromptText: "p", Status: ExchangeFailed, Err: "boom"}
			return l
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _, _ := newTestEditor(t)
			intro := NewLine(KindParagraph, "intro")
			block := tt.line()
			ed.Mutator().Reset([]*Line{intro, block})
			before := ed.Value()

			assert.False(t, ed.Key(KeyEvent{Key: KeyBackspace, Line: block.ID, Offset: 0}))
			require.Equal(t, 2, ed.Surface().Len())
			assert.Equal(t, block.ID, ed.Surface().At(1).ID)
			assert.Equal(t, before, ed.Value())
		})
	}
}

func TestInputRejectsUnknownAndNonEditable(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	assert.ErrorIs(t, ed.Input("missing", "x", 1), ErrLineNotFound)

	divider := NewLine(KindDivider, "")
	ed.Mutator().Reset([]*Line{divider})
	assert.ErrorIs(t, ed.Input(divider.ID, "x", 1), ErrNotEditable)
}

func TestTableAndTodoEditing(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	table := NewLine(KindTable, "")
	todo := NewLine(KindTodo, "ship it")
	ed.Mutator().Reset([]*Line{table, todo})

	require.NoError(t, ed.SetCell(table.ID, 1, 1, "x"))
	assert.Equal(t, "x", ed.Surface().At(0).Cells[1][1])
	assert.ErrorIs(t, ed.SetCell(table.ID, 5, 0, "y"), ErrLineNotFound)

	require.NoError(t, ed.ToggleChecked(todo.ID))
	assert.True(t, ed.Surface().At(1).Checked)
	assert.ErrorIs(t, ed.ToggleChecked(table.ID), ErrLineNotFound)
}

func TestFloatingTrigger(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ids := seedLines(ed, KindParagraph, "first", "second")
	ed.SetLayout([]LineBox{
		{Line: ids[0], Box: Box{Top: 0, Left: 10, Height: 20}},
		{Line: ids[1], Box: Box{Top: 20, Left: 10, Height: 20}},
	})

	assert.False(t, ed.View().Trigger.Visible)

	ed.PointerMove(25)
	v := ed.View().Trigger
	assert.True(t, v.Visible)
	assert.Equal(t, ids[1], v.Line)
	assert.Equal(t, 30.0, v.Top)
	assert.Equal(t, GlyphPlus, v.Glyph)

	ed.PointerLeave()
	assert.False(t, ed.View().Trigger.Visible)

	ed.ButtonHover(true)
	assert.True(t, ed.View().Trigger.Visible, "visible while hovered")

	require.NoError(t, ed.TriggerClick())
	assert.True(t, ed.Menu().IsOpen())
	assert.Equal(t, OpenerPlus, ed.Menu().OpenedBy())
	assert.Equal(t, ids[1], ed.Menu().Target())
	assert.Equal(t, Position{X: 10, Y: 40}, ed.Menu().Position())
	assert.Equal(t, Caret{Line: ids[1], Offset: 6}, ed.Surface().Caret())

	ed.ButtonHover(false)
	ed.PointerMove(5)
	v = ed.View().Trigger
	assert.Equal(t, ids[1], v.Line, "pinned while the menu is open")
	assert.True(t, v.Visible)

	// typing never closes a menu opened by the button
	require.NoError(t, ed.Input(ids[1], "second x", 8))
	assert.True(t, ed.Menu().IsOpen())
}

func TestFloatingTriggerDuringAIPrompt(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ids := seedLines(ed, KindParagraph, "first", "")
	ed.SetLayout([]LineBox{
		{Line: ids[0], Box: Box{Top: 0, Height: 20}},
		{Line: ids[1], Box: Box{Top: 20, Height: 20}},
	})
	ed.StartAIPrompt(ids[1], "")
	ed.PointerMove(5)
	ed.PointerLeave()

	v := ed.View().Trigger
	assert.True(t, v.Visible)
	assert.Equal(t, ids[1], v.Line)
	assert.Equal(t, GlyphSparkle, v.Glyph)

	require.NoError(t, ed.TriggerClick())
	assert.False(t, ed.Menu().IsOpen(), "click is a no-op while authoring")
}

func TestSuggestionsAreDebounced(t *testing.T) {
	sugg := &fakeSuggester{items: []Suggestion{{Title: "Summarize", Description: "Condense it", Type: "summary"}}}
	ed, loop, _ := newTestEditor(t, WithSuggester(sugg))
	id := firstLine(ed)

	require.NoError(t, ed.Input(id, "h", 1))
	loop.Advance(400 * time.Millisecond)
	require.NoError(t, ed.Input(id, "he", 2))
	loop.Advance(400 * time.Millisecond)
	assert.Empty(t, sugg.texts)

	loop.Advance(100 * time.Millisecond)
	require.Equal(t, []string{"he"}, sugg.texts)
	assert.Empty(t, ed.Suggestions(), "result applies on the loop")

	loop.Flush()
	assert.Equal(t, sugg.items, ed.Suggestions())
	assert.Equal(t, sugg.items, ed.View().Suggestions)
}

func TestStaleSuggestionsAreDropped(t *testing.T) {
	sugg := &fakeSuggester{items: []Suggestion{{Title: "Old"}}}
	ed, loop, _ := newTestEditor(t, WithSuggester(sugg))
	id := firstLine(ed)

	require.NoError(t, ed.Input(id, "one", 3))
	loop.Advance(SuggestDebounce)
	require.NoError(t, ed.Input(id, "one two", 7))
	loop.Flush()
	assert.Empty(t, ed.Suggestions())
}

func TestCloseStopsEverything(t *testing.T) {
	sugg := &fakeSuggester{}
	ed, loop, gw := newTestEditor(t, WithSuggester(sugg))
	id := firstLine(ed)
	ed.StartAIPrompt(id, "")
	require.NoError(t, ed.Input(id, "draft", 5))
	ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 5})

	ed.Close()
	loop.Flush()
	loop.Advance(time.Minute)

	assert.True(t, ed.Closed())
	assert.Empty(t, sugg.texts)
	assert.Len(t, gw.Calls(), 1)
	assert.Equal(t, KindAIPending, ed.Surface().At(0).Kind, "late response is ignored")
	assert.ErrorIs(t, ed.Input(id, "x", 1), ErrClosed)
	assert.False(t, ed.Key(KeyEvent{Key: KeyEnter, Line: id}))
}
