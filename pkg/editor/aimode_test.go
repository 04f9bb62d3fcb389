package editor

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startPrompt puts the editor into AI authoring on a single empty Line holding text.
func startPrompt(t *testing.T, ed *Editor, text string) LineID {
	t.Helper()
	id := firstLine(ed)
	ed.StartAIPrompt(id, "")
	require.Equal(t, AIActive, ed.AIMode())
	if text != "" {
		require.NoError(t, ed.Input(id, text, len([]rune(text))))
	}
	return id
}

func TestStartAIPromptTargets(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ids := seedLines(ed, KindParagraph, "filled", "")

	ed.StartAIPrompt(ids[1], "")
	assert.Equal(t, ids[1], ed.AILine(), "empty line is used in place")
	assert.Equal(t, PlaceholderAI, ed.Surface().Line(ids[1]).Placeholder)

	ed.StartAIPrompt(ids[0], "")
	require.Equal(t, 3, ed.Surface().Len())
	subject := ed.Surface().At(1)
	assert.Equal(t, subject.ID, ed.AILine(), "non-empty line gets a new line after it")
	assert.False(t, ed.Surface().Line(ids[1]).AIPrompt)
	assert.Len(t, ed.Surface().flagged(), 1)
}

func TestSubmitPrompt(t *testing.T) {
	obs := &recordingObserver{}
	ed, loop, gw := newTestEditor(t, WithObserver(obs))
	id := startPrompt(t, ed, "Summarize this page")
	assert.Equal(t, AITyping, ed.AIMode())

	assert.True(t, ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 19}))

	line := ed.Surface().Line(id)
	require.NotNil(t, line)
	assert.Equal(t, KindAIPending, line.Kind)
	assert.Empty(t, line.Text)
	assert.False(t, line.AIPrompt)
	assert.Equal(t, AIInactive, ed.AIMode())

	calls := gw.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "Prompt: Summarize this page")

	require.NotNil(t, line.Exchange)
	assert.Equal(t, ExchangePending, line.Exchange.Status)
	assert.Empty(t, obs.resolved)

	loop.Flush()
	assert.Equal(t, KindAIResponse, line.Kind)
	assert.Equal(t, ExchangeSucceeded, line.Exchange.Status)
	require.Len(t, obs.resolved, 1)
	assert.Equal(t, "Summarize this page", obs.resolved[0].PromptText)

	loop.Advance(TypingSettle * 2)
	assert.Equal(t, AIInactive, ed.AIMode(), "a cancelled settle never revives authoring")
}

func TestShiftEnterInPromptIsLeftToClient(t *testing.T) {
	ed, _, gw := newTestEditor(t)
	id := startPrompt(t, ed, "draft")
	assert.False(t, ed.Key(KeyEvent{Key: KeyEnter, Shift: true, Line: id, Offset: 5}))
	assert.Empty(t, gw.Calls())
}

func TestBlankPromptIsNoOp(t *testing.T) {
	ed, _, gw := newTestEditor(t)
	id := startPrompt(t, ed, "   ")

	assert.True(t, ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 3}))
	assert.Empty(t, gw.Calls())
	assert.NotEqual(t, AIInactive, ed.AIMode())
	assert.True(t, ed.Surface().Line(id).AIPrompt)
}

func TestPromptContext(t *testing.T) {
	ed, _, gw := newTestEditor(t)
	ids := seedLines(ed, KindParagraph,
		"a", "", "b", "c", "  d  ", "", "e", "f", "g", "h")
	subject := ids[5]
	ed.StartAIPrompt(subject, "")
	require.Equal(t, subject, ed.AILine())
	require.NoError(t, ed.Input(subject, "go", 2))

	ed.Key(KeyEvent{Key: KeyEnter, Line: subject, Offset: 2})

	calls := gw.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Context above:\nb\nc\nd\n\nContext below:\ne\nf\ng\n\nPrompt: go", calls[0])

	x := ed.Surface().Line(subject).Exchange
	require.NotNil(t, x)
	assert.Equal(t, []string{"b", "c", "d"}, x.ContextAbove)
	assert.Equal(t, []string{"e", "f", "g"}, x.ContextBelow)
}

func TestComposeContextBounds(t *testing.T) {
	tests := []struct {
		name      string
		texts     []string
		subject   int
		wantAbove []string
		wantBelow []string
	}{
		{name: "alone", texts: []string{"x"}, subject: 0},
		{name: "top", texts: []string{"x", "1", "2"}, subject: 0, wantBelow: []string{"1", "2"}},
		{name: "bottom", texts: []string{"1", " ", "2", "x"}, subject: 3, wantAbove: []string{"1", "2"}},
		{name: "skips blanks", texts: []string{"1", "2", "3", "4", "", "", "x", "", "5"}, subject: 6,
			wantAbove: []string{"2", "3", "4"}, wantBelow: []string{"5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _, _ := newTestEditor(t)
			ids := seedLines(ed, KindParagraph, tt.texts...)
			above, below := composeContext(ed.Surface(), ids[tt.subject])
			assert.Equal(t, tt.wantAbove, above)
			assert.Equal(t, tt.wantBelow, below)
			for _, text := range append(above, below...) {
				assert.NotEqual(t, "x", text, "subject is never context")
			}
		})
	}
}

func TestTypingSettles(t *testing.T) {
	ed, loop, _ := newTestEditor(t)
	id := startPrompt(t, ed, "abc")
	assert.Equal(t, AITyping, ed.AIMode())

	loop.Advance(TypingSettle - time.Millisecond)
	require.NoError(t, ed.Input(id, "abcd", 4))
	loop.Advance(TypingSettle - time.Millisecond)
	assert.Equal(t, AITyping, ed.AIMode(), "each keystroke re-arms the settle timer")

	loop.Advance(time.Millisecond)
	assert.Equal(t, AIActive, ed.AIMode())

	require.NoError(t, ed.Input(id, "", 0))
	loop.Advance(TypingSettle)
	assert.Equal(t, AIInactive, ed.AIMode(), "settling on an empty line exits")
	assert.False(t, ed.Surface().Line(id).AIPrompt)
}

func TestExitIsDeferredWhileTyping(t *testing.T) {
	ed, loop, _ := newTestEditor(t)
	id := startPrompt(t, ed, "abc")

	// a restructure drops the flag mid-typing
	ed.Mutator().SetAIPrompt(id, false)
	assert.Equal(t, AITyping, ed.AIMode())
	assert.Equal(t, id, ed.AILine())

	loop.Advance(TypingSettle)
	assert.Equal(t, AIInactive, ed.AIMode())
	assert.Empty(t, ed.Surface().flagged())
}

func TestDeferredExitRecoversFlag(t *testing.T) {
	ed, loop, _ := newTestEditor(t)
	id := startPrompt(t, ed, "abc")

	ed.Mutator().SetAIPrompt(id, false)
	ed.Mutator().SetAIPrompt(id, true)

	loop.Advance(TypingSettle)
	assert.Equal(t, AIActive, ed.AIMode(), "the flag came back before the settle")
	assert.Equal(t, id, ed.AILine())
}

func TestResyncAdoptsFlaggedLine(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ids := seedLines(ed, KindParagraph, "one", "two")

	ed.Mutator().SetAIPrompt(ids[1], true)
	assert.Equal(t, AIActive, ed.AIMode())
	assert.Equal(t, ids[1], ed.AILine())

	ed.Mutator().SetAIPrompt(ids[0], true)
	assert.Equal(t, ids[0], ed.AILine(), "follows the flag to its new line")

	ed.Mutator().Remove(ids[0])
	assert.Equal(t, AIInactive, ed.AIMode(), "flag genuinely gone")
}

func TestBackspaceExitsAIPrompt(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
	}{
		{name: "caret at start", text: "keep this content", offset: 0},
		{name: "empty line", text: "", offset: 0},
		{name: "single rune", text: "a", offset: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _, _ := newTestEditor(t)
			id := startPrompt(t, ed, tt.text)

			assert.True(t, ed.Key(KeyEvent{Key: KeyBackspace, Line: id, Offset: tt.offset}))
			assert.Equal(t, AIInactive, ed.AIMode())
			line := ed.Surface().Line(id)
			require.NotNil(t, line)
			assert.True(t, line.IsEmpty())
			assert.False(t, line.AIPrompt)
			assert.Equal(t, Caret{Line: id}, ed.Surface().Caret())
		})
	}
}

func TestDoubleBackspace(t *testing.T) {
	ed, loop, _ := newTestEditor(t)
	id := startPrompt(t, ed, "hello")

	assert.False(t, ed.Key(KeyEvent{Key: KeyBackspace, Line: id, Offset: 5}))
	require.NoError(t, ed.Input(id, "hell", 4))
	loop.Advance(DoubleBackspaceWindow + time.Millisecond)

	assert.False(t, ed.Key(KeyEvent{Key: KeyBackspace, Line: id, Offset: 4}), "window expired")
	require.NoError(t, ed.Input(id, "hel", 3))
	loop.Advance(DoubleBackspaceWindow / 2)

	assert.True(t, ed.Key(KeyEvent{Key: KeyBackspace, Line: id, Offset: 3}))
	assert.Equal(t, AIInactive, ed.AIMode())
	assert.True(t, ed.Surface().Line(id).IsEmpty())
}

func TestAcceptResponse(t *testing.T) {
	ed, loop, _ := newTestEditor(t)
	id := startPrompt(t, ed, "write")
	ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 5})
	loop.Flush()
	before := ed.Surface().Len()

	require.NoError(t, ed.Accept(id))

	require.Equal(t, before+1, ed.Surface().Len())
	kept := ed.Surface().Line(id)
	assert.Equal(t, KindRich, kept.Kind)
	assert.Equal(t, "<p>Generated answer here</p>", kept.HTML)
	assert.Nil(t, kept.Exchange)

	next := ed.Surface().At(ed.Surface().IndexOf(id) + 1)
	assert.True(t, next.IsEmpty())
	assert.Equal(t, next.ID, ed.Surface().Caret().Line)
	assert.Equal(t, PlaceholderFocused, next.Placeholder)

	assert.ErrorIs(t, ed.Accept(id), ErrNoExchange)
}

func TestDismissResponse(t *testing.T) {
	ed, loop, _ := newTestEditor(t)
	ids := seedLines(ed, KindParagraph, "above", "")
	ed.StartAIPrompt(ids[1], "")
	require.NoError(t, ed.Input(ids[1], "write", 5))
	ed.Key(KeyEvent{Key: KeyEnter, Line: ids[1], Offset: 5})
	loop.Flush()

	require.NoError(t, ed.Dismiss(ids[1]))

	require.Equal(t, 2, ed.Surface().Len())
	assert.Nil(t, ed.Surface().Line(ids[1]))
	fresh := ed.Surface().At(1)
	assert.Equal(t, KindParagraph, fresh.Kind)
	assert.True(t, fresh.IsEmpty())
	assert.Nil(t, fresh.Exchange)
	assert.Equal(t, fresh.ID, ed.Surface().Caret().Line)
	assert.Equal(t, AIInactive, ed.AIMode())

	assert.ErrorIs(t, ed.Dismiss(ids[1]), ErrLineNotFound)
}

func TestFailedExchangeAndTryAgain(t *testing.T) {
	obs := &recordingObserver{}
	ed, loop, gw := newTestEditor(t, WithObserver(obs))
	gw.err = errGatewayDown
	id := startPrompt(t, ed, "explain")
	ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 7})
	loop.Flush()

	line := ed.Surface().Line(id)
	assert.Equal(t, KindAIError, line.Kind)
	assert.Equal(t, ExchangeFailed, line.Exchange.Status)
	assert.Equal(t, errGatewayDown.Error(), line.Exchange.Err)
	require.Len(t, obs.resolved, 1)
	assert.Equal(t, ExchangeFailed, obs.resolved[0].Status)

	v := ed.View()
	require.NotNil(t, v.Lines[0].Exchange)
	assert.Equal(t, []string{ControlTryAgain, ControlDismiss}, v.Lines[0].Exchange.Controls)
	assert.ErrorIs(t, ed.Accept(id), ErrNoExchange)

	require.NoError(t, ed.TryAgain(id))
	assert.Equal(t, AIActive, ed.AIMode())
	assert.Equal(t, id, ed.AILine())
	assert.Equal(t, KindParagraph, line.Kind)
	assert.Equal(t, "explain", line.Text)
	assert.True(t, line.AIPrompt)
	assert.Nil(t, line.Exchange)

	gw.err = nil
	ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 7})
	loop.Flush()
	assert.Len(t, gw.Calls(), 2)
	assert.Equal(t, KindAIResponse, line.Kind)
}

func TestEmptyResponseIsFailure(t *testing.T) {
	ed, loop, gw := newTestEditor(t)
	gw.reply = "  "
	id := startPrompt(t, ed, "anything")
	ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 8})
	loop.Flush()

	line := ed.Surface().Line(id)
	assert.Equal(t, KindAIError, line.Kind)
	assert.Equal(t, ErrEmptyResponse.Error(), line.Exchange.Err)
}

func TestResponseForRemovedLineIsDropped(t *testing.T) {
	obs := &recordingObserver{}
	ed, loop, _ := newTestEditor(t, WithObserver(obs))
	ids := seedLines(ed, KindParagraph, "keep", "")
	ed.StartAIPrompt(ids[1], "")
	require.NoError(t, ed.Input(ids[1], "go", 2))
	ed.Key(KeyEvent{Key: KeyEnter, Line: ids[1], Offset: 2})

	ed.Mutator().Remove(ids[1])
	loop.Flush()

	require.Equal(t, 1, ed.Surface().Len())
	assert.Equal(t, "keep", ed.Surface().At(0).Text)
	assert.Empty(t, obs.resolved)
}

func TestResponseRevealsWordByWord(t *testing.T) {
	ed, loop, gw := newTestEditor(t)
	gw.reply = "<p>one <b>two</b> three</p>"
	id := startPrompt(t, ed, "go")
	ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 2})
	loop.Flush()

	lineHTML := func() string { return ed.View().Lines[0].HTML }
	assert.Equal(t, "", lineHTML())
	assert.True(t, ed.View().Lines[0].Exchange.Revealing)

	loop.Advance(RevealInterval)
	assert.Equal(t, "<p>one </p>", lineHTML())
	loop.Advance(RevealInterval)
	assert.Equal(t, "<p>one <b>two</b></p>", lineHTML())
	loop.Advance(RevealInterval)
	assert.Equal(t, gw.reply, lineHTML())

	ex := ed.View().Lines[0].Exchange
	assert.False(t, ex.Revealing)
	assert.Equal(t, []string{ControlAccept, ControlDismiss}, ex.Controls)
}

func TestAcceptDuringRevealShowsEverything(t *testing.T) {
	ed, loop, gw := newTestEditor(t)
	gw.reply = "<p>a b c d e f</p>"
	id := startPrompt(t, ed, "go")
	ed.Key(KeyEvent{Key: KeyEnter, Line: id, Offset: 2})
	loop.Flush()
	loop.Advance(RevealInterval)

	require.NoError(t, ed.Accept(id))
	assert.Equal(t, gw.reply, ed.View().Lines[0].HTML)
	loop.Advance(time.Second)
	assert.Equal(t, gw.reply, ed.Surface().Line(id).HTML)
}

// checkAIInvariant asserts that authoring is active exactly when one Line
// carries the AI flag. While typing, an exit may be pending until the settle.
func checkAIInvariant(t *testing.T, ed *Editor, step string) {
	t.Helper()
	flagged := ed.Surface().flagged()
	require.LessOrEqual(t, len(flagged), 1, step)
	if ed.AIMode() == AITyping {
		return
	}
	require.Equal(t, ed.AIMode() != AIInactive, len(flagged) == 1, "%s: mode=%s flagged=%d", step, ed.AIMode(), len(flagged))
	if len(flagged) == 1 {
		require.Equal(t, flagged[0].ID, ed.AILine(), step)
	}
}

func TestAIAuthoringInterleavings(t *testing.T) {
	for seed := int64(1); seed <= 60; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			ed, loop, gw := newTestEditor(t)
			seedLines(ed, KindParagraph, "alpha", "", "beta", "gamma")

			randomLine := func() *Line {
				return ed.Surface().At(rng.Intn(ed.Surface().Len()))
			}
			aiLine := func() *Line {
				return ed.Surface().Line(ed.AILine())
			}

			for step := 0; step < 80; step++ {
				var desc string
				switch op := rng.Intn(10); op {
				case 0:
					l := randomLine()
					desc = "start prompt"
					ed.StartAIPrompt(l.ID, "")
				case 1, 2:
					if l := aiLine(); l != nil && l.Kind.Editable() {
						text := l.Text + string(rune('a'+rng.Intn(26)))
						desc = "type " + text
						_ = ed.Input(l.ID, text, len([]rune(text)))
					}
				case 3:
					if l := aiLine(); l != nil && l.Text != "" {
						r := []rune(l.Text)
						desc = "delete char"
						_ = ed.Input(l.ID, string(r[:len(r)-1]), len(r)-1)
					}
				case 4:
					if l := aiLine(); l != nil {
						off := rng.Intn(runeLen(l.Text) + 1)
						desc = fmt.Sprintf("backspace at %d", off)
						ed.Key(KeyEvent{Key: KeyBackspace, Line: l.ID, Offset: off})
					}
				case 5:
					d := time.Duration(rng.Intn(1000)) * time.Millisecond
					desc = fmt.Sprintf("wait %s", d)
					loop.Advance(d)
				case 6:
					if l := aiLine(); l != nil {
						desc = "submit"
						gw.err = nil
						if rng.Intn(3) == 0 {
							gw.err = errGatewayDown
						}
						ed.Key(KeyEvent{Key: KeyEnter, Line: l.ID, Offset: runeLen(l.Text)})
						loop.Flush()
					}
				case 7:
					var resolved *Line
					for _, l := range ed.Surface().Lines() {
						if l.Exchange != nil && l.Exchange.Status != ExchangePending {
							resolved = l
							break
						}
					}
					if resolved == nil {
						break
					}
					switch rng.Intn(3) {
					case 0:
						desc = "accept"
						_ = ed.Accept(resolved.ID)
					case 1:
						desc = "dismiss"
						_ = ed.Dismiss(resolved.ID)
					default:
						desc = "try again"
						_ = ed.TryAgain(resolved.ID)
					}
				case 8:
					l := randomLine()
					on := rng.Intn(2) == 0
					desc = fmt.Sprintf("external flag %v", on)
					ed.Mutator().SetAIPrompt(l.ID, on)
				default:
					l := randomLine()
					if l.Kind.Editable() && !l.AIPrompt {
						desc = "type elsewhere"
						_ = ed.Input(l.ID, l.Text+"z", runeLen(l.Text)+1)
					}
				}
				checkAIInvariant(t, ed, fmt.Sprintf("step %d (%s)", step, desc))
			}

			loop.Advance(TypingSettle)
			loop.Flush()
			assert.NotEqual(t, AITyping, ed.AIMode(), "typing always settles")
			checkAIInvariant(t, ed, "settled")
			assert.GreaterOrEqual(t, ed.Surface().Len(), 1)
			assert.False(t, strings.Contains(ed.Value(), "data-ai-prompt") && ed.AIMode() == AIInactive)
		})
	}
}
